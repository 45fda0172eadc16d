package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/droplabs/drop-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var orderColumns = []string{
	"id", "user_id", "order_number", "total_amount",
	"status", "ordered_at", "paid_at", "cancelled_at",
}

type orderRepo struct {
	querier
}

func NewOrderRepo(db *sqlx.DB) *orderRepo {
	return &orderRepo{newQuerier(db)}
}

func (r *orderRepo) Insert(ctx context.Context, o entities.Order) (entities.Order, error) {
	query, args := r.qb.Insert("orders").
		Columns("user_id", "order_number", "total_amount", "status").
		Values(o.UserID, o.OrderNumber, o.TotalAmount, o.Status).
		Suffix("RETURNING " + columnList(orderColumns)).
		MustSql()

	var row Order
	if err := r.getContext(ctx, &row, query, args...); err != nil {
		return entities.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	return OrderToEntity(row), nil
}

func (r *orderRepo) InsertItems(ctx context.Context, orderID int64, items []entities.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	q := r.qb.Insert("order_items").
		Columns("order_id", "product_id", "quantity", "unit_price", "total_price")

	for _, it := range items {
		q = q.Values(orderID, it.ProductID, it.Quantity, it.UnitPrice, it.TotalPrice)
	}

	query, args := q.MustSql()
	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order items: %w", err)
	}
	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (entities.Order, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": id}).
		MustSql()

	var row Order
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Order{}, entities.ErrOrderNotFound
	}
	if err != nil {
		return entities.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	return OrderToEntity(row), nil
}

func (r *orderRepo) ListByUser(ctx context.Context, userID int64, limit, offset uint64) ([]entities.Order, int, error) {
	query, args := r.qb.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("ordered_at DESC").
		Limit(limit).
		Offset(offset).
		MustSql()

	var rows []Order
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select orders: %w", err)
	}

	query, args = r.qb.Select("count(*)").
		From("orders").
		Where(sq.Eq{"user_id": userID}).
		MustSql()

	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	orders := make([]entities.Order, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, OrderToEntity(row))
	}
	return orders, total, nil
}

func (r *orderRepo) GetItems(ctx context.Context, orderID int64) ([]entities.OrderItem, error) {
	query, args := r.qb.Select(
		"oi.id", "oi.order_id", "oi.product_id", "oi.quantity", "oi.unit_price", "oi.total_price",
		"p.name AS product_name",
	).
		From("order_items oi").
		LeftJoin("products p ON p.id = oi.product_id").
		Where(sq.Eq{"oi.order_id": orderID}).
		OrderBy("oi.id").
		MustSql()

	var rows []OrderItem
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select order items: %w", err)
	}

	items := make([]entities.OrderItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, OrderItemToEntity(row))
	}
	return items, nil
}

// UpdateStatus writes the new status and stamps paid_at/cancelled_at
// when the order enters the matching state.
func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status entities.OrderStatus, at time.Time) error {
	q := r.qb.Update("orders").Set("status", status)
	switch status {
	case entities.OrderPaid:
		q = q.Set("paid_at", at)
	case entities.OrderCancelled:
		q = q.Set("cancelled_at", at)
	}

	query, args := q.Where(sq.Eq{"id": id}).MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrOrderNotFound
	}
	return nil
}
