package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/droplabs/drop-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var productColumns = []string{
	"id", "name", "description", "price", "image_url",
	"category", "stock", "status", "created_at", "updated_at",
}

type productRepo struct {
	querier
}

func NewProductRepo(db *sqlx.DB) *productRepo {
	return &productRepo{newQuerier(db)}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (entities.Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": id}).
		MustSql()

	var product Product
	err := r.getContext(ctx, &product, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Product{}, entities.ErrProductNotFound
	}
	if err != nil {
		return entities.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return ProductToEntity(product), nil
}

func (r *productRepo) ListActive(ctx context.Context) ([]entities.Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"status": entities.ProductActive}).
		OrderBy("id").
		MustSql()

	return r.list(ctx, query, args)
}

func (r *productRepo) ListByCategory(ctx context.Context, category string) ([]entities.Product, error) {
	query, args := r.qb.Select(productColumns...).
		From("products").
		Where(sq.Eq{"status": entities.ProductActive, "category": category}).
		OrderBy("id").
		MustSql()

	return r.list(ctx, query, args)
}

// DecrementStock applies the conditional decrement; zero rows affected
// means the remaining stock no longer covers qty.
func (r *productRepo) DecrementStock(ctx context.Context, id int64, qty int) error {
	query, args := r.qb.Update("products").
		Set("stock", sq.Expr("stock - ?", qty)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Where(sq.GtOrEq{"stock": qty}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrInsufficientStock
	}
	return nil
}

func (r *productRepo) list(ctx context.Context, query string, args []any) ([]entities.Product, error) {
	var rows []Product
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}

	products := make([]entities.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, ProductToEntity(row))
	}
	return products, nil
}
