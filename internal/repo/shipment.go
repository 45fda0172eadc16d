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

var shipmentColumns = []string{
	"id", "order_id", "recipient_name", "recipient_phone", "address",
	"address_detail", "postal_code", "status", "tracking_number",
	"shipping_company", "shipped_at", "delivered_at", "created_at", "updated_at",
}

type shipmentRepo struct {
	querier
}

func NewShipmentRepo(db *sqlx.DB) *shipmentRepo {
	return &shipmentRepo{newQuerier(db)}
}

// Upsert inserts the shipment or, when one already exists for the order,
// overwrites only the contact/address fields. Status and tracking fields
// belong to the fulfillment flow and are left untouched by re-submits.
func (r *shipmentRepo) Upsert(ctx context.Context, s entities.Shipment) (entities.Shipment, error) {
	query, args := r.qb.Insert("shipments").
		Columns("order_id", "recipient_name", "recipient_phone", "address", "address_detail", "postal_code", "status").
		Values(s.OrderID, s.RecipientName, s.RecipientPhone, s.Address, nullString(s.AddressDetail), s.PostalCode, entities.ShipmentPending).
		Suffix(`ON CONFLICT (order_id) DO UPDATE SET
			recipient_name = EXCLUDED.recipient_name,
			recipient_phone = EXCLUDED.recipient_phone,
			address = EXCLUDED.address,
			address_detail = EXCLUDED.address_detail,
			postal_code = EXCLUDED.postal_code,
			updated_at = now()
		RETURNING ` + columnList(shipmentColumns)).
		MustSql()

	var row Shipment
	if err := r.getContext(ctx, &row, query, args...); err != nil {
		return entities.Shipment{}, fmt.Errorf("failed to upsert shipment: %w", err)
	}
	return ShipmentToEntity(row), nil
}

func (r *shipmentRepo) GetByOrder(ctx context.Context, orderID int64) (entities.Shipment, error) {
	query, args := r.qb.Select(shipmentColumns...).
		From("shipments").
		Where(sq.Eq{"order_id": orderID}).
		MustSql()

	var row Shipment
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Shipment{}, entities.ErrShipmentNotFound
	}
	if err != nil {
		return entities.Shipment{}, fmt.Errorf("failed to get shipment: %w", err)
	}
	return ShipmentToEntity(row), nil
}

// UpdateStatus advances the fulfillment state, stamping shipped_at and
// delivered_at exactly once, on entry to the matching status.
func (r *shipmentRepo) UpdateStatus(ctx context.Context, orderID int64, status entities.ShipmentStatus, at time.Time, trackingNumber, shippingCompany string) error {
	q := r.qb.Update("shipments").
		Set("status", status).
		Set("updated_at", sq.Expr("now()"))

	switch status {
	case entities.ShipmentShipped:
		q = q.Set("shipped_at", at)
		if trackingNumber != "" {
			q = q.Set("tracking_number", trackingNumber)
		}
		if shippingCompany != "" {
			q = q.Set("shipping_company", shippingCompany)
		}
	case entities.ShipmentDelivered:
		q = q.Set("delivered_at", at)
	}

	query, args := q.Where(sq.Eq{"order_id": orderID}).MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update shipment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrShipmentNotFound
	}
	return nil
}
