package repo

import (
	"database/sql"
	"time"

	"github.com/droplabs/drop-service/internal/entities"
)

type Product struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	Price       int            `db:"price"`
	ImageURL    sql.NullString `db:"image_url"`
	Category    sql.NullString `db:"category"`
	Stock       int            `db:"stock"`
	Status      string         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type Drop struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Description sql.NullString `db:"description"`
	StartDate   time.Time      `db:"start_date"`
	EndDate     time.Time      `db:"end_date"`
	Status      string         `db:"status"`
	BannerURL   sql.NullString `db:"banner_url"`
	IsPinned    bool           `db:"is_pinned"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type DropProduct struct {
	DropID          int64     `db:"drop_id"`
	ProductID       int64     `db:"product_id"`
	LimitedQuantity int       `db:"limited_quantity"`
	SoldQuantity    int       `db:"sold_quantity"`
	CreatedAt       time.Time `db:"created_at"`
}

type Order struct {
	ID          int64        `db:"id"`
	UserID      int64        `db:"user_id"`
	OrderNumber string       `db:"order_number"`
	TotalAmount int          `db:"total_amount"`
	Status      string       `db:"status"`
	OrderedAt   time.Time    `db:"ordered_at"`
	PaidAt      sql.NullTime `db:"paid_at"`
	CancelledAt sql.NullTime `db:"cancelled_at"`
}

type OrderItem struct {
	ID          int64          `db:"id"`
	OrderID     int64          `db:"order_id"`
	ProductID   int64          `db:"product_id"`
	ProductName sql.NullString `db:"product_name"`
	Quantity    int            `db:"quantity"`
	UnitPrice   int            `db:"unit_price"`
	TotalPrice  int            `db:"total_price"`
}

type Shipment struct {
	ID              int64          `db:"id"`
	OrderID         int64          `db:"order_id"`
	RecipientName   string         `db:"recipient_name"`
	RecipientPhone  string         `db:"recipient_phone"`
	Address         string         `db:"address"`
	AddressDetail   sql.NullString `db:"address_detail"`
	PostalCode      string         `db:"postal_code"`
	Status          string         `db:"status"`
	TrackingNumber  sql.NullString `db:"tracking_number"`
	ShippingCompany sql.NullString `db:"shipping_company"`
	ShippedAt       sql.NullTime   `db:"shipped_at"`
	DeliveredAt     sql.NullTime   `db:"delivered_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func ProductToEntity(p Product) entities.Product {
	return entities.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: nullStringToString(p.Description),
		Price:       p.Price,
		ImageURL:    nullStringToString(p.ImageURL),
		Category:    nullStringToString(p.Category),
		Stock:       p.Stock,
		Status:      entities.ProductStatus(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func DropToEntity(d Drop) entities.Drop {
	return entities.Drop{
		ID:          d.ID,
		Name:        d.Name,
		Description: nullStringToString(d.Description),
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Status:      entities.DropStatus(d.Status),
		BannerURL:   nullStringToString(d.BannerURL),
		IsPinned:    d.IsPinned,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func DropProductToEntity(a DropProduct) entities.DropProduct {
	return entities.DropProduct{
		DropID:          a.DropID,
		ProductID:       a.ProductID,
		LimitedQuantity: a.LimitedQuantity,
		SoldQuantity:    a.SoldQuantity,
		CreatedAt:       a.CreatedAt,
	}
}

func OrderToEntity(o Order) entities.Order {
	return entities.Order{
		ID:          o.ID,
		UserID:      o.UserID,
		OrderNumber: o.OrderNumber,
		TotalAmount: o.TotalAmount,
		Status:      entities.OrderStatus(o.Status),
		OrderedAt:   o.OrderedAt,
		PaidAt:      nullTimeToTime(o.PaidAt),
		CancelledAt: nullTimeToTime(o.CancelledAt),
	}
}

func OrderItemToEntity(i OrderItem) entities.OrderItem {
	name := nullStringToString(i.ProductName)
	if name == "" {
		name = "Unknown Product"
	}
	return entities.OrderItem{
		ID:          i.ID,
		OrderID:     i.OrderID,
		ProductID:   i.ProductID,
		ProductName: name,
		Quantity:    i.Quantity,
		UnitPrice:   i.UnitPrice,
		TotalPrice:  i.TotalPrice,
	}
}

func ShipmentToEntity(s Shipment) entities.Shipment {
	return entities.Shipment{
		ID:              s.ID,
		OrderID:         s.OrderID,
		RecipientName:   s.RecipientName,
		RecipientPhone:  s.RecipientPhone,
		Address:         s.Address,
		AddressDetail:   nullStringToString(s.AddressDetail),
		PostalCode:      s.PostalCode,
		Status:          entities.ShipmentStatus(s.Status),
		TrackingNumber:  nullStringToString(s.TrackingNumber),
		ShippingCompany: nullStringToString(s.ShippingCompany),
		ShippedAt:       nullTimeToTime(s.ShippedAt),
		DeliveredAt:     nullTimeToTime(s.DeliveredAt),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringToString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func nullTimeToTime(nt sql.NullTime) time.Time {
	if nt.Valid {
		return nt.Time
	}
	return time.Time{}
}
