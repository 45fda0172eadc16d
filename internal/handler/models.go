package handler

import (
	"time"

	"github.com/droplabs/drop-service/internal/entities"
	"github.com/droplabs/drop-service/internal/service"
)

// Drop представляет drop в ответах API
type Drop struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Status      string    `json:"status"`
	BannerURL   string    `json:"bannerUrl,omitempty"`
	IsPinned    bool      `json:"isPinned"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type DropList struct {
	Items []Drop `json:"items"`
	Total int    `json:"total"`
}

type CreateDropRequest struct {
	Name        string    `json:"name" validate:"required,max=100"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
}

type UpdateDropRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	Status      *string    `json:"status" validate:"omitempty,oneof=upcoming active ended"`
	BannerURL   *string    `json:"bannerUrl"`
	IsPinned    *bool      `json:"isPinned"`
}

type AddDropProductRequest struct {
	ProductID       int64 `json:"productId" validate:"required,gt=0"`
	LimitedQuantity int   `json:"limitedQuantity" validate:"required,gt=0"`
}

type ResizeDropProductRequest struct {
	LimitedQuantity int `json:"limitedQuantity" validate:"required,gt=0"`
}

// Allocation единица лимита товара внутри drop
type Allocation struct {
	DropID            int64 `json:"dropId"`
	ProductID         int64 `json:"productId"`
	LimitedQuantity   int   `json:"limitedQuantity"`
	SoldQuantity      int   `json:"soldQuantity"`
	RemainingQuantity int   `json:"remainingQuantity"`
}

// DropProduct объединяет поля товара и лимиты внутри drop
type DropProduct struct {
	Product

	LimitedQuantity   int `json:"limitedQuantity"`
	SoldQuantity      int `json:"soldQuantity"`
	RemainingQuantity int `json:"remainingQuantity"`
}

type Countdown struct {
	DropID      int64     `json:"dropId"`
	DropName    string    `json:"dropName"`
	EndTime     time.Time `json:"endTime"`
	RemainingMS int64     `json:"remainingMs"`
	Days        int       `json:"days"`
	Hours       int       `json:"hours"`
	Minutes     int       `json:"minutes"`
	Seconds     int       `json:"seconds"`
	IsEnded     bool      `json:"isEnded"`
}

type ProductSales struct {
	ProductID         int64   `json:"productId"`
	ProductName       string  `json:"productName"`
	LimitedQuantity   int     `json:"limitedQuantity"`
	SoldQuantity      int     `json:"soldQuantity"`
	RemainingQuantity int     `json:"remainingQuantity"`
	SoldPercentage    float64 `json:"soldPercentage"`
}

type DropStats struct {
	DropID         int64          `json:"dropId"`
	DropName       string         `json:"dropName"`
	TotalProducts  int            `json:"totalProducts"`
	Products       []ProductSales `json:"products"`
	TotalSold      int            `json:"totalSold"`
	TotalLimited   int            `json:"totalLimited"`
	SoldPercentage float64        `json:"soldPercentage"`
}

// Product представляет товар каталога
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int       `json:"price"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Category    string    `json:"category,omitempty"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=999"`
}

type CreateOrderResponse struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	TotalAmount int    `json:"totalAmount"`
	ItemCount   int    `json:"itemCount"`
}

// Order представляет заказ
type Order struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"userId"`
	OrderNumber string      `json:"orderNumber"`
	TotalAmount int         `json:"totalAmount"`
	Status      string      `json:"status"`
	OrderedAt   time.Time   `json:"orderedAt"`
	PaidAt      *time.Time  `json:"paidAt,omitempty"`
	CancelledAt *time.Time  `json:"cancelledAt,omitempty"`
	Items       []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unitPrice"`
	TotalPrice  int    `json:"totalPrice"`
}

type OrderList struct {
	Orders []Order `json:"orders"`
	Page   uint64  `json:"page"`
	Limit  uint64  `json:"limit"`
	Total  int     `json:"total"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid failed cancelled"`
}

type ShipmentRequest struct {
	RecipientName  string `json:"recipientName" validate:"required,max=100"`
	RecipientPhone string `json:"recipientPhone" validate:"required,max=20"`
	Address        string `json:"address" validate:"required,max=255"`
	AddressDetail  string `json:"addressDetail" validate:"max=255"`
	PostalCode     string `json:"postalCode" validate:"required,max=10"`
}

type UpdateShipmentStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=preparing shipped delivered returned"`
	TrackingNumber  string `json:"trackingNumber" validate:"max=50"`
	ShippingCompany string `json:"shippingCompany" validate:"max=50"`
}

type Shipment struct {
	ID              int64      `json:"id"`
	OrderID         int64      `json:"orderId"`
	RecipientName   string     `json:"recipientName"`
	RecipientPhone  string     `json:"recipientPhone"`
	Address         string     `json:"address"`
	AddressDetail   string     `json:"addressDetail,omitempty"`
	PostalCode      string     `json:"postalCode"`
	Status          string     `json:"status"`
	TrackingNumber  string     `json:"trackingNumber,omitempty"`
	ShippingCompany string     `json:"shippingCompany,omitempty"`
	ShippedAt       *time.Time `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
}

func DropEntityToJSON(d entities.Drop) Drop {
	return Drop{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Status:      string(d.Status),
		BannerURL:   d.BannerURL,
		IsPinned:    d.IsPinned,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func DropsEntityToJSON(drops []entities.Drop) []Drop {
	out := make([]Drop, 0, len(drops))
	for _, d := range drops {
		out = append(out, DropEntityToJSON(d))
	}
	return out
}

func AllocationEntityToJSON(a entities.DropProduct) Allocation {
	return Allocation{
		DropID:            a.DropID,
		ProductID:         a.ProductID,
		LimitedQuantity:   a.LimitedQuantity,
		SoldQuantity:      a.SoldQuantity,
		RemainingQuantity: a.Remaining(),
	}
}

func DropProductViewToJSON(v entities.DropProductView) DropProduct {
	return DropProduct{
		Product:           ProductEntityToJSON(v.Product),
		LimitedQuantity:   v.Allocation.LimitedQuantity,
		SoldQuantity:      v.Allocation.SoldQuantity,
		RemainingQuantity: v.Allocation.Remaining(),
	}
}

func CountdownEntityToJSON(c entities.Countdown) Countdown {
	return Countdown{
		DropID:      c.DropID,
		DropName:    c.DropName,
		EndTime:     c.EndTime,
		RemainingMS: c.RemainingMS,
		Days:        c.Days,
		Hours:       c.Hours,
		Minutes:     c.Minutes,
		Seconds:     c.Seconds,
		IsEnded:     c.IsEnded,
	}
}

func StatsEntityToJSON(s entities.DropStats) DropStats {
	products := make([]ProductSales, 0, len(s.Products))
	for _, p := range s.Products {
		products = append(products, ProductSales{
			ProductID:         p.ProductID,
			ProductName:       p.ProductName,
			LimitedQuantity:   p.LimitedQuantity,
			SoldQuantity:      p.SoldQuantity,
			RemainingQuantity: p.RemainingQuantity,
			SoldPercentage:    p.SoldPercentage,
		})
	}
	return DropStats{
		DropID:         s.DropID,
		DropName:       s.DropName,
		TotalProducts:  s.TotalProducts,
		Products:       products,
		TotalSold:      s.TotalSold,
		TotalLimited:   s.TotalLimited,
		SoldPercentage: s.SoldPercentage,
	}
}

func ProductEntityToJSON(p entities.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		Stock:       p.Stock,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func OrderEntityToJSON(o entities.Order) Order {
	return Order{
		ID:          o.ID,
		UserID:      o.UserID,
		OrderNumber: o.OrderNumber,
		TotalAmount: o.TotalAmount,
		Status:      string(o.Status),
		OrderedAt:   o.OrderedAt,
		PaidAt:      timeOrNil(o.PaidAt),
		CancelledAt: timeOrNil(o.CancelledAt),
	}
}

func OrderDetailsToJSON(d service.OrderDetails) Order {
	order := OrderEntityToJSON(d.Order)
	order.Items = make([]OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		order.Items = append(order.Items, OrderItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return order
}

func ShipmentEntityToJSON(s entities.Shipment) Shipment {
	return Shipment{
		ID:              s.ID,
		OrderID:         s.OrderID,
		RecipientName:   s.RecipientName,
		RecipientPhone:  s.RecipientPhone,
		Address:         s.Address,
		AddressDetail:   s.AddressDetail,
		PostalCode:      s.PostalCode,
		Status:          string(s.Status),
		TrackingNumber:  s.TrackingNumber,
		ShippingCompany: s.ShippingCompany,
		ShippedAt:       timeOrNil(s.ShippedAt),
		DeliveredAt:     timeOrNil(s.DeliveredAt),
	}
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
