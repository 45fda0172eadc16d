package entities

import (
	"errors"
	"time"
)

type ProductStatus string

const (
	ProductActive       ProductStatus = "active"
	ProductInactive     ProductStatus = "inactive"
	ProductDiscontinued ProductStatus = "discontinued"
)

type Product struct {
	ID          int64
	Name        string
	Description string
	// Price in the smallest currency unit. Snapshotted into order items,
	// never recomputed for existing orders.
	Price     int
	ImageURL  string
	Category  string
	Stock     int
	Status    ProductStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)
