package entities

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderFailed    OrderStatus = "failed"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderFailed, OrderCancelled:
		return true
	}
	return false
}

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:   {OrderPaid: true, OrderFailed: true, OrderCancelled: true},
	OrderPaid:      {OrderCancelled: true},
	OrderFailed:    {OrderPending: true},
	OrderCancelled: {},
}

func CanTransitionOrder(from, to OrderStatus) bool {
	return orderTransitions[from][to]
}

type Order struct {
	ID          int64
	UserID      int64
	OrderNumber string
	// TotalAmount is computed once at creation from item snapshots.
	TotalAmount int
	Status      OrderStatus
	OrderedAt   time.Time
	PaidAt      time.Time
	CancelledAt time.Time
}

// OrderItem is created atomically with its order and immutable thereafter.
// UnitPrice snapshots the product price at order time.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   int
	TotalPrice  int
}

// NewOrderNumber builds a sortable-looking unique token: base36 timestamp
// prefix plus a random suffix. A unique constraint on the column backstops
// the (never observed) collision case.
func NewOrderNumber(now time.Time) string {
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", ts, suffix)
}

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrForbidden         = errors.New("no permission for this order")
	ErrCannotCancel      = errors.New("only pending orders can be cancelled")
	ErrInvalidTransition = errors.New("invalid order status transition")
)
