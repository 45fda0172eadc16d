package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/droplabs/drop-service/internal/entities"
	"github.com/droplabs/drop-service/pkg/trm"
	"github.com/droplabs/drop-service/pkg/utils"
)

type OrderRepo interface {
	Insert(ctx context.Context, o entities.Order) (entities.Order, error)
	InsertItems(ctx context.Context, orderID int64, items []entities.OrderItem) error
	GetByID(ctx context.Context, id int64) (entities.Order, error)
	ListByUser(ctx context.Context, userID int64, limit, offset uint64) ([]entities.Order, int, error)
	GetItems(ctx context.Context, orderID int64) ([]entities.OrderItem, error)
	UpdateStatus(ctx context.Context, id int64, status entities.OrderStatus, at time.Time) error
}

type ShipmentRepo interface {
	Upsert(ctx context.Context, s entities.Shipment) (entities.Shipment, error)
	GetByOrder(ctx context.Context, orderID int64) (entities.Shipment, error)
	UpdateStatus(ctx context.Context, orderID int64, status entities.ShipmentStatus, at time.Time, trackingNumber, shippingCompany string) error
}

type StockRepo interface {
	GetByID(ctx context.Context, id int64) (entities.Product, error)
	DecrementStock(ctx context.Context, id int64, qty int) error
}

// AllocationTaker covers the limited-drop bookkeeping of order creation:
// find the running drop and take units of its allocation atomically.
type AllocationTaker interface {
	GetCurrent(ctx context.Context, now time.Time) (entities.Drop, error)
	GetAllocation(ctx context.Context, dropID, productID int64) (entities.DropProduct, error)
	IncrementSold(ctx context.Context, dropID, productID int64, qty int) error
}

type OrderItemInput struct {
	ProductID int64
	Quantity  int
}

type CreateOrderResult struct {
	OrderID     int64
	OrderNumber string
	TotalAmount int
	ItemCount   int
}

type OrderDetails struct {
	Order entities.Order
	Items []entities.OrderItem
}

type OrderPage struct {
	Orders []entities.Order
	Total  int
}

type ShipmentInput struct {
	RecipientName  string
	RecipientPhone string
	Address        string
	AddressDetail  string
	PostalCode     string
}

type orderService struct {
	logger    *slog.Logger
	txManager trm.Manager
	orders    OrderRepo
	shipments ShipmentRepo
	products  StockRepo
	drops     AllocationTaker
	now       func() time.Time
}

func NewOrderService(logger *slog.Logger, txManager trm.Manager, orders OrderRepo, shipments ShipmentRepo, products StockRepo, drops AllocationTaker) *orderService {
	return &orderService{
		logger:    logger.With(slog.String("service", "order")),
		txManager: txManager,
		orders:    orders,
		shipments: shipments,
		products:  products,
		drops:     drops,
		now:       time.Now,
	}
}

// Create validates every item, snapshots unit prices, and persists the
// order with its items as one transaction. Stock and the active drop's
// allocation are decremented by conditional updates inside the same
// transaction, so an oversell on any item rolls back the whole order.
func (s *orderService) Create(ctx context.Context, userID int64, items []OrderItemInput) (CreateOrderResult, error) {
	if len(items) == 0 {
		return CreateOrderResult{}, entities.ErrEmptyOrder
	}

	var result CreateOrderResult
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		now := s.now()

		currentDrop, err := s.drops.GetCurrent(ctx, now)
		hasDrop := err == nil
		if err != nil && !errors.Is(err, entities.ErrNoCurrentDrop) {
			return fmt.Errorf("failed to resolve current drop: %w", err)
		}

		var totalAmount int
		orderItems := make([]entities.OrderItem, 0, len(items))

		for _, item := range items {
			product, err := s.products.GetByID(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < item.Quantity {
				return fmt.Errorf("product %s: %w", product.Name, entities.ErrInsufficientStock)
			}

			if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("product %s: %w", product.Name, err)
			}

			if hasDrop {
				if err := s.takeAllocation(ctx, currentDrop.ID, item.ProductID, item.Quantity); err != nil {
					return fmt.Errorf("product %s: %w", product.Name, err)
				}
			}

			itemTotal := product.Price * item.Quantity
			totalAmount += itemTotal
			orderItems = append(orderItems, entities.OrderItem{
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  product.Price,
				TotalPrice: itemTotal,
			})
		}

		order, err := s.orders.Insert(ctx, entities.Order{
			UserID:      userID,
			OrderNumber: entities.NewOrderNumber(now),
			TotalAmount: totalAmount,
			Status:      entities.OrderPending,
		})
		if err != nil {
			return err
		}

		if err := s.orders.InsertItems(ctx, order.ID, orderItems); err != nil {
			return err
		}

		result = CreateOrderResult{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			TotalAmount: totalAmount,
			ItemCount:   len(orderItems),
		}
		return nil
	})
	if err != nil {
		return CreateOrderResult{}, err
	}

	s.logger.Info("order created",
		slog.Int64("order_id", result.OrderID),
		slog.String("order_number", result.OrderNumber),
		slog.Int("total_amount", result.TotalAmount),
	)
	return result, nil
}

// takeAllocation increments sold quantity for the product's allocation
// in the running drop. A product sold outside any allocation is not
// drop-limited and passes through.
func (s *orderService) takeAllocation(ctx context.Context, dropID, productID int64, qty int) error {
	_, err := s.drops.GetAllocation(ctx, dropID, productID)
	if errors.Is(err, entities.ErrAllocationNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.drops.IncrementSold(ctx, dropID, productID, qty)
}

func (s *orderService) GetByID(ctx context.Context, orderID int64, principal entities.Principal) (OrderDetails, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return OrderDetails{}, err
	}
	if !principal.CanAccessOrder(order) {
		return OrderDetails{}, entities.ErrForbidden
	}

	items, err := s.orders.GetItems(ctx, orderID)
	if err != nil {
		return OrderDetails{}, err
	}
	return OrderDetails{Order: order, Items: items}, nil
}

func (s *orderService) GetUserOrders(ctx context.Context, userID int64, page, limit uint64) (OrderPage, error) {
	offset := (page - 1) * limit
	orders, total, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Orders: orders, Total: total}, nil
}

// UpdateStatus is the single validated gate for order transitions.
func (s *orderService) UpdateStatus(ctx context.Context, orderID int64, status entities.OrderStatus) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !entities.CanTransitionOrder(order.Status, status) {
		return fmt.Errorf("cannot transition from %s to %s: %w", order.Status, status, entities.ErrInvalidTransition)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status, s.now()); err != nil {
		return err
	}

	s.logger.Info("order status updated",
		slog.Int64("order_id", orderID),
		slog.String("from", string(order.Status)),
		slog.String("to", string(status)),
	)
	return nil
}

func (s *orderService) Cancel(ctx context.Context, orderID int64, principal entities.Principal) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !principal.CanAccessOrder(order) {
		return entities.ErrForbidden
	}
	if order.Status != entities.OrderPending {
		return fmt.Errorf("order status is %s: %w", order.Status, entities.ErrCannotCancel)
	}

	return s.UpdateStatus(ctx, orderID, entities.OrderCancelled)
}

// ApplyPaymentResult maps a payment-provider callback onto the order
// state machine. Redelivered callbacks for an already-settled order are
// acknowledged as no-ops. Transient store failures are retried here so
// the consumer only dead-letters messages that keep failing.
func (s *orderService) ApplyPaymentResult(ctx context.Context, orderID int64, succeeded bool) error {
	target := entities.OrderFailed
	if succeeded {
		target = entities.OrderPaid
	}

	fn := func() error {
		order, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status == target {
			return nil
		}
		return s.UpdateStatus(ctx, orderID, target)
	}

	cfg := utils.RetryConfig{
		InitialDelay: 100 * time.Millisecond,
		MaxAttempts:  5,
		Multiplier:   2,
	}
	return utils.Retry(cfg, fn, entities.ErrOrderNotFound, entities.ErrInvalidTransition)
}

func (s *orderService) UpsertShipment(ctx context.Context, orderID int64, in ShipmentInput, principal entities.Principal) (entities.Shipment, error) {
	if in.RecipientName == "" || in.RecipientPhone == "" || in.Address == "" || in.PostalCode == "" {
		return entities.Shipment{}, entities.ErrIncompleteShipment
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return entities.Shipment{}, err
	}
	if !principal.CanAccessOrder(order) {
		return entities.Shipment{}, entities.ErrForbidden
	}

	return s.shipments.Upsert(ctx, entities.Shipment{
		OrderID:        orderID,
		RecipientName:  in.RecipientName,
		RecipientPhone: in.RecipientPhone,
		Address:        in.Address,
		AddressDetail:  in.AddressDetail,
		PostalCode:     in.PostalCode,
	})
}

func (s *orderService) GetShipment(ctx context.Context, orderID int64, principal entities.Principal) (entities.Shipment, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return entities.Shipment{}, err
	}
	if !principal.CanAccessOrder(order) {
		return entities.Shipment{}, entities.ErrForbidden
	}

	return s.shipments.GetByOrder(ctx, orderID)
}

// UpdateShipmentStatus drives the fulfillment sub-machine. Timestamps
// stay monotonic: shipped_at and delivered_at are stamped only on entry
// to their status.
func (s *orderService) UpdateShipmentStatus(ctx context.Context, orderID int64, status entities.ShipmentStatus, trackingNumber, shippingCompany string) error {
	shipment, err := s.shipments.GetByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if !entities.CanTransitionShipment(shipment.Status, status) {
		return fmt.Errorf("cannot transition from %s to %s: %w", shipment.Status, status, entities.ErrInvalidShipmentTransition)
	}

	return s.shipments.UpdateStatus(ctx, orderID, status, s.now(), trackingNumber, shippingCompany)
}
