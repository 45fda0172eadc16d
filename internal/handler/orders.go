package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/droplabs/drop-service/internal/entities"
	"github.com/droplabs/drop-service/internal/middleware"
	"github.com/droplabs/drop-service/internal/service"
	"github.com/droplabs/drop-service/pkg/utils"
)

type OrderService interface {
	Create(ctx context.Context, userID int64, items []service.OrderItemInput) (service.CreateOrderResult, error)
	GetByID(ctx context.Context, orderID int64, principal entities.Principal) (service.OrderDetails, error)
	GetUserOrders(ctx context.Context, userID int64, page, limit uint64) (service.OrderPage, error)
	UpdateStatus(ctx context.Context, orderID int64, status entities.OrderStatus) error
	Cancel(ctx context.Context, orderID int64, principal entities.Principal) error
	UpsertShipment(ctx context.Context, orderID int64, in service.ShipmentInput, principal entities.Principal) (entities.Shipment, error)
	GetShipment(ctx context.Context, orderID int64, principal entities.Principal) (entities.Shipment, error)
	UpdateShipmentStatus(ctx context.Context, orderID int64, status entities.ShipmentStatus, trackingNumber, shippingCompany string) error
}

type orderHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	orders   OrderService
}

func NewOrderHandler(logger *slog.Logger, orders OrderService) *orderHandler {
	return &orderHandler{
		logger:   logger.With(slog.String("component", "order_handler")),
		validate: validator.New(),
		orders:   orders,
	}
}

func (h *orderHandler) Init(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", h.Create)
		r.Get("/", h.ListMine)
		r.Get("/{order_id}", h.GetByID)
		r.Post("/{order_id}/cancel", h.Cancel)
		r.Put("/{order_id}/shipment", h.UpsertShipment)
		r.Get("/{order_id}/shipment", h.GetShipment)
	})

	r.Route("/admin/orders", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Patch("/{order_id}/status", h.UpdateStatus)
		r.Patch("/{order_id}/shipment/status", h.UpdateShipmentStatus)
	})
}

func (h *orderHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		utils.WriteError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.OrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	result, err := h.orders.Create(r.Context(), principal.UserID, items)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	utils.WriteJSON(w, CreateOrderResponse{
		OrderID:     result.OrderID,
		OrderNumber: result.OrderNumber,
		TotalAmount: result.TotalAmount,
		ItemCount:   result.ItemCount,
	}, http.StatusCreated)
}

func (h *orderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		utils.WriteError(w, "authentication required", http.StatusUnauthorized)
		return
	}
	page := queryUint(r, "page", 1)
	if page == 0 {
		page = 1
	}
	limit := queryUint(r, "limit", 10)

	result, err := h.orders.GetUserOrders(r.Context(), principal.UserID, page, limit)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}

	orders := make([]Order, 0, len(result.Orders))
	for _, o := range result.Orders {
		orders = append(orders, OrderEntityToJSON(o))
	}
	utils.WriteJSON(w, OrderList{
		Orders: orders,
		Page:   page,
		Limit:  limit,
		Total:  result.Total,
	}, http.StatusOK)
}

func (h *orderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndOrderID(w, r)
	if !ok {
		return
	}
	details, err := h.orders.GetByID(r.Context(), id, principal)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	utils.WriteJSON(w, OrderDetailsToJSON(details), http.StatusOK)
}

func (h *orderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndOrderID(w, r)
	if !ok {
		return
	}
	if err := h.orders.Cancel(r.Context(), id, principal); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *orderHandler) UpsertShipment(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndOrderID(w, r)
	if !ok {
		return
	}
	var req ShipmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	shipment, err := h.orders.UpsertShipment(r.Context(), id, service.ShipmentInput{
		RecipientName:  req.RecipientName,
		RecipientPhone: req.RecipientPhone,
		Address:        req.Address,
		AddressDetail:  req.AddressDetail,
		PostalCode:     req.PostalCode,
	}, principal)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	utils.WriteJSON(w, ShipmentEntityToJSON(shipment), http.StatusOK)
}

// GetShipment возвращает null если доставка ещё не оформлена
func (h *orderHandler) GetShipment(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndOrderID(w, r)
	if !ok {
		return
	}
	shipment, err := h.orders.GetShipment(r.Context(), id, principal)
	if errors.Is(err, entities.ErrShipmentNotFound) {
		utils.WriteJSON(w, nil, http.StatusOK)
		return
	}
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	utils.WriteJSON(w, ShipmentEntityToJSON(shipment), http.StatusOK)
}

func (h *orderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	status := entities.OrderStatus(req.Status)
	if !status.Valid() {
		utils.WriteError(w, "status must be one of pending, paid, failed, cancelled", http.StatusBadRequest)
		return
	}
	if err := h.orders.UpdateStatus(r.Context(), id, status); err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *orderHandler) UpdateShipmentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	var req UpdateShipmentStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	status := entities.ShipmentStatus(req.Status)
	if !status.Valid() {
		utils.WriteError(w, "status must be one of preparing, shipped, delivered, returned", http.StatusBadRequest)
		return
	}
	err := h.orders.UpdateShipmentStatus(r.Context(), id,
		status, req.TrackingNumber, req.ShippingCompany)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *orderHandler) principalAndOrderID(w http.ResponseWriter, r *http.Request) (entities.Principal, int64, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		utils.WriteError(w, "authentication required", http.StatusUnauthorized)
		return entities.Principal{}, 0, false
	}
	id, ok := h.orderID(w, r)
	if !ok {
		return entities.Principal{}, 0, false
	}
	return principal, id, true
}

func (h *orderHandler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "order_id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, "order_id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *orderHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := utils.DecodeBody(r, dst); err != nil {
		utils.WriteError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		utils.WriteValidationError(w, err)
		return false
	}
	return true
}
