package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/droplabs/drop-service/internal/entities"
	"github.com/droplabs/drop-service/internal/handler"
	"github.com/droplabs/drop-service/internal/middleware"
	"github.com/droplabs/drop-service/internal/service"
)

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) Create(ctx context.Context, userID int64, items []service.OrderItemInput) (service.CreateOrderResult, error) {
	args := m.Called(ctx, userID, items)
	return args.Get(0).(service.CreateOrderResult), args.Error(1)
}

func (m *mockOrderService) GetByID(ctx context.Context, orderID int64, principal entities.Principal) (service.OrderDetails, error) {
	args := m.Called(ctx, orderID, principal)
	return args.Get(0).(service.OrderDetails), args.Error(1)
}

func (m *mockOrderService) GetUserOrders(ctx context.Context, userID int64, page, limit uint64) (service.OrderPage, error) {
	args := m.Called(ctx, userID, page, limit)
	return args.Get(0).(service.OrderPage), args.Error(1)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, orderID int64, status entities.OrderStatus) error {
	return m.Called(ctx, orderID, status).Error(0)
}

func (m *mockOrderService) Cancel(ctx context.Context, orderID int64, principal entities.Principal) error {
	return m.Called(ctx, orderID, principal).Error(0)
}

func (m *mockOrderService) UpsertShipment(ctx context.Context, orderID int64, in service.ShipmentInput, principal entities.Principal) (entities.Shipment, error) {
	args := m.Called(ctx, orderID, in, principal)
	return args.Get(0).(entities.Shipment), args.Error(1)
}

func (m *mockOrderService) GetShipment(ctx context.Context, orderID int64, principal entities.Principal) (entities.Shipment, error) {
	args := m.Called(ctx, orderID, principal)
	return args.Get(0).(entities.Shipment), args.Error(1)
}

func (m *mockOrderService) UpdateShipmentStatus(ctx context.Context, orderID int64, status entities.ShipmentStatus, trackingNumber, shippingCompany string) error {
	return m.Called(ctx, orderID, status, trackingNumber, shippingCompany).Error(0)
}

func newOrderRouter(t *testing.T) (*mockOrderService, chi.Router) {
	t.Helper()
	svc := new(mockOrderService)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewOrderHandler(logger, svc)

	r := chi.NewRouter()
	r.Use(middleware.Auth(testSecret))
	h.Init(r)
	return svc, r
}

func TestOrderHandler_Create(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		token        string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
		wantBody     string
	}{
		{
			name:  "created",
			body:  `{"items":[{"productId":1,"quantity":2}]}`,
			token: "user",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("Create", mock.Anything, int64(42), []service.OrderItemInput{{ProductID: 1, Quantity: 2}}).
					Return(service.CreateOrderResult{OrderID: 10, OrderNumber: "ORD-X-Y", TotalAmount: 24000, ItemCount: 1}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"orderNumber":"ORD-X-Y"`,
		},
		{
			name:         "unauthenticated",
			body:         `{"items":[{"productId":1,"quantity":2}]}`,
			token:        "",
			mockBehavior: func(svc *mockOrderService) {},
			wantStatus:   http.StatusUnauthorized,
		},
		{
			name:         "empty items fails validation",
			body:         `{"items":[]}`,
			token:        "user",
			mockBehavior: func(svc *mockOrderService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name:  "insufficient stock conflicts",
			body:  `{"items":[{"productId":1,"quantity":2}]}`,
			token: "user",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("Create", mock.Anything, int64(42), mock.Anything).
					Return(service.CreateOrderResult{}, entities.ErrInsufficientStock)
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"insufficient stock"`,
		},
		{
			name:  "allocation sold out conflicts",
			body:  `{"items":[{"productId":1,"quantity":2}]}`,
			token: "user",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("Create", mock.Anything, int64(42), mock.Anything).
					Return(service.CreateOrderResult{}, entities.ErrAllocationSoldOut)
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newOrderRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPost, "/orders/", strings.NewReader(tc.body))
			if tc.token == "user" {
				req.Header.Set("Authorization", signToken(t, 42, entities.RoleUser))
			}
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestOrderHandler_GetByID(t *testing.T) {
	details := service.OrderDetails{
		Order: entities.Order{ID: 10, UserID: 42, OrderNumber: "ORD-X-Y", TotalAmount: 24000, Status: entities.OrderPaid},
		Items: []entities.OrderItem{
			{ID: 1, OrderID: 10, ProductID: 1, ProductName: "Sneaker", Quantity: 2, UnitPrice: 12000, TotalPrice: 24000},
		},
	}

	testCases := []struct {
		name         string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
	}{
		{
			name: "owner sees items",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("GetByID", mock.Anything, int64(10), entities.Principal{UserID: 42, Role: entities.RoleUser}).
					Return(details, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "foreign order is forbidden",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("GetByID", mock.Anything, int64(10), mock.Anything).
					Return(service.OrderDetails{}, entities.ErrForbidden)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "missing order",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("GetByID", mock.Anything, int64(10), mock.Anything).
					Return(service.OrderDetails{}, entities.ErrOrderNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newOrderRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodGet, "/orders/10", nil)
			req.Header.Set("Authorization", signToken(t, 42, entities.RoleUser))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantStatus == http.StatusOK {
				var resp map[string]any
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, "ORD-X-Y", resp["orderNumber"])
				items, ok := resp["items"].([]any)
				require.True(t, ok)
				assert.Len(t, items, 1)
			}
		})
	}
}

func TestOrderHandler_ListMine(t *testing.T) {
	svc, r := newOrderRouter(t)
	svc.On("GetUserOrders", mock.Anything, int64(42), uint64(2), uint64(5)).
		Return(service.OrderPage{
			Orders: []entities.Order{{ID: 10, UserID: 42}},
			Total:  11,
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/orders/?page=2&limit=5", nil)
	req.Header.Set("Authorization", signToken(t, 42, entities.RoleUser))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, float64(11), resp["total"])
	assert.Equal(t, float64(2), resp["page"])
}

func TestOrderHandler_Cancel(t *testing.T) {
	testCases := []struct {
		name         string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
	}{
		{
			name: "cancelled",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("Cancel", mock.Anything, int64(10), mock.Anything).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "already paid conflicts",
			mockBehavior: func(svc *mockOrderService) {
				svc.On("Cancel", mock.Anything, int64(10), mock.Anything).
					Return(entities.ErrCannotCancel)
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newOrderRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPost, "/orders/10/cancel", nil)
			req.Header.Set("Authorization", signToken(t, 42, entities.RoleUser))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestOrderHandler_Shipment(t *testing.T) {
	t.Run("upsert", func(t *testing.T) {
		svc, r := newOrderRouter(t)
		svc.On("UpsertShipment", mock.Anything, int64(10), service.ShipmentInput{
			RecipientName:  "Jordan Lee",
			RecipientPhone: "010-1234-5678",
			Address:        "123 Main St",
			PostalCode:     "04524",
		}, mock.Anything).Return(entities.Shipment{ID: 1, OrderID: 10, Status: entities.ShipmentPending}, nil)

		body := `{"recipientName":"Jordan Lee","recipientPhone":"010-1234-5678","address":"123 Main St","postalCode":"04524"}`
		req := httptest.NewRequest(http.MethodPut, "/orders/10/shipment", strings.NewReader(body))
		req.Header.Set("Authorization", signToken(t, 42, entities.RoleUser))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"status":"pending"`)
	})

	t.Run("missing shipment returns null", func(t *testing.T) {
		svc, r := newOrderRouter(t)
		svc.On("GetShipment", mock.Anything, int64(10), mock.Anything).
			Return(entities.Shipment{}, entities.ErrShipmentNotFound)

		req := httptest.NewRequest(http.MethodGet, "/orders/10/shipment", nil)
		req.Header.Set("Authorization", signToken(t, 42, entities.RoleUser))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "null\n", rr.Body.String())
	})

	t.Run("validation rejects missing recipient", func(t *testing.T) {
		_, r := newOrderRouter(t)

		body := `{"recipientPhone":"010-1234-5678","address":"123 Main St","postalCode":"04524"}`
		req := httptest.NewRequest(http.MethodPut, "/orders/10/shipment", strings.NewReader(body))
		req.Header.Set("Authorization", signToken(t, 42, entities.RoleUser))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestOrderHandler_AdminStatusUpdate(t *testing.T) {
	testCases := []struct {
		name         string
		token        entities.Role
		body         string
		mockBehavior func(svc *mockOrderService)
		wantStatus   int
	}{
		{
			name:  "admin transitions order",
			token: entities.RoleAdmin,
			body:  `{"status":"paid"}`,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("UpdateStatus", mock.Anything, int64(10), entities.OrderPaid).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:  "invalid transition",
			token: entities.RoleAdmin,
			body:  `{"status":"pending"}`,
			mockBehavior: func(svc *mockOrderService) {
				svc.On("UpdateStatus", mock.Anything, int64(10), entities.OrderPending).
					Return(entities.ErrInvalidTransition)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:         "unknown status fails validation",
			token:        entities.RoleAdmin,
			body:         `{"status":"refunded"}`,
			mockBehavior: func(svc *mockOrderService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name:         "user is forbidden",
			token:        entities.RoleUser,
			body:         `{"status":"paid"}`,
			mockBehavior: func(svc *mockOrderService) {},
			wantStatus:   http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newOrderRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPatch, "/admin/orders/10/status", strings.NewReader(tc.body))
			req.Header.Set("Authorization", signToken(t, 1, tc.token))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestOrderHandler_AdminShipmentStatus(t *testing.T) {
	svc, r := newOrderRouter(t)
	svc.On("UpdateShipmentStatus", mock.Anything, int64(10), entities.ShipmentShipped, "TRACK1", "FastShip").
		Return(nil)

	body := `{"status":"shipped","trackingNumber":"TRACK1","shippingCompany":"FastShip"}`
	req := httptest.NewRequest(http.MethodPatch, "/admin/orders/10/shipment/status", strings.NewReader(body))
	req.Header.Set("Authorization", signToken(t, 1, entities.RoleAdmin))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	svc.AssertExpectations(t)
}
