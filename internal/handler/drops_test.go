package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/droplabs/drop-service/internal/entities"
	"github.com/droplabs/drop-service/internal/handler"
	"github.com/droplabs/drop-service/internal/middleware"
	"github.com/droplabs/drop-service/internal/service"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID int64, role entities.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

type mockDropService struct {
	mock.Mock
}

func (m *mockDropService) Create(ctx context.Context, in service.CreateDropInput) (entities.Drop, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropService) Update(ctx context.Context, id int64, patch entities.DropPatch) (entities.Drop, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockDropService) List(ctx context.Context, status *entities.DropStatus, limit, offset uint64) (service.DropPage, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).(service.DropPage), args.Error(1)
}

func (m *mockDropService) GetByID(ctx context.Context, id int64) (entities.Drop, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropService) GetByStatus(ctx context.Context, status entities.DropStatus) ([]entities.Drop, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]entities.Drop), args.Error(1)
}

func (m *mockDropService) GetCurrent(ctx context.Context) (entities.Drop, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropService) GetNext(ctx context.Context) (entities.Drop, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropService) Countdown(ctx context.Context) (entities.Countdown, error) {
	args := m.Called(ctx)
	return args.Get(0).(entities.Countdown), args.Error(1)
}

func (m *mockDropService) GetProducts(ctx context.Context, dropID int64) ([]entities.DropProductView, error) {
	args := m.Called(ctx, dropID)
	return args.Get(0).([]entities.DropProductView), args.Error(1)
}

func (m *mockDropService) AddProduct(ctx context.Context, dropID, productID int64, quantity int) (entities.DropProduct, error) {
	args := m.Called(ctx, dropID, productID, quantity)
	return args.Get(0).(entities.DropProduct), args.Error(1)
}

func (m *mockDropService) RemoveProduct(ctx context.Context, dropID, productID int64) error {
	return m.Called(ctx, dropID, productID).Error(0)
}

func (m *mockDropService) ResizeProductQuantity(ctx context.Context, dropID, productID int64, quantity int) (entities.DropProduct, error) {
	args := m.Called(ctx, dropID, productID, quantity)
	return args.Get(0).(entities.DropProduct), args.Error(1)
}

func (m *mockDropService) TogglePin(ctx context.Context, id int64) (entities.Drop, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.Drop), args.Error(1)
}

func (m *mockDropService) Stats(ctx context.Context, id int64) (entities.DropStats, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.DropStats), args.Error(1)
}

func newDropRouter(t *testing.T) (*mockDropService, chi.Router) {
	t.Helper()
	svc := new(mockDropService)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewDropHandler(logger, svc)

	r := chi.NewRouter()
	r.Use(middleware.Auth(testSecret))
	h.Init(r)
	return svc, r
}

func TestDropHandler_GetCurrent(t *testing.T) {
	activeDrop := entities.Drop{ID: 1, Name: "Autumn Drop", Status: entities.DropActive}

	testCases := []struct {
		name         string
		mockBehavior func(svc *mockDropService)
		wantStatus   int
		wantBody     string
	}{
		{
			name: "running drop",
			mockBehavior: func(svc *mockDropService) {
				svc.On("GetCurrent", mock.Anything).Return(activeDrop, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"name":"Autumn Drop"`,
		},
		{
			name: "no running drop returns null",
			mockBehavior: func(svc *mockDropService) {
				svc.On("GetCurrent", mock.Anything).Return(entities.Drop{}, entities.ErrNoCurrentDrop)
			},
			wantStatus: http.StatusOK,
			wantBody:   "null",
		},
		{
			name: "internal error",
			mockBehavior: func(svc *mockDropService) {
				svc.On("GetCurrent", mock.Anything).Return(entities.Drop{}, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"internal server error"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newDropRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodGet, "/drops/current", nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			body, err := io.ReadAll(rr.Result().Body)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Contains(t, string(body), tc.wantBody)
		})
	}
}

func TestDropHandler_GetCountdown(t *testing.T) {
	svc, r := newDropRouter(t)
	svc.On("Countdown", mock.Anything).Return(entities.Countdown{
		DropID:      1,
		DropName:    "Autumn Drop",
		RemainingMS: 90_061_000,
		Days:        1,
		Hours:       1,
		Minutes:     1,
		Seconds:     1,
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/drops/current/countdown", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["days"])
	assert.Equal(t, float64(90_061_000), resp["remainingMs"])
	assert.Equal(t, false, resp["isEnded"])
}

func TestDropHandler_GetByStatus(t *testing.T) {
	t.Run("valid status", func(t *testing.T) {
		svc, r := newDropRouter(t)
		svc.On("GetByStatus", mock.Anything, entities.DropUpcoming).
			Return([]entities.Drop{{ID: 1, Status: entities.DropUpcoming}}, nil)

		req := httptest.NewRequest(http.MethodGet, "/drops/status/upcoming", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, r := newDropRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/drops/status/paused", nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDropHandler_AdminAuth(t *testing.T) {
	body := `{"name":"Autumn Drop","startDate":"2026-09-01T10:00:00Z","endDate":"2026-09-04T10:00:00Z"}`

	testCases := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "no token", token: "", wantStatus: http.StatusUnauthorized},
		{name: "user role", wantStatus: http.StatusForbidden},
		{name: "admin role", wantStatus: http.StatusCreated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newDropRouter(t)
			svc.On("Create", mock.Anything, mock.Anything).
				Return(entities.Drop{ID: 1, Name: "Autumn Drop"}, nil).Maybe()

			req := httptest.NewRequest(http.MethodPost, "/admin/drops/", strings.NewReader(body))
			switch tc.name {
			case "user role":
				req.Header.Set("Authorization", signToken(t, 42, entities.RoleUser))
			case "admin role":
				req.Header.Set("Authorization", signToken(t, 1, entities.RoleAdmin))
			}

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestDropHandler_Create(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		mockBehavior func(svc *mockDropService)
		wantStatus   int
		wantBody     string
	}{
		{
			name: "created",
			body: `{"name":"Autumn Drop","startDate":"2026-09-01T10:00:00Z","endDate":"2026-09-04T10:00:00Z"}`,
			mockBehavior: func(svc *mockDropService) {
				svc.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreateDropInput) bool {
					return in.Name == "Autumn Drop"
				})).Return(entities.Drop{ID: 1, Name: "Autumn Drop", Status: entities.DropUpcoming}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"status":"upcoming"`,
		},
		{
			name:         "missing name",
			body:         `{"startDate":"2026-09-01T10:00:00Z","endDate":"2026-09-04T10:00:00Z"}`,
			mockBehavior: func(svc *mockDropService) {},
			wantStatus:   http.StatusBadRequest,
		},
		{
			name: "inverted window",
			body: `{"name":"Broken","startDate":"2026-09-04T10:00:00Z","endDate":"2026-09-01T10:00:00Z"}`,
			mockBehavior: func(svc *mockDropService) {
				svc.On("Create", mock.Anything, mock.Anything).
					Return(entities.Drop{}, entities.ErrInvalidDropWindow)
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"start date must be before end date"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newDropRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPost, "/admin/drops/", strings.NewReader(tc.body))
			req.Header.Set("Authorization", signToken(t, 1, entities.RoleAdmin))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			if tc.wantBody != "" {
				assert.Contains(t, rr.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestDropHandler_Delete(t *testing.T) {
	testCases := []struct {
		name         string
		path         string
		mockBehavior func(svc *mockDropService)
		wantStatus   int
	}{
		{
			name: "deleted",
			path: "/admin/drops/1",
			mockBehavior: func(svc *mockDropService) {
				svc.On("Delete", mock.Anything, int64(1)).Return(nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name: "active drop conflicts",
			path: "/admin/drops/1",
			mockBehavior: func(svc *mockDropService) {
				svc.On("Delete", mock.Anything, int64(1)).Return(entities.ErrDropActive)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "missing drop",
			path: "/admin/drops/9",
			mockBehavior: func(svc *mockDropService) {
				svc.On("Delete", mock.Anything, int64(9)).Return(entities.ErrDropNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:         "bad id",
			path:         "/admin/drops/zero",
			mockBehavior: func(svc *mockDropService) {},
			wantStatus:   http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newDropRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodDelete, tc.path, nil)
			req.Header.Set("Authorization", signToken(t, 1, entities.RoleAdmin))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestDropHandler_AddProduct(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		mockBehavior func(svc *mockDropService)
		wantStatus   int
	}{
		{
			name: "added",
			body: `{"productId":2,"limitedQuantity":50}`,
			mockBehavior: func(svc *mockDropService) {
				svc.On("AddProduct", mock.Anything, int64(1), int64(2), 50).
					Return(entities.DropProduct{DropID: 1, ProductID: 2, LimitedQuantity: 50}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "duplicate",
			body: `{"productId":2,"limitedQuantity":50}`,
			mockBehavior: func(svc *mockDropService) {
				svc.On("AddProduct", mock.Anything, int64(1), int64(2), 50).
					Return(entities.DropProduct{}, entities.ErrAlreadyAllocated)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:         "zero quantity fails validation",
			body:         `{"productId":2,"limitedQuantity":0}`,
			mockBehavior: func(svc *mockDropService) {},
			wantStatus:   http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, r := newDropRouter(t)
			tc.mockBehavior(svc)

			req := httptest.NewRequest(http.MethodPost, "/admin/drops/1/products", strings.NewReader(tc.body))
			req.Header.Set("Authorization", signToken(t, 1, entities.RoleAdmin))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
		})
	}
}

func TestDropHandler_Stats(t *testing.T) {
	svc, r := newDropRouter(t)
	svc.On("Stats", mock.Anything, int64(1)).Return(entities.DropStats{
		DropID:         1,
		DropName:       "Autumn Drop",
		TotalProducts:  1,
		TotalSold:      40,
		TotalLimited:   100,
		SoldPercentage: 40,
		Products: []entities.ProductSales{
			{ProductID: 10, ProductName: "Sneaker", LimitedQuantity: 100, SoldQuantity: 40, RemainingQuantity: 60, SoldPercentage: 40},
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/drops/1/stats", nil)
	req.Header.Set("Authorization", signToken(t, 1, entities.RoleAdmin))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, float64(40), resp["soldPercentage"])
	assert.Equal(t, float64(1), resp["totalProducts"])
}
