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

type DropService interface {
	Create(ctx context.Context, in service.CreateDropInput) (entities.Drop, error)
	Update(ctx context.Context, id int64, patch entities.DropPatch) (entities.Drop, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, status *entities.DropStatus, limit, offset uint64) (service.DropPage, error)
	GetByID(ctx context.Context, id int64) (entities.Drop, error)
	GetByStatus(ctx context.Context, status entities.DropStatus) ([]entities.Drop, error)
	GetCurrent(ctx context.Context) (entities.Drop, error)
	GetNext(ctx context.Context) (entities.Drop, error)
	Countdown(ctx context.Context) (entities.Countdown, error)
	GetProducts(ctx context.Context, dropID int64) ([]entities.DropProductView, error)
	AddProduct(ctx context.Context, dropID, productID int64, quantity int) (entities.DropProduct, error)
	RemoveProduct(ctx context.Context, dropID, productID int64) error
	ResizeProductQuantity(ctx context.Context, dropID, productID int64, quantity int) (entities.DropProduct, error)
	TogglePin(ctx context.Context, id int64) (entities.Drop, error)
	Stats(ctx context.Context, id int64) (entities.DropStats, error)
}

type dropHandler struct {
	logger   *slog.Logger
	validate *validator.Validate
	drops    DropService
}

func NewDropHandler(logger *slog.Logger, drops DropService) *dropHandler {
	return &dropHandler{
		logger:   logger.With(slog.String("component", "drop_handler")),
		validate: validator.New(),
		drops:    drops,
	}
}

func (h *dropHandler) Init(r chi.Router) {
	r.Route("/drops", func(r chi.Router) {
		r.Get("/current", h.GetCurrent)
		r.Get("/current/countdown", h.GetCountdown)
		r.Get("/next", h.GetNext)
		r.Get("/status/{status}", h.GetByStatus)
		r.Get("/{drop_id}", h.GetByID)
		r.Get("/{drop_id}/products", h.GetProducts)
	})

	r.Route("/admin/drops", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Patch("/{drop_id}", h.Update)
		r.Delete("/{drop_id}", h.Delete)
		r.Post("/{drop_id}/pin", h.TogglePin)
		r.Get("/{drop_id}/stats", h.Stats)
		r.Post("/{drop_id}/products", h.AddProduct)
		r.Patch("/{drop_id}/products/{product_id}", h.ResizeProduct)
		r.Delete("/{drop_id}/products/{product_id}", h.RemoveProduct)
	})
}

// GetCurrent возвращает текущий активный drop, null если его нет
func (h *dropHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	drop, err := h.drops.GetCurrent(r.Context())
	if errors.Is(err, entities.ErrNoCurrentDrop) {
		utils.WriteJSON(w, nil, http.StatusOK)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, DropEntityToJSON(drop), http.StatusOK)
}

func (h *dropHandler) GetCountdown(w http.ResponseWriter, r *http.Request) {
	countdown, err := h.drops.Countdown(r.Context())
	if errors.Is(err, entities.ErrNoCurrentDrop) {
		utils.WriteJSON(w, nil, http.StatusOK)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, CountdownEntityToJSON(countdown), http.StatusOK)
}

func (h *dropHandler) GetNext(w http.ResponseWriter, r *http.Request) {
	drop, err := h.drops.GetNext(r.Context())
	if errors.Is(err, entities.ErrDropNotFound) {
		utils.WriteJSON(w, nil, http.StatusOK)
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, DropEntityToJSON(drop), http.StatusOK)
}

func (h *dropHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.dropID(w, r)
	if !ok {
		return
	}
	drop, err := h.drops.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, DropEntityToJSON(drop), http.StatusOK)
}

func (h *dropHandler) GetByStatus(w http.ResponseWriter, r *http.Request) {
	status := entities.DropStatus(chi.URLParam(r, "status"))
	if !status.Valid() {
		utils.WriteError(w, "status must be one of upcoming, active, ended", http.StatusBadRequest)
		return
	}
	drops, err := h.drops.GetByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, DropsEntityToJSON(drops), http.StatusOK)
}

func (h *dropHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.dropID(w, r)
	if !ok {
		return
	}
	views, err := h.drops.GetProducts(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	products := make([]DropProduct, 0, len(views))
	for _, v := range views {
		products = append(products, DropProductViewToJSON(v))
	}
	utils.WriteJSON(w, products, http.StatusOK)
}

func (h *dropHandler) List(w http.ResponseWriter, r *http.Request) {
	var status *entities.DropStatus
	if s := r.URL.Query().Get("status"); s != "" {
		st := entities.DropStatus(s)
		if !st.Valid() {
			utils.WriteError(w, "status must be one of upcoming, active, ended", http.StatusBadRequest)
			return
		}
		status = &st
	}
	limit := queryUint(r, "limit", 20)
	offset := queryUint(r, "offset", 0)

	page, err := h.drops.List(r.Context(), status, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, DropList{
		Items: DropsEntityToJSON(page.Items),
		Total: page.Total,
	}, http.StatusOK)
}

func (h *dropHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDropRequest
	if !h.decode(w, r, &req) {
		return
	}
	drop, err := h.drops.Create(r.Context(), service.CreateDropInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, DropEntityToJSON(drop), http.StatusCreated)
}

func (h *dropHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.dropID(w, r)
	if !ok {
		return
	}
	var req UpdateDropRequest
	if !h.decode(w, r, &req) {
		return
	}
	patch := entities.DropPatch{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		BannerURL:   req.BannerURL,
		IsPinned:    req.IsPinned,
	}
	if req.Status != nil {
		status := entities.DropStatus(*req.Status)
		patch.Status = &status
	}
	drop, err := h.drops.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, DropEntityToJSON(drop), http.StatusOK)
}

func (h *dropHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.dropID(w, r)
	if !ok {
		return
	}
	if err := h.drops.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *dropHandler) TogglePin(w http.ResponseWriter, r *http.Request) {
	id, ok := h.dropID(w, r)
	if !ok {
		return
	}
	drop, err := h.drops.TogglePin(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, DropEntityToJSON(drop), http.StatusOK)
}

func (h *dropHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.dropID(w, r)
	if !ok {
		return
	}
	stats, err := h.drops.Stats(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, StatsEntityToJSON(stats), http.StatusOK)
}

func (h *dropHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.dropID(w, r)
	if !ok {
		return
	}
	var req AddDropProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	allocation, err := h.drops.AddProduct(r.Context(), id, req.ProductID, req.LimitedQuantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, AllocationEntityToJSON(allocation), http.StatusCreated)
}

func (h *dropHandler) ResizeProduct(w http.ResponseWriter, r *http.Request) {
	dropID, ok := h.dropID(w, r)
	if !ok {
		return
	}
	productID, ok := h.pathID(w, r, "product_id")
	if !ok {
		return
	}
	var req ResizeDropProductRequest
	if !h.decode(w, r, &req) {
		return
	}
	allocation, err := h.drops.ResizeProductQuantity(r.Context(), dropID, productID, req.LimitedQuantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, AllocationEntityToJSON(allocation), http.StatusOK)
}

func (h *dropHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	dropID, ok := h.dropID(w, r)
	if !ok {
		return
	}
	productID, ok := h.pathID(w, r, "product_id")
	if !ok {
		return
	}
	if err := h.drops.RemoveProduct(r.Context(), dropID, productID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *dropHandler) dropID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	return h.pathID(w, r, "drop_id")
}

func (h *dropHandler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, name+" must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *dropHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
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

func (h *dropHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeDomainError(h.logger, w, r, err)
}

func queryUint(r *http.Request, name string, def uint64) uint64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}
