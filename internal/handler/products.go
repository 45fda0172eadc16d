package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/droplabs/drop-service/internal/entities"
	"github.com/droplabs/drop-service/pkg/utils"
)

type CatalogService interface {
	List(ctx context.Context) ([]entities.Product, error)
	GetByID(ctx context.Context, id int64) (entities.Product, error)
	GetByCategory(ctx context.Context, category string) ([]entities.Product, error)
}

type productHandler struct {
	logger  *slog.Logger
	catalog CatalogService
}

func NewProductHandler(logger *slog.Logger, catalog CatalogService) *productHandler {
	return &productHandler{
		logger:  logger.With(slog.String("component", "product_handler")),
		catalog: catalog,
	}
}

func (h *productHandler) Init(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/category/{category}", h.GetByCategory)
		r.Get("/{product_id}", h.GetByID)
	})
}

func (h *productHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	utils.WriteJSON(w, productsToJSON(products), http.StatusOK)
}

func (h *productHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, "product_id must be a positive integer", http.StatusBadRequest)
		return
	}
	product, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	utils.WriteJSON(w, ProductEntityToJSON(product), http.StatusOK)
}

func (h *productHandler) GetByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if category == "" {
		utils.WriteError(w, "category is required", http.StatusBadRequest)
		return
	}
	products, err := h.catalog.GetByCategory(r.Context(), category)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	utils.WriteJSON(w, productsToJSON(products), http.StatusOK)
}

func productsToJSON(products []entities.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		out = append(out, ProductEntityToJSON(p))
	}
	return out
}
