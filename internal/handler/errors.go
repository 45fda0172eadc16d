package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/droplabs/drop-service/internal/entities"
	"github.com/droplabs/drop-service/pkg/utils"
)

// writeDomainError переводит доменные ошибки в HTTP статусы
func writeDomainError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, entities.ErrDropNotFound),
		errors.Is(err, entities.ErrProductNotFound),
		errors.Is(err, entities.ErrOrderNotFound),
		errors.Is(err, entities.ErrAllocationNotFound),
		errors.Is(err, entities.ErrShipmentNotFound):
		utils.WriteError(w, err.Error(), http.StatusNotFound)

	case errors.Is(err, entities.ErrForbidden):
		utils.WriteError(w, err.Error(), http.StatusForbidden)

	case errors.Is(err, entities.ErrDropActive),
		errors.Is(err, entities.ErrAlreadyAllocated),
		errors.Is(err, entities.ErrQuantityBelowSold),
		errors.Is(err, entities.ErrInsufficientStock),
		errors.Is(err, entities.ErrAllocationSoldOut),
		errors.Is(err, entities.ErrCannotCancel):
		utils.WriteError(w, err.Error(), http.StatusConflict)

	case errors.Is(err, entities.ErrInvalidDropWindow),
		errors.Is(err, entities.ErrEmptyDropName),
		errors.Is(err, entities.ErrInvalidQuantity),
		errors.Is(err, entities.ErrIncompleteShipment),
		errors.Is(err, entities.ErrEmptyOrder),
		errors.Is(err, entities.ErrInvalidTransition),
		errors.Is(err, entities.ErrInvalidShipmentTransition):
		utils.WriteError(w, err.Error(), http.StatusBadRequest)

	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		utils.WriteError(w, "internal server error", http.StatusInternalServerError)
	}
}
