package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/droplabs/drop-service/internal/entities"
	"github.com/droplabs/drop-service/pkg/trm"
)

type DropRepo interface {
	Insert(ctx context.Context, d entities.Drop) (entities.Drop, error)
	GetByID(ctx context.Context, id int64) (entities.Drop, error)
	Update(ctx context.Context, id int64, patch entities.DropPatch) (entities.Drop, error)
	Delete(ctx context.Context, id int64) error
	DeleteAllocationsByDrop(ctx context.Context, dropID int64) error
	List(ctx context.Context, status *entities.DropStatus, limit, offset uint64) ([]entities.Drop, int, error)
	ListByStatus(ctx context.Context, status entities.DropStatus) ([]entities.Drop, error)
	ListAll(ctx context.Context) ([]entities.Drop, error)
	GetCurrent(ctx context.Context, now time.Time) (entities.Drop, error)
	GetNext(ctx context.Context, now time.Time) (entities.Drop, error)
	UpdateStatuses(ctx context.Context, ids []int64, status entities.DropStatus) (int, error)

	InsertAllocation(ctx context.Context, a entities.DropProduct) (entities.DropProduct, error)
	GetAllocation(ctx context.Context, dropID, productID int64) (entities.DropProduct, error)
	DeleteAllocation(ctx context.Context, dropID, productID int64) error
	UpdateAllocationLimit(ctx context.Context, dropID, productID int64, limit int) (entities.DropProduct, error)
	ListAllocations(ctx context.Context, dropID int64) ([]entities.DropProductView, error)
}

type ProductGetter interface {
	GetByID(ctx context.Context, id int64) (entities.Product, error)
}

type CreateDropInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
}

type DropPage struct {
	Items []entities.Drop
	Total int
}

type dropService struct {
	logger    *slog.Logger
	txManager trm.Manager
	drops     DropRepo
	products  ProductGetter
	now       func() time.Time
}

func NewDropService(logger *slog.Logger, txManager trm.Manager, drops DropRepo, products ProductGetter) *dropService {
	return &dropService{
		logger:    logger.With(slog.String("service", "drop")),
		txManager: txManager,
		drops:     drops,
		products:  products,
		now:       time.Now,
	}
}

func (s *dropService) Create(ctx context.Context, in CreateDropInput) (entities.Drop, error) {
	if strings.TrimSpace(in.Name) == "" {
		return entities.Drop{}, entities.ErrEmptyDropName
	}
	if !in.StartDate.Before(in.EndDate) {
		return entities.Drop{}, entities.ErrInvalidDropWindow
	}

	drop, err := s.drops.Insert(ctx, entities.Drop{
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      entities.DropUpcoming,
	})
	if err != nil {
		return entities.Drop{}, fmt.Errorf("failed to create drop: %w", err)
	}

	s.logger.Info("drop created", slog.Int64("drop_id", drop.ID), slog.String("name", drop.Name))
	return drop, nil
}

func (s *dropService) Update(ctx context.Context, id int64, patch entities.DropPatch) (entities.Drop, error) {
	return s.drops.Update(ctx, id, patch)
}

// Delete refuses active drops and cascades the allocations first so no
// orphaned rows survive the drop.
func (s *dropService) Delete(ctx context.Context, id int64) error {
	return s.txManager.Do(ctx, func(ctx context.Context) error {
		drop, err := s.drops.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if drop.Status == entities.DropActive {
			return entities.ErrDropActive
		}

		if err := s.drops.DeleteAllocationsByDrop(ctx, id); err != nil {
			return err
		}
		if err := s.drops.Delete(ctx, id); err != nil {
			return err
		}

		s.logger.Info("drop deleted", slog.Int64("drop_id", id))
		return nil
	})
}

func (s *dropService) List(ctx context.Context, status *entities.DropStatus, limit, offset uint64) (DropPage, error) {
	items, total, err := s.drops.List(ctx, status, limit, offset)
	if err != nil {
		return DropPage{}, err
	}
	return DropPage{Items: items, Total: total}, nil
}

func (s *dropService) GetByID(ctx context.Context, id int64) (entities.Drop, error) {
	return s.drops.GetByID(ctx, id)
}

func (s *dropService) GetByStatus(ctx context.Context, status entities.DropStatus) ([]entities.Drop, error) {
	return s.drops.ListByStatus(ctx, status)
}

func (s *dropService) GetCurrent(ctx context.Context) (entities.Drop, error) {
	return s.drops.GetCurrent(ctx, s.now())
}

func (s *dropService) GetNext(ctx context.Context) (entities.Drop, error) {
	return s.drops.GetNext(ctx, s.now())
}

// Countdown derives remaining time from the current drop. Once the end
// date has passed it reports ended even while the row still says active,
// so callers must trust IsEnded rather than the stored status.
func (s *dropService) Countdown(ctx context.Context) (entities.Countdown, error) {
	drop, err := s.drops.GetCurrent(ctx, s.now())
	if err != nil {
		return entities.Countdown{}, err
	}
	return entities.NewCountdown(drop, s.now()), nil
}

func (s *dropService) GetProducts(ctx context.Context, dropID int64) ([]entities.DropProductView, error) {
	if _, err := s.drops.GetByID(ctx, dropID); err != nil {
		return nil, err
	}
	return s.drops.ListAllocations(ctx, dropID)
}

func (s *dropService) AddProduct(ctx context.Context, dropID, productID int64, limitedQuantity int) (entities.DropProduct, error) {
	if limitedQuantity <= 0 {
		return entities.DropProduct{}, entities.ErrInvalidQuantity
	}

	if _, err := s.drops.GetByID(ctx, dropID); err != nil {
		return entities.DropProduct{}, err
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return entities.DropProduct{}, err
	}

	allocation, err := s.drops.InsertAllocation(ctx, entities.DropProduct{
		DropID:          dropID,
		ProductID:       productID,
		LimitedQuantity: limitedQuantity,
	})
	if err != nil {
		return entities.DropProduct{}, err
	}

	s.logger.Info("product added to drop",
		slog.Int64("drop_id", dropID),
		slog.Int64("product_id", productID),
		slog.Int("limited_quantity", limitedQuantity),
	)
	return allocation, nil
}

// RemoveProduct drops the allocation row regardless of sold quantity;
// sales history for the pair goes with it.
func (s *dropService) RemoveProduct(ctx context.Context, dropID, productID int64) error {
	return s.drops.DeleteAllocation(ctx, dropID, productID)
}

func (s *dropService) ResizeProductQuantity(ctx context.Context, dropID, productID int64, limitedQuantity int) (entities.DropProduct, error) {
	if limitedQuantity <= 0 {
		return entities.DropProduct{}, entities.ErrInvalidQuantity
	}
	return s.drops.UpdateAllocationLimit(ctx, dropID, productID, limitedQuantity)
}

func (s *dropService) TogglePin(ctx context.Context, dropID int64) (entities.Drop, error) {
	drop, err := s.drops.GetByID(ctx, dropID)
	if err != nil {
		return entities.Drop{}, err
	}

	pinned := !drop.IsPinned
	return s.drops.Update(ctx, dropID, entities.DropPatch{IsPinned: &pinned})
}

func (s *dropService) Stats(ctx context.Context, dropID int64) (entities.DropStats, error) {
	drop, err := s.drops.GetByID(ctx, dropID)
	if err != nil {
		return entities.DropStats{}, err
	}

	allocations, err := s.drops.ListAllocations(ctx, dropID)
	if err != nil {
		return entities.DropStats{}, err
	}

	stats := entities.DropStats{
		DropID:        drop.ID,
		DropName:      drop.Name,
		TotalProducts: len(allocations),
		Products:      make([]entities.ProductSales, 0, len(allocations)),
	}

	for _, view := range allocations {
		a := view.Allocation
		stats.Products = append(stats.Products, entities.ProductSales{
			ProductID:         a.ProductID,
			ProductName:       view.Product.Name,
			LimitedQuantity:   a.LimitedQuantity,
			SoldQuantity:      a.SoldQuantity,
			RemainingQuantity: a.Remaining(),
			SoldPercentage:    entities.SoldPercentage(a.SoldQuantity, a.LimitedQuantity),
		})
		stats.TotalSold += a.SoldQuantity
		stats.TotalLimited += a.LimitedQuantity
	}

	stats.SoldPercentage = entities.SoldPercentage(stats.TotalSold, stats.TotalLimited)
	return stats, nil
}

// Sweep applies the time-driven transitions. Both partitions come from
// the same pre-sweep snapshot, so a drop moves at most one step per
// sweep and a freshly activated drop cannot end within the same sweep.
func (s *dropService) Sweep(ctx context.Context) (int, error) {
	drops, err := s.drops.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load drops for sweep: %w", err)
	}

	now := s.now()
	var toActivate, toEnd []int64
	for _, drop := range drops {
		next, due := drop.NextStatus(now)
		if !due {
			continue
		}
		switch next {
		case entities.DropActive:
			toActivate = append(toActivate, drop.ID)
		case entities.DropEnded:
			toEnd = append(toEnd, drop.ID)
		}
	}

	var updated int
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		activated, err := s.drops.UpdateStatuses(ctx, toActivate, entities.DropActive)
		if err != nil {
			return err
		}
		ended, err := s.drops.UpdateStatuses(ctx, toEnd, entities.DropEnded)
		if err != nil {
			return err
		}
		updated = activated + ended
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to apply drop transitions: %w", err)
	}

	if updated > 0 {
		s.logger.Info("drop statuses updated",
			slog.Int("activated", len(toActivate)),
			slog.Int("ended", len(toEnd)),
		)
	}
	return updated, nil
}
