package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/droplabs/drop-service/internal/entities"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var dropColumns = []string{
	"id", "name", "description", "start_date", "end_date",
	"status", "banner_url", "is_pinned", "created_at", "updated_at",
}

var allocationColumns = []string{
	"drop_id", "product_id", "limited_quantity", "sold_quantity", "created_at",
}

const uniqueViolation = "23505"

type dropRepo struct {
	querier
}

func NewDropRepo(db *sqlx.DB) *dropRepo {
	return &dropRepo{newQuerier(db)}
}

func (r *dropRepo) Insert(ctx context.Context, d entities.Drop) (entities.Drop, error) {
	query, args := r.qb.Insert("drops").
		Columns("name", "description", "start_date", "end_date", "status", "banner_url", "is_pinned").
		Values(d.Name, nullString(d.Description), d.StartDate, d.EndDate, d.Status, nullString(d.BannerURL), d.IsPinned).
		Suffix("RETURNING " + columnList(dropColumns)).
		MustSql()

	var row Drop
	if err := r.getContext(ctx, &row, query, args...); err != nil {
		return entities.Drop{}, fmt.Errorf("failed to insert drop: %w", err)
	}
	return DropToEntity(row), nil
}

func (r *dropRepo) GetByID(ctx context.Context, id int64) (entities.Drop, error) {
	query, args := r.qb.Select(dropColumns...).
		From("drops").
		Where(sq.Eq{"id": id}).
		MustSql()

	var row Drop
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Drop{}, entities.ErrDropNotFound
	}
	if err != nil {
		return entities.Drop{}, fmt.Errorf("failed to get drop: %w", err)
	}
	return DropToEntity(row), nil
}

func (r *dropRepo) Update(ctx context.Context, id int64, patch entities.DropPatch) (entities.Drop, error) {
	q := r.qb.Update("drops").Set("updated_at", sq.Expr("now()"))

	if patch.Name != nil {
		q = q.Set("name", *patch.Name)
	}
	if patch.Description != nil {
		q = q.Set("description", nullString(*patch.Description))
	}
	if patch.StartDate != nil {
		q = q.Set("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		q = q.Set("end_date", *patch.EndDate)
	}
	if patch.Status != nil {
		q = q.Set("status", *patch.Status)
	}
	if patch.BannerURL != nil {
		q = q.Set("banner_url", nullString(*patch.BannerURL))
	}
	if patch.IsPinned != nil {
		q = q.Set("is_pinned", *patch.IsPinned)
	}

	query, args := q.Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList(dropColumns)).
		MustSql()

	var row Drop
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Drop{}, entities.ErrDropNotFound
	}
	if err != nil {
		return entities.Drop{}, fmt.Errorf("failed to update drop: %w", err)
	}
	return DropToEntity(row), nil
}

func (r *dropRepo) Delete(ctx context.Context, id int64) error {
	query, args := r.qb.Delete("drops").
		Where(sq.Eq{"id": id}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete drop: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrDropNotFound
	}
	return nil
}

func (r *dropRepo) DeleteAllocationsByDrop(ctx context.Context, dropID int64) error {
	query, args := r.qb.Delete("drop_products").
		Where(sq.Eq{"drop_id": dropID}).
		MustSql()

	if _, err := r.execContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete drop allocations: %w", err)
	}
	return nil
}

// List returns a page of drops plus the filtered total before pagination.
func (r *dropRepo) List(ctx context.Context, status *entities.DropStatus, limit, offset uint64) ([]entities.Drop, int, error) {
	q := r.qb.Select(dropColumns...).From("drops")
	countQ := r.qb.Select("count(*)").From("drops")
	if status != nil {
		q = q.Where(sq.Eq{"status": *status})
		countQ = countQ.Where(sq.Eq{"status": *status})
	}

	query, args := q.OrderBy("start_date DESC").Limit(limit).Offset(offset).MustSql()

	var rows []Drop
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to select drops: %w", err)
	}

	query, args = countQ.MustSql()
	var total int
	if err := r.getContext(ctx, &total, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count drops: %w", err)
	}

	return dropsToEntities(rows), total, nil
}

func (r *dropRepo) ListByStatus(ctx context.Context, status entities.DropStatus) ([]entities.Drop, error) {
	query, args := r.qb.Select(dropColumns...).
		From("drops").
		Where(sq.Eq{"status": status}).
		OrderBy("start_date").
		MustSql()

	var rows []Drop
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select drops: %w", err)
	}
	return dropsToEntities(rows), nil
}

// ListAll feeds the scheduler sweep; the whole table is the snapshot.
func (r *dropRepo) ListAll(ctx context.Context) ([]entities.Drop, error) {
	query, args := r.qb.Select(dropColumns...).
		From("drops").
		OrderBy("id").
		MustSql()

	var rows []Drop
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select drops: %w", err)
	}
	return dropsToEntities(rows), nil
}

func (r *dropRepo) GetCurrent(ctx context.Context, now time.Time) (entities.Drop, error) {
	query, args := r.qb.Select(dropColumns...).
		From("drops").
		Where(sq.Eq{"status": entities.DropActive}).
		Where(sq.LtOrEq{"start_date": now}).
		Where(sq.GtOrEq{"end_date": now}).
		Limit(1).
		MustSql()

	var row Drop
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Drop{}, entities.ErrNoCurrentDrop
	}
	if err != nil {
		return entities.Drop{}, fmt.Errorf("failed to get current drop: %w", err)
	}
	return DropToEntity(row), nil
}

func (r *dropRepo) GetNext(ctx context.Context, now time.Time) (entities.Drop, error) {
	query, args := r.qb.Select(dropColumns...).
		From("drops").
		Where(sq.Eq{"status": entities.DropUpcoming}).
		Where(sq.GtOrEq{"start_date": now}).
		OrderBy("start_date").
		Limit(1).
		MustSql()

	var row Drop
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Drop{}, entities.ErrDropNotFound
	}
	if err != nil {
		return entities.Drop{}, fmt.Errorf("failed to get next drop: %w", err)
	}
	return DropToEntity(row), nil
}

func (r *dropRepo) UpdateStatuses(ctx context.Context, ids []int64, status entities.DropStatus) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query, args := r.qb.Update("drops").
		Set("status", status).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": ids}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update drop statuses: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return int(affected), nil
}

func (r *dropRepo) InsertAllocation(ctx context.Context, a entities.DropProduct) (entities.DropProduct, error) {
	query, args := r.qb.Insert("drop_products").
		Columns("drop_id", "product_id", "limited_quantity", "sold_quantity").
		Values(a.DropID, a.ProductID, a.LimitedQuantity, a.SoldQuantity).
		Suffix("RETURNING " + columnList(allocationColumns)).
		MustSql()

	var row DropProduct
	err := r.getContext(ctx, &row, query, args...)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return entities.DropProduct{}, entities.ErrAlreadyAllocated
	}
	if err != nil {
		return entities.DropProduct{}, fmt.Errorf("failed to insert allocation: %w", err)
	}
	return DropProductToEntity(row), nil
}

func (r *dropRepo) GetAllocation(ctx context.Context, dropID, productID int64) (entities.DropProduct, error) {
	query, args := r.qb.Select(allocationColumns...).
		From("drop_products").
		Where(sq.Eq{"drop_id": dropID, "product_id": productID}).
		MustSql()

	var row DropProduct
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.DropProduct{}, entities.ErrAllocationNotFound
	}
	if err != nil {
		return entities.DropProduct{}, fmt.Errorf("failed to get allocation: %w", err)
	}
	return DropProductToEntity(row), nil
}

func (r *dropRepo) DeleteAllocation(ctx context.Context, dropID, productID int64) error {
	query, args := r.qb.Delete("drop_products").
		Where(sq.Eq{"drop_id": dropID, "product_id": productID}).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete allocation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrAllocationNotFound
	}
	return nil
}

// UpdateAllocationLimit resizes the cap. The sold_quantity guard runs in
// the same statement so a concurrent sale cannot slip the limit below
// what is already sold.
func (r *dropRepo) UpdateAllocationLimit(ctx context.Context, dropID, productID int64, limit int) (entities.DropProduct, error) {
	query, args := r.qb.Update("drop_products").
		Set("limited_quantity", limit).
		Where(sq.Eq{"drop_id": dropID, "product_id": productID}).
		Where(sq.LtOrEq{"sold_quantity": limit}).
		Suffix("RETURNING " + columnList(allocationColumns)).
		MustSql()

	var row DropProduct
	err := r.getContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetAllocation(ctx, dropID, productID); getErr != nil {
			return entities.DropProduct{}, getErr
		}
		return entities.DropProduct{}, entities.ErrQuantityBelowSold
	}
	if err != nil {
		return entities.DropProduct{}, fmt.Errorf("failed to update allocation limit: %w", err)
	}
	return DropProductToEntity(row), nil
}

// IncrementSold is the atomic conditional allocation take: it fails with
// ErrAllocationSoldOut instead of ever letting sold exceed the limit.
func (r *dropRepo) IncrementSold(ctx context.Context, dropID, productID int64, qty int) error {
	query, args := r.qb.Update("drop_products").
		Set("sold_quantity", sq.Expr("sold_quantity + ?", qty)).
		Where(sq.Eq{"drop_id": dropID, "product_id": productID}).
		Where(sq.Expr("sold_quantity + ? <= limited_quantity", qty)).
		MustSql()

	res, err := r.execContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to increment sold quantity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrAllocationSoldOut
	}
	return nil
}

type allocationRow struct {
	DropProduct
	Product Product `db:"product"`
}

func (r *dropRepo) ListAllocations(ctx context.Context, dropID int64) ([]entities.DropProductView, error) {
	query, args := r.qb.Select(
		"dp.drop_id", "dp.product_id", "dp.limited_quantity", "dp.sold_quantity", "dp.created_at",
		`p.id as "product.id"`, `p.name as "product.name"`, `p.description as "product.description"`,
		`p.price as "product.price"`, `p.image_url as "product.image_url"`, `p.category as "product.category"`,
		`p.stock as "product.stock"`, `p.status as "product.status"`,
		`p.created_at as "product.created_at"`, `p.updated_at as "product.updated_at"`,
	).
		From("drop_products dp").
		Join("products p ON p.id = dp.product_id").
		Where(sq.Eq{"dp.drop_id": dropID}).
		OrderBy("dp.product_id").
		MustSql()

	var rows []allocationRow
	if err := r.selectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select drop allocations: %w", err)
	}

	views := make([]entities.DropProductView, 0, len(rows))
	for _, row := range rows {
		views = append(views, entities.DropProductView{
			Product:    ProductToEntity(row.Product),
			Allocation: DropProductToEntity(row.DropProduct),
		})
	}
	return views, nil
}

func dropsToEntities(rows []Drop) []entities.Drop {
	drops := make([]entities.Drop, 0, len(rows))
	for _, row := range rows {
		drops = append(drops, DropToEntity(row))
	}
	return drops
}

func columnList(columns []string) string {
	return strings.Join(columns, ", ")
}
