package repo

import (
	"context"
	"database/sql"

	"github.com/droplabs/drop-service/pkg/trm"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// querier routes statements through the ambient transaction when the
// context carries one, so a service-level trm.Do covers every repo call
// made inside it.
type querier struct {
	db *sqlx.DB
	qb sq.StatementBuilderType
}

func newQuerier(db *sqlx.DB) querier {
	return querier{
		db: db,
		qb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (q querier) execContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if tx := trm.ExtractTx(ctx); tx != nil {
		return tx.ExecContext(ctx, query, args...)
	}
	return q.db.ExecContext(ctx, query, args...)
}

func (q querier) getContext(ctx context.Context, dest any, query string, args ...any) error {
	if tx := trm.ExtractTx(ctx); tx != nil {
		return tx.GetContext(ctx, dest, query, args...)
	}
	return q.db.GetContext(ctx, dest, query, args...)
}

func (q querier) selectContext(ctx context.Context, dest any, query string, args ...any) error {
	if tx := trm.ExtractTx(ctx); tx != nil {
		return tx.SelectContext(ctx, dest, query, args...)
	}
	return q.db.SelectContext(ctx, dest, query, args...)
}
