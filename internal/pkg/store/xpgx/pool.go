// Package xpgx is a thin squirrel-aware wrapper around a pgx connection pool.
package xpgx

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the wrapper needs. Kept narrow so tests
// can substitute a fake; the analytics engine is read-only, so there is no
// Exec surface.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type Pool struct {
	db DB
}

func NewPool(db DB) *Pool {
	return &Pool{db: db}
}

// Connect opens a pgx pool against dsn and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("pool.Ping: %w", err)
	}
	return &Pool{db: pool}, nil
}

// Queryx renders q and executes it, returning the raw rows.
func (p *Pool) Queryx(ctx context.Context, q sq.Sqlizer) (pgx.Rows, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return p.db.Query(ctx, sql, args...)
}

// Getx renders q and executes it expecting a single row.
func (p *Pool) Getx(ctx context.Context, q sq.Sqlizer) (pgx.Row, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return p.db.QueryRow(ctx, sql, args...), nil
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}
