// Package relational implements store.Relational on PostgreSQL through pgxpool.
package relational

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/store"
)

// PostgreSQL error codes translated into store sentinels.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store is the PostgreSQL relational store.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect creates a pool for dsn. Connections are established lazily.
func Connect(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	return &Store{pool: pool, logger: logger.ForStore(log, store.NameRelational)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// translate maps driver errors onto store sentinels.
func translate(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	op := fmt.Sprintf(format, args...)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, store.ErrDuplicate, pgErr.ConstraintName)
		case foreignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, store.ErrNotFound, pgErr.ConstraintName)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}

// exec runs a statement that must touch at least one row.
func (s *Store) exec(ctx context.Context, op, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return translate(err, "%s", op)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return nil
}

func collect[T any](ctx context.Context, s *Store, op string, scan func(pgx.CollectableRow) (*T, error), sql string, args ...any) ([]*T, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(err, "%s", op)
	}

	items, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, translate(err, "%s", op)
	}
	if items == nil {
		items = make([]*T, 0)
	}
	return items, nil
}
