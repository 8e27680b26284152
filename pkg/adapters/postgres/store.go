// Package postgres implements ports.DataStore on a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aretw0/srag/internal/guardrail"
	"github.com/aretw0/srag/pkg/domain"
	"github.com/aretw0/srag/pkg/ports"
)

// Beginner opens transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// Store runs every query inside a read-only transaction that is always
// rolled back.
type Store struct {
	db    Beginner
	close func()
}

// Option adjusts the pool configuration.
type Option func(*pgxpool.Config)

// WithMaxConns caps the pool size. Zero keeps the pgx default.
func WithMaxConns(n int32) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

// New connects a pool to url.
func New(ctx context.Context, url string, opts ...Option) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &Store{db: pool, close: pool.Close}, nil
}

// NewFromBeginner wraps an existing pool or connection.
func NewFromBeginner(db Beginner) *Store {
	return &Store{db: db}
}

// Execute implements ports.DataStore.
func (s *Store) Execute(ctx context.Context, query string) ([]ports.Row, error) {
	if !guardrail.StartsReadOnly(query) {
		return nil, domain.ErrReadOnlyViolation
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	out := make([]ports.Row, 0, len(maps))
	for _, m := range maps {
		row := make(ports.Row, len(m))
		for k, v := range m {
			row[k] = Normalize(v)
		}
		out = append(out, row)
	}
	return out, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.db.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the pool when the Store owns it.
func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Normalize converts driver values into plain scalars so that row sets
// render the same regardless of column types.
func Normalize(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		if !t.Valid || t.NaN {
			return nil
		}
		if t.Exp >= 0 && t.InfinityModifier == pgtype.Finite {
			i := new(big.Int).Set(t.Int)
			i.Mul(i, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(t.Exp)), nil))
			if i.IsInt64() {
				return i.Int64()
			}
		}
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.UTC().Format(time.RFC3339)
	case []byte:
		return string(t)
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", t[0:4], t[4:6], t[6:8], t[8:10], t[10:16])
	}
	return v
}
