package counter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx is satisfied by *pgxpool.Pool and pgx.Tx, so a store can be bound to
// the transaction that registers the document. Binding to a tx means a failed
// registration rolls the increment back and the number is never burned.
type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresStore persists one named sequence in the correlatives table.
type PostgresStore struct {
	db       dbtx
	name     string
	baseline int64
}

// NewPostgresStore binds a sequence to a pool or transaction.
func NewPostgresStore(db dbtx, name string, baseline int64) *PostgresStore {
	return &PostgresStore{db: db, name: name, baseline: baseline}
}

// Next issues the next correlative with a single atomic upsert.
func (s *PostgresStore) Next(ctx context.Context) (int64, error) {
	var value int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO correlatives (name, value)
		VALUES ($1, $2 + 1)
		ON CONFLICT (name)
		DO UPDATE SET value = correlatives.value + 1
		RETURNING value
	`, s.name, s.baseline).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("counter: next %s: %w", s.name, err)
	}
	return value, nil
}

// Peek reads the last issued value, or the baseline when none exists.
func (s *PostgresStore) Peek(ctx context.Context) (int64, error) {
	var value int64
	err := s.db.QueryRow(ctx, `SELECT value FROM correlatives WHERE name = $1`, s.name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return s.baseline, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counter: peek %s: %w", s.name, err)
	}
	return value, nil
}
