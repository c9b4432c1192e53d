package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/set-night/julie/internal/repository/sqlc"
)

// Beginner is satisfied by *pgxpool.Pool.
type Beginner interface {
	sqlc.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store is a Repository bound to the pool that can also open transactions.
type Store struct {
	Repository
	pool    Beginner
	queries *sqlc.Queries
}

func NewStore(pool Beginner) *Store {
	queries := sqlc.New(pool)
	return &Store{
		Repository: &queriesRepository{queries: queries},
		pool:       pool,
		queries:    queries,
	}
}

// InTx runs fn inside one transaction. The transaction commits only when fn
// returns nil; an error or a panic from fn rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&queriesRepository{queries: s.queries.WithTx(tx)}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
