package postgres

import (
	"context"

	"github.com/demo-credit/wallet-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same repo
// code runs inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type store struct {
	pool *pgxpool.Pool
	q    querier
}

func NewStore(pool *pgxpool.Pool) repository.Store {
	return &store{pool: pool, q: pool}
}

func (s *store) Users() repository.Users               { return &usersRepo{q: s.q} }
func (s *store) Wallets() repository.Wallets           { return &walletsRepo{q: s.q} }
func (s *store) Transactions() repository.Transactions { return &transactionsRepo{q: s.q} }

func (s *store) WithTx(ctx context.Context, fn func(ctx context.Context, st repository.Store) error) error {
	if _, ok := s.q.(pgx.Tx); ok {
		// already transactional; run in the enclosing unit
		return fn(ctx, s)
	}
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		return err
	}
	if err := fn(ctx, &store{pool: s.pool, q: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
