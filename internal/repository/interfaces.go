package repository

import (
	"context"

	"github.com/demo-credit/wallet-backend/internal/models"
	"github.com/shopspring/decimal"
)

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (models.User, error)
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
	SetBlacklisted(ctx context.Context, id string, flag bool) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

type Wallets interface {
	Create(ctx context.Context, w models.Wallet) (models.Wallet, error)
	GetByID(ctx context.Context, id string) (models.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (models.Wallet, error)

	// GetByUserIDForUpdate locks the wallet row for the remainder of the
	// enclosing transaction. Only valid inside WithTx.
	GetByUserIDForUpdate(ctx context.Context, userID string) (models.Wallet, error)

	// LockPair locks both wallet rows in id order (whatever order the
	// arguments come in) so opposing transfers cannot deadlock, and returns
	// them in argument order. Only valid inside WithTx.
	LockPair(ctx context.Context, id1, id2 string) (models.Wallet, models.Wallet, error)

	// UpdateBalance overwrites the balance field. Only called under a row
	// lock inside WithTx.
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error
}

type Transactions interface {
	Create(ctx context.Context, t models.Transaction) (models.Transaction, error)
	UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error
	GetByID(ctx context.Context, id string) (models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (models.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, int64, error)
}

// Store aggregates the repositories over one querier: either the pool or, for
// the Store handed to a WithTx closure, a single database transaction.
type Store interface {
	Users() Users
	Wallets() Wallets
	Transactions() Transactions

	// WithTx runs fn as one atomic unit of work: every repository call made
	// through the Store passed to fn shares a transaction that commits only
	// if fn returns nil and rolls back in full otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
