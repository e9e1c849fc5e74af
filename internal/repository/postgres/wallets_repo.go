package postgres

import (
	"context"
	"errors"

	"github.com/demo-credit/wallet-backend/internal/apperr"
	"github.com/demo-credit/wallet-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type walletsRepo struct{ q querier }

const walletColumns = `id, user_id, balance, currency, status, created_at, updated_at`

func scanWallet(row pgx.Row) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance, &w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Wallet{}, apperr.NotFound("wallet not found")
	}
	return w, err
}

func (r *walletsRepo) Create(ctx context.Context, w models.Wallet) (models.Wallet, error) {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = models.WalletActive
	}
	row := r.q.QueryRow(ctx,
		`INSERT INTO wallets(id, user_id, balance, currency, status)
		 VALUES($1,$2,$3,$4,$5)
		 RETURNING `+walletColumns,
		w.ID, w.UserID, w.Balance, w.Currency, w.Status,
	)
	out, err := scanWallet(row)
	if apperr.IsUniqueViolation(err) {
		return models.Wallet{}, apperr.Conflict("user already has a wallet")
	}
	return out, err
}

func (r *walletsRepo) GetByID(ctx context.Context, id string) (models.Wallet, error) {
	return scanWallet(r.q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id=$1`, id))
}

func (r *walletsRepo) GetByUserID(ctx context.Context, userID string) (models.Wallet, error) {
	return scanWallet(r.q.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id=$1`, userID))
}

func (r *walletsRepo) GetByUserIDForUpdate(ctx context.Context, userID string) (models.Wallet, error) {
	return scanWallet(r.q.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id=$1 FOR UPDATE`, userID))
}

func (r *walletsRepo) LockPair(ctx context.Context, id1, id2 string) (models.Wallet, models.Wallet, error) {
	// ORDER BY id fixes the lock acquisition order no matter which direction
	// money is moving, so two opposing transfers cannot deadlock.
	rows, err := r.q.Query(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`,
		[]string{id1, id2})
	if err != nil {
		return models.Wallet{}, models.Wallet{}, err
	}
	defer rows.Close()

	byID := make(map[string]models.Wallet, 2)
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Balance, &w.Currency, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return models.Wallet{}, models.Wallet{}, err
		}
		byID[w.ID] = w
	}
	if err := rows.Err(); err != nil {
		return models.Wallet{}, models.Wallet{}, err
	}
	w1, ok1 := byID[id1]
	w2, ok2 := byID[id2]
	if !ok1 || !ok2 {
		return models.Wallet{}, models.Wallet{}, apperr.NotFound("wallet not found")
	}
	return w1, w2, nil
}

func (r *walletsRepo) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE wallets SET balance=$2, updated_at=now() WHERE id=$1`, id, balance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("wallet not found")
	}
	return nil
}
