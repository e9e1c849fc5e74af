package postgres

import (
	"context"
	"errors"

	"github.com/demo-credit/wallet-backend/internal/apperr"
	"github.com/demo-credit/wallet-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type transactionsRepo struct{ q querier }

const txnColumns = `id, reference, user_id, wallet_id, type, amount, description, status, metadata, created_at, updated_at`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	var description *string
	err := row.Scan(&t.ID, &t.Reference, &t.UserID, &t.WalletID, &t.Type, &t.Amount,
		&description, &t.Status, &t.Metadata, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, apperr.NotFound("transaction not found")
	}
	if description != nil {
		t.Description = *description
	}
	return t, err
}

func (r *transactionsRepo) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.TxnPending
	}
	row := r.q.QueryRow(ctx,
		`INSERT INTO transactions(id, reference, user_id, wallet_id, type, amount, description, status, metadata)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING `+txnColumns,
		t.ID, t.Reference, t.UserID, t.WalletID, t.Type, t.Amount, t.Description, t.Status, t.Metadata,
	)
	out, err := scanTransaction(row)
	if apperr.IsUniqueViolation(err) {
		return models.Transaction{}, apperr.Conflict("transaction reference already exists")
	}
	return out, err
}

// UpdateStatus transitions PENDING -> COMPLETED|FAILED. Entries already in a
// terminal state never match the WHERE clause, so they can't be rewritten.
func (r *transactionsRepo) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE transactions SET status=$2, updated_at=now() WHERE id=$1 AND status=$3`,
		id, status, models.TxnPending)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("transaction not found")
		}
		return apperr.InvalidState("transaction already in a terminal state")
	}
	return nil
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	return scanTransaction(r.q.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE id=$1`, id))
}

func (r *transactionsRepo) GetByReference(ctx context.Context, reference string) (models.Transaction, error) {
	return scanTransaction(r.q.QueryRow(ctx, `SELECT `+txnColumns+` FROM transactions WHERE reference=$1`, reference))
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, int64, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+txnColumns+` FROM transactions
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var description *string
		if err := rows.Scan(&t.ID, &t.Reference, &t.UserID, &t.WalletID, &t.Type, &t.Amount,
			&description, &t.Status, &t.Metadata, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if description != nil {
			t.Description = *description
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE user_id=$1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
