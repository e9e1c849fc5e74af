package postgres

import (
	"context"
	"errors"

	"github.com/demo-credit/wallet-backend/internal/apperr"
	"github.com/demo-credit/wallet-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type usersRepo struct{ q querier }

const userColumns = `id, email, first_name, last_name, phone, account_number, karma_is_blacklisted, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone,
		&u.AccountNumber, &u.IsBlacklisted, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, apperr.NotFound("user not found")
	}
	return u, err
}

func (r *usersRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	row := r.q.QueryRow(ctx,
		`INSERT INTO users(id, email, first_name, last_name, phone, account_number, karma_is_blacklisted)
		 VALUES($1,$2,$3,$4,$5,$6,$7)
		 RETURNING `+userColumns,
		u.ID, u.Email, u.FirstName, u.LastName, u.Phone, u.AccountNumber, u.IsBlacklisted,
	)
	out, err := scanUser(row)
	if apperr.IsUniqueViolation(err) {
		return models.User{}, apperr.Conflict("email or account number already exists")
	}
	return out, err
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *usersRepo) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *usersRepo) GetByAccountNumber(ctx context.Context, accountNumber string) (models.User, error) {
	return scanUser(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE account_number=$1`, accountNumber))
}

func (r *usersRepo) AccountNumberExists(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE account_number=$1)`, accountNumber).Scan(&exists)
	return exists, err
}

func (r *usersRepo) SetBlacklisted(ctx context.Context, id string, flag bool) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE users SET karma_is_blacklisted=$2, updated_at=now() WHERE id=$1`, id, flag)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (r *usersRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Phone,
			&u.AccountNumber, &u.IsBlacklisted, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
