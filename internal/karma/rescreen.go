package karma

import (
	"context"
	"log/slog"
	"time"

	"github.com/demo-credit/wallet-backend/internal/repository"
	"github.com/demo-credit/wallet-backend/internal/worker"
)

const rescreenPageSize = 100

type Checker interface {
	CheckBlacklisted(ctx context.Context, email string) bool
}

// Rescreener periodically re-checks onboarded users against the blacklist and
// updates the stored flag when the verdict changed. Onboarding itself always
// writes the flag as false; this sweep is the only writer afterwards.
type Rescreener struct {
	users   repository.Users
	checker Checker
	pool    *worker.Pool
	log     *slog.Logger
	every   time.Duration
}

func NewRescreener(users repository.Users, checker Checker, pool *worker.Pool, every time.Duration, log *slog.Logger) *Rescreener {
	return &Rescreener{users: users, checker: checker, pool: pool, log: log, every: every}
}

// Run blocks until ctx is cancelled. A zero interval disables the sweep.
func (r *Rescreener) Run(ctx context.Context) {
	if r.every <= 0 {
		return
	}
	ticker := time.NewTicker(r.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Rescreener) sweep(ctx context.Context) {
	for offset := 0; ; offset += rescreenPageSize {
		users, err := r.users.List(ctx, rescreenPageSize, offset)
		if err != nil {
			r.log.Error("rescreen: list users", "err", err)
			return
		}
		if len(users) == 0 {
			return
		}
		for _, u := range users {
			u := u
			r.pool.Submit(func() {
				flagged := r.checker.CheckBlacklisted(ctx, u.Email)
				if flagged == u.IsBlacklisted {
					return
				}
				if err := r.users.SetBlacklisted(ctx, u.ID, flagged); err != nil {
					r.log.Error("rescreen: update flag", "user_id", u.ID, "err", err)
					return
				}
				r.log.Info("rescreen: blacklist flag changed", "user_id", u.ID, "blacklisted", flagged)
			})
		}
	}
}
