package services

import (
	"context"
	"strings"
	"time"

	"github.com/demo-credit/wallet-backend/internal/apperr"
	"github.com/demo-credit/wallet-backend/internal/ident"
	"github.com/demo-credit/wallet-backend/internal/karma"
	"github.com/demo-credit/wallet-backend/internal/models"
	"github.com/demo-credit/wallet-backend/internal/repository"
	"github.com/shopspring/decimal"
)

// OnboardingService creates a user and their zero-balance wallet as one unit,
// after a fail-open blacklist check.
type OnboardingService struct {
	store     repository.Store
	checker   karma.Checker
	currency  string
	txTimeout time.Duration
}

func NewOnboardingService(store repository.Store, checker karma.Checker, currency string, txTimeout time.Duration) *OnboardingService {
	return &OnboardingService{store: store, checker: checker, currency: currency, txTimeout: txTimeout}
}

func (s *OnboardingService) Register(ctx context.Context, draft models.UserDraft) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(draft.Email))

	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return models.User{}, apperr.Conflict("user with this email already exists")
	} else if apperr.StatusOf(err) != 404 {
		return models.User{}, err
	}

	if s.checker.CheckBlacklisted(ctx, email) {
		return models.User{}, apperr.Forbidden("user is blacklisted and cannot be onboarded")
	}

	accountNumber, err := ident.NewAccountNumber(ctx, s.store.Users().AccountNumberExists)
	if err != nil {
		return models.User{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var user models.User
	err = s.store.WithTx(ctx, func(ctx context.Context, st repository.Store) error {
		user, err = st.Users().Create(ctx, models.User{
			Email:         email,
			FirstName:     draft.FirstName,
			LastName:      draft.LastName,
			Phone:         draft.Phone,
			AccountNumber: accountNumber,
			IsBlacklisted: false,
		})
		if err != nil {
			return err
		}
		_, err = st.Wallets().Create(ctx, models.Wallet{
			UserID:   user.ID,
			Balance:  decimal.Zero,
			Currency: s.currency,
			Status:   models.WalletActive,
		})
		return err
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *OnboardingService) GetByID(ctx context.Context, id string) (models.User, error) {
	return s.store.Users().GetByID(ctx, id)
}
