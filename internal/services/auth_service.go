package services

import (
	"context"
	"strings"
	"time"

	"github.com/demo-credit/wallet-backend/internal/apperr"
	"github.com/demo-credit/wallet-backend/internal/auth"
	"github.com/demo-credit/wallet-backend/internal/models"
	"github.com/demo-credit/wallet-backend/internal/repository"
	"github.com/shopspring/decimal"
)

type AuthService struct {
	store repository.Store
	tm    *auth.TokenManager
}

func NewAuthService(store repository.Store, tm *auth.TokenManager) *AuthService {
	return &AuthService{store: store, tm: tm}
}

type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      models.User     `json:"user"`
	Balance   decimal.Decimal `json:"balance"`
}

func (s *AuthService) Login(ctx context.Context, email string) (LoginResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return LoginResult{}, err
	}
	if user.IsBlacklisted {
		return LoginResult{}, apperr.Forbidden("user is blacklisted")
	}
	wallet, err := s.store.Wallets().GetByUserID(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	token, exp, err := s.tm.Generate(user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp, User: user, Balance: wallet.Balance}, nil
}
