package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/demo-credit/wallet-backend/internal/api/handlers"
	"github.com/demo-credit/wallet-backend/internal/config"
	"github.com/demo-credit/wallet-backend/internal/metrics"
	"github.com/demo-credit/wallet-backend/internal/middleware"
	"github.com/demo-credit/wallet-backend/internal/services"
)

type RouterDeps struct {
	Cfg        config.Config
	AuthMW     *middleware.AuthMiddleware
	Auth       *services.AuthService
	Onboarding *services.OnboardingService
	Ledger     *services.LedgerService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	authH := handlers.NewAuthHandler(d.Auth)
	userH := handlers.NewUserHandler(d.Onboarding)
	walletH := handlers.NewWalletHandler(d.Ledger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authH.Login)
		r.Post("/users/register", userH.Register)

		r.Group(func(r chi.Router) {
			r.Use(d.AuthMW.Auth)
			r.Get("/users/profile", userH.Profile)

			r.Route("/wallet", func(r chi.Router) {
				r.Get("/balance", walletH.Balance)
				r.Post("/fund", walletH.Fund)
				r.Post("/transfer", walletH.Transfer)
				r.Post("/withdraw", walletH.Withdraw)
				r.Get("/transactions", walletH.Transactions)
			})
		})
	})

	return r
}
