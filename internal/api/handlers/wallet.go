package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/demo-credit/wallet-backend/internal/api/httpx"
	"github.com/demo-credit/wallet-backend/internal/api/validate"
	"github.com/demo-credit/wallet-backend/internal/middleware"
	"github.com/demo-credit/wallet-backend/internal/services"
)

type WalletHandler struct {
	Ledger *services.LedgerService
}

func NewWalletHandler(l *services.LedgerService) *WalletHandler {
	return &WalletHandler{Ledger: l}
}

func authedUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing user")
	}
	return userID, ok
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	wallet, err := h.Ledger.Balance(r.Context(), userID)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "wallet balance retrieved successfully", map[string]any{
		"wallet": map[string]any{
			"balance":  wallet.Balance,
			"currency": wallet.Currency,
			"status":   wallet.Status,
		},
	})
}

type fundReq struct {
	Amount      validate.Amount `json:"amount"`
	Description string          `json:"description"`
}

func (h *WalletHandler) Fund(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req fundReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if e := validate.PositiveAmount("amount", req.Amount); e != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", validate.Errs{*e}.Error())
		return
	}

	entry, err := h.Ledger.Fund(r.Context(), userID, req.Amount.Decimal, req.Description)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "wallet funded successfully", map[string]any{"transaction": entry})
}

type withdrawReq struct {
	Amount      validate.Amount `json:"amount"`
	Description string          `json:"description"`
}

func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req withdrawReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if e := validate.PositiveAmount("amount", req.Amount); e != nil {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", validate.Errs{*e}.Error())
		return
	}

	entry, err := h.Ledger.Withdraw(r.Context(), userID, req.Amount.Decimal, req.Description)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "withdrawal completed successfully", map[string]any{"transaction": entry})
}

type transferReq struct {
	RecipientAccountNumber string          `json:"recipient_account_number"`
	Amount                 validate.Amount `json:"amount"`
	Description            string          `json:"description"`
}

func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	var req transferReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	var errs validate.Errs
	if e := validate.AccountNumber("recipient_account_number", req.RecipientAccountNumber); e != nil {
		errs = append(errs, *e)
	}
	if e := validate.PositiveAmount("amount", req.Amount); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", errs.Error())
		return
	}

	entry, err := h.Ledger.Transfer(r.Context(), userID, req.RecipientAccountNumber, req.Amount.Decimal, req.Description)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "transfer completed successfully", map[string]any{"transaction": entry})
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUser(w, r)
	if !ok {
		return
	}
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	history, err := h.Ledger.GetHistory(r.Context(), userID, page, limit)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "transactions retrieved successfully", history)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}
