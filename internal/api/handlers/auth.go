package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/demo-credit/wallet-backend/internal/api/httpx"
	"github.com/demo-credit/wallet-backend/internal/api/validate"
	"github.com/demo-credit/wallet-backend/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func NewAuthHandler(a *services.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

type loginReq struct {
	Email string `json:"email"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	var errs validate.Errs
	if e := validate.Required("email", req.Email); e != nil {
		errs = append(errs, *e)
	} else if e := validate.Email("email", req.Email); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", errs.Error())
		return
	}

	res, err := h.Auth.Login(r.Context(), req.Email)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "login successful", res)
}
