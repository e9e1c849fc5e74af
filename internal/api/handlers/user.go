package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/demo-credit/wallet-backend/internal/api/httpx"
	"github.com/demo-credit/wallet-backend/internal/api/validate"
	"github.com/demo-credit/wallet-backend/internal/middleware"
	"github.com/demo-credit/wallet-backend/internal/models"
	"github.com/demo-credit/wallet-backend/internal/services"
)

type UserHandler struct {
	Onboarding *services.OnboardingService
}

func NewUserHandler(o *services.OnboardingService) *UserHandler {
	return &UserHandler{Onboarding: o}
}

type registerReq struct {
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone,omitempty"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
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
	if e := validate.Required("first_name", req.FirstName); e != nil {
		errs = append(errs, *e)
	}
	if e := validate.Required("last_name", req.LastName); e != nil {
		errs = append(errs, *e)
	}
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", errs.Error())
		return
	}

	user, err := h.Onboarding.Register(r.Context(), models.UserDraft{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, "user created successfully", map[string]any{"user": user})
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing user")
		return
	}
	user, err := h.Onboarding.GetByID(r.Context(), userID)
	if err != nil {
		httpx.WriteServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, "profile retrieved successfully", map[string]any{"user": user})
}
