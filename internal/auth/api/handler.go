package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"venue-cms/internal/apperr"
	"venue-cms/internal/auth"
	"venue-cms/internal/logger"
	"venue-cms/internal/models"
	"venue-cms/internal/utils"
)

type Handler struct {
	Auth   *auth.Service
	Logger *logger.Logger
}

func NewHandler(svc *auth.Service, log *logger.Logger) *Handler {
	return &Handler{Auth: svc, Logger: log}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResponse struct {
	User    *models.User `json:"user"`
	Access  tokenPart    `json:"access"`
	Refresh tokenPart    `json:"refresh"`
}

func toAuthResponse(res *auth.AuthResult) authResponse {
	return authResponse{
		User:    res.User,
		Access:  tokenPart{Token: res.Tokens.Access.Token, Expires: res.Tokens.Access.Exp},
		Refresh: tokenPart{Token: res.Tokens.Refresh.Raw, Expires: res.Tokens.Refresh.Exp},
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	res, err := h.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Register: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "registered", toAuthResponse(res))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	res, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Logger.LogSecurity("LOGIN", fmt.Sprintf("failed login for %s: %v", req.Email, err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "logged in", toAuthResponse(res))
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	res, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "refreshed", toAuthResponse(res))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	if err := h.Auth.Logout(r.Context(), req.RefreshToken); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		utils.WriteError(w, apperr.Unauthorized("not authenticated"))
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", identity)
}

// ---------------- ADMIN USER MANAGEMENT ----------------

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.ListUsers(r.Context())
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("ListUsers: %v", err))
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", users)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in auth.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	user, err := h.Auth.CreateUser(r.Context(), identity, in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "user created", user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in auth.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	user, err := h.Auth.UpdateUser(r.Context(), identity, chi.URLParam(r, "userId"), in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "user updated", user)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	if err := h.Auth.DeleteUser(r.Context(), identity, chi.URLParam(r, "userId")); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
