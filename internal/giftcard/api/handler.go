package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"venue-cms/internal/apperr"
	"venue-cms/internal/auth"
	"venue-cms/internal/giftcard"
	"venue-cms/internal/utils"
)

type Handler struct {
	GiftCards *giftcard.Service
}

func NewHandler(svc *giftcard.Service) *Handler {
	return &Handler{GiftCards: svc}
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.GiftCards.GetBalance(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", map[string]float64{"balance": balance})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in giftcard.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	card, err := h.GiftCards.Create(r.Context(), identity, in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "gift card created", card)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cards, err := h.GiftCards.List(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", cards)
}
