package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"venue-cms/internal/apperr"
	"venue-cms/internal/auth"
	"venue-cms/internal/order"
	"venue-cms/internal/utils"
)

type Handler struct {
	Orders *order.Service
}

func NewHandler(svc *order.Service) *Handler {
	return &Handler{Orders: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in order.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	o, err := h.Orders.Create(r.Context(), identity, in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "order confirmed", o)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	orders, err := h.Orders.ListMine(r.Context(), identity)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", orders)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	o, err := h.Orders.GetByID(r.Context(), identity, chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", o)
}

func (h *Handler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	o, err := h.Orders.GetByNumber(r.Context(), identity, chi.URLParam(r, "orderNumber"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", o)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	o, err := h.Orders.Cancel(r.Context(), identity, chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "order cancelled", o)
}

// Pass streams the PNG QR entry pass rather than the JSON envelope.
func (h *Handler) Pass(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	png, err := h.Orders.Pass(r.Context(), identity, chi.URLParam(r, "orderId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// ListAll is the admin view across every purchaser.
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListAll(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", orders)
}
