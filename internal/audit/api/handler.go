package api

import (
	"net/http"
	"strconv"

	"venue-cms/internal/audit"
	"venue-cms/internal/utils"
)

type Handler struct {
	Audits *audit.Service
}

func NewHandler(svc *audit.Service) *Handler {
	return &Handler{Audits: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.Audits.List(r.Context(), limit, offset)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", entries)
}
