package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"venue-cms/internal/apperr"
	"venue-cms/internal/auth"
	"venue-cms/internal/catalog"
	"venue-cms/internal/utils"
)

type Handler struct {
	Catalog *catalog.Service
}

func NewHandler(svc *catalog.Service) *Handler {
	return &Handler{Catalog: svc}
}

// ---------------- PUBLIC ----------------

func (h *Handler) ListPublicShows(w http.ResponseWriter, r *http.Request) {
	shows, err := h.Catalog.ListShows(r.Context(), true)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", shows)
}

func (h *Handler) GetPublicShow(w http.ResponseWriter, r *http.Request) {
	show, err := h.Catalog.PublicShowBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", show)
}

func (h *Handler) GetPublicPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.Catalog.PublicPageBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", page)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Catalog.Settings(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", settings)
}

func (h *Handler) ListPublicFAQ(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ListFAQ(r.Context(), true)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", items)
}

// ---------------- ADMIN: SHOWS ----------------

func (h *Handler) ListShows(w http.ResponseWriter, r *http.Request) {
	shows, err := h.Catalog.ListShows(r.Context(), false)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", shows)
}

func (h *Handler) GetShow(w http.ResponseWriter, r *http.Request) {
	show, err := h.Catalog.ShowByID(r.Context(), chi.URLParam(r, "showId"))
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", show)
}

func (h *Handler) CreateShow(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in catalog.ShowInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	show, err := h.Catalog.CreateShow(r.Context(), identity, in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "show created", show)
}

func (h *Handler) UpdateShow(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in catalog.ShowInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	show, err := h.Catalog.UpdateShow(r.Context(), identity, chi.URLParam(r, "showId"), in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "show updated", show)
}

func (h *Handler) DeleteShow(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	if err := h.Catalog.DeleteShow(r.Context(), identity, chi.URLParam(r, "showId")); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------- ADMIN: PAGES ----------------

func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.Catalog.ListPages(r.Context())
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", pages)
}

func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in catalog.PageInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	page, err := h.Catalog.CreatePage(r.Context(), identity, in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "page created", page)
}

func (h *Handler) UpdatePage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in catalog.PageInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	page, err := h.Catalog.UpdatePage(r.Context(), identity, chi.URLParam(r, "pageId"), in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "page updated", page)
}

func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	if err := h.Catalog.DeletePage(r.Context(), identity, chi.URLParam(r, "pageId")); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------- ADMIN: SETTINGS ----------------

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in catalog.SettingsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	settings, err := h.Catalog.UpdateSettings(r.Context(), identity, in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "settings updated", settings)
}

// ---------------- ADMIN: FAQ ----------------

func (h *Handler) ListFAQ(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ListFAQ(r.Context(), false)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "", items)
}

func (h *Handler) CreateFAQ(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in catalog.FAQInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	item, err := h.Catalog.CreateFAQ(r.Context(), identity, in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "faq item created", item)
}

func (h *Handler) UpdateFAQ(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	var in catalog.FAQInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.WriteError(w, apperr.Validation("invalid request body"))
		return
	}
	item, err := h.Catalog.UpdateFAQ(r.Context(), identity, chi.URLParam(r, "faqId"), in)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "faq item updated", item)
}

func (h *Handler) DeleteFAQ(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.FromContext(r.Context())
	if err := h.Catalog.DeleteFAQ(r.Context(), identity, chi.URLParam(r, "faqId")); err != nil {
		utils.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
