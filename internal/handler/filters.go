package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pmorell/localevents/internal/model"
)

// UpdateFilters handles PATCH /api/filters
// Applies a partial filter update to the session.
func (h *DiscoveryHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var update model.FilterUpdate
	if err := decodeJSON(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.eng.SetFilter(s, update); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Filters())
}

// ToggleCategory handles POST /api/filters/categories/{category}/toggle
func (h *DiscoveryHandler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	category := chi.URLParam(r, "category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}
	h.eng.ToggleCategory(s, category)
	writeJSON(w, http.StatusOK, s.Filters())
}
