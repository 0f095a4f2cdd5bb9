// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the discovery engine.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pmorell/localevents/internal/engine"
	"github.com/pmorell/localevents/internal/export"
	"github.com/pmorell/localevents/internal/interaction"
	"github.com/pmorell/localevents/internal/model"
	"github.com/pmorell/localevents/internal/repository"
	"github.com/pmorell/localevents/internal/selection"
)

// SessionHeader carries the client's session id.
const SessionHeader = "X-Session-ID"

// DiscoveryHandler holds all HTTP handlers for the discovery API.
type DiscoveryHandler struct {
	eng   *engine.Engine
	cache *interaction.Cache
	repo  *repository.EventRepository // nil when no database source is configured
}

// NewDiscoveryHandler constructs a DiscoveryHandler. repo may be nil;
// event submission then responds 503.
func NewDiscoveryHandler(eng *engine.Engine, cache *interaction.Cache, repo *repository.EventRepository) *DiscoveryHandler {
	return &DiscoveryHandler{eng: eng, cache: cache, repo: repo}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (h *DiscoveryHandler) session(w http.ResponseWriter, r *http.Request) (*engine.Session, bool) {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing "+SessionHeader+" header")
		return nil, false
	}
	s, err := h.eng.Session(id)
	if err != nil {
		if errors.Is(err, engine.ErrNoSession) {
			writeError(w, http.StatusNotFound, "unknown session")
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, "session lookup failed")
		return nil, false
	}
	return s, true
}

// selectionView is the detail-panel payload: the selection state plus
// the open event, the session's location path, and the last map center
// propagated by a deep link.
type selectionView struct {
	Selection model.SelectionState `json:"selection"`
	Event     *model.Event         `json:"event,omitempty"`
	Path      string               `json:"path"`
	MapCenter *model.LatLng        `json:"map_center,omitempty"`
}

func (h *DiscoveryHandler) selectionViewOf(s *engine.Session) selectionView {
	view := selectionView{
		Selection: s.Selection(),
		Path:      s.Path(),
		MapCenter: s.MapCenter(),
	}
	if e, ok := s.SelectedEvent(); ok {
		view.Event = &e
	}
	return view
}

// ─── Session lifecycle ────────────────────────────────────────────────────────

// CreateSession handles POST /api/session
// Issues a new session id for filter/selection state.
func (h *DiscoveryHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.eng.NewSession()
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": s.ID})
}

// ─── Event list ───────────────────────────────────────────────────────────────

// ListEvents handles GET /api/events
// Returns the session's filtered and ranked event list.
func (h *DiscoveryHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	events := h.eng.FilteredAndRankedEvents(s)
	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// ExportICS handles GET /api/events.ics
// Serves the session's filtered and ranked list as an iCalendar feed.
func (h *DiscoveryHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	body := export.ICS(h.eng.FilteredAndRankedEvents(s), "Local Events")
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename=local-events.ics`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// SubmitEvent handles POST /api/events
// Persists a submitted event to the database source.
func (h *DiscoveryHandler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		writeError(w, http.StatusServiceUnavailable, "event submission is not enabled")
		return
	}

	var req model.SubmitEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := validateSubmission(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, err := h.repo.Create(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// Status handles GET /api/status
// Reports the dismissible fetch status message, if any.
func (h *DiscoveryHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"error": h.eng.LastError()})
}

// DismissStatus handles DELETE /api/status
func (h *DiscoveryHandler) DismissStatus(w http.ResponseWriter, r *http.Request) {
	h.eng.DismissError()
	w.WriteHeader(http.StatusNoContent)
}

// ─── Selection ────────────────────────────────────────────────────────────────

// GetSelection handles GET /api/selection
func (h *DiscoveryHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.selectionViewOf(s))
}

// Select handles POST /api/selection
// Opens an event by id, as a user click would.
func (h *DiscoveryHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req model.SelectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h.eng.Select(s, req.ID)
	writeJSON(w, http.StatusOK, h.selectionViewOf(s))
}

// CloseSelection handles DELETE /api/selection
// Dismisses the open event.
func (h *DiscoveryHandler) CloseSelection(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.eng.CloseSelection(s)
	writeJSON(w, http.StatusOK, h.selectionViewOf(s))
}

// SetTab handles POST /api/selection/tab
func (h *DiscoveryHandler) SetTab(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Tab string `json:"tab"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	switch tab := model.DetailTab(req.Tab); tab {
	case model.TabDetails, model.TabShare:
		h.eng.SetTab(s, tab)
	default:
		writeError(w, http.StatusBadRequest, "unknown tab")
		return
	}
	writeJSON(w, http.StatusOK, h.selectionViewOf(s))
}

// Navigate handles POST /api/navigate
// Relays a back/forward navigation result for the session.
func (h *DiscoveryHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Path string `json:"path"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	h.eng.Navigated(s, req.Path)
	writeJSON(w, http.StatusOK, h.selectionViewOf(s))
}

// ─── Deep links ───────────────────────────────────────────────────────────────

// DeepLink handles the event URL forms:
//
//	GET /e/{slug}
//	GET /events/{slug}
//	GET /us/{state}/{city}/events/{slug}
func (h *DiscoveryHandler) DeepLink(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	slug := chi.URLParam(r, "slug")
	h.eng.OpenSlug(r.Context(), s, slug)
	writeJSON(w, http.StatusOK, h.selectionViewOf(s))
}

// Root handles GET /
// The root path denotes no selection; a legacy ?event=id parameter
// selects by id against the loaded list and is stripped regardless.
func (h *DiscoveryHandler) Root(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if id := r.URL.Query().Get("event"); id != "" {
		h.eng.OpenLegacyID(s, id)
	} else {
		h.eng.Navigated(s, selection.RootPath)
	}
	writeJSON(w, http.StatusOK, h.selectionViewOf(s))
}

// ─── Interactions ─────────────────────────────────────────────────────────────

// MarkInterest handles POST /api/events/{id}/interest
func (h *DiscoveryHandler) MarkInterest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec := h.cache.AddInterest(id)
	writeJSON(w, http.StatusOK, rec)
}

// MarkViewed handles POST /api/events/{id}/view
func (h *DiscoveryHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec := h.cache.MarkViewed(id)
	writeJSON(w, http.StatusOK, rec)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── Validation ───────────────────────────────────────────────────────────────

func validateSubmission(req model.SubmitEventRequest) error {
	switch {
	case req.Title == "":
		return errors.New("title is required")
	case req.Date == "":
		return errors.New("date is required")
	case req.Lat < -90 || req.Lat > 90:
		return errors.New("lat out of range")
	case req.Lng < -180 || req.Lng > 180:
		return errors.New("lng out of range")
	}
	return nil
}
