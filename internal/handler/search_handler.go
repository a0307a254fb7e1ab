package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vetperto/providersearch/internal/model"
	"github.com/vetperto/providersearch/internal/service"
)

// SessionHeader carries the caller's session id. Searches under the same
// session supersede one another (last query wins).
const SessionHeader = "X-Session-ID"

// SearchHandler handles provider search HTTP requests.
type SearchHandler struct {
	search *service.SearchService
	log    *zap.Logger
}

// NewSearchHandler creates a handler wired to the search service.
func NewSearchHandler(search *service.SearchService, log *zap.Logger) *SearchHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SearchHandler{search: search, log: log}
}

// searchResponse wraps the service result with the session id so stateless
// clients can reuse it on the next request.
type searchResponse struct {
	SessionID  string               `json:"session_id"`
	Results    []model.RankedResult `json:"results"`
	TotalCount int                  `json:"total_count"`
}

// Search handles POST /api/v1/search
//
// The request body is a model.Query. Returns 200 with the ranked results,
// 204 when this invocation was superseded by a newer one for the same
// session, or 502 when candidate assembly failed.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var q model.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "bad_request",
			"message": "request body must be a valid search query",
		})
		return
	}

	result, err := h.search.Search(r.Context(), sessionID, q)
	if err != nil {
		h.log.Error("search failed", zap.String("session", sessionID), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "search_failed",
			"message": "Could not load providers. Please retry.",
		})
		return
	}
	if result == nil {
		// Superseded by a newer search for this session; nothing published.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		SessionID:  sessionID,
		Results:    result.Results,
		TotalCount: result.TotalCount,
	})
}

// Results handles GET /api/v1/search/{session_id}
//
// Returns the last published result for the session, or 404.
func (h *SearchHandler) Results(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]

	result, ok := h.search.Results(sessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no_results",
		})
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		SessionID:  sessionID,
		Results:    result.Results,
		TotalCount: result.TotalCount,
	})
}

// Clear handles DELETE /api/v1/search/{session_id}
//
// Cancels any in-flight search for the session and drops its results.
func (h *SearchHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.search.Clear(mux.Vars(r)["session_id"])
	w.WriteHeader(http.StatusNoContent)
}

// CurrentLocation handles GET /api/v1/location/current
//
// Best-effort: 200 with coordinates when a location source is wired and
// answers, 204 otherwise.
func (h *SearchHandler) CurrentLocation(w http.ResponseWriter, r *http.Request) {
	coord := h.search.CurrentLocation(r.Context())
	if coord == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, coord)
}
