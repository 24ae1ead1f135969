package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// SamplesHandler handles HTTP requests for recorded sign samples.
type SamplesHandler struct {
	store *store.Store
}

// NewSamplesHandler creates a new SamplesHandler with the given store.
func NewSamplesHandler(s *store.Store) *SamplesHandler {
	return &SamplesHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/signs/{id}/samples
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/signs/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[0] == "" || parts[1] != "samples" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	signID := parts[0]

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, signID)
	case http.MethodPost:
		h.create(w, r, signID)
	case http.MethodDelete:
		h.clear(w, r, signID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createSamplesRequest struct {
	Samples [][]float32 `json:"samples"`
}

type sampleResponse struct {
	ID        int64     `json:"id"`
	SignID    string    `json:"sign_id"`
	Landmarks []float32 `json:"landmarks"`
	CreatedAt string    `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

// requireSign writes a 404 and returns false when the sign does not exist.
func (h *SamplesHandler) requireSign(w http.ResponseWriter, signID string) bool {
	if _, err := h.store.Signs().GetByID(signID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Sign not found")
			return false
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify sign")
		return false
	}
	return true
}

// list handles GET /api/signs/{id}/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, signID string) {
	if !h.requireSign(w, signID) {
		return
	}

	samples, err := h.store.Samples().ListBySign(signID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:        s.ID,
			SignID:    s.SignID,
			Landmarks: s.Landmarks,
			CreatedAt: formatTime(s.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/signs/{id}/samples
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, signID string) {
	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	if err := h.store.Samples().Add(signID, req.Samples); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Sign not found")
		case errors.Is(err, store.ErrInvalidSample):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "Failed to save samples")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"added": len(req.Samples)})
}

// clear handles DELETE /api/signs/{id}/samples
func (h *SamplesHandler) clear(w http.ResponseWriter, r *http.Request, signID string) {
	if !h.requireSign(w, signID) {
		return
	}

	if err := h.store.Samples().DeleteBySign(signID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
