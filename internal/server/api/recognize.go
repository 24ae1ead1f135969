package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/features"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
)

// SessionTTL is how long an unused prediction session keeps its history.
const SessionTTL = 5 * time.Minute

// FeaturesHandler computes every feature family for a posted landmark set.
// Expected path: POST /api/features
type FeaturesHandler struct{}

// NewFeaturesHandler creates a FeaturesHandler.
func NewFeaturesHandler() *FeaturesHandler {
	return &FeaturesHandler{}
}

func (h *FeaturesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req landmarksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	hand, ok := handFromFlat(w, req.Landmarks)
	if !ok {
		return
	}

	set, err := features.ExtractAll(&hand)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, set)
}

// handFromFlat converts posted landmarks to a validated hand. It writes a 400
// and returns false on bad input.
func handFromFlat(w http.ResponseWriter, flat []float32) (landmark.HandLandmarks, bool) {
	hand, err := landmark.FromFlat(flat)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return landmark.HandLandmarks{}, false
	}
	return hand, true
}

type predictRequest struct {
	SessionID string    `json:"session_id"`
	Landmarks []float32 `json:"landmarks"`
}

type predictResponse struct {
	SessionID string `json:"session_id"`
	gesture.Result
}

// session is one client's recognition history.
type session struct {
	mu         sync.Mutex
	recognizer *gesture.Recognizer
	lastUsed   time.Time
}

// PredictHandler classifies landmark sets posted by clients. Each client
// session id gets its own Recognizer, so histories never mix.
//
// Expected paths: POST /api/predict, DELETE /api/predict/{session_id}
type PredictHandler struct {
	model *gesture.Model
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// NewPredictHandler creates a PredictHandler over a shared model. A nil model
// makes every prediction fail with 503.
func NewPredictHandler(m *gesture.Model) *PredictHandler {
	return &PredictHandler{
		model:    m,
		ttl:      SessionTTL,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Sessions returns the number of live sessions.
func (h *PredictHandler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *PredictHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/predict"), "/")

	switch {
	case id == "" && r.Method == http.MethodPost:
		h.predict(w, r)
	case id != "" && r.Method == http.MethodDelete:
		h.end(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PredictHandler) predict(w http.ResponseWriter, r *http.Request) {
	if h.model == nil {
		writeError(w, http.StatusServiceUnavailable, "No model loaded")
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	hand, ok := handFromFlat(w, req.Landmarks)
	if !ok {
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}
	s := h.session(req.SessionID)

	s.mu.Lock()
	result, err := s.recognizer.Recognize(&hand)
	s.mu.Unlock()
	if err != nil {
		if errors.Is(err, landmark.ErrInvalidLandmarks) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to classify")
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{SessionID: req.SessionID, Result: result})
}

// session returns the session for id, creating it if needed, and drops
// sessions idle for longer than the TTL.
func (h *PredictHandler) session(id string) *session {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	for k, s := range h.sessions {
		if k != id && now.Sub(s.lastUsed) > h.ttl {
			delete(h.sessions, k)
		}
	}

	s, ok := h.sessions[id]
	if !ok {
		s = &session{recognizer: gesture.NewRecognizer(h.model)}
		h.sessions[id] = s
	}
	s.lastUsed = now
	return s
}

func (h *PredictHandler) end(w http.ResponseWriter, id string) {
	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
