package http

import (
	"encoding/json"
	"log"
	"net/http"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

// SessionHandler is the thin JSON surface for admin front-ends: session
// creation, join-code resolution, registration, leaderboard reads and the
// lifecycle transitions. It calls the same service methods as the socket
// handler, so persisting and broadcasting stay in one place.
type SessionHandler struct {
	service  *app.SessionService
	defaults domain.Settings
}

// NewSessionHandler builds the handler. defaults applies to sessions whose
// create request carries no settings block.
func NewSessionHandler(service *app.SessionService, defaults domain.Settings) *SessionHandler {
	return &SessionHandler{service: service, defaults: defaults}
}

// Register wires the handler's routes into mux.
func (h *SessionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", h.createSession)
	mux.HandleFunc("GET /join/{joinCode}", h.resolve)
	mux.HandleFunc("GET /sessions/{code}", h.snapshot)
	mux.HandleFunc("POST /sessions/{code}/participants", h.register)
	mux.HandleFunc("GET /sessions/{code}/leaderboard", h.leaderboard)
	mux.HandleFunc("POST /sessions/{code}/start", h.lifecycle(h.service.StartSession))
	mux.HandleFunc("POST /sessions/{code}/pause", h.lifecycle(h.service.PauseSession))
	mux.HandleFunc("POST /sessions/{code}/resume", h.lifecycle(h.service.ResumeSession))
	mux.HandleFunc("POST /sessions/{code}/finish", h.lifecycle(h.service.FinishSession))
	mux.HandleFunc("POST /sessions/{code}/reset", h.lifecycle(h.service.ResetSession))
}

type createSessionRequest struct {
	Name     string           `json:"name"`
	Settings *domain.Settings `json:"settings"`
}

func (h *SessionHandler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	settings := h.defaults
	if req.Settings != nil {
		settings = *req.Settings
	}
	snapshot, err := h.service.CreateSession(req.Name, settings)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	log.Printf("session created: join_code=%s code=%s", snapshot.JoinCode, snapshot.SessionCode)
	writeJSON(w, http.StatusCreated, snapshot)
}

func (h *SessionHandler) resolve(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Resolve(r.PathValue("joinCode"))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *SessionHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.Snapshot(r.PathValue("code"))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

type registerRequest struct {
	Name string `json:"name"`
}

func (h *SessionHandler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	participant, err := h.service.Register(r.PathValue("code"), req.Name)
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, participant)
}

func (h *SessionHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	leaderboard, err := h.service.Leaderboard(r.PathValue("code"))
	if err != nil {
		writeError(w, statusFromError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, leaderboard)
}

func (h *SessionHandler) lifecycle(fn func(code string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(r.PathValue("code")); err != nil {
			writeError(w, statusFromError(err), err.Error())
			return
		}
		snapshot, err := h.service.Snapshot(r.PathValue("code"))
		if err != nil {
			writeError(w, statusFromError(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
