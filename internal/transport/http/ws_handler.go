package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"livequiz-service/internal/app"
	"livequiz-service/internal/domain"
)

// WSHandler upgrades HTTP requests to websockets and wires them into the
// session use cases. One connection belongs to exactly one session's
// broadcast group for its whole lifetime.
type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound message types.
const (
	msgAdminSendQuestion    = "admin_send_question"
	msgSubmitAnswer         = "participant_submit_answer"
	msgAdminUpdatePoints    = "admin_update_points"
	msgAdminShowAnswers     = "admin_show_answers"
	msgAdminShowLeaderboard = "admin_show_leaderboard"
	msgParticipantJoin      = "participant_join"
	msgPing                 = "ping"
)

type sendQuestionPayload struct {
	QuestionID string `json:"question_id"`
}

type submitAnswerPayload struct {
	ParticipantID string   `json:"participant_id"`
	QuestionID    string   `json:"question_id"`
	ChosenAnswer  string   `json:"chosen_answer"`
	TimeTaken     *float64 `json:"time_taken,omitempty"` // seconds
}

type updatePointsPayload struct {
	AnswerID  string `json:"answer_id"`
	NewPoints int    `json:"new_points"`
}

type participantJoinPayload struct {
	ParticipantID string `json:"participant_id"`
}

// ServeWS handles /ws?session=<code>&role=admin|participant[&participant=<id>].
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionCode := r.URL.Query().Get("session")
	role := r.URL.Query().Get("role")
	participantID := r.URL.Query().Get("participant")
	if sessionCode == "" {
		http.Error(w, "missing session", http.StatusBadRequest)
		return
	}
	if role == "" {
		role = "participant"
	}

	snapshot, err := h.service.Snapshot(sessionCode)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.service.Subscribe(sessionCode)
	if err != nil {
		_ = conn.WriteJSON(domain.Event{Type: domain.EventError, Payload: domain.ErrorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	// participantID may also be bound later by a participant_join message.
	defer func() {
		if participantID != "" {
			h.service.Detach(sessionCode, participantID)
		}
	}()
	if participantID != "" {
		if _, err := h.service.Attach(sessionCode, participantID); err != nil {
			_ = conn.WriteJSON(domain.Event{Type: domain.EventError, Payload: domain.ErrorPayload{Message: err.Error()}})
			return
		}
	}

	send := make(chan domain.Event, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for event := range send {
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case event, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- event:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- domain.Event{Type: domain.EventConnectionEstablished, Payload: snapshot}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error: %v", err)
			}
			break
		}
		var inbound inboundMessage
		if err := json.Unmarshal(raw, &inbound); err != nil {
			send <- errorEvent("invalid message")
			continue
		}
		h.dispatch(r, send, sessionCode, role, &participantID, inbound)
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch handles one inbound message. Malformed or rejected messages
// produce an error event; the connection keeps serving.
func (h *WSHandler) dispatch(r *http.Request, send chan<- domain.Event, sessionCode, role string, participantID *string, inbound inboundMessage) {
	switch inbound.Type {
	case msgPing:
		send <- domain.Event{Type: domain.EventPong}

	case msgParticipantJoin:
		var payload participantJoinPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ParticipantID == "" {
			send <- errorEvent("invalid join payload")
			return
		}
		if _, err := h.service.Attach(sessionCode, payload.ParticipantID); err != nil {
			send <- errorEvent(err.Error())
			return
		}
		*participantID = payload.ParticipantID

	case msgSubmitAnswer:
		var payload submitAnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.ParticipantID == "" || payload.QuestionID == "" {
			send <- errorEvent("invalid answer payload")
			return
		}
		timeTaken := time.Duration(-1)
		if payload.TimeTaken != nil {
			timeTaken = time.Duration(*payload.TimeTaken * float64(time.Second))
		}
		if _, err := h.service.SubmitAnswer(r.Context(), sessionCode, payload.ParticipantID, payload.QuestionID, payload.ChosenAnswer, timeTaken); err != nil {
			send <- errorEvent(err.Error())
			return
		}

	case msgAdminSendQuestion:
		if !requireAdmin(send, role) {
			return
		}
		var payload sendQuestionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" {
			send <- errorEvent("invalid question payload")
			return
		}
		if err := h.service.SendQuestion(r.Context(), sessionCode, payload.QuestionID); err != nil {
			send <- errorEvent(err.Error())
			return
		}

	case msgAdminUpdatePoints:
		if !requireAdmin(send, role) {
			return
		}
		var payload updatePointsPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.AnswerID == "" {
			send <- errorEvent("invalid points payload")
			return
		}
		if _, err := h.service.OverridePoints(sessionCode, payload.AnswerID, payload.NewPoints); err != nil {
			send <- errorEvent(err.Error())
			return
		}

	case msgAdminShowAnswers:
		if !requireAdmin(send, role) {
			return
		}
		if err := h.service.RevealAnswer(sessionCode); err != nil {
			send <- errorEvent(err.Error())
			return
		}

	case msgAdminShowLeaderboard:
		if !requireAdmin(send, role) {
			return
		}
		if err := h.service.ShowLeaderboard(sessionCode); err != nil {
			send <- errorEvent(err.Error())
			return
		}

	default:
		send <- errorEvent("unsupported message type")
	}
}

func requireAdmin(send chan<- domain.Event, role string) bool {
	if role != "admin" {
		send <- errorEvent("admin role required")
		return false
	}
	return true
}

func errorEvent(message string) domain.Event {
	return domain.Event{Type: domain.EventError, Payload: domain.ErrorPayload{Message: message}}
}

// statusFromError maps domain errors to HTTP status codes for the REST surface.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrParticipantNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrAnswerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAnswer), errors.Is(err, domain.ErrNameTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrLateJoin):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrJoinCodesExhausted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
