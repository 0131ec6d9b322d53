package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/hr-agent/internal/observability"
	"github.com/haasonsaas/hr-agent/internal/sessions"
	"github.com/haasonsaas/hr-agent/pkg/models"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	SessionID    string `json:"session_id"`
	Content      string `json:"content"`
	Timestamp    string `json:"timestamp"`
	IsNewSession bool   `json:"is_new_session"`
}

// SessionResponse is the body of GET /sessions/{id}.
type SessionResponse struct {
	SessionID           string           `json:"session_id"`
	SDKSessionID        string           `json:"sdk_session_id"`
	ConversationHistory []models.Message `json:"conversation_history"`
	MessageCount        int              `json:"message_count"`
}

// SessionListResponse is the body of GET /sessions.
type SessionListResponse struct {
	TotalSessions int                          `json:"total_sessions"`
	Sessions      []models.ConversationSummary `json:"sessions"`
}

// handleRoot reports service health.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "HR Agent API",
		"version": s.version,
	})
}

// handleChat runs one exchange: get-or-create the conversation, append the
// user message, converse with the agent runtime (resuming its prior session
// when one is recorded), then record the runtime session id and the
// assistant reply.
//
// The conversation lock is held across the whole sequence so concurrent
// chats against the same id yield uninterleaved user/assistant pairs.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.jsonError(w, "message is required", http.StatusBadRequest)
		return
	}

	id := s.registry.GetOrCreate(req.SessionID)
	ctx = observability.AddSessionID(ctx, id)

	release, err := s.locks.Acquire(ctx, id, lockTimeout)
	if err != nil {
		if errors.Is(err, sessions.ErrLockTimeout) {
			s.jsonError(w, "conversation is busy", http.StatusServiceUnavailable)
			return
		}
		s.jsonError(w, "request cancelled", http.StatusInternalServerError)
		return
	}
	defer release()

	if err := s.registry.Append(id, models.RoleUser, req.Message); err != nil {
		s.jsonError(w, "failed to record message: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resumeID := s.registry.RuntimeSessionID(id)
	result, err := s.client.Converse(ctx, req.Message, resumeID)
	if err != nil {
		s.logger.Error(ctx, "agent exchange failed", "error", err)
		s.jsonError(w, fmt.Sprintf("Error processing request: %v", err), http.StatusInternalServerError)
		return
	}

	if err := s.registry.RecordRuntimeSession(id, result.SessionID); err != nil {
		s.jsonError(w, "failed to record session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.registry.Append(id, models.RoleAssistant, result.Content); err != nil {
		s.jsonError(w, "failed to record message: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if s.metrics != nil {
		s.metrics.SetActiveSessions(s.registry.Count())
	}

	s.jsonResponse(w, http.StatusOK, ChatResponse{
		SessionID:    id,
		Content:      result.Content,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		IsNewSession: req.SessionID == "",
	})
}

// handleGetSession returns the tracked history for one conversation.
// The agent runtime's own session state is not readable from here; only the
// last-known runtime id is reported.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	conv, err := s.registry.Get(id)
	if err != nil {
		s.jsonError(w, fmt.Sprintf("Session %s not found", id), http.StatusNotFound)
		return
	}

	history := conv.Messages
	if history == nil {
		history = []models.Message{}
	}
	s.jsonResponse(w, http.StatusOK, SessionResponse{
		SessionID:           conv.ID,
		SDKSessionID:        conv.RuntimeSessionID,
		ConversationHistory: history,
		MessageCount:        len(history),
	})
}

// handleDeleteSession drops the gateway's tracking for a conversation. The
// runtime's session state is untouched and remains resumable by id.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	runtimeID := s.registry.RuntimeSessionID(id)
	if err := s.registry.Delete(id); err != nil {
		s.jsonError(w, fmt.Sprintf("Session %s not found", id), http.StatusNotFound)
		return
	}

	if s.metrics != nil {
		s.metrics.SetActiveSessions(s.registry.Count())
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("API session %s deleted successfully", id),
		"note":    fmt.Sprintf("SDK session %s can still be resumed", runtimeID),
	})
}

// handleListSessions returns summaries of every tracked conversation.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	summaries := s.registry.List()
	s.jsonResponse(w, http.StatusOK, SessionListResponse{
		TotalSessions: len(summaries),
		Sessions:      summaries,
	})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(context.Background(), "json encode error", "error", err)
	}
}

// jsonError writes a JSON error response in {"detail": ...} form.
func (s *Server) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": message})
}
