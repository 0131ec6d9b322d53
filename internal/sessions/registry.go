// Package sessions provides the in-process conversation registry: a
// process-wide map from caller-visible conversation ids to their message
// history and the last-known agent-runtime session id.
//
// State lives for the lifetime of the serving process; nothing is persisted.
// Deleting a conversation only drops the gateway's tracking data; the agent
// runtime's own session state remains resumable by id.
package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/haasonsaas/hr-agent/pkg/models"
)

// ErrNotFound is returned for operations on unknown conversation ids.
var ErrNotFound = errors.New("sessions: conversation not found")

// maxMessagesPerConversation limits stored history to prevent unbounded
// memory growth. When exceeded, the oldest messages are trimmed.
const maxMessagesPerConversation = 1000

// Registry is an in-memory conversation store.
//
// Thread Safety:
// Registry is safe for concurrent use. Compound read-modify sequences that
// span an agent exchange should additionally hold the per-conversation lock
// from LockManager.
type Registry struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation
}

// NewRegistry creates a new empty conversation registry.
func NewRegistry() *Registry {
	return &Registry{
		conversations: make(map[string]*models.Conversation),
	}
}

// GetOrCreate returns id if it is already tracked, registers it as a fresh
// empty conversation if it is unknown, or generates a new unique id when id
// is empty.
func (r *Registry) GetOrCreate(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := r.conversations[id]; !ok {
		now := time.Now()
		r.conversations[id] = &models.Conversation{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return id
}

// Append adds a message to the conversation history.
// Returns ErrNotFound if the id is unknown; callers must GetOrCreate first.
func (r *Registry) Append(id string, role models.Role, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.Messages = append(conv.Messages, models.Message{Role: role, Content: content})
	if len(conv.Messages) > maxMessagesPerConversation {
		excess := len(conv.Messages) - maxMessagesPerConversation
		conv.Messages = conv.Messages[excess:]
	}
	conv.UpdatedAt = time.Now()
	return nil
}

// RecordRuntimeSession associates (or overwrites) the runtime session id for
// a conversation. Returns ErrNotFound if the id is unknown.
func (r *Registry) RecordRuntimeSession(id, runtimeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return ErrNotFound
	}
	conv.RuntimeSessionID = runtimeID
	conv.UpdatedAt = time.Now()
	return nil
}

// Get returns a snapshot of the conversation.
// Returns ErrNotFound if the id is unknown.
func (r *Registry) Get(id string) (*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneConversation(conv), nil
}

// RuntimeSessionID returns the last-known runtime session id for a
// conversation, or "" when none has been recorded yet.
func (r *Registry) RuntimeSessionID(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if conv, ok := r.conversations[id]; ok {
		return conv.RuntimeSessionID
	}
	return ""
}

// Delete removes a conversation and its runtime-id mapping.
// Returns ErrNotFound if the id is unknown.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(r.conversations, id)
	return nil
}

// List returns a point-in-time summary of every tracked conversation.
// Ordering is unspecified.
func (r *Registry) List() []models.ConversationSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ConversationSummary, 0, len(r.conversations))
	for _, conv := range r.conversations {
		summary := models.ConversationSummary{
			ID:               conv.ID,
			RuntimeSessionID: conv.RuntimeSessionID,
			MessageCount:     len(conv.Messages),
		}
		if n := len(conv.Messages); n > 0 {
			last := conv.Messages[n-1]
			summary.LastMessage = &last
		}
		out = append(out, summary)
	}
	return out
}

// Count returns the number of tracked conversations.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}

func cloneConversation(conv *models.Conversation) *models.Conversation {
	if conv == nil {
		return nil
	}
	clone := *conv
	clone.Messages = append([]models.Message(nil), conv.Messages...)
	return &clone
}
