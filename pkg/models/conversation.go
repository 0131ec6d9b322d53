// Package models defines the shared data types for the HR agent gateway.
package models

import "time"

// Role indicates the message author type.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation tracks the API-visible state of a chat session.
//
// The agent runtime keeps its own parallel session state which the gateway
// cannot read or enumerate; RuntimeSessionID is the only handle to it.
type Conversation struct {
	// ID is the caller-visible conversation identifier.
	ID string `json:"id"`

	// RuntimeSessionID is the last session id issued by the agent runtime
	// for this conversation, used to resume it on the next exchange.
	RuntimeSessionID string `json:"runtime_session_id,omitempty"`

	// Messages is the ordered conversation history, oldest first.
	Messages []Message `json:"messages"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSummary is a compact representation used for listings. The
// sdk_session_id field is always present so the listing shape is stable;
// it is empty until a runtime session has been recorded.
type ConversationSummary struct {
	ID               string   `json:"api_session_id"`
	RuntimeSessionID string   `json:"sdk_session_id"`
	MessageCount     int      `json:"message_count"`
	LastMessage      *Message `json:"last_message"`
}
