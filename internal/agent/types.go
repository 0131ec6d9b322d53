// Package agent provides the client adapter and runtime bindings for the
// external conversational agent that answers HR questions.
//
// The runtime itself (message loop, model selection, tool-invocation protocol)
// is treated as an opaque collaborator behind the Runtime interface: one
// message in, a stream of typed messages out. The Client adapter drives a
// single exchange against it and aggregates the result.
package agent

import (
	"context"
	"encoding/json"
)

// Tool is a named, schema-declared function the runtime may invoke
// mid-exchange to fetch data.
type Tool interface {
	// Name returns the tool name for LLM function calling.
	// Must be a valid function name (alphanumeric, underscores).
	Name() string

	// Description returns a natural language description of what the tool does.
	// This helps the LLM decide when to use the tool.
	Description() string

	// Schema returns the JSON Schema defining the tool's parameters.
	// The LLM uses this to construct valid tool call arguments.
	Schema() json.RawMessage

	// Execute runs the tool with the given JSON parameters.
	// Domain-level failures are reported via ToolResult.IsError with a nil
	// Go error; the runtime decides how to react to an error-flagged result.
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolResult is the output of a tool execution.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}

// StreamMessageType distinguishes the typed messages a runtime emits
// during one exchange.
type StreamMessageType string

const (
	// StreamAssistantText carries an assistant-authored text fragment.
	StreamAssistantText StreamMessageType = "assistant_text"

	// StreamToolUse reports that the runtime is invoking a tool.
	StreamToolUse StreamMessageType = "tool_use"

	// StreamToolResult reports the payload a tool returned to the runtime.
	StreamToolResult StreamMessageType = "tool_result"

	// StreamResult is the terminal message of an exchange. It carries the
	// authoritative runtime session id, usage metadata, and any failure.
	StreamResult StreamMessageType = "result"
)

// StreamMessage is one typed message in an exchange stream.
//
// Exactly one group of fields is meaningful depending on Type. A stream ends
// with a StreamResult message; the channel is closed afterwards.
type StreamMessage struct {
	Type StreamMessageType

	// Assistant text fragment (StreamAssistantText).
	Text string

	// Tool invocation details (StreamToolUse, StreamToolResult).
	ToolName    string
	ToolInput   json.RawMessage
	ToolOutput  string
	ToolIsError bool

	// Terminal result details (StreamResult).
	SessionID string
	Usage     Usage
	Err       error
}

// Usage summarizes token consumption across one exchange.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Runtime is the boundary to the external agent process.
//
// Exchange sends one user message, optionally resuming a prior runtime
// session, and returns a channel of typed messages. The channel is closed
// after the terminal StreamResult message. Implementations must honor ctx
// cancellation by terminating the stream with an error-flagged result.
type Runtime interface {
	Exchange(ctx context.Context, message string, resumeID string) (<-chan StreamMessage, error)
}

// ExchangeResult is the aggregated outcome of one exchange, produced and
// consumed within a single request.
type ExchangeResult struct {
	// SessionID is the runtime-issued session identifier for this exchange.
	// It may differ from any id passed in, e.g. on first creation.
	SessionID string

	// Content is the assistant response text, concatenated in arrival order.
	Content string

	// IsNewSession is true iff no resume id was supplied. This reflects
	// caller intent, not a runtime-confirmed fact.
	IsNewSession bool

	// ToolCalls counts the tool invocations observed during the exchange.
	ToolCalls int

	Usage Usage
}
