package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/haasonsaas/hr-agent/internal/observability"
)

// ErrExchange wraps any failure raised while talking to the agent runtime.
// Callers can classify with errors.Is and surface it as a server error.
var ErrExchange = errors.New("agent: exchange failed")

// Client drives a single exchange against a Runtime and aggregates the
// stream into an ExchangeResult. It adds tracing and logging around the
// exchange; both are best-effort and never mask the runtime's own error.
type Client struct {
	runtime Runtime
	logger  *observability.Logger
	tracer  *observability.Tracer
	user    string
}

// NewClient creates an adapter over the given runtime. The user string is
// the caller identity tagged onto trace spans ("anonymous" when empty).
func NewClient(runtime Runtime, user string, logger *observability.Logger, tracer *observability.Tracer) *Client {
	if user == "" {
		user = "anonymous"
	}
	if tracer == nil {
		tracer = observability.NoopTracer()
	}
	return &Client{
		runtime: runtime,
		logger:  logger,
		tracer:  tracer,
		user:    user,
	}
}

// Converse performs one exchange: sends the message, optionally resuming the
// runtime session identified by resumeID, and aggregates assistant text in
// arrival order until the terminal result message.
//
// The returned ExchangeResult carries the runtime's authoritative session id,
// which may differ from resumeID on first creation. A runtime failure is
// returned wrapped in ErrExchange.
func (c *Client) Converse(ctx context.Context, message, resumeID string) (*ExchangeResult, error) {
	ctx = observability.AddUserID(ctx, c.user)

	ctx, span := c.tracer.TraceChatRequest(ctx, resumeID, resumeID == "")
	defer span.End()

	stream, err := c.runtime.Exchange(ctx, message, resumeID)
	if err != nil {
		c.tracer.RecordError(span, err)
		return nil, fmt.Errorf("%w: %v", ErrExchange, err)
	}

	result := &ExchangeResult{
		IsNewSession: resumeID == "",
	}
	var content strings.Builder

	for msg := range stream {
		switch msg.Type {
		case StreamAssistantText:
			content.WriteString(msg.Text)

		case StreamToolUse:
			result.ToolCalls++
			c.tracer.AddEvent(span, "tool_use", "tool", msg.ToolName)
			if c.logger != nil {
				c.logger.Debug(ctx, "runtime invoking tool", "tool", msg.ToolName)
			}

		case StreamToolResult:
			c.tracer.AddEvent(span, "tool_result",
				"tool", msg.ToolName,
				"is_error", msg.ToolIsError,
			)

		case StreamResult:
			result.SessionID = msg.SessionID
			result.Usage = msg.Usage
			if msg.Err != nil {
				c.tracer.RecordError(span, msg.Err)
				return nil, fmt.Errorf("%w: %v", ErrExchange, msg.Err)
			}
		}
	}

	if result.SessionID == "" {
		err := fmt.Errorf("%w: stream ended without a result message", ErrExchange)
		c.tracer.RecordError(span, err)
		return nil, err
	}

	result.Content = content.String()
	c.tracer.SetAttributes(span,
		"session_id", result.SessionID,
		"tool_calls", result.ToolCalls,
		"input_tokens", result.Usage.InputTokens,
		"output_tokens", result.Usage.OutputTokens,
	)
	if c.logger != nil {
		c.logger.Debug(ctx, "exchange complete",
			"session_id", result.SessionID,
			"tool_calls", result.ToolCalls,
			"content_length", len(result.Content),
		)
	}
	return result, nil
}

// SystemPrompt is the default instruction given to the agent runtime.
const SystemPrompt = "You are an HR Agent that can answer questions related to employee information, timeoff schedules, and direct reports. Use the tools provided to answer the user's questions. If you do not have enough information to answer the question, say so. If you need more information, ask follow up questions."
