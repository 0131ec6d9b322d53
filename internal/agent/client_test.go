package agent

import (
	"context"
	"errors"
	"testing"
)

// fakeRuntime replays a scripted stream for each Exchange call.
type fakeRuntime struct {
	script      []StreamMessage
	exchangeErr error

	lastMessage  string
	lastResumeID string
	calls        int
}

func (f *fakeRuntime) Exchange(ctx context.Context, message, resumeID string) (<-chan StreamMessage, error) {
	f.calls++
	f.lastMessage = message
	f.lastResumeID = resumeID
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}

	out := make(chan StreamMessage, len(f.script))
	for _, msg := range f.script {
		out <- msg
	}
	close(out)
	return out, nil
}

func TestConverseAggregatesTextInOrder(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{script: []StreamMessage{
		{Type: StreamAssistantText, Text: "The assignment id "},
		{Type: StreamToolUse, ToolName: "get_assignment_id"},
		{Type: StreamToolResult, ToolName: "get_assignment_id", ToolOutput: "15778303"},
		{Type: StreamAssistantText, Text: "for nwaters is "},
		{Type: StreamAssistantText, Text: "15778303."},
		{Type: StreamResult, SessionID: "rt-session-1", Usage: Usage{InputTokens: 10, OutputTokens: 5}},
	}}

	c := NewClient(rt, "", nil, nil)
	result, err := c.Converse(context.Background(), "assignment id for nwaters?", "")
	if err != nil {
		t.Fatalf("Converse() error = %v", err)
	}

	if result.Content != "The assignment id for nwaters is 15778303." {
		t.Errorf("Content = %q", result.Content)
	}
	if result.SessionID != "rt-session-1" {
		t.Errorf("SessionID = %q, want rt-session-1", result.SessionID)
	}
	if !result.IsNewSession {
		t.Error("IsNewSession = false for empty resume id")
	}
	if result.ToolCalls != 1 {
		t.Errorf("ToolCalls = %d, want 1", result.ToolCalls)
	}
	if result.Usage.InputTokens != 10 || result.Usage.OutputTokens != 5 {
		t.Errorf("Usage = %+v", result.Usage)
	}
}

func TestConversePassesResumeID(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{script: []StreamMessage{
		{Type: StreamAssistantText, Text: "hello again"},
		{Type: StreamResult, SessionID: "rt-session-1"},
	}}

	c := NewClient(rt, "tester", nil, nil)
	result, err := c.Converse(context.Background(), "follow up", "rt-session-1")
	if err != nil {
		t.Fatalf("Converse() error = %v", err)
	}
	if rt.lastResumeID != "rt-session-1" {
		t.Errorf("runtime received resume id %q", rt.lastResumeID)
	}
	if result.IsNewSession {
		t.Error("IsNewSession = true despite resume id")
	}
}

func TestConverseExchangeSetupFailure(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{exchangeErr: errors.New("connection refused")}
	c := NewClient(rt, "", nil, nil)

	_, err := c.Converse(context.Background(), "hi", "")
	if !errors.Is(err, ErrExchange) {
		t.Fatalf("Converse() error = %v, want ErrExchange", err)
	}
}

func TestConverseStreamFailure(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{script: []StreamMessage{
		{Type: StreamAssistantText, Text: "partial"},
		{Type: StreamResult, SessionID: "rt-1", Err: errors.New("runtime exploded")},
	}}
	c := NewClient(rt, "", nil, nil)

	_, err := c.Converse(context.Background(), "hi", "")
	if !errors.Is(err, ErrExchange) {
		t.Fatalf("Converse() error = %v, want ErrExchange", err)
	}
}

func TestConverseMissingResult(t *testing.T) {
	t.Parallel()

	rt := &fakeRuntime{script: []StreamMessage{
		{Type: StreamAssistantText, Text: "text with no terminal result"},
	}}
	c := NewClient(rt, "", nil, nil)

	_, err := c.Converse(context.Background(), "hi", "")
	if !errors.Is(err, ErrExchange) {
		t.Fatalf("Converse() error = %v, want ErrExchange", err)
	}
}
