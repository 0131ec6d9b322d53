package agent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewAnthropicRuntimeRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewAnthropicRuntime(AnthropicConfig{}, NewToolRegistry(), nil, nil, nil, nil)
	if err == nil {
		t.Fatal("NewAnthropicRuntime() accepted empty API key")
	}
}

func TestNewAnthropicRuntimeDefaults(t *testing.T) {
	t.Parallel()

	registry := NewToolRegistry()
	registry.Register(&echoTool{name: "echo"})

	rt, err := NewAnthropicRuntime(AnthropicConfig{APIKey: "test-key"}, registry, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewAnthropicRuntime() error = %v", err)
	}
	if rt.model == "" || rt.maxTokens <= 0 || rt.maxToolRounds <= 0 {
		t.Errorf("defaults not applied: model=%q maxTokens=%d rounds=%d", rt.model, rt.maxTokens, rt.maxToolRounds)
	}
	if len(rt.tools) != 1 {
		t.Errorf("converted tools = %d, want 1", len(rt.tools))
	}
}

func TestAnthropicRuntimeToolAllowList(t *testing.T) {
	t.Parallel()

	registry := NewToolRegistry()
	registry.Register(&echoTool{name: "allowed"})
	registry.Register(&echoTool{name: "blocked"})

	rt, err := NewAnthropicRuntime(AnthropicConfig{APIKey: "test-key"}, registry, []string{"allowed"}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewAnthropicRuntime() error = %v", err)
	}
	if len(rt.tools) != 1 {
		t.Fatalf("allow list ignored: %d tools converted", len(rt.tools))
	}
}

func TestConvertToolsSetsDescriptions(t *testing.T) {
	t.Parallel()

	params, err := convertTools([]Tool{&echoTool{name: "echo"}})
	if err != nil {
		t.Fatalf("convertTools() error = %v", err)
	}
	if len(params) != 1 {
		t.Fatalf("convertTools() returned %d params", len(params))
	}
	tool := params[0].OfTool
	if tool == nil {
		t.Fatal("converted param is not a tool definition")
	}
	if tool.Name != "echo" {
		t.Errorf("tool name = %q", tool.Name)
	}
	if tool.Description.Value == "" {
		t.Error("tool description not set")
	}
}

func TestConvertToolsRejectsBadSchema(t *testing.T) {
	t.Parallel()

	_, err := convertTools([]Tool{&echoTool{name: "bad", schema: `{not json`}})
	if err == nil {
		t.Fatal("convertTools() accepted invalid schema")
	}
}

func TestStoreTranscriptTrimsMessages(t *testing.T) {
	t.Parallel()

	rt, err := NewAnthropicRuntime(AnthropicConfig{APIKey: "test-key"}, NewToolRegistry(), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewAnthropicRuntime() error = %v", err)
	}

	messages := make([]anthropic.MessageParam, maxTranscriptMessages+10)
	for i := range messages {
		messages[i] = anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf("msg %d", i)))
	}
	rt.storeTranscript("sess", messages)

	rt.mu.Lock()
	got := len(rt.transcripts["sess"].messages)
	rt.mu.Unlock()
	if got != maxTranscriptMessages {
		t.Errorf("stored transcript length = %d, want %d", got, maxTranscriptMessages)
	}
}

func TestStoreTranscriptEvictsOldestSession(t *testing.T) {
	t.Parallel()

	rt, err := NewAnthropicRuntime(AnthropicConfig{APIKey: "test-key"}, NewToolRegistry(), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewAnthropicRuntime() error = %v", err)
	}

	base := time.Now().Add(-time.Hour)
	rt.mu.Lock()
	for i := 0; i < maxTranscripts; i++ {
		rt.transcripts[fmt.Sprintf("sess-%d", i)] = &transcript{updated: base.Add(time.Duration(i) * time.Second)}
	}
	rt.mu.Unlock()

	rt.storeTranscript("sess-new", []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock("hello")),
	})

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if len(rt.transcripts) != maxTranscripts {
		t.Fatalf("transcript count = %d, want %d", len(rt.transcripts), maxTranscripts)
	}
	if _, ok := rt.transcripts["sess-0"]; ok {
		t.Error("least recently updated session was not evicted")
	}
	if _, ok := rt.transcripts["sess-new"]; !ok {
		t.Error("newly stored session missing")
	}
}

func TestExchangeRejectsEmptyMessage(t *testing.T) {
	t.Parallel()

	rt, err := NewAnthropicRuntime(AnthropicConfig{APIKey: "test-key"}, NewToolRegistry(), nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewAnthropicRuntime() error = %v", err)
	}
	if _, err := rt.Exchange(context.Background(), "   ", ""); err == nil {
		t.Fatal("Exchange() accepted blank message")
	}
}
