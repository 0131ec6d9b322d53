package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"github.com/haasonsaas/hr-agent/internal/observability"
)

// AnthropicConfig configures the Anthropic runtime binding.
type AnthropicConfig struct {
	// APIKey authenticates against the Anthropic API. Required.
	APIKey string

	// BaseURL overrides the API endpoint (testing, proxies).
	BaseURL string

	// Model is the model identifier for exchanges.
	Model string

	// MaxTokens caps generated tokens per response.
	MaxTokens int

	// SystemPrompt is prepended to every exchange.
	SystemPrompt string

	// MaxToolRounds caps tool-use iterations within one exchange.
	MaxToolRounds int
}

// AnthropicRuntime implements Runtime on the Anthropic Messages API.
//
// Each runtime session is a transcript of prior turns kept in memory and
// keyed by a generated session id. Resuming an exchange with a known id
// replays the transcript; tool calls requested by the model are dispatched
// through the tool registry and fed back until the model stops asking.
type AnthropicRuntime struct {
	client        anthropic.Client
	registry      *ToolRegistry
	tools         []anthropic.ToolUnionParam
	model         string
	maxTokens     int64
	systemPrompt  string
	maxToolRounds int

	logger  *observability.Logger
	tracer  *observability.Tracer
	metrics *observability.Metrics

	mu          sync.Mutex
	transcripts map[string]*transcript
}

// transcript holds the stored message history for one runtime session.
type transcript struct {
	messages []anthropic.MessageParam
	updated  time.Time
}

// maxTranscripts caps the number of retained runtime sessions; storing one
// more evicts the least recently updated. maxTranscriptMessages caps the
// history kept per session, trimming the oldest messages.
const (
	maxTranscripts        = 1000
	maxTranscriptMessages = 1000
)

// NewAnthropicRuntime creates a runtime binding over the Anthropic API.
// The registry supplies tool definitions and dispatch; allowed restricts
// which registered tools the model may call (empty allows all).
func NewAnthropicRuntime(cfg AnthropicConfig, registry *ToolRegistry, allowed []string, logger *observability.Logger, tracer *observability.Tracer, metrics *observability.Metrics) (*AnthropicRuntime, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("agent: anthropic API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-20250514"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 10
	}

	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(options...)

	tools, err := convertTools(registry.Filter(allowed))
	if err != nil {
		return nil, err
	}

	if tracer == nil {
		tracer = observability.NoopTracer()
	}

	return &AnthropicRuntime{
		client:        client,
		registry:      registry,
		tools:         tools,
		model:         cfg.Model,
		maxTokens:     int64(cfg.MaxTokens),
		systemPrompt:  cfg.SystemPrompt,
		maxToolRounds: cfg.MaxToolRounds,
		logger:        logger,
		tracer:        tracer,
		metrics:       metrics,
		transcripts:   make(map[string]*transcript),
	}, nil
}

// Exchange sends one user message, resuming the transcript for resumeID when
// one exists, and streams typed messages until the model finishes its turn.
func (r *AnthropicRuntime) Exchange(ctx context.Context, message string, resumeID string) (<-chan StreamMessage, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("agent: message must not be empty")
	}

	sessionID := resumeID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	r.mu.Lock()
	var history []anthropic.MessageParam
	if t, ok := r.transcripts[sessionID]; ok {
		history = append(history, t.messages...)
	}
	r.mu.Unlock()

	history = append(history, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))

	out := make(chan StreamMessage, 16)
	go r.run(ctx, sessionID, history, out)
	return out, nil
}

// run drives the model loop for one exchange and closes out when done.
func (r *AnthropicRuntime) run(ctx context.Context, sessionID string, messages []anthropic.MessageParam, out chan<- StreamMessage) {
	defer close(out)

	var usage Usage
	start := time.Now()

	for round := 0; round < r.maxToolRounds; round++ {
		turn, err := r.streamTurn(ctx, messages, out)
		if err != nil {
			if r.metrics != nil {
				r.metrics.RecordExchange(r.model, "error", time.Since(start), int64(usage.InputTokens), int64(usage.OutputTokens))
			}
			out <- StreamMessage{Type: StreamResult, SessionID: sessionID, Usage: usage, Err: err}
			return
		}

		usage.InputTokens += turn.inputTokens
		usage.OutputTokens += turn.outputTokens

		if len(turn.toolCalls) == 0 {
			messages = append(messages, assistantMessage(turn))
			r.storeTranscript(sessionID, messages)

			if r.metrics != nil {
				r.metrics.RecordExchange(r.model, "success", time.Since(start), int64(usage.InputTokens), int64(usage.OutputTokens))
			}
			out <- StreamMessage{Type: StreamResult, SessionID: sessionID, Usage: usage}
			return
		}

		messages = append(messages, assistantMessage(turn))

		var results []anthropic.ContentBlockParamUnion
		for _, call := range turn.toolCalls {
			out <- StreamMessage{
				Type:      StreamToolUse,
				ToolName:  call.name,
				ToolInput: call.input,
			}

			result := r.executeTool(ctx, call)
			out <- StreamMessage{
				Type:        StreamToolResult,
				ToolName:    call.name,
				ToolOutput:  result.Content,
				ToolIsError: result.IsError,
			}
			results = append(results, anthropic.NewToolResultBlock(call.id, result.Content, result.IsError))
		}
		messages = append(messages, anthropic.NewUserMessage(results...))
	}

	r.storeTranscript(sessionID, messages)

	if r.metrics != nil {
		r.metrics.RecordExchange(r.model, "error", time.Since(start), int64(usage.InputTokens), int64(usage.OutputTokens))
	}
	out <- StreamMessage{
		Type:      StreamResult,
		SessionID: sessionID,
		Usage:     usage,
		Err:       fmt.Errorf("agent: exchange exceeded %d tool rounds", r.maxToolRounds),
	}
}

// storeTranscript saves the session history, trimming the oldest messages
// past maxTranscriptMessages and evicting the least recently updated session
// once maxTranscripts is exceeded.
func (r *AnthropicRuntime) storeTranscript(sessionID string, messages []anthropic.MessageParam) {
	if excess := len(messages) - maxTranscriptMessages; excess > 0 {
		messages = messages[excess:]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.transcripts[sessionID] = &transcript{messages: messages, updated: time.Now()}

	if len(r.transcripts) <= maxTranscripts {
		return
	}
	var oldestID string
	var oldest time.Time
	for id, t := range r.transcripts {
		if id == sessionID {
			continue
		}
		if oldestID == "" || t.updated.Before(oldest) {
			oldestID = id
			oldest = t.updated
		}
	}
	delete(r.transcripts, oldestID)
}

// toolCall is a model-requested tool invocation assembled from stream deltas.
type toolCall struct {
	id    string
	name  string
	input json.RawMessage
}

// modelTurn is the accumulated output of a single streamed model response.
type modelTurn struct {
	text         string
	toolCalls    []toolCall
	inputTokens  int
	outputTokens int
}

// streamTurn runs one streamed Messages API call, forwarding text fragments
// to out as they arrive and collecting tool calls for dispatch.
func (r *AnthropicRuntime) streamTurn(ctx context.Context, messages []anthropic.MessageParam, out chan<- StreamMessage) (*modelTurn, error) {
	ctx, span := r.tracer.TraceExchange(ctx, r.model, "")
	defer span.End()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.model),
		Messages:  messages,
		MaxTokens: r.maxTokens,
	}
	if r.systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Type: "text", Text: r.systemPrompt}}
	}
	if len(r.tools) > 0 {
		params.Tools = r.tools
	}

	stream := r.client.Messages.NewStreaming(ctx, params)

	turn := &modelTurn{}
	var text strings.Builder
	var current *toolCall
	var currentInput strings.Builder

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "message_start":
			messageStart := event.AsMessageStart()
			if messageStart.Message.Usage.InputTokens > 0 {
				turn.inputTokens = int(messageStart.Message.Usage.InputTokens)
			}

		case "content_block_start":
			contentBlockStart := event.AsContentBlockStart()
			if contentBlockStart.ContentBlock.Type == "tool_use" {
				toolUse := contentBlockStart.ContentBlock.AsToolUse()
				current = &toolCall{id: toolUse.ID, name: toolUse.Name}
				currentInput.Reset()
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					text.WriteString(delta.Text)
					out <- StreamMessage{Type: StreamAssistantText, Text: delta.Text}
				}
			case "input_json_delta":
				if delta.PartialJSON != "" {
					currentInput.WriteString(delta.PartialJSON)
				}
			}

		case "content_block_stop":
			if current != nil {
				input := currentInput.String()
				if input == "" {
					input = "{}"
				}
				current.input = json.RawMessage(input)
				turn.toolCalls = append(turn.toolCalls, *current)
				current = nil
			}

		case "message_delta":
			messageDelta := event.AsMessageDelta()
			if messageDelta.Usage.OutputTokens > 0 {
				turn.outputTokens = int(messageDelta.Usage.OutputTokens)
			}
		}
	}

	if err := stream.Err(); err != nil {
		r.tracer.RecordError(span, err)
		return nil, fmt.Errorf("agent: anthropic stream: %w", err)
	}
	if err := ctx.Err(); err != nil {
		r.tracer.RecordError(span, err)
		return nil, err
	}

	turn.text = text.String()
	r.tracer.SetAttributes(span,
		"llm.input_tokens", turn.inputTokens,
		"llm.output_tokens", turn.outputTokens,
		"llm.tool_calls", len(turn.toolCalls),
	)
	return turn, nil
}

// executeTool dispatches one tool call through the registry.
func (r *AnthropicRuntime) executeTool(ctx context.Context, call toolCall) *ToolResult {
	ctx, span := r.tracer.TraceToolExecution(ctx, call.name)
	defer span.End()

	start := time.Now()
	result, err := r.registry.Execute(ctx, call.name, call.input)
	if err != nil {
		r.tracer.RecordError(span, err)
		result = &ToolResult{Content: fmt.Sprintf("tool execution failed: %v", err), IsError: true}
	}
	if result == nil {
		result = &ToolResult{Content: "", IsError: false}
	}

	status := "success"
	if result.IsError {
		status = "error"
	}
	if r.metrics != nil {
		r.metrics.RecordToolExecution(call.name, status, time.Since(start))
	}
	if r.logger != nil {
		r.logger.Debug(ctx, "tool executed",
			"tool", call.name,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return result
}

// assistantMessage converts an accumulated model turn back into a
// transcript message, preserving text and tool-use blocks.
func assistantMessage(turn *modelTurn) anthropic.MessageParam {
	var content []anthropic.ContentBlockParamUnion
	if turn.text != "" {
		content = append(content, anthropic.NewTextBlock(turn.text))
	}
	for _, call := range turn.toolCalls {
		var input map[string]any
		if err := json.Unmarshal(call.input, &input); err != nil {
			input = map[string]any{}
		}
		content = append(content, anthropic.NewToolUseBlock(call.id, input, call.name))
	}
	if len(content) == 0 {
		content = append(content, anthropic.NewTextBlock(""))
	}
	return anthropic.NewAssistantMessage(content...)
}

// convertTools translates registered tools into Anthropic tool definitions.
func convertTools(tools []Tool) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Schema(), &schema); err != nil {
			return nil, fmt.Errorf("agent: invalid tool schema for %s: %w", tool.Name(), err)
		}

		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name())
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("agent: invalid tool schema for %s: missing tool definition", tool.Name())
		}
		toolParam.OfTool.Description = anthropic.String(tool.Description())
		result = append(result, toolParam)
	}
	return result, nil
}
