package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolRegistry manages available tools with thread-safe registration and lookup.
// It is the explicit registration table handed to a runtime binding at
// construction; tools invoked by the runtime are validated against their
// declared schema before dispatch.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewToolRegistry creates a new empty tool registry ready for tool registration.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry by its name.
// If a tool with the same name already exists, it is replaced.
func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name and a boolean indicating if it was found.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names in sorted order.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered tools as a slice for passing to a runtime binding.
func (r *ToolRegistry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// Filter returns the registered tools whose names appear in the allow list.
// An empty allow list permits everything.
func (r *ToolRegistry) Filter(allowed []string) []Tool {
	tools := r.All()
	if len(allowed) == 0 {
		return tools
	}
	allow := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		allow[name] = true
	}
	filtered := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		if allow[tool.Name()] {
			filtered = append(filtered, tool)
		}
	}
	return filtered
}

// Tool parameter limits to prevent resource exhaustion.
const (
	// MaxToolNameLength is the maximum length of a tool name.
	MaxToolNameLength = 256

	// MaxToolParamsSize is the maximum size of tool parameters JSON (1MB).
	MaxToolParamsSize = 1 << 20
)

// Execute runs a tool by name with the given JSON parameters.
// Parameters are validated against the tool's declared schema first.
// Lookup and validation failures surface as error-flagged results, not Go
// errors, so the runtime can fold them into its answer.
func (r *ToolRegistry) Execute(ctx context.Context, name string, params json.RawMessage) (*ToolResult, error) {
	if len(name) > MaxToolNameLength {
		return &ToolResult{
			Content: fmt.Sprintf("tool name exceeds maximum length of %d characters", MaxToolNameLength),
			IsError: true,
		}, nil
	}

	if len(params) > MaxToolParamsSize {
		return &ToolResult{
			Content: fmt.Sprintf("tool parameters exceed maximum size of %d bytes", MaxToolParamsSize),
			IsError: true,
		}, nil
	}

	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return &ToolResult{
			Content: "tool not found: " + name,
			IsError: true,
		}, nil
	}

	if err := validateParams(tool.Schema(), params); err != nil {
		return &ToolResult{
			Content: fmt.Sprintf("invalid parameters for %s: %v", name, err),
			IsError: true,
		}, nil
	}

	return tool.Execute(ctx, params)
}

var schemaCache sync.Map

// validateParams checks the params document against the tool's JSON Schema.
func validateParams(schema, params json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return fmt.Errorf("compile tool schema: %w", err)
	}

	doc := params
	if len(doc) == 0 {
		doc = json.RawMessage(`{}`)
	}
	var decoded any
	if err := json.Unmarshal(doc, &decoded); err != nil {
		return fmt.Errorf("decode parameters: %w", err)
	}
	return compiled.Validate(decoded)
}

func compileSchema(schema []byte) (*jsonschema.Schema, error) {
	key := string(schema)
	if cached, ok := schemaCache.Load(key); ok {
		if compiled, ok := cached.(*jsonschema.Schema); ok {
			return compiled, nil
		}
	}

	compiled, err := jsonschema.CompileString("tool.schema.json", key)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}
