package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"go.opentelemetry.io/otel/attribute"

	"kai/internal/observability"
)

// ToolCall represents a request to execute a tool.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the execution result.
type ToolResult struct {
	CallID   string         `json:"call_id"`
	Content  string         `json:"content"`
	Error    error          `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MarshalJSON encodes Error as its message.
func (r ToolResult) MarshalJSON() ([]byte, error) {
	type alias struct {
		CallID   string         `json:"call_id"`
		Content  string         `json:"content"`
		Error    string         `json:"error,omitempty"`
		Metadata map[string]any `json:"metadata,omitempty"`
	}
	out := alias{CallID: r.CallID, Content: r.Content, Metadata: r.Metadata}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}

// ToolDefinition describes a tool for the LLM.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ToolMetadata contains tool information.
type ToolMetadata struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	Dangerous bool     `json:"dangerous"`
}

// ParameterSchema defines tool parameters (JSON Schema format).
type ParameterSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property defines a single parameter.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Format      string `json:"format,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// ToolExecutor runs one tool.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall) (*ToolResult, error)
	Definition() ToolDefinition
	Metadata() ToolMetadata
}

// baseTool carries the static description shared by every executor.
type baseTool struct {
	definition ToolDefinition
	metadata   ToolMetadata
}

func (b baseTool) Definition() ToolDefinition { return b.definition }
func (b baseTool) Metadata() ToolMetadata     { return b.metadata }

// ToolRegistry dispatches tool calls by name.
type ToolRegistry struct {
	tools  map[string]ToolExecutor
	tracer *observability.TracerProvider
}

// NewToolRegistry registers the reminder tools over notifications.
// A nil now uses time.Now.
func NewToolRegistry(notifications Notifications, tracer *observability.TracerProvider, now func() time.Time) *ToolRegistry {
	if now == nil {
		now = time.Now
	}
	r := &ToolRegistry{tools: make(map[string]ToolExecutor), tracer: tracer}
	for _, tool := range []ToolExecutor{
		newCreateReminder(notifications, now),
		newListReminders(notifications),
		newCancelReminder(notifications),
		newUpdateReminder(notifications, now),
	} {
		r.tools[tool.Definition().Name] = tool
	}
	return r
}

// Definitions lists every registered tool sorted by name.
func (r *ToolRegistry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, tool.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Get returns the executor for name.
func (r *ToolRegistry) Get(name string) (ToolExecutor, bool) {
	tool, ok := r.tools[strings.TrimSpace(name)]
	return tool, ok
}

// Execute runs call. The acting user is read from ctx.
func (r *ToolRegistry) Execute(ctx context.Context, call ToolCall) (*ToolResult, error) {
	ctx, span := r.tracer.StartSpan(ctx, observability.SpanToolExecute, attribute.String("kai.tool.name", call.Name))
	defer span.End()

	tool, ok := r.Get(call.Name)
	if !ok {
		return toolError(call.ID, "unknown tool %q", call.Name)
	}
	if observability.UserIDFromContext(ctx) == "" {
		return toolError(call.ID, "user id is required")
	}
	result, err := tool.Execute(ctx, call)
	if result != nil && result.Error != nil {
		span.RecordError(result.Error)
	}
	return result, err
}

// ExecuteRaw decodes LLM-produced argument JSON and runs the named tool.
func (r *ToolRegistry) ExecuteRaw(ctx context.Context, callID, name, rawArguments string) (*ToolResult, error) {
	args, err := DecodeArguments(rawArguments)
	if err != nil {
		return toolError(callID, "invalid arguments: %v", err)
	}
	return r.Execute(ctx, ToolCall{ID: callID, Name: name, Arguments: args})
}

// DecodeArguments parses tool-call arguments. Malformed JSON such as trailing
// commas, single quotes or truncated objects is repaired before giving up.
func DecodeArguments(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err == nil {
		return args, nil
	}
	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, fmt.Errorf("repair arguments: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &args); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	return args, nil
}

func toolError(callID string, format string, args ...any) (*ToolResult, error) {
	err := fmt.Errorf(format, args...)
	return &ToolResult{CallID: callID, Content: err.Error(), Error: err}, nil
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	value, ok := args[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func enumValues[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
