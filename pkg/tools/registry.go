package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerFunc is the body of a tool. It receives validated arguments
// and returns the payload for the success envelope. Failures are
// reported either as *ToolError or as a service client error; anything
// else is treated as internal.
type HandlerFunc func(ctx context.Context, args Args) (any, error)

// ToolDefinition binds a tool name to its parameter specs and handler.
// Both the MCP input schema and argument validation derive from Params.
type ToolDefinition struct {
	Name        string
	Description string
	Params      []ParamSpec
	Handler     HandlerFunc
}

// MCPTool renders the definition as an mcp-go tool declaration.
func (d ToolDefinition) MCPTool() mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}
	for _, spec := range d.Params {
		switch spec.Type {
		case TypeFloat, TypeInt:
			opts = append(opts, mcp.WithNumber(spec.Name, spec.mcpOptions()...))
		default:
			opts = append(opts, mcp.WithString(spec.Name, spec.mcpOptions()...))
		}
	}
	return mcp.NewTool(d.Name, opts...)
}

// DuplicateToolError reports a second registration under the same name.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// NotFoundError reports a lookup of a name nobody registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no tool registered under %q", e.Name)
}

// Registry holds the registered tool definitions. Registration order is
// preserved so tool listings are stable. The registry is populated
// during server construction and read-only afterwards, so lookups need
// no locking.
type Registry struct {
	defs   map[string]ToolDefinition
	order  []string
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		defs:   make(map[string]ToolDefinition),
		logger: logger,
	}
}

// Register adds tool definitions, rejecting the whole batch on the
// first malformed or duplicate one. Not safe for concurrent use;
// register everything before serving.
func (r *Registry) Register(defs ...ToolDefinition) error {
	for _, def := range defs {
		if def.Name == "" {
			return fmt.Errorf("tool definition has no name")
		}
		if def.Handler == nil {
			return fmt.Errorf("tool %q has no handler", def.Name)
		}
		if err := checkParams(def); err != nil {
			return err
		}
		if _, exists := r.defs[def.Name]; exists {
			return &DuplicateToolError{Name: def.Name}
		}

		r.defs[def.Name] = def
		r.order = append(r.order, def.Name)
		r.logger.Info("registered tool", "name", def.Name)
	}
	return nil
}

func checkParams(def ToolDefinition) error {
	seen := make(map[string]bool, len(def.Params))
	for _, spec := range def.Params {
		if spec.Name == "" {
			return fmt.Errorf("tool %q has a parameter with no name", def.Name)
		}
		if seen[spec.Name] {
			return fmt.Errorf("tool %q declares parameter %q twice", def.Name, spec.Name)
		}
		seen[spec.Name] = true
		if spec.Type == TypeEnum && len(spec.Enum) == 0 {
			return fmt.Errorf("tool %q parameter %q is an enum with no values", def.Name, spec.Name)
		}
	}
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (ToolDefinition, error) {
	def, ok := r.defs[name]
	if !ok {
		return ToolDefinition{}, &NotFoundError{Name: name}
	}
	return def, nil
}

// Definitions returns all registered tools in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.defs[name])
	}
	return defs
}
