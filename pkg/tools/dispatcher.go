package tools

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mapmcp/mapmcp/pkg/osm"
)

// Dispatcher routes invocations to registered tools. Lookup, argument
// validation, handler execution, and envelope rendering all happen
// here, so every tool behaves identically no matter how it is called.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher wraps a registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Invocation is the outcome of one dispatch. Payload always holds a
// rendered envelope; Err is nil exactly when the status is ok.
type Invocation struct {
	ID      string
	Tool    string
	Payload string
	Err     *ToolError
}

// Invoke runs the named tool against raw arguments. It never returns a
// Go error: every failure mode is normalized into the error envelope.
func (d *Dispatcher) Invoke(ctx context.Context, tool string, raw map[string]any) Invocation {
	inv := Invocation{ID: uuid.NewString(), Tool: tool}
	logger := d.logger.With("invocation", inv.ID, "tool", tool)
	start := time.Now()

	def, err := d.registry.Lookup(tool)
	if err != nil {
		logger.Warn("unknown tool requested")
		return inv.fail(&ToolError{Kind: ErrUnknownTool, Message: err.Error()})
	}

	args, verr := ValidateArgs(def.Params, raw)
	if verr != nil {
		logger.Info("arguments rejected", "param", verr.Param, "code", verr.Code)
		return inv.fail(fromValidationError(verr))
	}

	data, terr := d.run(ctx, logger, def, args)
	if terr != nil {
		logger.Warn("invocation failed",
			"kind", string(terr.Kind),
			"detail", terr.Detail,
			"duration_ms", time.Since(start).Milliseconds())
		return inv.fail(terr)
	}

	payload, err := renderOK(data)
	if err != nil {
		logger.Error("rendering payload failed", "error", err)
		return inv.fail(&ToolError{Kind: ErrInternal, Message: "internal error"})
	}

	inv.Payload = payload
	logger.Info("invocation complete", "duration_ms", time.Since(start).Milliseconds())
	return inv
}

// run executes the handler with panic containment. A panicking tool
// must not take down the server loop.
func (d *Dispatcher) run(ctx context.Context, logger *slog.Logger, def ToolDefinition, args Args) (data any, terr *ToolError) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("handler panicked", "panic", r)
			data = nil
			terr = &ToolError{Kind: ErrInternal, Message: "internal error"}
		}
	}()

	data, err := def.Handler(ctx, args)
	if err != nil {
		return nil, d.normalize(logger, err)
	}
	return data, nil
}

// normalize maps handler errors onto the envelope taxonomy. Unexpected
// errors are logged in full but reported only as internal.
func (d *Dispatcher) normalize(logger *slog.Logger, err error) *ToolError {
	var terr *ToolError
	if errors.As(err, &terr) {
		return terr
	}

	var httpErr *osm.HTTPError
	if errors.As(err, &httpErr) {
		return fromHTTPError(httpErr)
	}

	logger.Error("handler error", "error", err)
	return &ToolError{Kind: ErrInternal, Message: "internal error"}
}

func (inv Invocation) fail(terr *ToolError) Invocation {
	inv.Err = terr
	inv.Payload = renderError(terr)
	return inv
}

// MCPHandler adapts a registered tool to the mcp-go handler signature.
// The envelope is returned as text content either way; failures
// additionally set the protocol error flag.
func (d *Dispatcher) MCPHandler(name string) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		inv := d.Invoke(ctx, name, req.Params.Arguments)
		if inv.Err != nil {
			return mcp.NewToolResultError(inv.Payload), nil
		}
		return mcp.NewToolResultText(inv.Payload), nil
	}
}
