// Package dispatch routes one model-requested tool call to its backend. The
// backend set is closed: the retrieval tool, the external client manager and
// the custom tool executor, checked in that order. Retrieval and external
// tools use reserved or namespaced identifiers, so they can never collide
// with user-defined custom tool names.
package dispatch

import (
	"context"
	"strings"

	"github.com/faisca-ai/faisca/core"
	"github.com/faisca-ai/faisca/logging"
	"github.com/faisca-ai/faisca/mcp"
	"github.com/faisca-ai/faisca/model"
	"github.com/faisca-ai/faisca/retrieval"
	"github.com/faisca-ai/faisca/tool"
)

// Options configures a Dispatcher.
type Options struct {
	// Retrieval handles the reserved knowledge base tool; nil when no
	// knowledge base is bound.
	Retrieval *retrieval.Tool
	// External handles namespaced external tool calls; nil when no external
	// clients are configured.
	External *mcp.Manager
	Logger   logging.Logger
}

// Dispatcher implements the fixed-precedence routing rule.
type Dispatcher struct {
	executor  *tool.Executor
	retrieval *retrieval.Tool
	external  *mcp.Manager
	logger    logging.Logger
}

// New creates a dispatcher over the custom tool executor.
func New(executor *tool.Executor, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Dispatcher{
		executor:  executor,
		retrieval: opts.Retrieval,
		external:  opts.External,
		logger:    opts.Logger,
	}
}

// Dispatch resolves one call name and invokes its backend. Every failure,
// including an unknown name, comes back as an Error result for the model.
func (d *Dispatcher) Dispatch(ctx context.Context, req core.InvocationRequest) core.InvocationResult {
	d.logger.Debug("dispatch.call", "tool", req.Name, "call_id", req.CallID)

	switch {
	case d.retrieval != nil && req.Name == retrieval.ToolName:
		return d.retrieval.Invoke(ctx, req)
	case d.external != nil && strings.HasPrefix(req.Name, mcp.NamePrefix+":"):
		return d.external.Invoke(ctx, req)
	default:
		if def, ok := d.executor.Registry().Get(req.Name); ok {
			return d.executor.Execute(ctx, def, req)
		}
		return core.ErrorResult(req.CallID, req.Name, core.ErrUnknownTool,
			"no tool named %q", req.Name)
	}
}

// Declarations assembles the advertised catalog: principal custom tools, the
// retrieval tool when a knowledge base is bound, and every synchronized
// external tool.
func (d *Dispatcher) Declarations() []model.ToolDefinition {
	out := d.executor.Registry().Declarations()

	if d.retrieval != nil {
		out = append(out, d.retrieval.Declaration())
	}

	if d.external != nil {
		out = append(out, d.external.Declarations()...)
	}

	return out
}
