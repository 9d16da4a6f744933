package tool

import (
	"context"
	"net/http"
	"time"

	"github.com/faisca-ai/faisca/core"
	"github.com/faisca-ai/faisca/internal/util"
	"github.com/faisca-ai/faisca/logging"
)

// ExecutorOptions configures the custom tool executor.
type ExecutorOptions struct {
	// HTTPClient sends http_request tool calls and sandbox httpGet calls.
	HTTPClient *http.Client
	// HTTPTimeout bounds one outbound request.
	HTTPTimeout time.Duration
	// CodeTimeout bounds one script evaluation.
	CodeTimeout time.Duration
	// Env resolves env.NAME placeholders.
	Env EnvLookup
	// Logger receives per-invocation telemetry.
	Logger logging.Logger
}

// Executor interprets Definitions: it validates arguments, substitutes
// templates, runs the http or code kind and follows chain pointers.
type Executor struct {
	registry    *Registry
	httpClient  *http.Client
	httpTimeout time.Duration
	codeTimeout time.Duration
	env         EnvLookup
	logger      logging.Logger
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry, optFns ...func(o *ExecutorOptions)) *Executor {
	opts := ExecutorOptions{
		HTTPClient:  http.DefaultClient,
		HTTPTimeout: DefaultHTTPTimeout,
		CodeTimeout: DefaultCodeTimeout,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		registry:    registry,
		httpClient:  opts.HTTPClient,
		httpTimeout: opts.HTTPTimeout,
		codeTimeout: opts.CodeTimeout,
		env:         opts.Env,
		logger:      opts.Logger,
	}
}

// Registry exposes the backing definition registry.
func (e *Executor) Registry() *Registry { return e.registry }

// Execute runs one tool call against a Definition and returns its outcome.
// When the definition names a next tool, the chain is followed until a
// definition without a next pointer (or a failure) is reached; the returned
// result and its output policy always belong to the last executed tool.
func (e *Executor) Execute(ctx context.Context, def *Definition, req core.InvocationRequest) core.InvocationResult {
	visited := map[string]bool{}

	return e.executeChain(ctx, def, req, nil, visited)
}

func (e *Executor) executeChain(
	ctx context.Context,
	def *Definition,
	req core.InvocationRequest,
	prior any,
	visited map[string]bool,
) core.InvocationResult {
	if visited[def.Name] {
		return core.ErrorResult(req.CallID, req.Name, core.ErrExecution,
			"tool chain revisits %q", def.Name)
	}
	visited[def.Name] = true

	payload, invErr := e.executeOne(ctx, def, req.Arguments, prior)
	if invErr != nil {
		return core.InvocationResult{
			CallID:      req.CallID,
			Name:        req.Name,
			Err:         invErr,
			Destination: core.DestinationModel,
		}
	}

	if def.Next != "" {
		next, ok := e.registry.Get(def.Next)
		if !ok {
			return core.ErrorResult(req.CallID, req.Name, core.ErrExecution,
				"tool %q chains to unknown tool %q", def.Name, def.Next)
		}

		chained := req
		chained.Arguments = mergeResult(req.Arguments, payload)

		return e.executeChain(ctx, next, chained, payload, visited)
	}

	destination := core.Destination(def.Output.Destination)
	if destination == "" {
		destination = core.DestinationModel
	}

	channel := core.Channel(def.Output.Channel)
	if channel == "" {
		channel = core.ChannelText
	}

	return core.InvocationResult{
		CallID:          req.CallID,
		Name:            req.Name,
		Payload:         payload,
		Destination:     destination,
		Channel:         channel,
		PostInstruction: def.Output.PostInstruction,
	}
}

// executeOne validates arguments and runs a single definition.
func (e *Executor) executeOne(ctx context.Context, def *Definition, args map[string]any, prior any) (any, *core.InvocationError) {
	if args == nil {
		args = map[string]any{}
	}

	if def.Parameters != nil {
		if err := util.ValidateParameters(args, def.Parameters); err != nil {
			return nil, core.NewInvocationError(core.ErrExecution, "tool %q: %v", def.Name, err)
		}
	}

	start := time.Now()

	var (
		payload any
		invErr  *core.InvocationError
	)

	switch def.Kind {
	case KindHTTPRequest:
		payload, invErr = e.runHTTP(ctx, def, args, prior)
	case KindCode:
		payload, invErr = e.runCode(ctx, def, args, prior)
	default:
		invErr = core.NewInvocationError(core.ErrExecution, "tool %q has unknown kind %q", def.Name, def.Kind)
	}

	if invErr != nil {
		e.logger.Error("tool.call.error", "tool", def.Name, "code", string(invErr.Code), "error", invErr.Message)
	} else {
		e.logger.Info("tool.call.success", "tool", def.Name, "duration_ms", time.Since(start).Milliseconds())
	}

	return payload, invErr
}

// mergeResult builds the argument map for a chained tool: the original
// arguments plus the previous tool's raw result under "result".
func mergeResult(args map[string]any, result any) map[string]any {
	merged := make(map[string]any, len(args)+1)
	for k, v := range args {
		merged[k] = v
	}
	merged["result"] = result

	return merged
}
