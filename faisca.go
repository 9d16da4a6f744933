// Package faisca provides a high-level façade over the orchestration engine
// (completion loop, tool dispatch, external clients, sessions and logging)
// enabling rapid construction of tool-using conversational agents. Most
// applications interact with this package by:
//  1. Creating a Faisca via New() with a completion backend and a profile
//     (optionally overriding the default in-memory collaborators)
//  2. Registering custom tool definitions and external server descriptors
//  3. Processing inbound messages with Process()
//
// The façade delegates the conversation loop to agent.Orchestrator while
// keeping setup ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a durable
// session store, a real messenger and a structured logger.
package faisca

import (
	"context"

	"github.com/faisca-ai/faisca/agent"
	"github.com/faisca-ai/faisca/delivery"
	"github.com/faisca-ai/faisca/dispatch"
	"github.com/faisca-ai/faisca/logging"
	"github.com/faisca-ai/faisca/mcp"
	"github.com/faisca-ai/faisca/model"
	"github.com/faisca-ai/faisca/retrieval"
	"github.com/faisca-ai/faisca/session"
	"github.com/faisca-ai/faisca/tool"
)

// Options configures a Faisca instance.
type Options struct {
	// Profile is the agent persona used to build the system prompt.
	Profile *agent.Profile

	// Tools are the custom tool definitions to register, in addition to the
	// built-in defaults.
	Tools []*tool.Definition
	// DisableDefaultTools skips registering the built-in tools.
	DisableDefaultTools bool
	// Env resolves env.NAME placeholders in tool templates.
	Env tool.EnvLookup

	// Searcher and KnowledgeBase bind the retrieval tool; both must be set
	// for it to be advertised.
	Searcher      retrieval.Searcher
	KnowledgeBase string

	// Sessions persists conversation history (defaults to in-memory).
	Sessions session.Store
	// HistoryLimit caps how many prior turns are handed to the backend.
	HistoryLimit int

	// Messenger performs out-of-band end-user deliveries.
	Messenger delivery.Messenger

	// MaxRoundTrips bounds completion round trips per turn.
	MaxRoundTrips int
	// Params are the sampling knobs passed to the backend.
	Params model.Params

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Faisca is the high-level façade aggregating the orchestrator and its
// collaborators.
type Faisca struct {
	orchestrator *agent.Orchestrator
	registry     *tool.Registry
	external     *mcp.Manager
	sessions     session.Store
	historyLimit int
	logger       logging.Logger
}

// New creates a Faisca instance around a completion backend. Any unset
// collaborator is initialized with a safe in-memory default.
func New(backend model.Model, optFns ...func(o *Options)) *Faisca {
	opts := Options{
		Profile:      &agent.Profile{},
		Sessions:     session.NewInMemoryStore(),
		HistoryLimit: session.DefaultHistoryLimit,
		Messenger:    delivery.Nop{},
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var defs []*tool.Definition
	if !opts.DisableDefaultTools {
		defs = tool.DefaultDefinitions()
	}
	defs = append(defs, opts.Tools...)

	registry := tool.NewRegistry(defs...)
	executor := tool.NewExecutor(registry, func(o *tool.ExecutorOptions) {
		o.Env = opts.Env
		o.Logger = opts.Logger
	})

	external := mcp.NewManager(func(o *mcp.ManagerOptions) {
		o.Logger = opts.Logger
	})

	dispatcher := dispatch.New(executor, func(o *dispatch.Options) {
		if opts.Searcher != nil && opts.KnowledgeBase != "" {
			o.Retrieval = retrieval.NewTool(opts.Searcher, opts.KnowledgeBase)
		}
		o.External = external
		o.Logger = opts.Logger
	})

	orchestrator := agent.New(backend, dispatcher, opts.Profile, func(o *agent.Options) {
		if opts.MaxRoundTrips > 0 {
			o.MaxRoundTrips = opts.MaxRoundTrips
		}
		o.Params = opts.Params
		o.Messenger = opts.Messenger
		o.Logger = opts.Logger
	})

	return &Faisca{
		orchestrator: orchestrator,
		registry:     registry,
		external:     external,
		sessions:     opts.Sessions,
		historyLimit: opts.HistoryLimit,
		logger:       opts.Logger,
	}
}

// RegisterTool adds a custom tool definition.
func (f *Faisca) RegisterTool(def *tool.Definition) error { return f.registry.Register(def) }

// External exposes the external client manager for connection lifecycle
// control (connect, sync, reconnect, descriptors).
func (f *Faisca) External() *mcp.Manager { return f.external }

// InstallServers ingests a {"servers": {...}} descriptor document, registers
// one external client per entry and connects them.
func (f *Faisca) InstallServers(ctx context.Context, descriptor []byte, inputs map[string]string) error {
	if _, err := f.external.AddFromDescriptor(descriptor, inputs); err != nil {
		return err
	}

	return f.external.ConnectAll(ctx)
}

// Process runs one conversation turn: it loads the stored history, drives
// the orchestrator and persists the updated history on success.
func (f *Faisca) Process(ctx context.Context, conversationID, message string) (*agent.Outcome, error) {
	history, err := f.sessions.History(conversationID, f.historyLimit)
	if err != nil {
		return nil, err
	}

	outcome, err := f.orchestrator.Process(ctx, agent.Request{
		Message:   message,
		History:   history,
		Recipient: conversationID,
	})
	if err != nil {
		return nil, err
	}

	newTurns := outcome.History[len(history):]
	if err := f.sessions.Append(conversationID, newTurns...); err != nil {
		f.logger.Warn("session.append_failed", "conversation_id", conversationID, "error", err.Error())
	}

	return outcome, nil
}

// Close disconnects every external client.
func (f *Faisca) Close() {
	f.external.DisconnectAll()
}
