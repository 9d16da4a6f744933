package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/faisca-ai/faisca/core"
	"github.com/faisca-ai/faisca/logging"
	"github.com/faisca-ai/faisca/model"
)

// NamePrefix marks call names routed to the external client manager.
const NamePrefix = "external"

// ExternalToolName builds the advertised call name for a remote tool.
func ExternalToolName(clientID, toolName string) string {
	return fmt.Sprintf("%s:%s:%s", NamePrefix, clientID, toolName)
}

// ParseExternalName splits an external call name into client and tool. ok is
// false when the name does not follow the external:{client}:{tool} shape.
func ParseExternalName(name string) (clientID, toolName string, ok bool) {
	parts := strings.SplitN(name, ":", 3)
	if len(parts) != 3 || parts[0] != NamePrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}

	return parts[1], parts[2], true
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// CallTimeout is applied to every client created through the manager.
	CallTimeout time.Duration
	Logger      logging.Logger
}

// Manager owns the set of external clients and routes invocations to them.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client

	callTimeout time.Duration
	logger      logging.Logger
}

// NewManager creates an empty manager.
func NewManager(optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{
		CallTimeout: DefaultCallTimeout,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Manager{
		clients:     make(map[string]*Client),
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}
}

// AddClient registers a client for the given transport. An existing client
// with the same id is replaced; callers should disconnect it first.
func (m *Manager) AddClient(id string, transport Transport) *Client {
	client := NewClient(id, transport, func(o *ClientOptions) {
		o.CallTimeout = m.callTimeout
		o.Logger = m.logger
	})

	m.mu.Lock()
	m.clients[id] = client
	m.mu.Unlock()

	return client
}

// AddFromDescriptor ingests an installable server descriptor document and
// registers one client per named server.
func (m *Manager) AddFromDescriptor(raw []byte, inputs map[string]string) ([]*Client, error) {
	configs, err := ParseDescriptor(raw, inputs)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	clients := make([]*Client, 0, len(configs))
	for _, name := range names {
		transport, err := configs[name].Transport()
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}
		clients = append(clients, m.AddClient(name, transport))
	}

	return clients, nil
}

// Client returns the registered client with the given id.
func (m *Manager) Client(id string) (*Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.clients[id]

	return c, ok
}

// Clients returns all registered clients sorted by id.
func (m *Manager) Clients() []*Client {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })

	return out
}

// Connect connects one client by id.
func (m *Manager) Connect(ctx context.Context, id string) error {
	c, ok := m.Client(id)
	if !ok {
		return fmt.Errorf("unknown client %q", id)
	}

	return c.Connect(ctx)
}

// ConnectAll connects every registered client, collecting failures instead
// of stopping at the first one.
func (m *Manager) ConnectAll(ctx context.Context) error {
	var errs []string
	for _, c := range m.Clients() {
		if err := c.Connect(ctx); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("connect failures: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Disconnect disconnects one client by id.
func (m *Manager) Disconnect(id string) error {
	c, ok := m.Client(id)
	if !ok {
		return fmt.Errorf("unknown client %q", id)
	}

	return c.Disconnect()
}

// DisconnectAll disconnects every registered client.
func (m *Manager) DisconnectAll() {
	for _, c := range m.Clients() {
		if err := c.Disconnect(); err != nil {
			m.logger.Warn("client.disconnect_failed", "client_id", c.ID(), "error", err.Error())
		}
	}
}

// Reconnect reconnects one client by id.
func (m *Manager) Reconnect(ctx context.Context, id string) error {
	c, ok := m.Client(id)
	if !ok {
		return fmt.Errorf("unknown client %q", id)
	}

	return c.Reconnect(ctx)
}

// Sync refreshes one client's tool catalog.
func (m *Manager) Sync(ctx context.Context, id string) error {
	c, ok := m.Client(id)
	if !ok {
		return fmt.Errorf("unknown client %q", id)
	}

	return c.Sync(ctx)
}

// Invoke routes an external call name to its client. The request name must
// follow the external:{client}:{tool} convention.
func (m *Manager) Invoke(ctx context.Context, req core.InvocationRequest) core.InvocationResult {
	clientID, toolName, ok := ParseExternalName(req.Name)
	if !ok {
		return core.ErrorResult(req.CallID, req.Name, core.ErrUnknownTool,
			"malformed external tool name %q", req.Name)
	}

	c, found := m.Client(clientID)
	if !found {
		return core.ErrorResult(req.CallID, req.Name, core.ErrUnknownTool,
			"no external client %q", clientID)
	}

	return c.Invoke(ctx, toolName, req)
}

// Declarations returns the advertised catalog of every connected client,
// namespaced so remote tools can never collide with custom tool names.
func (m *Manager) Declarations() []model.ToolDefinition {
	var out []model.ToolDefinition

	for _, c := range m.Clients() {
		if c.State() != StateConnected {
			continue
		}
		for _, t := range c.Tools() {
			params := t.InputSchema
			if params == nil {
				params = map[string]any{
					"type":       "object",
					"properties": map[string]any{},
				}
			}
			out = append(out, model.NewToolDefinition(ExternalToolName(c.ID(), t.Name), t.Description, params))
		}
	}

	return out
}
