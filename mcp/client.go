package mcp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/faisca-ai/faisca/core"
	"github.com/faisca-ai/faisca/logging"
)

// State is the connection state of one external client.
type State string

const (
	// StateDisconnected is the initial state and the result of a disconnect.
	StateDisconnected State = "disconnected"
	// StateConnecting covers transport setup and handshake.
	StateConnecting State = "connecting"
	// StateConnected means the session is live and the catalog is synced.
	StateConnected State = "connected"
	// StateError retains the last failure for diagnostics.
	StateError State = "error"
)

// DefaultCallTimeout bounds one remote tool call. A timeout fails the call
// but never tears down the connection.
const DefaultCallTimeout = 60 * time.Second

// Client manages the connection to a single external tool server.
//
// Two locks guard it: mu protects state transitions and the catalog;
// invokeMu serializes tool calls so at most one is in flight per server.
type Client struct {
	id        string
	transport Transport

	mu       sync.RWMutex
	state    State
	session  Session
	tools    []ToolDescriptor
	syncedAt time.Time
	lastErr  string

	invokeMu sync.Mutex

	callTimeout time.Duration
	logger      logging.Logger
}

// ClientOptions configures a Client.
type ClientOptions struct {
	CallTimeout time.Duration
	Logger      logging.Logger
}

// NewClient creates a client in the Disconnected state.
func NewClient(id string, transport Transport, optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		CallTimeout: DefaultCallTimeout,
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Client{
		id:          id,
		transport:   transport,
		state:       StateDisconnected,
		callTimeout: opts.CallTimeout,
		logger:      opts.Logger,
	}
}

// ID returns the client identifier.
func (c *Client) ID() string { return c.id }

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// LastError returns the retained failure description from the Error state.
func (c *Client) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastErr
}

// Tools returns the synchronized catalog. Readers see a fully-synced catalog
// or none.
func (c *Client) Tools() []ToolDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ToolDescriptor, len(c.tools))
	copy(out, c.tools)

	return out
}

// SyncedAt returns the timestamp of the last catalog synchronization.
func (c *Client) SyncedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.syncedAt
}

// Connect transitions Disconnected/Error -> Connecting -> Connected. The
// handshake is followed by an initial catalog sync. On failure the client
// lands in Error with the cause retained.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnected || c.state == StateConnecting {
		c.mu.Unlock()
		return nil
	}
	from := c.state
	c.state = StateConnecting
	c.mu.Unlock()

	c.logger.Info("client.connecting", "client_id", c.id, "from", string(from))

	session, err := c.transport.Connect(ctx)
	if err != nil {
		c.failConnect(fmt.Errorf("connect %s: %w", c.id, err))
		return fmt.Errorf("connect %s: %w", c.id, err)
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		_ = session.Close()
		c.failConnect(fmt.Errorf("initial sync %s: %w", c.id, err))
		return fmt.Errorf("initial sync %s: %w", c.id, err)
	}

	c.mu.Lock()
	c.session = session
	c.state = StateConnected
	c.tools = tools
	c.syncedAt = time.Now().UTC()
	c.lastErr = ""
	c.mu.Unlock()

	c.logger.Info("client.connected", "client_id", c.id, "tool_count", len(tools))

	return nil
}

func (c *Client) failConnect(err error) {
	c.mu.Lock()
	c.state = StateError
	c.lastErr = err.Error()
	c.session = nil
	c.tools = nil
	c.mu.Unlock()

	c.logger.Warn("client.connect_failed", "client_id", c.id, "error", err.Error())
}

// Disconnect closes the session and returns to Disconnected. The catalog is
// dropped with the connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.tools = nil
	c.state = StateDisconnected
	c.mu.Unlock()

	c.logger.Info("client.disconnected", "client_id", c.id)

	if session != nil {
		return session.Close()
	}

	return nil
}

// Reconnect disconnects (if needed) and connects again. Used for startup
// recovery of previously-connected clients.
func (c *Client) Reconnect(ctx context.Context) error {
	if err := c.Disconnect(); err != nil {
		c.logger.Warn("client.reconnect_close_failed", "client_id", c.id, "error", err.Error())
	}

	return c.Connect(ctx)
}

// Sync refreshes the tool catalog. It is idempotent: the cached set is
// replaced, never accumulated.
func (c *Client) Sync(ctx context.Context) error {
	c.mu.RLock()
	session := c.session
	state := c.state
	c.mu.RUnlock()

	if state != StateConnected {
		return core.NewInvocationError(core.ErrNotConnected, "client %s is %s", c.id, state)
	}

	tools, err := session.ListTools(ctx)
	if err != nil {
		return fmt.Errorf("sync %s: %w", c.id, err)
	}

	c.mu.Lock()
	c.tools = tools
	c.syncedAt = time.Now().UTC()
	c.mu.Unlock()

	c.logger.Info("client.synced", "client_id", c.id, "tool_count", len(tools))

	return nil
}

// Invoke calls one remote tool. It requires the Connected state, waits on
// the client's invocation lock so only one call is in flight, and applies
// the per-call timeout. A timeout fails the call without tearing down the
// connection.
func (c *Client) Invoke(ctx context.Context, toolName string, req core.InvocationRequest) core.InvocationResult {
	c.mu.RLock()
	state := c.state
	session := c.session
	c.mu.RUnlock()

	if state != StateConnected || session == nil {
		return core.ErrorResult(req.CallID, req.Name, core.ErrNotConnected,
			"client %s is %s", c.id, state)
	}

	c.invokeMu.Lock()
	defer c.invokeMu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	payload, err := session.CallTool(callCtx, toolName, req.Arguments)
	if err != nil {
		var remoteErr *RemoteError
		switch {
		case errors.As(err, &remoteErr):
			return core.ErrorResult(req.CallID, req.Name, core.ErrRemoteTool,
				"tool %s on %s failed: %s", toolName, c.id, remoteErr.Message)
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
			return core.ErrorResult(req.CallID, req.Name, core.ErrTimeout,
				"tool %s on %s timed out after %s", toolName, c.id, c.callTimeout)
		default:
			return core.ErrorResult(req.CallID, req.Name, core.ErrRemoteTool,
				"tool %s on %s failed: %v", toolName, c.id, err)
		}
	}

	return core.InvocationResult{
		CallID:      req.CallID,
		Name:        req.Name,
		Payload:     payload,
		Destination: core.DestinationModel,
		Channel:     core.ChannelText,
	}
}
