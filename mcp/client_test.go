package mcp

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/faisca-ai/faisca/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession is an in-memory Session with an in-flight call counter used to
// observe the per-client invocation lock.
type fakeSession struct {
	catalogs  [][]ToolDescriptor // returned by successive ListTools calls
	listCalls int32

	callDelay   time.Duration
	blockOnCtx  bool
	callErr     error
	payload     any
	inFlight    int32
	maxInFlight int32
	closed      atomic.Bool
}

func (s *fakeSession) ListTools(context.Context) ([]ToolDescriptor, error) {
	n := atomic.AddInt32(&s.listCalls, 1)
	idx := int(n) - 1
	if idx >= len(s.catalogs) {
		idx = len(s.catalogs) - 1
	}

	return s.catalogs[idx], nil
}

func (s *fakeSession) CallTool(ctx context.Context, _ string, _ map[string]any) (any, error) {
	cur := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)

	for {
		prev := atomic.LoadInt32(&s.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt32(&s.maxInFlight, prev, cur) {
			break
		}
	}

	if s.blockOnCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if s.callDelay > 0 {
		time.Sleep(s.callDelay)
	}

	if s.callErr != nil {
		return nil, s.callErr
	}

	return s.payload, nil
}

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

// fakeTransport counts connection attempts so tests can assert that no
// network action happened.
type fakeTransport struct {
	session  *fakeSession
	dialErr  error
	dials    int32
	lastDial time.Time
}

func (t *fakeTransport) Kind() TransportKind { return KindLocalProcess }

func (t *fakeTransport) Connect(context.Context) (Session, error) {
	atomic.AddInt32(&t.dials, 1)
	t.lastDial = time.Now()

	if t.dialErr != nil {
		return nil, t.dialErr
	}

	return t.session, nil
}

func singleToolCatalog(name string) [][]ToolDescriptor {
	return [][]ToolDescriptor{{{Name: name, Description: "test tool"}}}
}

func TestClientConnectSyncsCatalog(t *testing.T) {
	transport := &fakeTransport{session: &fakeSession{catalogs: singleToolCatalog("echo")}}
	client := NewClient("srv", transport)

	assert.Equal(t, StateDisconnected, client.State())

	require.NoError(t, client.Connect(context.Background()))
	assert.Equal(t, StateConnected, client.State())
	require.Len(t, client.Tools(), 1)
	assert.Equal(t, "echo", client.Tools()[0].Name)
	assert.False(t, client.SyncedAt().IsZero())
}

func TestClientConnectFailureRetainsError(t *testing.T) {
	transport := &fakeTransport{dialErr: errors.New("spawn failed")}
	client := NewClient("srv", transport)

	err := client.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateError, client.State())
	assert.Contains(t, client.LastError(), "spawn failed")
	assert.Empty(t, client.Tools())

	// Reconnect recovers from the Error state.
	transport.dialErr = nil
	transport.session = &fakeSession{catalogs: singleToolCatalog("echo")}
	require.NoError(t, client.Reconnect(context.Background()))
	assert.Equal(t, StateConnected, client.State())
}

func TestClientInvokeWhenDisconnected(t *testing.T) {
	transport := &fakeTransport{session: &fakeSession{catalogs: singleToolCatalog("echo")}}
	client := NewClient("srv", transport)

	res := client.Invoke(context.Background(), "echo", core.InvocationRequest{CallID: "call_1", Name: "external:srv:echo"})

	require.False(t, res.OK())
	assert.Equal(t, core.ErrNotConnected, res.Err.Code)
	assert.EqualValues(t, 0, atomic.LoadInt32(&transport.dials), "no network action may happen")
}

func TestClientInvokeSerialized(t *testing.T) {
	session := &fakeSession{
		catalogs:  singleToolCatalog("echo"),
		callDelay: 20 * time.Millisecond,
		payload:   "ok",
	}
	client := NewClient("srv", &fakeTransport{session: session})
	require.NoError(t, client.Connect(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := client.Invoke(context.Background(), "echo", core.InvocationRequest{CallID: "c", Name: "external:srv:echo"})
			assert.True(t, res.OK())
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&session.maxInFlight),
		"at most one call may be in flight per client")
}

func TestClientInvokeTimeoutKeepsConnection(t *testing.T) {
	session := &fakeSession{
		catalogs:   singleToolCatalog("echo"),
		blockOnCtx: true,
	}
	client := NewClient("srv", &fakeTransport{session: session}, func(o *ClientOptions) {
		o.CallTimeout = 30 * time.Millisecond
	})
	require.NoError(t, client.Connect(context.Background()))

	res := client.Invoke(context.Background(), "echo", core.InvocationRequest{CallID: "call_1", Name: "external:srv:echo"})

	require.False(t, res.OK())
	assert.Equal(t, core.ErrTimeout, res.Err.Code)
	assert.Equal(t, StateConnected, client.State())
	assert.False(t, session.closed.Load(), "timeout must not tear down the session")
}

func TestClientInvokeRemoteError(t *testing.T) {
	session := &fakeSession{
		catalogs: singleToolCatalog("echo"),
		callErr:  &RemoteError{Message: "tool exploded"},
	}
	client := NewClient("srv", &fakeTransport{session: session})
	require.NoError(t, client.Connect(context.Background()))

	res := client.Invoke(context.Background(), "echo", core.InvocationRequest{CallID: "call_1", Name: "external:srv:echo"})

	require.False(t, res.OK())
	assert.Equal(t, core.ErrRemoteTool, res.Err.Code)
	assert.Contains(t, res.Err.Message, "tool exploded")
}

func TestClientSyncReplacesCatalog(t *testing.T) {
	session := &fakeSession{catalogs: [][]ToolDescriptor{
		{{Name: "alpha"}, {Name: "beta"}},
		{{Name: "gamma"}},
	}}
	client := NewClient("srv", &fakeTransport{session: session})
	require.NoError(t, client.Connect(context.Background()))
	require.Len(t, client.Tools(), 2)

	first := client.SyncedAt()

	require.NoError(t, client.Sync(context.Background()))
	tools := client.Tools()
	require.Len(t, tools, 1, "sync must replace, not accumulate")
	assert.Equal(t, "gamma", tools[0].Name)
	assert.False(t, client.SyncedAt().Before(first))
}

func TestClientSyncRequiresConnected(t *testing.T) {
	client := NewClient("srv", &fakeTransport{session: &fakeSession{catalogs: singleToolCatalog("echo")}})

	err := client.Sync(context.Background())
	require.Error(t, err)

	var invErr *core.InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, core.ErrNotConnected, invErr.Code)
}

func TestClientDisconnectDropsCatalog(t *testing.T) {
	session := &fakeSession{catalogs: singleToolCatalog("echo")}
	client := NewClient("srv", &fakeTransport{session: session})
	require.NoError(t, client.Connect(context.Background()))

	require.NoError(t, client.Disconnect())
	assert.Equal(t, StateDisconnected, client.State())
	assert.Empty(t, client.Tools())
	assert.True(t, session.closed.Load())
}
