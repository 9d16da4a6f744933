package mcp

import (
	"context"
	"testing"

	"github.com/faisca-ai/faisca/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExternalName(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantClient string
		wantTool   string
		wantOK     bool
	}{
		{"valid", "external:weather:get_forecast", "weather", "get_forecast", true},
		{"tool with colon", "external:srv:ns:tool", "srv", "ns:tool", true},
		{"missing tool", "external:weather:", "", "", false},
		{"missing client", "external::tool", "", "", false},
		{"wrong prefix", "internal:weather:tool", "", "", false},
		{"custom tool name", "buscar_cep", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientID, toolName, ok := ParseExternalName(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantClient, clientID)
			assert.Equal(t, tt.wantTool, toolName)
		})
	}
}

func TestManagerInvokeRouting(t *testing.T) {
	m := NewManager()
	session := &fakeSession{catalogs: singleToolCatalog("echo"), payload: "pong"}
	m.AddClient("srv", &fakeTransport{session: session})
	require.NoError(t, m.Connect(context.Background(), "srv"))

	res := m.Invoke(context.Background(), core.InvocationRequest{
		CallID: "call_1",
		Name:   ExternalToolName("srv", "echo"),
	})
	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "pong", res.Payload)

	res = m.Invoke(context.Background(), core.InvocationRequest{CallID: "call_2", Name: "external:ghost:echo"})
	require.False(t, res.OK())
	assert.Equal(t, core.ErrUnknownTool, res.Err.Code)

	res = m.Invoke(context.Background(), core.InvocationRequest{CallID: "call_3", Name: "not-external"})
	require.False(t, res.OK())
	assert.Equal(t, core.ErrUnknownTool, res.Err.Code)
}

func TestManagerDeclarations(t *testing.T) {
	m := NewManager()
	m.AddClient("up", &fakeTransport{session: &fakeSession{catalogs: singleToolCatalog("echo")}})
	m.AddClient("down", &fakeTransport{session: &fakeSession{catalogs: singleToolCatalog("other")}})
	require.NoError(t, m.Connect(context.Background(), "up"))

	decls := m.Declarations()
	require.Len(t, decls, 1, "disconnected clients advertise nothing")
	assert.Equal(t, "external:up:echo", decls[0].Function.Name)
	assert.NotNil(t, decls[0].Function.Parameters)
}

func TestParseDescriptor(t *testing.T) {
	raw := []byte(`{
		"servers": {
			"files": {"command": "npx", "args": ["-y", "server-files", "--root", "${input:root}"]},
			"search": {"type": "sse", "url": "https://search.example.com/sse"},
			"crm": {"url": "https://crm.example.com/mcp"}
		}
	}`)

	configs, err := ParseDescriptor(raw, map[string]string{"root": "/srv/data"})
	require.NoError(t, err)
	require.Len(t, configs, 3)

	assert.Equal(t, []string{"-y", "server-files", "--root", "/srv/data"}, configs["files"].Args)

	tr, err := configs["files"].Transport()
	require.NoError(t, err)
	assert.Equal(t, KindLocalProcess, tr.Kind())

	tr, err = configs["search"].Transport()
	require.NoError(t, err)
	assert.Equal(t, KindUnidirectionalStream, tr.Kind())

	tr, err = configs["crm"].Transport()
	require.NoError(t, err)
	assert.Equal(t, KindBidirectionalStream, tr.Kind())
}

func TestParseDescriptorLegacyKey(t *testing.T) {
	raw := []byte(`{"mcpServers": {"files": {"command": "uvx", "args": ["server-files"]}}}`)

	configs, err := ParseDescriptor(raw, nil)
	require.NoError(t, err)
	require.Contains(t, configs, "files")
	assert.Equal(t, "uvx", configs["files"].Command)
}

func TestParseDescriptorMergesLegacyKey(t *testing.T) {
	raw := []byte(`{
		"servers": {"files": {"command": "npx"}},
		"mcpServers": {
			"files": {"command": "uvx"},
			"search": {"url": "https://search.example.com/mcp"}
		}
	}`)

	configs, err := ParseDescriptor(raw, nil)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	// On a name collision the current block wins; legacy-only entries survive.
	assert.Equal(t, "npx", configs["files"].Command)
	assert.Equal(t, "https://search.example.com/mcp", configs["search"].URL)
}

func TestParseDescriptorMissingInput(t *testing.T) {
	raw := []byte(`{"servers": {"files": {"command": "npx", "env": {"TOKEN": "${input:token}"}}}}`)

	_, err := ParseDescriptor(raw, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestParseDescriptorEmpty(t *testing.T) {
	_, err := ParseDescriptor([]byte(`{}`), nil)
	require.Error(t, err)

	_, err = ParseDescriptor([]byte(`not json`), nil)
	require.Error(t, err)
}

func TestManagerAddFromDescriptor(t *testing.T) {
	m := NewManager()

	clients, err := m.AddFromDescriptor([]byte(`{"servers": {"a": {"command": "bin-a"}, "b": {"url": "https://b.example.com/mcp"}}}`), nil)
	require.NoError(t, err)
	require.Len(t, clients, 2)
	assert.Equal(t, "a", clients[0].ID())
	assert.Equal(t, "b", clients[1].ID())

	_, ok := m.Client("a")
	assert.True(t, ok)
	assert.Equal(t, StateDisconnected, clients[0].State())
}
