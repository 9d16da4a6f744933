package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/faisca-ai/faisca/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteHTTPRequest(t *testing.T) {
	var gotPath, gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"localidade":"São Paulo","uf":"SP"}`))
	}))
	defer srv.Close()

	def := &Definition{
		Name: "buscar_cep",
		Kind: KindHTTPRequest,
		HTTP: &HTTPTemplate{
			Method:  "GET",
			URL:     srv.URL + "/ws/{cep}/json/",
			Headers: map[string]string{"Authorization": "Bearer {var.token}"},
		},
		Variables: []Variable{{Key: "token", Value: "abc123", Secret: true}},
	}

	exec := NewExecutor(NewRegistry(def))
	res := exec.Execute(context.Background(), def, core.InvocationRequest{
		CallID:    "call_1",
		Name:      "buscar_cep",
		Arguments: map[string]any{"cep": "01310100"},
	})

	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "/ws/01310100/json/", gotPath)
	assert.Equal(t, "Bearer abc123", gotAuth)
	assert.Equal(t, core.DestinationModel, res.Destination)

	payload, ok := res.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "São Paulo", payload["localidade"])
}

func TestExecuteHTTPResponseMap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"address":{"city":"São Paulo","state":"SP"}}`))
	}))
	defer srv.Close()

	def := &Definition{
		Name: "lookup_address",
		Kind: KindHTTPRequest,
		HTTP: &HTTPTemplate{Method: "GET", URL: srv.URL},
		ResponseMap: map[string]string{
			"city":    "address.city",
			"country": "address.country", // absent, must be omitted
		},
	}

	exec := NewExecutor(NewRegistry(def))
	res := exec.Execute(context.Background(), def, core.InvocationRequest{CallID: "call_1", Name: def.Name})

	require.True(t, res.OK())
	payload, ok := res.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "São Paulo", payload["city"])
	_, hasCountry := payload["country"]
	assert.False(t, hasCountry)
}

func TestExecuteHTTPRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	def := &Definition{
		Name: "broken",
		Kind: KindHTTPRequest,
		HTTP: &HTTPTemplate{Method: "GET", URL: srv.URL},
	}

	exec := NewExecutor(NewRegistry(def))
	res := exec.Execute(context.Background(), def, core.InvocationRequest{CallID: "call_1", Name: "broken"})

	require.False(t, res.OK())
	assert.Equal(t, core.ErrRemoteTool, res.Err.Code)
	assert.Equal(t, core.DestinationModel, res.Destination)
}

func TestExecuteHTTPMissingVariable(t *testing.T) {
	def := &Definition{
		Name: "needs_var",
		Kind: KindHTTPRequest,
		HTTP: &HTTPTemplate{Method: "GET", URL: "https://example.com/{var.key}"},
	}

	exec := NewExecutor(NewRegistry(def))
	res := exec.Execute(context.Background(), def, core.InvocationRequest{CallID: "call_1", Name: "needs_var"})

	require.False(t, res.OK())
	assert.Equal(t, core.ErrMissingVariable, res.Err.Code)
}

func TestExecuteCode(t *testing.T) {
	def := &Definition{
		Name:   "shout",
		Kind:   KindCode,
		Source: `String(args.text).toUpperCase()`,
	}

	exec := NewExecutor(NewRegistry(def))
	res := exec.Execute(context.Background(), def, core.InvocationRequest{
		CallID:    "call_1",
		Name:      "shout",
		Arguments: map[string]any{"text": "hello"},
	})

	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "HELLO", res.Payload)
}

func TestExecuteCodeTimeout(t *testing.T) {
	def := &Definition{
		Name:   "spin",
		Kind:   KindCode,
		Source: `while (true) {}`,
	}

	exec := NewExecutor(NewRegistry(def), func(o *ExecutorOptions) {
		o.CodeTimeout = 50 * time.Millisecond
	})

	res := exec.Execute(context.Background(), def, core.InvocationRequest{CallID: "call_1", Name: "spin"})

	require.False(t, res.OK())
	assert.Equal(t, core.ErrTimeout, res.Err.Code)
}

func TestExecuteCodeError(t *testing.T) {
	def := &Definition{
		Name:   "raise",
		Kind:   KindCode,
		Source: `throw new Error("boom")`,
	}

	exec := NewExecutor(NewRegistry(def))
	res := exec.Execute(context.Background(), def, core.InvocationRequest{CallID: "call_1", Name: "raise"})

	require.False(t, res.OK())
	assert.Equal(t, core.ErrExecution, res.Err.Code)
	assert.Contains(t, res.Err.Message, "boom")
}

func TestExecuteChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"abc","score":42}`))
	}))
	defer srv.Close()

	first := &Definition{
		Name: "fetch_record",
		Kind: KindHTTPRequest,
		HTTP: &HTTPTemplate{Method: "GET", URL: srv.URL},
		Next: "summarize_record",
	}
	second := &Definition{
		Name:   "summarize_record",
		Kind:   KindCode,
		Source: `"record " + args.result.id + " scored " + args.result.score`,
		Output: Output{Destination: "both", PostInstruction: "Relay this to the user verbatim."},
	}

	exec := NewExecutor(NewRegistry(first, second))
	res := exec.Execute(context.Background(), first, core.InvocationRequest{
		CallID:    "call_1",
		Name:      "fetch_record",
		Arguments: map[string]any{"query": "abc"},
	})

	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	assert.Equal(t, "record abc scored 42", res.Payload)
	assert.Equal(t, core.DestinationBoth, res.Destination)
	assert.Equal(t, "Relay this to the user verbatim.", res.PostInstruction)
	assert.Equal(t, "call_1", res.CallID)
}

func TestExecuteChainCycle(t *testing.T) {
	a := &Definition{Name: "a", Kind: KindCode, Source: `1`, Next: "b"}
	b := &Definition{Name: "b", Kind: KindCode, Source: `2`, Next: "a"}

	exec := NewExecutor(NewRegistry(a, b))
	res := exec.Execute(context.Background(), a, core.InvocationRequest{CallID: "call_1", Name: "a"})

	require.False(t, res.OK())
	assert.Equal(t, core.ErrExecution, res.Err.Code)
	assert.Contains(t, res.Err.Message, "revisits")
}

func TestExecuteValidatesArguments(t *testing.T) {
	def := &Definition{
		Name: "typed",
		Kind: KindCode,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"n": map[string]any{"type": "number"},
			},
			"required": []any{"n"},
		},
		Source: `args.n * 2`,
	}

	exec := NewExecutor(NewRegistry(def))
	res := exec.Execute(context.Background(), def, core.InvocationRequest{CallID: "call_1", Name: "typed"})

	require.False(t, res.OK())
	assert.Equal(t, core.ErrExecution, res.Err.Code)
}

func TestDefaultDefinitions(t *testing.T) {
	defs := DefaultDefinitions()
	registry := NewRegistry(defs...)
	exec := NewExecutor(registry)

	clock, ok := registry.Get("current_datetime")
	require.True(t, ok)

	res := exec.Execute(context.Background(), clock, core.InvocationRequest{CallID: "call_1", Name: clock.Name})
	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	_, err := time.Parse(time.RFC3339, res.Payload.(string))
	assert.NoError(t, err)

	calc, ok := registry.Get("calculate")
	require.True(t, ok)

	res = exec.Execute(context.Background(), calc, core.InvocationRequest{
		CallID:    "call_2",
		Name:      calc.Name,
		Arguments: map[string]any{"expression": "(2 + 3) * 4"},
	})
	require.True(t, res.OK(), "unexpected error: %v", res.Err)
	assert.EqualValues(t, 20, res.Payload)
}
