package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// TransportKind identifies the channel used to reach a tool server.
type TransportKind string

const (
	// KindLocalProcess spawns the server as a stdio subprocess.
	KindLocalProcess TransportKind = "local_process"
	// KindUnidirectionalStream connects to a server-sent-events endpoint.
	KindUnidirectionalStream TransportKind = "unidirectional_stream"
	// KindBidirectionalStream connects to a streamable HTTP endpoint.
	KindBidirectionalStream TransportKind = "bidirectional_stream"
)

// ToolDescriptor is one entry of a server's synchronized tool catalog.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// Session is an established protocol session. Implementations are not safe
// for concurrent calls; the owning Client serializes access.
type Session interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (any, error)
	Close() error
}

// Transport dials one tool server. Connect performs the transport setup and
// protocol handshake, returning a live session.
type Transport interface {
	Kind() TransportKind
	Connect(ctx context.Context) (Session, error)
}

// RemoteError is returned by Session.CallTool when the call was delivered
// but the server reported a tool-level failure.
type RemoteError struct {
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string { return e.Message }

type sdkTransport struct {
	kind TransportKind
	dial func(ctx context.Context) (*mcpsdk.ClientSession, error)
}

func (t *sdkTransport) Kind() TransportKind { return t.kind }

func (t *sdkTransport) Connect(ctx context.Context) (Session, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}

	return &sdkSession{conn: conn}, nil
}

func newSDKClient() *mcpsdk.Client {
	return mcpsdk.NewClient(&mcpsdk.Implementation{Name: "faisca", Version: "v1.0.0"}, nil)
}

// NewLocalProcessTransport spawns command with args as a stdio tool server.
// env entries are appended to the child's inherited environment.
func NewLocalProcessTransport(command string, args []string, env map[string]string) Transport {
	return &sdkTransport{
		kind: KindLocalProcess,
		dial: func(ctx context.Context) (*mcpsdk.ClientSession, error) {
			cmd := exec.Command(command, args...)
			cmd.Stderr = os.Stderr
			cmd.Env = os.Environ()
			for k, v := range env {
				cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
			}

			return newSDKClient().Connect(ctx, mcpsdk.NewCommandTransport(cmd))
		},
	}
}

// NewSSETransport connects to a server-sent-events tool server at url.
func NewSSETransport(url string) Transport {
	return &sdkTransport{
		kind: KindUnidirectionalStream,
		dial: func(ctx context.Context) (*mcpsdk.ClientSession, error) {
			return newSDKClient().Connect(ctx, mcpsdk.NewSSEClientTransport(url, nil))
		},
	}
}

// NewStreamableTransport connects to a streamable HTTP tool server at url.
func NewStreamableTransport(url string) Transport {
	return &sdkTransport{
		kind: KindBidirectionalStream,
		dial: func(ctx context.Context) (*mcpsdk.ClientSession, error) {
			return newSDKClient().Connect(ctx, mcpsdk.NewStreamableClientTransport(url, nil))
		},
	}
}

type sdkSession struct {
	conn *mcpsdk.ClientSession
}

// ListTools drains the server's paginated tool catalog.
func (s *sdkSession) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	var out []ToolDescriptor

	params := &mcpsdk.ListToolsParams{}
	for {
		list, err := s.conn.ListTools(ctx, params)
		if err != nil {
			return nil, err
		}

		for _, t := range list.Tools {
			out = append(out, ToolDescriptor{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: schemaToMap(t.InputSchema),
			})
		}

		if list.NextCursor == "" {
			break
		}
		params.Cursor = list.NextCursor
	}

	return out, nil
}

// CallTool invokes one remote tool and flattens its content to a payload.
func (s *sdkSession) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	result, err := s.conn.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	text := sb.String()

	if result.IsError {
		return nil, &RemoteError{Message: text}
	}

	// Structured payloads come through as JSON text.
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err == nil {
		return decoded, nil
	}

	return text, nil
}

func (s *sdkSession) Close() error { return s.conn.Close() }

// schemaToMap converts the SDK's schema representation into the plain map
// shape advertised to the completion backend.
func schemaToMap(schema any) map[string]any {
	if schema == nil {
		return nil
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}

	return out
}
