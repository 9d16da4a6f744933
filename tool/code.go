package tool

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dop251/goja"
	"github.com/faisca-ai/faisca/core"
)

// DefaultCodeTimeout is the hard wall-clock bound on one script evaluation.
const DefaultCodeTimeout = 30 * time.Second

// runCode substitutes the stored source and evaluates it in a fresh sandbox.
// The sandbox sees only the explicit bindings below; it has no access to the
// process environment, the filesystem or package state. A new runtime is
// created per call and discarded, so nothing leaks between invocations.
func (e *Executor) runCode(ctx context.Context, def *Definition, args map[string]any, prior any) (any, *core.InvocationError) {
	source, err := Substitute(def.Source, args, prior, def.Variables, e.env)
	if err != nil {
		return nil, asInvocationError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.codeTimeout)
	defer cancel()

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	bindings := map[string]any{
		"args": args,
		"now": func() string {
			return time.Now().UTC().Format(time.RFC3339)
		},
		"jsonEncode": func(v goja.Value) (string, error) {
			raw, err := json.Marshal(v.Export())
			if err != nil {
				return "", err
			}
			return string(raw), nil
		},
		"jsonDecode": func(s string) (any, error) {
			var out any
			if err := json.Unmarshal([]byte(s), &out); err != nil {
				return nil, err
			}
			return out, nil
		},
		"httpGet": func(url string) (map[string]any, error) {
			return e.sandboxGet(ctx, url)
		},
	}
	if prior != nil {
		bindings["result"] = prior
	}

	for name, binding := range bindings {
		if err := vm.Set(name, binding); err != nil {
			return nil, core.NewInvocationError(core.ErrExecution, "tool %q sandbox setup: %v", def.Name, err)
		}
	}

	interrupt := make(chan struct{})
	defer close(interrupt)

	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-interrupt:
		}
	}()

	val, runErr := vm.RunString(source)
	if runErr != nil {
		var interrupted *goja.InterruptedError
		if errors.As(runErr, &interrupted) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, core.NewInvocationError(core.ErrTimeout, "tool %q exceeded %s", def.Name, e.codeTimeout)
		}
		return nil, core.NewInvocationError(core.ErrExecution, "tool %q: %v", def.Name, runErr)
	}

	result := val.Export()

	if len(def.ResponseMap) > 0 {
		raw, err := json.Marshal(result)
		if err == nil {
			return decodePayload(raw, def.ResponseMap), nil
		}
	}

	return result, nil
}

// sandboxGet is the only outbound capability granted to code tools.
func (e *Executor) sandboxGet(ctx context.Context, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"status": resp.StatusCode,
		"body":   string(raw),
	}, nil
}
