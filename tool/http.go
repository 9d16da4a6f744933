package tool

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/faisca-ai/faisca/core"
	"github.com/tidwall/gjson"
)

// DefaultHTTPTimeout bounds one outbound tool request.
const DefaultHTTPTimeout = 30 * time.Second

// runHTTP substitutes the stored request template, sends it and returns the
// (optionally remapped) response payload.
func (e *Executor) runHTTP(ctx context.Context, def *Definition, args map[string]any, prior any) (any, *core.InvocationError) {
	if def.HTTP == nil {
		return nil, core.NewInvocationError(core.ErrExecution, "tool %q has no http template", def.Name)
	}

	url, err := Substitute(def.HTTP.URL, args, prior, def.Variables, e.env)
	if err != nil {
		return nil, asInvocationError(err)
	}

	body, err := Substitute(def.HTTP.Body, args, prior, def.Variables, e.env)
	if err != nil {
		return nil, asInvocationError(err)
	}

	method := strings.ToUpper(def.HTTP.Method)
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	ctx, cancel := context.WithTimeout(ctx, e.httpTimeout)
	defer cancel()

	req, reqErr := http.NewRequestWithContext(ctx, method, url, reader)
	if reqErr != nil {
		return nil, core.NewInvocationError(core.ErrExecution, "build request for %q: %v", def.Name, reqErr)
	}

	for k, v := range def.HTTP.Headers {
		resolved, err := Substitute(v, args, prior, def.Variables, e.env)
		if err != nil {
			return nil, asInvocationError(err)
		}
		req.Header.Set(k, resolved)
	}

	if body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, doErr := e.httpClient.Do(req)
	if doErr != nil {
		if isTimeout(doErr) {
			return nil, core.NewInvocationError(core.ErrTimeout, "tool %q timed out after %s", def.Name, e.httpTimeout)
		}
		return nil, core.NewInvocationError(core.ErrExecution, "tool %q request failed: %v", def.Name, doErr)
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, core.NewInvocationError(core.ErrExecution, "tool %q read response: %v", def.Name, readErr)
	}

	if resp.StatusCode >= 400 {
		return nil, core.NewInvocationError(core.ErrRemoteTool,
			"tool %q returned status %d: %s", def.Name, resp.StatusCode, truncate(string(raw), 512))
	}

	return decodePayload(raw, def.ResponseMap), nil
}

// decodePayload parses the response body and applies the response map. A
// non-empty map extracts named fields by dotted path; unresolvable paths are
// silently omitted.
func decodePayload(raw []byte, responseMap map[string]string) any {
	if len(responseMap) > 0 {
		out := make(map[string]any, len(responseMap))
		for field, path := range responseMap {
			res := gjson.GetBytes(raw, path)
			if !res.Exists() {
				continue
			}
			out[field] = res.Value()
		}
		return out
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		return decoded
	}

	return string(raw)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}

// asInvocationError coerces a substitution failure to its typed form.
func asInvocationError(err error) *core.InvocationError {
	var invErr *core.InvocationError
	if errors.As(err, &invErr) {
		return invErr
	}

	return core.NewInvocationError(core.ErrExecution, "%v", err)
}
