package mcp

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// ServerConfig is the per-server entry of an installable descriptor
// document. Command-based entries spawn a local process; URL-based entries
// select a stream transport by type.
type ServerConfig struct {
	Type    string            `json:"type,omitempty" yaml:"type,omitempty"` // stdio, sse or http
	Command string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
}

type descriptor struct {
	Servers map[string]ServerConfig `json:"servers"`
	// Legacy key used by older one-click install documents.
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

var inputRe = regexp.MustCompile(`\$\{input:([a-zA-Z0-9_-]+)\}`)

// ParseDescriptor decodes a {"servers": {...}} document (accepting the
// legacy "mcpServers" key) and resolves ${input:key} placeholders against
// the supplied inputs.
func ParseDescriptor(raw []byte, inputs map[string]string) (map[string]ServerConfig, error) {
	var doc descriptor
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse server descriptor: %w", err)
	}

	// Merge per key: the legacy block seeds the set and the current block
	// overrides name collisions.
	servers := make(map[string]ServerConfig, len(doc.Servers)+len(doc.MCPServers))
	for name, cfg := range doc.MCPServers {
		servers[name] = cfg
	}
	for name, cfg := range doc.Servers {
		servers[name] = cfg
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("server descriptor names no servers")
	}

	out := make(map[string]ServerConfig, len(servers))
	for name, cfg := range servers {
		resolved, err := cfg.resolveInputs(inputs)
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}
		out[name] = resolved
	}

	return out, nil
}

func (c ServerConfig) resolveInputs(inputs map[string]string) (ServerConfig, error) {
	var firstErr error

	resolve := func(s string) string {
		return inputRe.ReplaceAllStringFunc(s, func(match string) string {
			key := inputRe.FindStringSubmatch(match)[1]
			if val, ok := inputs[key]; ok {
				return val
			}
			if firstErr == nil {
				firstErr = fmt.Errorf("no value for input %q", key)
			}
			return match
		})
	}

	c.Command = resolve(c.Command)
	c.URL = resolve(c.URL)

	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = resolve(a)
	}
	c.Args = args

	env := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		env[k] = resolve(v)
	}
	c.Env = env

	return c, firstErr
}

// Transport builds the transport described by this entry.
func (c ServerConfig) Transport() (Transport, error) {
	switch {
	case c.Command != "":
		return NewLocalProcessTransport(c.Command, c.Args, c.Env), nil
	case c.URL != "" && c.Type == "sse":
		return NewSSETransport(c.URL), nil
	case c.URL != "":
		return NewStreamableTransport(c.URL), nil
	default:
		return nil, fmt.Errorf("entry has neither command nor url")
	}
}
