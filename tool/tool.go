package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/faisca-ai/faisca/model"
)

// Kind selects how a Definition is executed.
type Kind string

const (
	// KindHTTPRequest sends a templated outbound HTTP request.
	KindHTTPRequest Kind = "http_request"
	// KindCode evaluates a templated script in an isolated sandbox.
	KindCode Kind = "code"
)

// Scope controls whether a Definition is advertised to the completion backend.
type Scope string

const (
	// ScopePrincipal tools appear in the advertised catalog.
	ScopePrincipal Scope = "principal"
	// ScopeAuxiliary tools are only reachable as chain targets.
	ScopeAuxiliary Scope = "auxiliary"
)

// Variable is a scoped value belonging to exactly one Definition. Variables
// are used only during substitution and are never exposed to the model.
type Variable struct {
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value" yaml:"value"`
	Secret bool   `json:"secret,omitempty" yaml:"secret,omitempty"`
}

// HTTPTemplate is the stored shape of an http_request tool. Every textual
// field may contain placeholders.
type HTTPTemplate struct {
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`
}

// Output is the routing policy attached to a Definition's results.
type Output struct {
	// Destination selects model, user or both. Empty means model.
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
	// Channel is the delivery media kind for end-user sends.
	Channel string `json:"channel,omitempty" yaml:"channel,omitempty"`
	// PostInstruction is appended to the payload handed back to the model.
	PostInstruction string `json:"post_instruction,omitempty" yaml:"post_instruction,omitempty"`
}

// Definition is one custom tool as stored in the configuration store. It is
// pure data; the Executor interprets it.
type Definition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Kind        Kind   `json:"kind" yaml:"kind"`
	Scope       Scope  `json:"scope,omitempty" yaml:"scope,omitempty"`

	// Parameters is the JSON schema advertised to the model and used to
	// validate call arguments.
	Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty"`

	// HTTP holds the request template for http_request tools.
	HTTP *HTTPTemplate `json:"http,omitempty" yaml:"http,omitempty"`
	// Source holds the script for code tools.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Variables are resolved by var.KEY placeholders during substitution.
	Variables []Variable `json:"variables,omitempty" yaml:"variables,omitempty"`

	// ResponseMap extracts named output fields from the raw result via
	// dotted paths. Unresolvable paths are omitted, never errors.
	ResponseMap map[string]string `json:"response_map,omitempty" yaml:"response_map,omitempty"`

	// Next names the Definition invoked with this tool's result on success.
	Next string `json:"next,omitempty" yaml:"next,omitempty"`

	Output Output `json:"output,omitempty" yaml:"output,omitempty"`
}

// Variable returns the value of the named tool variable.
func (d *Definition) Variable(key string) (string, bool) {
	for _, v := range d.Variables {
		if v.Key == key {
			return v.Value, true
		}
	}

	return "", false
}

// Declaration converts the Definition into the normalized shape advertised
// to the completion backend.
func (d *Definition) Declaration() model.ToolDefinition {
	params := d.Parameters
	if params == nil {
		params = map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	return model.NewToolDefinition(d.Name, d.Description, params)
}

// Registry is a thread-safe collection of Definitions keyed by name.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{defs: make(map[string]*Definition)}
	for _, d := range defs {
		r.defs[d.Name] = d
	}

	return r
}

// Register adds or replaces a Definition. Registering an unnamed definition
// is an error.
func (r *Registry) Register(d *Definition) error {
	if d.Name == "" {
		return fmt.Errorf("tool definition has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.defs[d.Name] = d

	return nil
}

// Get resolves a Definition by name.
func (r *Registry) Get(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.defs[name]

	return d, ok
}

// Declarations returns the advertised catalog: principal tools only, sorted
// by name for a stable ordering across round trips.
func (r *Registry) Declarations() []model.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.ToolDefinition
	for _, d := range r.defs {
		if d.Scope == ScopeAuxiliary {
			continue
		}
		out = append(out, d.Declaration())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Function.Name < out[j].Function.Name })

	return out
}
