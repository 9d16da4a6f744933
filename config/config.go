// Package config is the configuration store collaborator: it supplies tool
// definitions, external server descriptors, the agent profile and env.*
// substitution values. A YAML file implementation is provided; the Store
// interface keeps the core read-mostly and storage-agnostic.
package config

import (
	"fmt"
	"os"

	"github.com/faisca-ai/faisca/agent"
	"github.com/faisca-ai/faisca/mcp"
	"github.com/faisca-ai/faisca/tool"
	"gopkg.in/yaml.v3"
)

// Store supplies the persisted pieces of an agent deployment.
type Store interface {
	// Tools returns every configured custom tool definition.
	Tools() ([]*tool.Definition, error)

	// Servers returns the configured external server entries keyed by
	// client id.
	Servers() (map[string]mcp.ServerConfig, error)

	// Profile returns the agent profile used to build the system prompt.
	Profile() (*agent.Profile, error)

	// Env resolves an env.NAME substitution value.
	Env(key string) (string, bool)
}

// File is the on-disk YAML shape consumed by FileStore.
type File struct {
	Agent   agent.Profile               `yaml:"agent"`
	Tools   []*tool.Definition          `yaml:"tools"`
	Servers map[string]mcp.ServerConfig `yaml:"servers"`
	Env     map[string]string           `yaml:"env"`
}

// FileStore is a Store backed by one YAML file, loaded eagerly. env.* lookups
// check the file's env block first and fall back to the process environment.
type FileStore struct {
	file File
}

// Load reads and decodes a YAML configuration file.
func Load(path string) (*FileStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(raw)
}

// Parse decodes YAML configuration bytes.
func Parse(raw []byte) (*FileStore, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	for _, def := range file.Tools {
		if def.Name == "" {
			return nil, fmt.Errorf("parse config: tool definition without a name")
		}
	}

	return &FileStore{file: file}, nil
}

// Tools implements Store.
func (s *FileStore) Tools() ([]*tool.Definition, error) {
	return s.file.Tools, nil
}

// Servers implements Store.
func (s *FileStore) Servers() (map[string]mcp.ServerConfig, error) {
	return s.file.Servers, nil
}

// Profile implements Store.
func (s *FileStore) Profile() (*agent.Profile, error) {
	profile := s.file.Agent

	return &profile, nil
}

// Env implements Store.
func (s *FileStore) Env(key string) (string, bool) {
	if val, ok := s.file.Env[key]; ok {
		return val, true
	}

	return os.LookupEnv(key)
}
