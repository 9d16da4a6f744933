package retrieval

import (
	"context"

	"github.com/faisca-ai/faisca/core"
	"github.com/faisca-ai/faisca/model"
)

// ToolName is the reserved call name of the knowledge retrieval tool. It is
// reserved so user-defined custom tools can never shadow it.
const ToolName = "search_knowledge_base"

// DefaultTopK is the number of snippets returned when the model does not ask
// for a specific count.
const DefaultTopK = 5

// Snippet is one ranked retrieval hit.
type Snippet struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Searcher is the retrieval collaborator contract. kb selects the knowledge
// base; implementations decide what a handle means.
type Searcher interface {
	Search(ctx context.Context, kb, query string, topK int) ([]Snippet, error)
}

// Tool adapts a Searcher bound to one knowledge base into a dispatchable
// tool.
type Tool struct {
	searcher Searcher
	kb       string
}

// NewTool binds a searcher to a knowledge base handle.
func NewTool(searcher Searcher, kb string) *Tool {
	return &Tool{searcher: searcher, kb: kb}
}

// Declaration returns the advertised shape of the retrieval tool.
func (t *Tool) Declaration() model.ToolDefinition {
	return model.NewToolDefinition(
		ToolName,
		"Searches the agent's knowledge base and returns the most relevant snippets.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Search query describing the information needed",
				},
				"top_k": map[string]any{
					"type":        "integer",
					"description": "Maximum number of snippets to return",
				},
			},
			"required": []string{"query"},
		},
	)
}

// Invoke runs one retrieval call. Search failures come back as execution
// errors fed to the model, never as Go errors.
func (t *Tool) Invoke(ctx context.Context, req core.InvocationRequest) core.InvocationResult {
	query, _ := req.Arguments["query"].(string)
	if query == "" {
		return core.ErrorResult(req.CallID, req.Name, core.ErrExecution, "retrieval call has no query")
	}

	topK := DefaultTopK
	if raw, ok := req.Arguments["top_k"]; ok {
		if f, ok := raw.(float64); ok && int(f) > 0 {
			topK = int(f)
		}
	}

	snippets, err := t.searcher.Search(ctx, t.kb, query, topK)
	if err != nil {
		return core.ErrorResult(req.CallID, req.Name, core.ErrExecution, "knowledge base search failed: %v", err)
	}

	return core.InvocationResult{
		CallID:      req.CallID,
		Name:        req.Name,
		Payload:     map[string]any{"snippets": snippets},
		Destination: core.DestinationModel,
		Channel:     core.ChannelText,
	}
}
