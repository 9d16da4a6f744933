package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

type document struct {
	id       string
	content  string
	metadata map[string]any
}

// InMemorySearcher is a naive process-local Searcher. Scoring counts matching
// query terms (case insensitive); suitable only for tests and demos, swap for
// a vector index for production retrieval.
//
// Concurrency: protected by RWMutex.
type InMemorySearcher struct {
	mu   sync.RWMutex
	docs map[string][]document // kb -> documents
}

// NewInMemorySearcher creates an empty in-memory searcher.
func NewInMemorySearcher() *InMemorySearcher {
	return &InMemorySearcher{docs: make(map[string][]document)}
}

// Add appends a document to a knowledge base, generating an incremental id.
func (s *InMemorySearcher) Add(kb, content string, metadata map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("doc_%d", len(s.docs[kb]))
	s.docs[kb] = append(s.docs[kb], document{id: id, content: content, metadata: metadata})

	return id
}

// Search implements Searcher. Documents are scored by the fraction of query
// terms they contain; zero-score documents are excluded.
func (s *InMemorySearcher) Search(_ context.Context, kb, query string, topK int) ([]Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return []Snippet{}, nil
	}

	var hits []Snippet
	for _, doc := range s.docs[kb] {
		content := strings.ToLower(doc.content)

		matched := 0
		for _, term := range terms {
			if strings.Contains(content, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		hits = append(hits, Snippet{
			ID:       doc.id,
			Content:  doc.content,
			Score:    float64(matched) / float64(len(terms)),
			Metadata: doc.metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}

	return hits, nil
}
