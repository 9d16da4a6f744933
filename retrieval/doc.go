// Package retrieval implements the knowledge retrieval tool. The Searcher
// interface abstracts the actual index (vector store, search service); the
// Tool wrapper advertises the reserved search_knowledge_base declaration and
// turns searches into invocation results. An in-memory keyword searcher is
// provided for development and tests.
package retrieval
