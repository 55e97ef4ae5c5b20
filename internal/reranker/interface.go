// Package reranker exposes ID-oriented document reranking on top of the
// Pinecone compressor.
package reranker

import (
	"context"
	"errors"
)

// ErrNilContext is returned when a nil context is passed to Rerank.
var ErrNilContext = errors.New("context cannot be nil")

// Document represents a searchable document with metadata and scores.
type Document struct {
	ID       string         // Unique identifier for the document
	Content  string         // Text content to be re-ranked
	Score    float32        // Original similarity score from search
	Metadata map[string]any // Carried through to the result
}

// ScoredDocument represents a document with re-ranking scores.
type ScoredDocument struct {
	Document
	RerankerScore float32 // Score from re-ranker (0.0-1.0)
	OriginalRank  int     // Original rank position in results (0-indexed)
}

// Reranker provides an interface for document re-ranking algorithms.
type Reranker interface {
	// Rerank re-ranks documents based on query relevance.
	// Returns at most topK documents in the order the ranking service
	// produced them. topK <= 0 uses the implementation's default.
	Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error)

	// Close releases any resources held by the reranker.
	Close() error
}
