// Package retriever chains a base retriever with a document compressor.
package retriever

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// Compressor reorders and filters documents against a query.
type Compressor interface {
	CompressDocuments(ctx context.Context, docs []schema.Document, query string) ([]schema.Document, error)
}

// ContextualCompression fetches candidates from Base and narrows them
// with Compressor.
type ContextualCompression struct {
	Base       schema.Retriever
	Compressor Compressor
	logger     *zap.Logger
}

var _ schema.Retriever = (*ContextualCompression)(nil)

// NewContextualCompression creates the retriever. logger may be nil.
func NewContextualCompression(base schema.Retriever, c Compressor, logger *zap.Logger) *ContextualCompression {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextualCompression{
		Base:       base,
		Compressor: c,
		logger:     logger.With(zap.String("component", "retriever")),
	}
}

// GetRelevantDocuments implements schema.Retriever.
func (r *ContextualCompression) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	docs, err := r.Base.GetRelevantDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieving base documents: %w", err)
	}
	if len(docs) == 0 {
		return []schema.Document{}, nil
	}

	compressed, err := r.Compressor.CompressDocuments(ctx, docs, query)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("contextual compression",
		zap.Int("candidates", len(docs)),
		zap.Int("results", len(compressed)),
	)
	return compressed, nil
}
