// Package vectorstore provides first-stage retrieval from Qdrant via
// langchaingo.
//
// Candidates retrieved here are meant to be narrowed by the rerank
// compressor:
//
//	svc, err := vectorstore.NewService(vectorstore.Config{
//	    URL:            "http://localhost:6333",
//	    CollectionName: "rerankd_default",
//	    Embedder:       embedder,
//	}, logger)
//	base := svc.Retriever(20)
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/fyrsmithlabs/rerankd/internal/config"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/qdrant"
	"go.uber.org/zap"
)

var (
	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents
	ErrEmptyDocuments = errors.New("empty or nil documents")
)

// Config holds configuration for the vector store service.
type Config struct {
	// URL is the Qdrant server URL (e.g., http://localhost:6333)
	URL            string
	CollectionName string
	APIKey         config.Secret
	Embedder       embeddings.Embedder
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: URL required", ErrInvalidConfig)
	}
	if c.CollectionName == "" {
		return fmt.Errorf("%w: collection name required", ErrInvalidConfig)
	}
	if c.Embedder == nil {
		return fmt.Errorf("%w: embedder required", ErrInvalidConfig)
	}
	return nil
}

// Service wraps a langchaingo Qdrant store.
type Service struct {
	store  vectorstores.VectorStore
	config Config
	logger *zap.Logger
}

// NewService creates a vector store service. No connection is made until
// the first request.
func NewService(cfg Config, logger *zap.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	qdrantURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing Qdrant URL: %w", err)
	}

	opts := []qdrant.Option{
		qdrant.WithURL(*qdrantURL),
		qdrant.WithCollectionName(cfg.CollectionName),
		qdrant.WithEmbedder(cfg.Embedder),
	}
	if cfg.APIKey.IsSet() {
		opts = append(opts, qdrant.WithAPIKey(cfg.APIKey.Value()))
	}

	store, err := qdrant.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating Qdrant store: %w", err)
	}

	return &Service{
		store:  store,
		config: cfg,
		logger: logger.With(zap.String("component", "vectorstore"), zap.String("collection", cfg.CollectionName)),
	}, nil
}

// FromSettings builds a Service from the vectorstore config section,
// including its embedder.
func FromSettings(s config.VectorStoreConfig, logger *zap.Logger) (*Service, error) {
	embedder, err := NewEmbedder(EmbedderConfig{
		BaseURL: s.EmbeddingBaseURL,
		Model:   s.EmbeddingModel,
		APIKey:  s.EmbeddingAPIKey.Value(),
	})
	if err != nil {
		return nil, err
	}
	return NewService(Config{
		URL:            s.URL,
		CollectionName: s.Collection,
		APIKey:         s.APIKey,
		Embedder:       embedder,
	}, logger)
}

// AddDocuments embeds and stores docs, returning the generated point IDs.
func (s *Service) AddDocuments(ctx context.Context, docs []schema.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: documents cannot be empty", ErrEmptyDocuments)
	}

	ids, err := s.store.AddDocuments(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("adding documents to store: %w", err)
	}

	s.logger.Debug("documents added", zap.Int("count", len(ids)))
	return ids, nil
}

// Search returns up to k documents most similar to query.
func (s *Service) Search(ctx context.Context, query string, k int) ([]schema.Document, error) {
	if query == "" {
		return nil, errors.New("query cannot be empty")
	}
	if k <= 0 {
		return nil, errors.New("k must be positive")
	}

	docs, err := s.store.SimilaritySearch(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	s.logger.Debug("similarity search", zap.Int("k", k), zap.Int("results", len(docs)))
	return docs, nil
}

// Retriever returns a retriever fetching k candidates per query via Search.
func (s *Service) Retriever(k int) schema.Retriever {
	return &searchRetriever{svc: s, k: k}
}

type searchRetriever struct {
	svc *Service
	k   int
}

var _ schema.Retriever = (*searchRetriever)(nil)

func (r *searchRetriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	return r.svc.Search(ctx, query, r.k)
}
