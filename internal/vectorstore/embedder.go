package vectorstore

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// EmbedderConfig configures an OpenAI-compatible embedding endpoint, such
// as a local TEI server or the OpenAI API.
type EmbedderConfig struct {
	// BaseURL, e.g. http://localhost:8080/v1 for TEI.
	BaseURL string
	Model   string
	// APIKey is optional for TEI.
	APIKey string
}

// Validate validates the configuration.
func (c EmbedderConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: embedding base URL required", ErrInvalidConfig)
	}
	if c.Model == "" {
		return fmt.Errorf("%w: embedding model required", ErrInvalidConfig)
	}
	return nil
}

// NewEmbedder creates a langchaingo embedder backed by an OpenAI-compatible
// API.
func NewEmbedder(cfg EmbedderConfig) (embeddings.Embedder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// langchaingo requires a token even when the server ignores it.
	token := cfg.APIKey
	if token == "" {
		token = "placeholder"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithModel(cfg.Model),
		openai.WithToken(token),
	)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}
