// Package pinecone is a minimal client for the Pinecone Inference rerank
// endpoint.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fyrsmithlabs/rerankd/internal/config"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL    = "https://api.pinecone.io"
	DefaultAPIVersion = "2025-01"
	DefaultTimeout    = 30 * time.Second

	// APIKeyEnv is consulted when Config.APIKey is empty.
	APIKeyEnv = "PINECONE_API_KEY"
)

// Config configures the rerank client.
type Config struct {
	APIKey     config.Secret
	BaseURL    string
	APIVersion string
	Timeout    time.Duration

	// HTTPClient overrides the default client. Timeout is ignored when set.
	HTTPClient *http.Client
}

// DefaultConfig returns a Config pointing at the public control plane.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		APIVersion: DefaultAPIVersion,
		Timeout:    DefaultTimeout,
	}
}

// FromSettings converts the pinecone section of the rerankd configuration.
func FromSettings(s config.PineconeConfig) Config {
	return Config{
		APIKey:     s.APIKey,
		BaseURL:    s.BaseURL,
		APIVersion: s.APIVersion,
		Timeout:    s.Timeout.Duration(),
	}
}

// Client calls POST /rerank. It does not retry.
type Client struct {
	apiKey     config.Secret
	endpoint   string
	apiVersion string
	http       *http.Client
	logger     *zap.Logger
}

// NewClient creates a rerank client. Empty fields in cfg take their
// defaults; an empty API key falls back to PINECONE_API_KEY.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	apiKey := cfg.APIKey
	if !apiKey.IsSet() {
		apiKey = config.Secret(strings.TrimSpace(os.Getenv(APIKeyEnv)))
	}
	if !apiKey.IsSet() {
		return nil, ErrMissingAPIKey
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		apiKey:     apiKey,
		endpoint:   baseURL + "/rerank",
		apiVersion: cfg.APIVersion,
		http:       httpClient,
		logger:     logger.With(zap.String("component", "pinecone_client")),
	}, nil
}

// Rerank scores req.Documents against req.Query.
//
// Non-2xx responses return *APIError. Transport and decode failures are
// wrapped with %w so errors.Is still reaches context.Canceled and friends.
func (c *Client) Rerank(ctx context.Context, req *RerankRequest) (*RerankResponse, error) {
	if req == nil {
		return nil, errors.New("rerank request is nil")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding rerank request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building rerank request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Api-Key", c.apiKey.Value())
	httpReq.Header.Set("X-Pinecone-API-Version", c.apiVersion)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling pinecone rerank: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("pinecone rerank rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("model", req.Model),
		)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out RerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding rerank response: %w", err)
	}

	c.logger.Debug("pinecone rerank",
		zap.String("model", req.Model),
		zap.Int("documents", len(req.Documents)),
		zap.Int("results", len(out.Data)),
		zap.Int("rerank_units", out.Usage.RerankUnits),
		zap.Duration("duration", time.Since(start)),
	)

	return &out, nil
}
