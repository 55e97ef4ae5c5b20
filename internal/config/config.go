// Package config provides configuration loading for rerankd.
//
// Configuration is assembled from hardcoded defaults, an optional YAML file
// and environment variables, in increasing order of precedence. See
// LoadWithFile for the file and environment rules.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Truncation strategies accepted by the rerank endpoint.
const (
	TruncateEnd  = "END"
	TruncateNone = "NONE"
)

// Config holds the complete rerankd configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Pinecone    PineconeConfig    `koanf:"pinecone"`
	Rerank      RerankConfig      `koanf:"rerank"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// PineconeConfig holds connection settings for the Pinecone inference API.
type PineconeConfig struct {
	APIKey     Secret   `koanf:"api_key"`
	BaseURL    string   `koanf:"base_url"`
	APIVersion string   `koanf:"api_version"`
	Timeout    Duration `koanf:"timeout"`
}

// RerankConfig holds the compressor settings.
type RerankConfig struct {
	Model string `koanf:"model"`
	// TopN caps the number of returned documents. Zero selects the default
	// of 5; a negative value leaves the limit to the service.
	TopN       int    `koanf:"top_n"`
	Truncation string `koanf:"truncation"`
}

// VectorStoreConfig configures the optional first-stage retriever.
// Retrieval is disabled when URL is empty.
type VectorStoreConfig struct {
	URL              string `koanf:"url"`
	APIKey           Secret `koanf:"api_key"`
	Collection       string `koanf:"collection"`
	EmbeddingBaseURL string `koanf:"embedding_base_url"`
	EmbeddingModel   string `koanf:"embedding_model"`
	EmbeddingAPIKey  Secret `koanf:"embedding_api_key"`
	K                int    `koanf:"k"`
}

// Enabled reports whether a vector store has been configured.
func (c VectorStoreConfig) Enabled() bool {
	return strings.TrimSpace(c.URL) != ""
}

// LoggingConfig holds the logging knobs exposed through configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Protocol    string `koanf:"protocol"`
	ServiceName string `koanf:"service_name"`
	Insecure    bool   `koanf:"insecure"`
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9191
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Pinecone.BaseURL == "" {
		cfg.Pinecone.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Pinecone.APIVersion == "" {
		cfg.Pinecone.APIVersion = "2025-01"
	}
	if cfg.Pinecone.Timeout == 0 {
		cfg.Pinecone.Timeout = Duration(30 * time.Second)
	}

	if cfg.Rerank.Model == "" {
		cfg.Rerank.Model = "pinecone-rerank-v0"
	}
	if cfg.Rerank.TopN == 0 {
		cfg.Rerank.TopN = 5
	}
	if cfg.Rerank.Truncation == "" {
		cfg.Rerank.Truncation = TruncateEnd
	}

	if cfg.VectorStore.Collection == "" {
		cfg.VectorStore.Collection = "rerankd_default"
	}
	if cfg.VectorStore.EmbeddingBaseURL == "" {
		cfg.VectorStore.EmbeddingBaseURL = "http://localhost:8080/v1"
	}
	if cfg.VectorStore.EmbeddingModel == "" {
		cfg.VectorStore.EmbeddingModel = "BAAI/bge-small-en-v1.5"
	}
	if cfg.VectorStore.K == 0 {
		cfg.VectorStore.K = 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = "localhost:4317"
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "rerankd"
	}
}

// Validate validates the configuration.
//
// The Pinecone API key is not checked here: commands that never reach the
// remote service (version, health) must still load configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Pinecone.Timeout.Duration() <= 0 {
		return errors.New("pinecone timeout must be positive")
	}
	if !strings.HasPrefix(c.Pinecone.BaseURL, "http://") && !strings.HasPrefix(c.Pinecone.BaseURL, "https://") {
		return fmt.Errorf("pinecone base_url must be an http(s) URL, got %q", c.Pinecone.BaseURL)
	}

	if strings.TrimSpace(c.Rerank.Model) == "" {
		return errors.New("rerank model is required")
	}
	switch c.Rerank.Truncation {
	case TruncateEnd, TruncateNone:
	default:
		return fmt.Errorf("rerank truncation must be %q or %q, got %q", TruncateEnd, TruncateNone, c.Rerank.Truncation)
	}

	if c.VectorStore.Enabled() && c.VectorStore.K <= 0 {
		return fmt.Errorf("vectorstore k must be positive, got %d", c.VectorStore.K)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	return nil
}
