package http

import "github.com/tmc/langchaingo/schema"

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// Document is the wire form of a langchaingo document.
type Document struct {
	PageContent string         `json:"page_content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Score       float32        `json:"score,omitempty"`
}

// CompressRequest is the request body for POST /api/v1/compress.
type CompressRequest struct {
	Query     string     `json:"query"`
	Documents []Document `json:"documents"`
}

// DocumentsResponse is returned by /api/v1/compress and /api/v1/search.
type DocumentsResponse struct {
	Documents []Document `json:"documents"`
}

// SearchRequest is the request body for POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// RerankDocument is one candidate in a RerankRequest.
type RerankDocument struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Score    float32        `json:"score,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RerankRequest is the request body for POST /api/v1/rerank.
type RerankRequest struct {
	Query     string           `json:"query"`
	Documents []RerankDocument `json:"documents"`
	// TopN <= 0 uses the server default.
	TopN int `json:"top_n,omitempty"`
}

// RerankResult is one ranked document.
type RerankResult struct {
	ID            string         `json:"id"`
	Content       string         `json:"content"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	Score         float32        `json:"score"`
	OriginalScore float32        `json:"original_score,omitempty"`
	OriginalRank  int            `json:"original_rank"`
}

// RerankResponse is the response body for POST /api/v1/rerank.
type RerankResponse struct {
	Results []RerankResult `json:"results"`
}

func toSchema(docs []Document) []schema.Document {
	out := make([]schema.Document, len(docs))
	for i, d := range docs {
		out[i] = schema.Document{PageContent: d.PageContent, Metadata: d.Metadata, Score: d.Score}
	}
	return out
}

func fromSchema(docs []schema.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document{PageContent: d.PageContent, Metadata: d.Metadata, Score: d.Score}
	}
	return out
}
