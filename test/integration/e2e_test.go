package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyrsmithlabs/rerankd/internal/compressor"
	httpserver "github.com/fyrsmithlabs/rerankd/internal/http"
	"github.com/fyrsmithlabs/rerankd/internal/pinecone"
	"github.com/fyrsmithlabs/rerankd/internal/reranker"
	"github.com/fyrsmithlabs/rerankd/internal/retriever"
	"github.com/fyrsmithlabs/rerankd/internal/vectorstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

var corpus = []schema.Document{
	{PageContent: "Pinecone rerank models score query document pairs", Metadata: map[string]any{"source": "pinecone.md"}},
	{PageContent: "Qdrant stores dense vectors", Metadata: map[string]any{"source": "qdrant.md"}},
	{PageContent: "rerank results keep the service order", Metadata: map[string]any{"source": "design.md"}},
	{PageContent: "Cooking pasta requires salted water", Metadata: map[string]any{"source": "recipes.md"}},
}

type stack struct {
	pinecone *keywordPinecone
	store    *vectorstore.Service
	api      *httptest.Server
}

func newStack(t *testing.T) *stack {
	t.Helper()
	logger := zap.NewNop()

	pc, pcSrv := newPinecone(t)
	_, qdSrv := newQdrant(t, "docs")

	client, err := pinecone.NewClient(pinecone.Config{APIKey: "test-key", BaseURL: pcSrv.URL}, logger)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	comp, err := compressor.New(client,
		compressor.WithTopN(2),
		compressor.WithLogger(logger),
		compressor.WithMetrics(compressor.NewMetrics(reg)),
	)
	require.NoError(t, err)

	store, err := vectorstore.NewService(vectorstore.Config{
		URL:            qdSrv.URL,
		CollectionName: "docs",
		Embedder:       lengthEmbedder{},
	}, logger)
	require.NoError(t, err)

	srv, err := httpserver.NewServer(httpserver.Deps{
		Compressor: comp,
		Reranker:   reranker.NewCompressorReranker(comp),
		Retriever:  retriever.NewContextualCompression(store.Retriever(10), comp, logger),
		Gatherer:   reg,
	}, logger, nil)
	require.NoError(t, err)

	api := httptest.NewServer(srv.Handler())
	t.Cleanup(api.Close)

	return &stack{pinecone: pc, store: store, api: api}
}

func (s *stack) post(t *testing.T, path string, body any) (int, []byte) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(s.api.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

// TestE2E_RetrieveThenRerank validates the full pipeline:
// 1. Index documents into the vector store
// 2. Search: retrieve every candidate, rerank, keep the top 2
// 3. Compress and rerank caller-supplied documents directly
// 4. Surface upstream failures as 502
// 5. Expose rerank metrics
func TestE2E_RetrieveThenRerank(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}

	ctx := context.Background()
	s := newStack(t)

	ids, err := s.store.AddDocuments(ctx, corpus)
	require.NoError(t, err)
	require.Len(t, ids, len(corpus))

	t.Run("search", func(t *testing.T) {
		status, body := s.post(t, "/api/v1/search", httpserver.SearchRequest{Query: "pinecone rerank"})
		require.Equal(t, http.StatusOK, status, string(body))

		var resp httpserver.DocumentsResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Documents, 2)

		assert.Equal(t, corpus[0].PageContent, resp.Documents[0].PageContent)
		assert.Equal(t, "pinecone.md", resp.Documents[0].Metadata["source"])
		assert.InDelta(t, 0.6667, resp.Documents[0].Metadata[compressor.RelevanceScoreKey], 1e-9)
		assert.Equal(t, corpus[2].PageContent, resp.Documents[1].PageContent)
		assert.InDelta(t, 0.3333, resp.Documents[1].Metadata[compressor.RelevanceScoreKey], 1e-9)

		req := s.pinecone.lastRequest()
		assert.Len(t, req.Documents, len(corpus))
		require.NotNil(t, req.TopN)
		assert.Equal(t, 2, *req.TopN)
	})

	t.Run("compress", func(t *testing.T) {
		status, body := s.post(t, "/api/v1/compress", httpserver.CompressRequest{
			Query: "salted pasta",
			Documents: []httpserver.Document{
				{PageContent: corpus[1].PageContent},
				{PageContent: corpus[3].PageContent, Metadata: map[string]any{"source": "recipes.md"}},
			},
		})
		require.Equal(t, http.StatusOK, status, string(body))

		var resp httpserver.DocumentsResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Documents, 2)
		assert.Equal(t, corpus[3].PageContent, resp.Documents[0].PageContent)
		assert.Equal(t, "recipes.md", resp.Documents[0].Metadata["source"])
	})

	t.Run("rerank", func(t *testing.T) {
		status, body := s.post(t, "/api/v1/rerank", httpserver.RerankRequest{
			Query: "dense vectors",
			TopN:  1,
			Documents: []httpserver.RerankDocument{
				{ID: "a", Content: corpus[0].PageContent},
				{ID: "b", Content: corpus[1].PageContent},
			},
		})
		require.Equal(t, http.StatusOK, status, string(body))

		var resp httpserver.RerankResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "b", resp.Results[0].ID)
		assert.Equal(t, 1, resp.Results[0].OriginalRank)
		assert.NotContains(t, resp.Results[0].Metadata, "_rerank_id")
	})

	t.Run("empty corpus search skips rerank", func(t *testing.T) {
		empty := newStack(t)
		status, body := empty.post(t, "/api/v1/search", httpserver.SearchRequest{Query: "anything"})
		require.Equal(t, http.StatusOK, status, string(body))
		assert.JSONEq(t, `{"documents":[]}`, string(body))
		assert.Equal(t, 0, empty.pinecone.calls())
	})

	t.Run("upstream failure", func(t *testing.T) {
		s.pinecone.mu.Lock()
		s.pinecone.status = http.StatusTooManyRequests
		s.pinecone.mu.Unlock()
		t.Cleanup(func() {
			s.pinecone.mu.Lock()
			s.pinecone.status = 0
			s.pinecone.mu.Unlock()
		})

		status, body := s.post(t, "/api/v1/compress", httpserver.CompressRequest{
			Query:     "q",
			Documents: []httpserver.Document{{PageContent: "x"}},
		})
		require.Equal(t, http.StatusBadGateway, status)

		var resp httpserver.ErrorResponse
		require.NoError(t, json.Unmarshal(body, &resp))
		assert.Equal(t, http.StatusTooManyRequests, resp.UpstreamStatus)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, err := http.Get(s.api.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)

		assert.Contains(t, string(data), `rerankd_rerank_requests_total{model="pinecone-rerank-v0",status="ok"} 3`)
		assert.Contains(t, string(data), `rerankd_rerank_requests_total{model="pinecone-rerank-v0",status="error"} 1`)
	})
}
