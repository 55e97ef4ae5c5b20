package vectorstore

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyrsmithlabs/rerankd/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
)

// fakeEmbedder returns fixed-size vectors derived from text length.
type fakeEmbedder struct{}

func (fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

func (fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 0}, nil
}

// fakeQdrant serves the two REST endpoints the langchaingo store uses.
func fakeQdrant(t *testing.T) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var upserts []map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /collections/docs/points", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		upserts = append(upserts, body)
		_, _ = w.Write([]byte(`{"status":"ok","result":{}}`))
	})
	mux.HandleFunc("POST /collections/docs/points/search", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 2, body["limit"])
		_, _ = w.Write([]byte(`{"result":[
			{"id":"1","score":0.92,"payload":{"content":"rerankd reorders documents","source":"readme"}},
			{"id":"2","score":0.41,"payload":{"content":"unrelated text","source":"notes"}}
		]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &upserts
}

func TestNewService(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		errMessage string
	}{
		{
			name:   "valid configuration",
			config: Config{URL: "http://localhost:6333", CollectionName: "docs", Embedder: fakeEmbedder{}},
		},
		{
			name:       "empty URL",
			config:     Config{CollectionName: "docs", Embedder: fakeEmbedder{}},
			errMessage: "URL required",
		},
		{
			name:       "empty collection name",
			config:     Config{URL: "http://localhost:6333", Embedder: fakeEmbedder{}},
			errMessage: "collection name required",
		},
		{
			name:       "missing embedder",
			config:     Config{URL: "http://localhost:6333", CollectionName: "docs"},
			errMessage: "embedder required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.config, nil)
			if tt.errMessage != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errMessage)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestNewEmbedder(t *testing.T) {
	_, err := NewEmbedder(EmbedderConfig{Model: "m"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewEmbedder(EmbedderConfig{BaseURL: "http://localhost:8080/v1"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	e, err := NewEmbedder(EmbedderConfig{BaseURL: "http://localhost:8080/v1", Model: "BAAI/bge-small-en-v1.5"})
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestService_AddDocuments(t *testing.T) {
	srv, upserts := fakeQdrant(t)
	svc, err := NewService(Config{URL: srv.URL, CollectionName: "docs", Embedder: fakeEmbedder{}}, nil)
	require.NoError(t, err)

	ids, err := svc.AddDocuments(context.Background(), []schema.Document{
		{PageContent: "rerankd reorders documents", Metadata: map[string]any{"source": "readme"}},
	})
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	require.Len(t, *upserts, 1)

	_, err = svc.AddDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyDocuments)
}

func TestService_SearchAndRetriever(t *testing.T) {
	srv, _ := fakeQdrant(t)
	svc, err := NewService(Config{URL: srv.URL, CollectionName: "docs", Embedder: fakeEmbedder{}}, nil)
	require.NoError(t, err)

	docs, err := svc.Search(context.Background(), "what does rerankd do", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "rerankd reorders documents", docs[0].PageContent)
	assert.Equal(t, "readme", docs[0].Metadata["source"])
	assert.InDelta(t, 0.92, docs[0].Score, 1e-6)

	viaRetriever, err := svc.Retriever(2).GetRelevantDocuments(context.Background(), "what does rerankd do")
	require.NoError(t, err)
	assert.Equal(t, docs, viaRetriever)
}

func TestService_RetrieverValidatesQuery(t *testing.T) {
	svc, err := NewService(Config{URL: "http://localhost:6333", CollectionName: "docs", Embedder: fakeEmbedder{}}, nil)
	require.NoError(t, err)

	_, err = svc.Retriever(2).GetRelevantDocuments(context.Background(), "")
	assert.Error(t, err)
	_, err = svc.Retriever(0).GetRelevantDocuments(context.Background(), "q")
	assert.Error(t, err)
}

func TestFromSettings_QdrantAPIKey(t *testing.T) {
	var gotKey, gotModel string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotModel = body.Model

		type item struct {
			Object    string    `json:"object"`
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, len(body.Input))
		for i := range body.Input {
			data[i] = item{Object: "embedding", Embedding: []float32{1, 0, 0}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": body.Model})
	})
	mux.HandleFunc("POST /collections/docs/points/search", func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Api-Key")
		_, _ = w.Write([]byte(`{"result":[{"id":"1","score":0.5,"payload":{"content":"hit"}}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc, err := FromSettings(config.VectorStoreConfig{
		URL:              srv.URL,
		APIKey:           config.Secret("qdrant-secret"),
		Collection:       "docs",
		EmbeddingBaseURL: srv.URL + "/v1",
		EmbeddingModel:   "BAAI/bge-small-en-v1.5",
		K:                1,
	}, nil)
	require.NoError(t, err)

	docs, err := svc.Retriever(1).GetRelevantDocuments(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "hit", docs[0].PageContent)
	assert.Equal(t, "qdrant-secret", gotKey)
	assert.Equal(t, "BAAI/bge-small-en-v1.5", gotModel)
}

func TestService_SearchValidation(t *testing.T) {
	svc, err := NewService(Config{URL: "http://localhost:6333", CollectionName: "docs", Embedder: fakeEmbedder{}}, nil)
	require.NoError(t, err)

	_, err = svc.Search(context.Background(), "", 5)
	assert.Error(t, err)
	_, err = svc.Search(context.Background(), "q", 0)
	assert.Error(t, err)
}
