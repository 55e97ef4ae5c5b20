// Package integration exercises rerankd end to end: HTTP API, compressor,
// Pinecone client and Qdrant-backed retrieval, with the remote services
// replaced by httptest servers.
package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/fyrsmithlabs/rerankd/internal/pinecone"
)

// keywordPinecone ranks documents by how many query words they contain,
// so results are deterministic without a real model.
type keywordPinecone struct {
	mu       sync.Mutex
	requests []pinecone.RerankRequest
	status   int
}

func (p *keywordPinecone) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Key") == "" {
			http.Error(w, `{"error":{"code":"UNAUTHENTICATED"}}`, http.StatusUnauthorized)
			return
		}

		var req pinecone.RerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p.mu.Lock()
		p.requests = append(p.requests, req)
		status := p.status
		p.mu.Unlock()
		if status != 0 {
			http.Error(w, `{"error":{"code":"RESOURCE_EXHAUSTED"}}`, status)
			return
		}

		words := strings.Fields(strings.ToLower(req.Query))
		ranked := make([]pinecone.RankedDocument, len(req.Documents))
		for i, d := range req.Documents {
			hits := 0
			text := strings.ToLower(d.Text)
			for _, word := range words {
				if strings.Contains(text, word) {
					hits++
				}
			}
			ranked[i] = pinecone.RankedDocument{Index: i, Score: float64(hits) / float64(len(words)+1)}
		}
		sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].Score > ranked[b].Score })
		if req.TopN != nil && *req.TopN < len(ranked) {
			ranked = ranked[:*req.TopN]
		}

		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(pinecone.RerankResponse{
			Model: req.Model,
			Data:  ranked,
			Usage: pinecone.RerankUsage{RerankUnits: 1},
		})
		if err != nil {
			t.Errorf("encoding rerank response: %v", err)
		}
	})
}

func (p *keywordPinecone) lastRequest() pinecone.RerankRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

func (p *keywordPinecone) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func newPinecone(t *testing.T) (*keywordPinecone, *httptest.Server) {
	t.Helper()
	p := &keywordPinecone{}
	srv := httptest.NewServer(p.handler(t))
	t.Cleanup(srv.Close)
	return p, srv
}

// lengthEmbedder embeds text as a tiny vector; the fake Qdrant ignores it.
type lengthEmbedder struct{}

func (lengthEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (lengthEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

// memoryQdrant keeps upserted payloads and returns all of them, in
// insertion order, from every search.
type memoryQdrant struct {
	mu       sync.Mutex
	payloads []map[string]any
}

func newQdrant(t *testing.T, collection string) (*memoryQdrant, *httptest.Server) {
	t.Helper()
	q := &memoryQdrant{}
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /collections/"+collection+"/points", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Batch struct {
				Payloads []map[string]any `json:"payloads"`
			} `json:"batch"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		q.mu.Lock()
		q.payloads = append(q.payloads, body.Batch.Payloads...)
		q.mu.Unlock()
		_, _ = w.Write([]byte(`{"status":"ok","result":{}}`))
	})
	mux.HandleFunc("POST /collections/"+collection+"/points/search", func(w http.ResponseWriter, _ *http.Request) {
		q.mu.Lock()
		defer q.mu.Unlock()
		type point struct {
			ID      int            `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		}
		result := make([]point, len(q.payloads))
		for i, p := range q.payloads {
			result[i] = point{ID: i, Score: 0.5, Payload: p}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return q, srv
}
