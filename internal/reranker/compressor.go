package reranker

import (
	"context"
	"strconv"

	"github.com/fyrsmithlabs/rerankd/internal/compressor"
	"github.com/tmc/langchaingo/schema"
)

// Metadata keys used to carry identity through the compressor.
const (
	idKey   = "_rerank_id"
	rankKey = "_rerank_original_rank"
)

// TopNCompressor is the compressor behaviour CompressorReranker needs.
type TopNCompressor interface {
	CompressDocumentsWithTopN(ctx context.Context, docs []schema.Document, query string, topN int) ([]schema.Document, error)
}

// CompressorReranker adapts a document compressor to the Reranker interface.
type CompressorReranker struct {
	compressor TopNCompressor
}

var (
	_ Reranker       = (*CompressorReranker)(nil)
	_ TopNCompressor = (*compressor.Compressor)(nil)
)

// NewCompressorReranker wraps c.
func NewCompressorReranker(c TopNCompressor) *CompressorReranker {
	return &CompressorReranker{compressor: c}
}

// Rerank sends docs through the compressor. IDs, original scores and
// original positions are preserved on the results.
func (r *CompressorReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}

	in := make([]schema.Document, len(docs))
	for i, d := range docs {
		meta := make(map[string]any, len(d.Metadata)+2)
		for k, v := range d.Metadata {
			meta[k] = v
		}
		meta[idKey] = d.ID
		meta[rankKey] = i
		in[i] = schema.Document{PageContent: d.Content, Metadata: meta, Score: d.Score}
	}

	out, err := r.compressor.CompressDocumentsWithTopN(ctx, in, query, topK)
	if err != nil {
		return nil, err
	}

	results := make([]ScoredDocument, 0, len(out))
	for _, d := range out {
		rank, _ := d.Metadata[rankKey].(int)
		id, _ := d.Metadata[idKey].(string)
		if id == "" {
			id = strconv.Itoa(rank)
		}

		meta := make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			if k == idKey || k == rankKey {
				continue
			}
			meta[k] = v
		}

		results = append(results, ScoredDocument{
			Document: Document{
				ID:       id,
				Content:  d.PageContent,
				Score:    docs[rank].Score,
				Metadata: meta,
			},
			RerankerScore: d.Score,
			OriginalRank:  rank,
		})
	}
	return results, nil
}

// Close is a no-op; the underlying HTTP client holds no per-reranker state.
func (r *CompressorReranker) Close() error {
	return nil
}
