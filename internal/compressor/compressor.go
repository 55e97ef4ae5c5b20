package compressor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/fyrsmithlabs/rerankd/internal/config"
	"github.com/fyrsmithlabs/rerankd/internal/pinecone"
	"github.com/tmc/langchaingo/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/fyrsmithlabs/rerankd/internal/compressor"

const (
	DefaultModel = "pinecone-rerank-v0"
	DefaultTopN  = 5

	// RelevanceScoreKey is the metadata key carrying the rerank score.
	RelevanceScoreKey = "relevance_score"
)

var (
	// ErrIndexOutOfRange is returned when the service references a
	// document position that was not part of the request.
	ErrIndexOutOfRange = errors.New("rerank result index out of range")

	// ErrMalformedResponse is returned when the service reports more
	// results than were requested or ranks a document twice.
	ErrMalformedResponse = errors.New("malformed rerank response")

	ErrNilClient = errors.New("inference client is nil")
)

// InferenceClient is the subset of the Pinecone client the compressor uses.
type InferenceClient interface {
	Rerank(ctx context.Context, req *pinecone.RerankRequest) (*pinecone.RerankResponse, error)
}

// DocumentCompressor reorders and filters documents against a query.
type DocumentCompressor interface {
	CompressDocuments(ctx context.Context, docs []schema.Document, query string) ([]schema.Document, error)
	CompressDocumentsAsync(ctx context.Context, docs []schema.Document, query string) <-chan Result
}

// Result is delivered by CompressDocumentsAsync.
type Result struct {
	Documents []schema.Document
	Err       error
}

// Compressor reranks documents with the Pinecone inference API.
type Compressor struct {
	client     InferenceClient
	model      string
	topN       *int
	truncation string

	logger  *zap.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

var _ DocumentCompressor = (*Compressor)(nil)

// New creates a Compressor. Model defaults to pinecone-rerank-v0, top-N to
// 5 and truncation to END.
func New(client InferenceClient, opts ...Option) (*Compressor, error) {
	if client == nil {
		return nil, ErrNilClient
	}

	c := &Compressor{
		client:     client,
		model:      DefaultModel,
		topN:       pinecone.IntPtr(DefaultTopN),
		truncation: config.TruncateEnd,
		logger:     zap.NewNop(),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.model == "" {
		return nil, errors.New("rerank model is required")
	}
	if c.topN != nil && *c.topN <= 0 {
		return nil, fmt.Errorf("top_n must be positive, got %d", *c.topN)
	}
	switch c.truncation {
	case config.TruncateEnd, config.TruncateNone:
	default:
		return nil, fmt.Errorf("truncation must be %q or %q, got %q", config.TruncateEnd, config.TruncateNone, c.truncation)
	}

	return c, nil
}

// FromSettings builds compressor options from the rerank config section.
func FromSettings(s config.RerankConfig) []Option {
	opts := []Option{WithModel(s.Model), WithTruncation(s.Truncation)}
	switch {
	case s.TopN > 0:
		opts = append(opts, WithTopN(s.TopN))
	case s.TopN < 0:
		opts = append(opts, WithoutTopN())
	}
	return opts
}

// Model returns the configured model name.
func (c *Compressor) Model() string { return c.model }

// TopN returns the configured result cap and whether one is set.
func (c *Compressor) TopN() (int, bool) {
	if c.topN == nil {
		return 0, false
	}
	return *c.topN, true
}

// CompressDocuments returns copies of the documents most relevant to query,
// in the order the service ranked them. Each copy carries the rounded score
// in Metadata["relevance_score"] and in Score. Inputs are not modified.
//
// Errors from the inference client are returned unchanged.
func (c *Compressor) CompressDocuments(ctx context.Context, docs []schema.Document, query string) ([]schema.Document, error) {
	return c.compress(ctx, docs, query, c.topN)
}

// CompressDocumentsWithTopN is CompressDocuments with a per-call result cap.
// topN <= 0 uses the configured default.
func (c *Compressor) CompressDocumentsWithTopN(ctx context.Context, docs []schema.Document, query string, topN int) ([]schema.Document, error) {
	n := c.topN
	if topN > 0 {
		n = pinecone.IntPtr(topN)
	}
	return c.compress(ctx, docs, query, n)
}

// CompressTexts wraps each text in a document with empty metadata and
// compresses them.
func (c *Compressor) CompressTexts(ctx context.Context, texts []string, query string) ([]schema.Document, error) {
	docs := make([]schema.Document, len(texts))
	for i, t := range texts {
		docs[i] = schema.Document{PageContent: t, Metadata: map[string]any{}}
	}
	return c.CompressDocuments(ctx, docs, query)
}

// CompressDocumentsAsync runs CompressDocuments in a goroutine. The
// returned channel yields exactly one Result and is then closed.
func (c *Compressor) CompressDocumentsAsync(ctx context.Context, docs []schema.Document, query string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)
		compressed, err := c.CompressDocuments(ctx, docs, query)
		out <- Result{Documents: compressed, Err: err}
	}()
	return out
}

func (c *Compressor) compress(ctx context.Context, docs []schema.Document, query string, topN *int) ([]schema.Document, error) {
	if len(docs) == 0 {
		return []schema.Document{}, nil
	}

	ctx, span := c.tracer.Start(ctx, "compressor.rerank",
		trace.WithAttributes(
			attribute.String("rerank.model", c.model),
			attribute.Int("rerank.documents", len(docs)),
			attribute.String("rerank.truncation", c.truncation),
		),
	)
	defer span.End()
	if topN != nil {
		span.SetAttributes(attribute.Int("rerank.top_n", *topN))
	}

	req := &pinecone.RerankRequest{
		Model:           c.model,
		Query:           query,
		Documents:       make([]pinecone.RerankDocument, len(docs)),
		TopN:            topN,
		ReturnDocuments: true,
		Parameters:      &pinecone.RerankParameters{Truncate: c.truncation},
	}
	for i, d := range docs {
		req.Documents[i] = pinecone.RerankDocument{Text: d.PageContent}
	}

	start := time.Now()
	resp, err := c.client.Rerank(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rerank failed")
		c.metrics.observe(c.model, elapsed, len(docs), 0, err)
		c.logger.Debug("rerank failed",
			zap.String("model", c.model),
			zap.Int("documents", len(docs)),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	out, err := collect(docs, resp.Data, topN)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed rerank response")
		c.metrics.observe(c.model, elapsed, len(docs), 0, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("rerank.results", len(out)),
		attribute.Int("rerank.units", resp.Usage.RerankUnits),
	)
	c.metrics.observe(c.model, elapsed, len(docs), len(out), nil)
	c.logger.Debug("rerank complete",
		zap.String("model", c.model),
		zap.Int("documents", len(docs)),
		zap.Int("results", len(out)),
		zap.Duration("duration", elapsed),
	)

	return out, nil
}

// collect maps ranked results back onto copies of docs, keeping the
// service order.
func collect(docs []schema.Document, ranked []pinecone.RankedDocument, topN *int) ([]schema.Document, error) {
	limit := len(docs)
	if topN != nil && *topN < limit {
		limit = *topN
	}
	if len(ranked) > limit {
		return nil, fmt.Errorf("%w: %d results for at most %d", ErrMalformedResponse, len(ranked), limit)
	}

	seen := make(map[int]struct{}, len(ranked))
	out := make([]schema.Document, 0, len(ranked))
	for _, r := range ranked {
		if r.Index < 0 || r.Index >= len(docs) {
			return nil, fmt.Errorf("%w: index %d, %d documents sent", ErrIndexOutOfRange, r.Index, len(docs))
		}
		if _, dup := seen[r.Index]; dup {
			return nil, fmt.Errorf("%w: index %d ranked twice", ErrMalformedResponse, r.Index)
		}
		seen[r.Index] = struct{}{}

		out = append(out, withRelevance(docs[r.Index], r.Score))
	}
	return out, nil
}

// withRelevance copies doc and records score on the copy.
func withRelevance(doc schema.Document, score float64) schema.Document {
	rounded := roundScore(score)
	meta := copyMetadata(doc.Metadata)
	meta[RelevanceScoreKey] = rounded
	return schema.Document{
		PageContent: doc.PageContent,
		Metadata:    meta,
		Score:       float32(rounded),
	}
}

// roundScore rounds the exact value of score to 4 decimal places, ties to
// even.
func roundScore(score float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(score, 'f', 4, 64), 64)
	return r
}

// copyMetadata deep-copies the maps, slices and arrays reachable from src
// so callers can mutate the result without touching the input document.
// Any other value, including pointers and structs, is carried over as is.
func copyMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+1)
	seen := make(map[visit]reflect.Value)
	for k, v := range src {
		if v == nil {
			dst[k] = nil
			continue
		}
		dst[k] = copyValue(reflect.ValueOf(v), seen).Interface()
	}
	return dst
}

// visit identifies a container already copied, so shared and cyclic
// references keep their shape in the copy.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

func copyValue(v reflect.Value, seen map[visit]reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(copyValue(v.Elem(), seen))
		return out

	case reflect.Map:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type()}
		if c, ok := seen[key]; ok {
			return c
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		seen[key] = out
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyValue(iter.Value(), seen))
		}
		return out

	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		key := visit{ptr: v.Pointer(), typ: v.Type(), len: v.Len()}
		if c, ok := seen[key]; ok {
			return c
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		seen[key] = out
		copyElems(out, v, seen)
		return out

	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		copyElems(out, v, seen)
		return out

	default:
		return v
	}
}

func copyElems(dst, src reflect.Value, seen map[visit]reflect.Value) {
	switch src.Type().Elem().Kind() {
	case reflect.Interface, reflect.Map, reflect.Slice, reflect.Array:
	default:
		if src.Kind() == reflect.Slice {
			reflect.Copy(dst, src)
			return
		}
	}
	for i := 0; i < src.Len(); i++ {
		dst.Index(i).Set(copyValue(src.Index(i), seen))
	}
}
