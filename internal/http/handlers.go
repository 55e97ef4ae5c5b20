package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fyrsmithlabs/rerankd/internal/compressor"
	"github.com/fyrsmithlabs/rerankd/internal/logging"
	"github.com/fyrsmithlabs/rerankd/internal/pinecone"
	"github.com/fyrsmithlabs/rerankd/internal/reranker"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleRerank ranks ID-carrying documents through the reranker.
func (s *Server) handleRerank(c echo.Context) error {
	var req RerankRequest
	if err := c.Bind(&req); err != nil {
		ctx := c.Request().Context()
		logging.FromContext(ctx).Warn(ctx, "invalid rerank request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}
	if len(req.Documents) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "documents field is required")
	}

	docs := make([]reranker.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = reranker.Document{ID: d.ID, Content: d.Content, Score: d.Score, Metadata: d.Metadata}
	}

	ranked, err := s.deps.Reranker.Rerank(c.Request().Context(), req.Query, docs, req.TopN)
	if err != nil {
		return s.remoteError(c.Request().Context(), "rerank", err)
	}

	results := make([]RerankResult, len(ranked))
	for i, r := range ranked {
		results[i] = RerankResult{
			ID:            r.ID,
			Content:       r.Content,
			Metadata:      r.Metadata,
			Score:         r.RerankerScore,
			OriginalScore: r.Score,
			OriginalRank:  r.OriginalRank,
		}
	}
	return c.JSON(http.StatusOK, RerankResponse{Results: results})
}

// handleCompress runs langchaingo-shaped documents through the compressor.
func (s *Server) handleCompress(c echo.Context) error {
	var req CompressRequest
	if err := c.Bind(&req); err != nil {
		ctx := c.Request().Context()
		logging.FromContext(ctx).Warn(ctx, "invalid compress request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}
	if len(req.Documents) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "documents field is required")
	}

	out, err := s.deps.Compressor.CompressDocuments(c.Request().Context(), toSchema(req.Documents), req.Query)
	if err != nil {
		return s.remoteError(c.Request().Context(), "compress", err)
	}
	return c.JSON(http.StatusOK, DocumentsResponse{Documents: fromSchema(out)})
}

// handleSearch retrieves candidates from the vector store and compresses
// them.
func (s *Server) handleSearch(c echo.Context) error {
	if s.deps.Retriever == nil {
		return echo.NewHTTPError(http.StatusNotFound, "search is not configured")
	}

	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		ctx := c.Request().Context()
		logging.FromContext(ctx).Warn(ctx, "invalid search request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query field is required")
	}

	out, err := s.deps.Retriever.GetRelevantDocuments(c.Request().Context(), req.Query)
	if err != nil {
		return s.remoteError(c.Request().Context(), "search", err)
	}
	return c.JSON(http.StatusOK, DocumentsResponse{Documents: fromSchema(out)})
}

// remoteError maps service errors to HTTP errors. Upstream rejections and
// malformed upstream responses are 502; everything else is 500.
func (s *Server) remoteError(ctx context.Context, op string, err error) error {
	logging.FromContext(ctx).Warn(ctx, op+" failed", zap.Error(err))

	if apiErr, ok := pinecone.IsAPIError(err); ok {
		return echo.NewHTTPError(http.StatusBadGateway, ErrorResponse{
			Error:          "upstream rerank request failed",
			UpstreamStatus: apiErr.StatusCode,
		})
	}
	if errors.Is(err, compressor.ErrIndexOutOfRange) || errors.Is(err, compressor.ErrMalformedResponse) {
		return echo.NewHTTPError(http.StatusBadGateway, "malformed upstream rerank response")
	}
	if ctx.Err() != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request canceled")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, op+" failed")
}
