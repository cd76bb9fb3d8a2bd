package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kube-rca/rca-rag/internal/model"
)

const (
	defaultSearchLimit  = 5
	defaultContextLimit = 3
	maxSearchLimit      = 50
)

type searcher interface {
	SearchSimilarCases(ctx context.Context, query string, limit int) []model.SimilarCaseResult
	SearchByMetadata(ctx context.Context, filters map[string]any, limit int) []model.MetadataMatch
	EnhanceQuery(ctx context.Context, query string, contextLimit int) string
	DatabaseStats(ctx context.Context) model.CollectionStats
}

type SearchHandler struct {
	svc searcher
}

func NewSearchHandler(svc searcher) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// limit 검증 (미지정이면 fallback, 1..50)
func parseLimit(raw string, fallback int) (int, bool) {
	if strings.TrimSpace(raw) == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxSearchLimit {
		return 0, false
	}
	return n, true
}

func normalizeLimit(n, fallback int) (int, bool) {
	if n == 0 {
		return fallback, true
	}
	if n < 1 || n > maxSearchLimit {
		return 0, false
	}
	return n, true
}

// SearchSimilar godoc
// @Summary Search similar historical cases
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param query query string true "Free-text query"
// @Param limit query int false "Max results (1-50)" default(5)
// @Success 200 {object} model.SearchSimilarResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/search-similar [get]
func (h *SearchHandler) SearchSimilar(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "query is required"})
		return
	}
	limit, ok := parseLimit(c.Query("limit"), defaultSearchLimit)
	if !ok {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "limit must be between 1 and 50"})
		return
	}

	c.JSON(http.StatusOK, model.SearchSimilarResponse{
		SimilarCases: h.svc.SearchSimilarCases(c.Request.Context(), query, limit),
	})
}

// SearchMetadata godoc
// @Summary Search documents by metadata filters
// @Description String filters match case-insensitive substrings, other values match exactly.
// @Tags search
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.MetadataSearchRequest true "Filters and limit"
// @Success 200 {object} model.MetadataSearchResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/search-metadata [post]
func (h *SearchHandler) SearchMetadata(c *gin.Context) {
	var req model.MetadataSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}
	limit, ok := normalizeLimit(req.Limit, 10)
	if !ok {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "limit must be between 1 and 50"})
		return
	}

	c.JSON(http.StatusOK, model.MetadataSearchResponse{
		Results: h.svc.SearchByMetadata(c.Request.Context(), req.Filters, limit),
	})
}

// EnhanceQuery godoc
// @Summary Append related historical context to a query
// @Tags search
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.EnhanceQueryRequest true "Query and context limit"
// @Success 200 {object} model.EnhanceQueryResponse
// @Failure 400 {object} model.ErrorResponse
// @Router /api/enhance-query [post]
func (h *SearchHandler) EnhanceQuery(c *gin.Context) {
	var req model.EnhanceQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "query is required"})
		return
	}
	limit, ok := normalizeLimit(req.ContextLimit, defaultContextLimit)
	if !ok {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "context_limit must be between 1 and 50"})
		return
	}

	c.JSON(http.StatusOK, model.EnhanceQueryResponse{
		Query: h.svc.EnhanceQuery(c.Request.Context(), req.Query, limit),
	})
}

// Stats godoc
// @Summary Document count per collection
// @Tags search
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.StatsResponse
// @Router /api/stats [get]
func (h *SearchHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, model.StatsResponse{Collections: h.svc.DatabaseStats(c.Request.Context())})
}
