package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Analyzer analyzer
	Searcher searcher
	// Auth가 nil이면 /api 인증 없음
	Auth        tokenParser
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter - 전체 라우트 구성
//
// /api/health, /ping, /, /openapi.json, /metrics는 인증 없이 노출
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestMiddleware(cfg.Logger), CORSMiddleware(cfg.CORSOrigins, false))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/api/health", Health)
	router.GET("/openapi.json", OpenAPIDoc)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	if cfg.Auth != nil {
		api.Use(AuthMiddleware(cfg.Auth))
	}

	rca := NewRcaHandler(cfg.Analyzer, cfg.Logger)
	api.POST("/analyze", rca.Analyze)
	api.POST("/bulk-upload", rca.BulkUpload)

	search := NewSearchHandler(cfg.Searcher)
	api.GET("/search-similar", search.SearchSimilar)
	api.POST("/search-metadata", search.SearchMetadata)
	api.POST("/enhance-query", search.EnhanceQuery)
	api.GET("/stats", search.Stats)

	return router
}
