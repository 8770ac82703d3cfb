// Package api serves the country store over HTTP.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/mkoziy/countryrates/internal/metrics"
	"github.com/mkoziy/countryrates/internal/refresh"
)

// Refresher runs a refresh to completion.
type Refresher interface {
	Refresh(ctx context.Context) (*refresh.Result, error)
}

// ImageStore locates the summary image.
type ImageStore interface {
	Path() string
	Exists() bool
}

// Server is the HTTP front end.
type Server struct {
	db        bun.IDB
	refresher Refresher
	images    ImageStore
	metrics   *metrics.Metrics
	logger    *zap.Logger
	router    *gin.Engine
}

// NewServer creates the router and registers every route.
func NewServer(db bun.IDB, refresher Refresher, images ImageStore, m *metrics.Metrics, logger *zap.Logger) *Server {
	router := gin.New()

	s := &Server{
		db:        db,
		refresher: refresher,
		images:    images,
		metrics:   m,
		logger:    logger,
		router:    router,
	}

	router.Use(gin.Recovery(), s.observe)

	router.GET("/", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	countries := router.Group("/countries")
	{
		countries.POST("/refresh", s.handleRefresh)
		countries.GET("", s.handleList)
		countries.GET("/image", s.handleImage)
		countries.GET("/:name", s.handleGet)
		countries.DELETE("/:name", s.handleDelete)
	}

	return s
}

// Handler exposes the router, for http.Server and tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// observe logs each request and counts it by route template.
func (s *Server) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	status := c.Writer.Status()
	s.metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()

	s.logger.Debug("request",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)))
}
