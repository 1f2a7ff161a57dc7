package rateshttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cryptorates/internal/backfill"
	"cryptorates/internal/logger"
	"cryptorates/internal/metrics"
	"cryptorates/internal/query"

	"github.com/gin-gonic/gin"
)

// Server exposes the chart and backfill HTTP API.
type Server struct {
	addr    string
	queries *query.Service
	runner  *backfill.Runner
	metrics *metrics.Metrics
	router  *gin.Engine
}

// Config describes the server's dependencies.
type Config struct {
	Addr    string
	Queries *query.Service
	Runner  *backfill.Runner
	Metrics *metrics.Metrics
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Queries == nil {
		return nil, errors.New("query service is required")
	}
	if cfg.Runner == nil {
		return nil, errors.New("backfill runner is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:    cfg.Addr,
		queries: cfg.Queries,
		runner:  cfg.Runner,
		metrics: cfg.Metrics,
		router:  router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.router.Group("/api")
	api.GET("/pairs", s.handlePairs)
	api.GET("/rates/current", s.handleCurrent)
	api.GET("/rates/last-24h", s.handleLast24Hours)
	api.GET("/rates/day", s.handleDay)
	api.GET("/rates/range", s.handleRange)
	api.POST("/backfill", s.handleBackfillSubmit)
	api.GET("/backfill", s.handleBackfillList)
	api.GET("/backfill/:id", s.handleBackfillStatus)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handlePairs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pairs": s.queries.Pairs()})
}

func (s *Server) handleCurrent(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pair is required"})
		return
	}
	payload, err := s.queries.CurrentPrice(c.Request.Context(), pair)
	if err != nil {
		if errors.Is(err, query.ErrUnknownPair) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleLast24Hours(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pair is required"})
		return
	}
	payload, err := s.queries.Last24Hours(c.Request.Context(), pair)
	if err != nil {
		s.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleDay(c *gin.Context) {
	pair := c.Query("pair")
	date := c.Query("date")
	if pair == "" || date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pair and date are required"})
		return
	}
	payload, err := s.queries.Day(c.Request.Context(), pair, date)
	if err != nil {
		s.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleRange(c *gin.Context) {
	pair := c.Query("pair")
	if pair == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pair is required"})
		return
	}
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return
	}
	payload, err := s.queries.RangeBetween(c.Request.Context(), pair, from, to)
	if err != nil {
		s.renderQueryError(c, err)
		return
	}
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleBackfillSubmit(c *gin.Context) {
	var req struct {
		Days int    `json:"days"`
		Pair string `json:"pair"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Days == 0 {
		req.Days = 7
	}
	run, err := s.runner.Submit(req.Days, req.Pair)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}

func (s *Server) handleBackfillStatus(c *gin.Context) {
	run, found, err := s.runner.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleBackfillList(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	runs, err := s.runner.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) renderQueryError(c *gin.Context, err error) {
	if errors.Is(err, query.ErrUnknownPair) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if c.Request.Context().Err() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request canceled"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http: listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
