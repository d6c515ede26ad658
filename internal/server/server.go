package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m09352000/my-stock-dashboard-sub000/internal/collector"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/model"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/recorder"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/scanner"
	"github.com/m09352000/my-stock-dashboard-sub000/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// SessionHeader carries the session ID on REST calls.
const SessionHeader = "X-Session-ID"

// ScanDefaults are applied when a scan request omits a parameter.
type ScanDefaults struct {
	Delay     time.Duration
	Limit     int
	MinWeekly int
}

// Options wires the server's collaborators.
type Options struct {
	Analyzer scanner.Analyzer
	Pools    map[model.Market]collector.PoolSource
	Sessions *session.Store
	Recorder recorder.Recorder
	Scan     ScanDefaults
	Mode     string // gin mode
	Logger   *zap.Logger
}

// Server exposes analysis, scans and sessions over HTTP.
type Server struct {
	analyzer scanner.Analyzer
	pools    map[model.Market]collector.PoolSource
	sessions *session.Store
	recorder recorder.Recorder
	scan     ScanDefaults
	logger   *zap.Logger
	engine   *gin.Engine
	upgrader websocket.Upgrader
	started  time.Time
}

// New builds the gin engine and routes.
func New(opts Options) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore(opts.Scan.Limit)
	}

	s := &Server{
		analyzer: opts.Analyzer,
		pools:    opts.Pools,
		sessions: opts.Sessions,
		recorder: opts.Recorder,
		scan:     opts.Scan,
		logger:   opts.Logger.Named("server"),
		engine:   gin.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		started: time.Now(),
	}
	s.engine.Use(gin.Recovery(), s.accessLog(), cors())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)

	api.POST("/session", s.createSession)
	api.GET("/session", s.getSession)
	api.PUT("/session/view", s.putSessionView)

	api.GET("/analysis/:code", s.getAnalysis)
	api.GET("/analysis/:code/history", s.getAnalysisHistory)

	api.GET("/scan", s.handleScan)
	api.GET("/scan/pool", s.getScanPool)
	api.GET("/scan/runs", s.getScanRuns)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"uptime":   time.Since(s.started).Round(time.Second).String(),
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrDataUnavailable):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInsufficientHistory):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func abortWith(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// sessionID reads the session from the header, falling back to the query
// parameter browsers use for websocket upgrades.
func sessionID(c *gin.Context) string {
	if id := c.GetHeader(SessionHeader); id != "" {
		return id
	}
	return c.Query("session")
}

func marketParam(c *gin.Context) (model.Market, error) {
	switch strings.ToUpper(c.DefaultQuery("market", string(model.MarketTW))) {
	case string(model.MarketTW):
		return model.MarketTW, nil
	case string(model.MarketUS):
		return model.MarketUS, nil
	default:
		return "", errors.New("market must be tw or us")
	}
}

func intParam(c *gin.Context, key string, def, lo, hi int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, errors.New(key + " out of range")
	}
	return n, nil
}

type errNoPool model.Market

func (e errNoPool) Error() string { return "no scan pool for market " + string(e) }
