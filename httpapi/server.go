package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Options struct {
	Webhooks *WebhookHandler
	Gatherer prometheus.Gatherer
	Logger   core.Logger
}

func NewEngine(opts Options) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(opts.Logger))

	engine.GET("/healthz", Health)
	if opts.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
	if opts.Webhooks != nil {
		engine.POST("/webhook", opts.Webhooks.Receive)
		engine.POST("/webhooks", opts.Webhooks.Receive)
	}
	return engine
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(logger core.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = glog.Nop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithContext(c.Request.Context()).Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Server owns the listener lifecycle around an engine.
type Server struct {
	http   *http.Server
	logger core.Logger
}

func NewServer(cfg core.HTTPConfig, handler http.Handler, logger core.Logger) *Server {
	if logger == nil {
		logger = glog.Nop()
	}
	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Start serves until Shutdown is called. It never returns
// http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.http.Shutdown(ctx)
}
