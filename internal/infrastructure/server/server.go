package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/homescreen/internal/api/http"
	"github.com/GriffinCanCode/homescreen/internal/api/middleware"
	"github.com/GriffinCanCode/homescreen/internal/api/ws"
	"github.com/GriffinCanCode/homescreen/internal/domain/media"
	"github.com/GriffinCanCode/homescreen/internal/domain/settings"
	"github.com/GriffinCanCode/homescreen/internal/domain/shell"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/config"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/logging"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/sqlitedb"
	"github.com/GriffinCanCode/homescreen/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/homescreen/internal/providers/framing"
	httpclient "github.com/GriffinCanCode/homescreen/internal/providers/http/client"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *nethttp.Server
	db      *sql.DB
	hub     *ws.Hub
	shell   *shell.Shell
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	logger.Info("Initializing homescreen server",
		zap.String("port", cfg.Server.Port),
		zap.String("origin", cfg.Server.Origin),
		zap.String("storage", cfg.Storage.Path),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New(logger.Component("http"), time.Second)

	db, err := sqlitedb.Open(cfg.Storage.Path,
		sqlitedb.WithBusyTimeout(time.Duration(cfg.Storage.BusyTimeout)*time.Millisecond),
		sqlitedb.WithSynchronous(strings.ToUpper(cfg.Storage.Synchronous)),
		sqlitedb.WithMaxBytes(cfg.Storage.MaxBytes),
		sqlitedb.WithSchema(media.Schema),
		sqlitedb.WithSchema(settings.Schema),
	)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	weatherCfg := httpclient.DefaultConfig("weather")
	weatherCfg.Timeout = cfg.Weather.Timeout
	weatherCfg.Logger = logger.Component("upstream")
	weatherClient := httpclient.New(weatherCfg)

	probeCfg := httpclient.DefaultConfig("framing")
	probeCfg.Timeout = cfg.Embed.ProbeTimeout
	probeCfg.Retries = 0
	probeCfg.RPS = 0
	probeCfg.MaxBody = framing.MaxHTMLSize
	probeCfg.Logger = logger.Component("upstream")
	probe := framing.New(httpclient.New(probeCfg), cfg.Server.Origin, logger.Component("framing"))

	hub := ws.NewHub(cfg.Server.Origin, metrics, logger.Logger)
	sh, err := shell.New(context.Background(), shell.Deps{
		Config:     cfg,
		DB:         db,
		Projector:  hub,
		Geocoder:   weatherClient,
		Forecaster: weatherClient,
		Probe:      probe,
		Metrics:    metrics,
		Logger:     logger.Logger,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("shell: %w", err)
	}
	hub.Attach(sh)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.Middleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(cfg.Server.Origin))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := http.NewHandlers(sh, cfg.Wallpaper.MaxUploadBytes, hub.Clients, logger.Logger)
	handlers.Register(router)

	router.GET("/stream", hub.HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Serve the page and the mini-app bundles
	if cfg.Server.StaticDir != "" {
		router.NoRoute(gin.WrapH(nethttp.FileServer(nethttp.Dir(cfg.Server.StaticDir))))
	}

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		db:      db,
		hub:     hub,
		shell:   sh,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Router returns the gin engine
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	s.http = &nethttp.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP shutdown failed", zap.Error(err))
		}
	}
	s.hub.Close()
	s.shell.Close()

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
		return fmt.Errorf("failed to close storage: %w", err)
	}

	// Sync logger before exit
	_ = s.logger.Sync()

	return nil
}
