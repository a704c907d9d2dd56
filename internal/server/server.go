package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/Kristianesp/Ordenasion-alpha-sub001/internal/api/http"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/api/middleware"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/api/ws"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/category"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/disk"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/memory"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/settings"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/state"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/domain/worker"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/config"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/logging"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/monitoring"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/infrastructure/tracing"
	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/paths"
)

const shutdownTimeout = 10 * time.Second

// Server wires the coordination managers behind the HTTP/WS surface.
type Server struct {
	router  *gin.Engine
	http    *http.Server
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics

	state   *state.Manager
	memory  *memory.Manager
	workers *worker.Manager
}

// NewServer builds the full dependency graph: config, logger, metrics,
// settings store, the three managers, collaborators, router.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	switch {
	case cfg.Logging.File != "":
		logCfg := logging.FileConfig(cfg.Logging.File)
		logCfg.Level = cfg.Logging.Level
		l, err := logging.New(logCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
		logger = l
	case cfg.Logging.Development:
		logger = logging.NewDevelopment()
	default:
		logger = logging.NewDefault()
	}

	logger.Info("Initializing coordinator",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("coordinator", logger.Logger)

	settingsPath := paths.SettingsFile(cfg.Settings.Path)
	store, err := settings.NewStore(settingsPath, logger)
	if err != nil {
		logger.Warn("settings unreadable, using defaults", zap.Error(err))
		store = settings.Default(settingsPath, logger)
	}

	stateManager := state.New(state.Options{
		Config: store,
		NewCategories: func() (state.CategoryService, error) {
			return category.NewService(paths.CategoriesFile(cfg.Settings.CategoriesPath), logger)
		},
		NewDisks: func() (state.DiskService, error) {
			return disk.NewService(logger), nil
		},
		Logger:  logger,
		Metrics: metrics,
	})

	memoryManager := memory.NewManager(memory.Config{
		SweepInterval:    cfg.Memory.SweepInterval,
		CacheIdleTimeout: cfg.Memory.CacheIdleTimeout,
		MaxCacheMB:       cfg.Memory.MaxCacheMB,
		WarnWorkers:      cfg.Memory.WarnWorkers,
	}, logger).WithSink(stateManager).WithMetrics(metrics)
	memoryManager.Start()

	workerManager := worker.NewManager(worker.Options{
		Config: worker.Config{
			MaxConcurrent: cfg.Workers.MaxConcurrent,
			MaxHistory:    cfg.Workers.MaxHistory,
		},
		State:   stateManager,
		Memory:  memoryManager,
		Bus:     stateManager,
		Logger:  logger,
		Metrics: metrics,
	})

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS())
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(stateManager, memoryManager, workerManager)
	wsHandler := ws.NewHandler(stateManager, logger, metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api")
	{
		api.GET("/state", handlers.GetState)
		api.POST("/state/theme", handlers.SetTheme)
		api.POST("/state/font-size", handlers.SetFontSize)
		api.POST("/state/disk", handlers.SetDisk)
		api.GET("/disks", handlers.ListDisks)
		api.GET("/categories", handlers.ListCategories)

		api.GET("/workers", handlers.ListWorkers)
		api.GET("/workers/history", handlers.WorkerHistory)
		api.POST("/workers/:id/cancel", handlers.CancelWorker)
		api.POST("/workers/cancel-all", handlers.CancelAllWorkers)

		api.GET("/memory/stats", handlers.MemoryStats)
		api.GET("/memory/history", handlers.MemoryHistory)
		api.GET("/memory/history/export", handlers.MemoryHistoryExport)
		api.POST("/memory/optimize", handlers.OptimizeMemory)
	}

	router.GET("/ws/events", wsHandler.HandleConnection)

	logger.Info("Coordinator initialized")

	return &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		state:   stateManager,
		memory:  memoryManager,
		workers: workerManager,
	}, nil
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// State exposes the state manager.
func (s *Server) State() *state.Manager { return s.state }

// Memory exposes the memory manager.
func (s *Server) Memory() *memory.Manager { return s.memory }

// Workers exposes the worker manager.
func (s *Server) Workers() *worker.Manager { return s.workers }

// Run starts the HTTP server and blocks until it exits.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.http = &http.Server{Addr: addr, Handler: s.router}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close shuts everything down: HTTP listener, worker cancellation,
// memory sweeps, state cleanup.
func (s *Server) Close() error {
	s.logger.Info("Shutting down coordinator...")

	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP shutdown failed", zap.Error(err))
		}
	}

	s.workers.Cleanup()
	s.memory.Cleanup()
	s.state.Cleanup()

	s.logger.Info("Coordinator stopped")
	return s.logger.Sync()
}
