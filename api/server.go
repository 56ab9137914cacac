package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vigilops/vigil/api/handlers"
	"github.com/vigilops/vigil/api/middleware"
	"github.com/vigilops/vigil/api/websocket"
	"github.com/vigilops/vigil/internal/auth"
	"github.com/vigilops/vigil/internal/dashboard"
	"github.com/vigilops/vigil/internal/orchestrator"
	"github.com/vigilops/vigil/pkg/config"
	"github.com/vigilops/vigil/pkg/database"
)

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      *config.Config
	db          *database.DB
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
	engine      *orchestrator.Orchestrator
	dashboards  *dashboard.Registry
}

func NewServer(cfg *config.Config, db *database.DB, engine *orchestrator.Orchestrator) *Server {
	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	authService := auth.NewService(cfg.API.JWTSecret, cfg.API.JWTIssuer, cfg.API.JWTDuration)
	wsHub := websocket.NewHub(cfg.WebSocket.BroadcastBuffer)

	s := &Server{
		router:      router,
		config:      cfg,
		db:          db,
		authService: authService,
		wsHub:       wsHub,
		engine:      engine,
		dashboards:  dashboard.NewRegistry(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	if engine != nil {
		eventsChan := engine.SubscribeAllEvents()
		s.wsBridge = websocket.NewEventBridge(wsHub, eventsChan)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(s.corsConfig()))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestSizeLimit(1 << 20))

	rateLimiter := middleware.NewRateLimiter(s.config.API.RateLimit, time.Minute)
	s.router.Use(middleware.RateLimit(rateLimiter))
}

func (s *Server) corsConfig() middleware.CORSConfig {
	cfg := middleware.DefaultCORSConfig()
	if len(s.config.API.CORS.AllowedOrigins) > 0 {
		cfg.AllowOrigins = s.config.API.CORS.AllowedOrigins
	}
	if len(s.config.API.CORS.AllowedMethods) > 0 {
		cfg.AllowMethods = s.config.API.CORS.AllowedMethods
	}
	if len(s.config.API.CORS.AllowedHeaders) > 0 {
		cfg.AllowHeaders = s.config.API.CORS.AllowedHeaders
	}
	return cfg
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.db, s.engine)
	var directory *auth.Directory
	if s.config.Directory.Enabled {
		directory = auth.NewDirectory(auth.DirectoryConfig{
			Endpoint: s.config.Directory.Endpoint,
			Timeout:  s.config.Directory.Timeout,
		})
	}
	authHandler := handlers.NewAuthHandler(s.authService, directory, s.config.API.JWTSecret)
	metricsHandler := handlers.NewMetricsHandler(s.engine.Store(), s.config)
	dashboardHandler := handlers.NewDashboardHandler(s.dashboards)
	alertHandler := handlers.NewAlertHandler(s.engine.Alerts())
	resourceHandler := handlers.NewResourceHandler(
		s.engine,
		s.engine.Store(),
		s.engine.Forecaster(),
		s.engine.Healer(),
		handlers.ResourceHandlerConfig{
			CollectorEndpoint: s.config.Collector.Endpoint,
			CollectorTimeout:  s.config.Collector.Timeout,
		},
	)

	// Exposition and health
	s.router.GET("/metrics", metricsHandler.Exposition)
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	// Auth
	tokenLimiter := middleware.NewRateLimiter(5, time.Minute)
	s.router.POST("/auth/token", middleware.RateLimit(tokenLimiter), authHandler.Token)

	// WebSocket stream
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	monitoring := s.router.Group("/monitoring")
	{
		monitoring.GET("/stats", metricsHandler.Stats)

		monitoring.GET("/dashboards", dashboardHandler.List)
		monitoring.GET("/dashboards/:id", dashboardHandler.Get)
		monitoring.GET("/dashboards/:id/export", dashboardHandler.Export)

		monitoring.GET("/alerts", alertHandler.List)
		monitoring.GET("/alerts/:id", alertHandler.Get)
		monitoring.GET("/rules", alertHandler.ListRules)

		monitoring.GET("/resources", resourceHandler.List)
		monitoring.GET("/resources/:id/status", resourceHandler.Status)
		monitoring.GET("/resources/:id/history", resourceHandler.History)
		monitoring.GET("/resources/:id/baseline", resourceHandler.Baseline)
		monitoring.GET("/resources/:id/predictions", resourceHandler.Predictions)
		monitoring.GET("/resources/:id/healing", resourceHandler.HealingRecords)
	}

	protected := s.router.Group("/monitoring")
	protected.Use(middleware.JWTAuth(s.authService), middleware.RequireRole("admin"))
	{
		protected.POST("/dashboards", dashboardHandler.Create)
		protected.POST("/dashboards/import", dashboardHandler.Import)
		protected.DELETE("/dashboards/:id", dashboardHandler.Delete)

		protected.POST("/alerts/:id/acknowledge", alertHandler.Acknowledge)
		protected.POST("/alerts/:id/resolve", alertHandler.Resolve)
		protected.POST("/rules", alertHandler.CreateRule)

		protected.POST("/resources", resourceHandler.StartMonitoring)
		protected.DELETE("/resources/:id", resourceHandler.StopMonitoring)
		protected.POST("/resources/:id/observe", resourceHandler.Observe)
		protected.POST("/resources/:id/issues", resourceHandler.ReportIssue)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.API.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.API.ReadTimeout,
		WriteTimeout: s.config.API.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
