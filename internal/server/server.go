package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smishguard/internal/bootstrap"
	"smishguard/internal/classifier"
	"smishguard/internal/config"
	"smishguard/internal/handler"
	"smishguard/internal/metrics"
	"smishguard/internal/middleware"
	"smishguard/internal/repository"
	"smishguard/internal/service"
)

// Server wires the HTTP boundary around the core services.
type Server struct {
	router *gin.Engine
	cfg    *config.Config
	logger *zap.Logger
}

// Deps carries everything the routes need.
type Deps struct {
	Analysis service.AnalysisService
	Training *service.TrainingService
	Auth     service.AuthService
	Registry repository.ModelRegistry
	Dataset  repository.TrainingRecordRepository
	Loader   *bootstrap.Loader
	Adapter  *classifier.Adapter
}

// NewServer builds the router with all routes registered.
func NewServer(cfg *config.Config, deps Deps, logger *zap.Logger) *Server {
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	s := &Server{router: router, cfg: cfg, logger: logger}
	s.setupRoutes(deps)
	return s
}

func (s *Server) setupRoutes(deps Deps) {
	analyzeHandler := handler.NewAnalyzeHandler(deps.Analysis, s.logger)
	feedbackHandler := handler.NewFeedbackHandler(deps.Analysis, s.logger)
	modelHandler := handler.NewModelHandler(deps.Registry, deps.Training, s.logger)
	datasetHandler := handler.NewDatasetHandler(deps.Dataset, deps.Loader, s.logger)
	authHandler := handler.NewAuthHandler(deps.Auth, s.logger)

	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":         "smishguard",
			"status":       "active",
			"models_ready": deps.Adapter.Ready(),
		})
	})
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})
	s.router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.router.Group("/api")
	{
		api.POST("/analyze", analyzeHandler.Analyze)
		api.POST("/feedback", feedbackHandler.Submit)
		api.GET("/models", modelHandler.GetModels)
		api.GET("/dataset/stats", datasetHandler.GetStats)

		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
	}

	protected := s.router.Group("/api")
	protected.Use(middleware.AuthMiddleware([]byte(s.cfg.Auth.JWTSecret), s.logger))
	{
		protected.POST("/retrain", modelHandler.Retrain)
		protected.GET("/models/history", modelHandler.GetHistory)
		protected.POST("/dataset/bootstrap", datasetHandler.Bootstrap)
	}
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}
