package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"smishguard/internal/bootstrap"
	"smishguard/internal/classifier"
	"smishguard/internal/config"
	"smishguard/internal/notifier"
	"smishguard/internal/pipeline"
	"smishguard/internal/repository"
	"smishguard/internal/server"
	"smishguard/internal/service"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Database connection and migrations
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	repository.MigrateDB(db, logger)

	// Repositories
	trainingRepo := repository.NewTrainingRecordRepository(db, logger)
	feedbackRepo := repository.NewFeedbackRepository(db, logger)
	registry := repository.NewModelRegistry(db, logger)
	authRepo := repository.NewAuthRepository(db, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Make sure the bootstrap corpus exists before anything can retrain.
	loader := bootstrap.NewLoader(trainingRepo, cfg.Bootstrap.CSVPath, logger)
	result, err := loader.Ensure(ctx)
	if err != nil {
		logger.Fatal("Failed to bootstrap training corpus", zap.Error(err))
	}
	logger.Info("Training corpus ready",
		zap.String("source", string(result.Source)),
		zap.Int("records", result.Records))

	// Serving adapter over the registry
	adapter := classifier.NewAdapter(registry, logger)
	if err := adapter.Reload(ctx); err != nil {
		logger.Fatal("Failed to load active model generations", zap.Error(err))
	}

	// Telegram notifications for retraining outcomes (optional)
	tg, err := notifier.New(cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize Telegram notifier, continuing without it", zap.Error(err))
		tg = nil
	}

	// Pipeline and services
	pipelineCfg := pipeline.Config{
		FeatureCap:      cfg.Training.FeatureCap,
		HoldoutFraction: cfg.Training.HoldoutFraction,
		ForestTrees:     cfg.Training.ForestTrees,
		Seed:            cfg.Training.Seed,
	}
	learningPipeline := pipeline.New(trainingRepo, feedbackRepo, registry, pipelineCfg, logger)
	trainingService := service.NewTrainingService(learningPipeline, adapter, tg, logger)
	analysisService := service.NewAnalysisService(adapter, feedbackRepo, logger)
	authService := service.NewAuthService(
		authRepo,
		[]byte(cfg.Auth.JWTSecret),
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
		logger,
	)

	// First deployment has no generations yet; train before serving if asked.
	if cfg.Training.TrainOnStart && !adapter.Ready() {
		logger.Info("No active generations found, training initial models")
		if _, err := trainingService.Retrain(ctx); err != nil {
			logger.Warn("Initial training failed; classification stays unavailable until a retrain succeeds", zap.Error(err))
		}
	}

	if cfg.Training.RetrainIntervalHours > 0 {
		interval := time.Duration(cfg.Training.RetrainIntervalHours) * time.Hour
		go trainingService.RunPeriodic(ctx, interval)
	}

	srv := server.NewServer(cfg, server.Deps{
		Analysis: analysisService,
		Training: trainingService,
		Auth:     authService,
		Registry: registry,
		Dataset:  trainingRepo,
		Loader:   loader,
		Adapter:  adapter,
	}, logger)

	if err := srv.Run(ctx, cfg.Server.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Application stopped.")
}
