package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"purchase-patterns/config"
	"purchase-patterns/internal/api"
	"purchase-patterns/internal/broker"
	"purchase-patterns/internal/graph"
	"purchase-patterns/internal/patterns"
	"purchase-patterns/internal/redisclient"
	"purchase-patterns/internal/service"
	"purchase-patterns/internal/source"
	"purchase-patterns/internal/store"
	"purchase-patterns/internal/util"
	"purchase-patterns/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Server.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting purchase patterns service", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint, cfg.Observ.TraceSampleRatio)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Error shutting down tracer", zap.Error(err))
		}
	}()

	engineCfg, err := engineConfig(cfg.Patterns)
	if err != nil {
		logger.Fatal("Invalid pattern configuration", zap.Error(err))
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected")

	if cfg.Database.Migrate {
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("Redis connected")

	checks := map[string]api.Check{
		"postgres": db.Ping,
		"redis":    redisClient.Ping,
	}

	usual := patterns.NewUsualBasketEngine(engineCfg)
	cycles := patterns.NewReorderCycleEngine(engineCfg)
	statistical := source.NewStatisticalSource(usual)

	var (
		graphSource source.PatternSource
		orderGraph  service.OrderGraph
	)
	if cfg.Neo4j.URI != "" {
		graphClient, err := graph.NewClient(graph.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			logger.Fatal("Failed to connect to Neo4j", zap.Error(err))
		}
		defer graphClient.Close(context.Background())
		logger.Info("Neo4j connected", zap.String("uri", cfg.Neo4j.URI))

		graphSource = source.NewGraphBackedSource(graphClient, engineCfg)
		orderGraph = graphClient
		checks["neo4j"] = graphClient.Health
	} else {
		logger.Info("Neo4j not configured, serving patterns from statistics only")
	}
	selector := source.NewSelector(statistical, graphSource)

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPatterns)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicPatterns))

	eventPublisher := broker.NewEventPublisher(producer)

	patternService := service.NewPatternService(db, redisClient, eventPublisher, usual, cycles, selector, cfg.Redis.CacheTTL)
	ingestService := service.NewIngestService(db, orderGraph, patternService)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	orderConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrders, cfg.Kafka.ConsumerGroup)
	orderWorker := worker.NewOrderWorker(orderConsumer, ingestService)
	go func() {
		if err := orderWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
			logger.Error("Order worker error", zap.Error(err))
		}
	}()

	if cfg.Reminder.Enabled {
		reminderService := service.NewReminderService(patternService, db, redisClient, eventPublisher, service.ReminderConfig{
			ActiveWindow: cfg.Reminder.ActiveWindow,
			DaysAhead:    engineCfg.ReminderDaysAhead,
			DedupTTL:     cfg.Reminder.DedupTTL,
		})
		reminderWorker := worker.NewReminderWorker(reminderService, redisClient, cfg.Reminder.ScanInterval)
		go func() {
			if err := reminderWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Reminder worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(patternService, checks)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if err := orderWorker.Stop(); err != nil {
		logger.Error("Failed to stop order worker", zap.Error(err))
	}

	logger.Info("Server exited")
}

// engineConfig overlays the environment settings on the engine defaults
func engineConfig(pc config.PatternsConfig) (patterns.Config, error) {
	cfg := patterns.DefaultConfig()
	cfg.ConfidenceThreshold = pc.ConfidenceThreshold
	cfg.ReminderDaysAhead = pc.ReminderDaysAhead
	cfg.DeliveryFee = pc.DeliveryFee
	cfg.OutlierDays = pc.OutlierDays

	if pc.SeasonalRulesFile != "" {
		data, err := os.ReadFile(pc.SeasonalRulesFile)
		if err != nil {
			return cfg, fmt.Errorf("failed to read seasonal rules: %w", err)
		}
		rules, err := patterns.ParseSeasonalRules(data)
		if err != nil {
			return cfg, err
		}
		cfg.SeasonalRules = rules
	}
	return cfg, nil
}
