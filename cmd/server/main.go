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

	"mall-bot/config"
	"mall-bot/internal/api"
	"mall-bot/internal/apiclient"
	"mall-bot/internal/bot"
	"mall-bot/internal/broker"
	"mall-bot/internal/dialog"
	"mall-bot/internal/redisclient"
	"mall-bot/internal/store"
	"mall-bot/internal/util"
	"mall-bot/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting mall bot", zap.String("env", cfg.Server.Env))

	tp, err := util.InitTracer(util.ServiceName, cfg.Observ.JaegerEndpoint)
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

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected")

	var stateStore bot.StateStore
	switch cfg.State.Backend {
	case config.StateBackendMemory:
		stateStore = bot.NewMemoryStore()
		logger.Warn("Using in-memory conversation state; state is lost on restart")
	default:
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		stateStore = redisclient.NewConversationStore(redisClient, cfg.State.TTL)
		logger.Info("Redis connected")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchase)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicPurchase))

	eventPublisher := broker.NewEventPublisher(producer)

	backend := apiclient.NewClient(apiclient.Config{
		BaseURL:       cfg.Backend.BaseURL,
		ReadTimeout:   cfg.Backend.ReadTimeout,
		SubmitTimeout: cfg.Backend.SubmitTimeout,
		ProbeTimeout:  cfg.Backend.ProbeTimeout,
	})

	engine := dialog.NewEngine(backend, cfg.Backend.CardAccountRef, dialog.WithEventPublisher(eventPublisher))
	mallBot := bot.New(engine, stateStore, cfg.Bot.AppID)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	ledgerConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchase, cfg.Kafka.ConsumerGroup)
	ledgerWorker := worker.NewLedgerWorker(ledgerConsumer, db)
	go func() {
		if err := ledgerWorker.Start(workerCtx); err != nil && err != context.Canceled {
			logger.Error("Ledger worker error", zap.Error(err))
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(mallBot, backend).WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst)
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
	if err := ledgerWorker.Stop(); err != nil {
		logger.Error("Failed to stop ledger worker", zap.Error(err))
	}

	logger.Info("Server exited")
}
