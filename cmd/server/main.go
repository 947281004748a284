package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/handler"
	"github.com/statsbasket/internal/kafka"
	"github.com/statsbasket/internal/metrics"
	"github.com/statsbasket/internal/redis"
	"github.com/statsbasket/internal/service"
	"github.com/statsbasket/internal/storage"
	"github.com/statsbasket/internal/websocket"
	"github.com/statsbasket/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	reg := metrics.New()

	wsHub := websocket.NewHub(logger)
	reg.RegisterGauge("statsbasket_websocket_connections", "Open websocket connections",
		func() float64 { return float64(wsHub.Connections()) })
	logger.Info("WebSocket hub initialized")

	gameService := service.NewGameService(store, &cfg.Roster, &cfg.Reports, logger)
	gameService.SetHub(wsHub)
	gameService.SetMetrics(reg)
	wsHub.SetReportSource(gameService)
	go wsHub.Run()

	// The cache is optional: without Redis reports are rebuilt per request
	// and scoring leaders come from the event log.
	if cfg.Redis.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		cache, err := redis.NewGameCache(&cfg.Redis, cfg.Reports.CacheTTL, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without cache", "error", err)
		} else {
			defer cache.Close()
			gameService.SetCache(cache)
			logger.Info("connected to Redis")
		}
	}

	refresher := worker.NewReportRefresher(gameService, &cfg.Refresh, logger)
	if cfg.Refresh.Enabled {
		if err := refresher.Start(ctx); err != nil {
			logger.Error("failed to start report refresher", "error", err)
			os.Exit(1)
		}
	} else if err := gameService.WarmScoring(ctx); err != nil {
		logger.Warn("failed to warm scoring leaders", "error", err)
	}

	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, gameService, reg, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else if err := kafkaConsumer.Start(); err != nil {
			logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
			kafkaConsumer = nil
		} else {
			logger.Info("Kafka consumer started successfully")
		}
	}

	httpHandler := handler.NewHandler(gameService, wsHub, reg, cfg, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	if err := refresher.Stop(); err != nil {
		logger.Error("failed to stop report refresher", "error", err)
	}

	wsHub.Stop()

	logger.Info("server stopped")
}
