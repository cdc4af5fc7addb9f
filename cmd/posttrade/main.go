package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	redislib "github.com/redis/go-redis/v9"
	"github.com/wyfcoding/pkg/config"
	"github.com/wyfcoding/pkg/database"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/messagequeue/kafka"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"github.com/wyfcoding/pkg/metrics"
	redispkg "github.com/wyfcoding/pkg/redis"
	"github.com/wyfcoding/pkg/retry"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/posttrade/internal/posttrade/application"
	"github.com/wyfcoding/posttrade/internal/posttrade/conf"
	"github.com/wyfcoding/posttrade/internal/posttrade/domain"
	"github.com/wyfcoding/posttrade/internal/posttrade/infrastructure/gateway"
	"github.com/wyfcoding/posttrade/internal/posttrade/infrastructure/messaging"
	"github.com/wyfcoding/posttrade/internal/posttrade/infrastructure/persistence/mysql"
	"github.com/wyfcoding/posttrade/internal/posttrade/interfaces/consumer"
	httpserver "github.com/wyfcoding/posttrade/internal/posttrade/interfaces/http"
)

var configPath = flag.String("config", "configs/config.toml", "config file path")

func main() {
	flag.Parse()

	// 1. Config
	var cfg conf.Config
	if err := config.Load(*configPath, &cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	logger := logging.NewFromConfig(&logging.Config{
		Service:    cfg.Server.Name,
		Module:     "posttrade",
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	slog.SetDefault(logger.Logger)

	// 3. Metrics
	metricsImpl := metrics.NewMetrics(cfg.Server.Name)
	if cfg.Metrics.Enabled {
		stopMetrics := metricsImpl.ExposeHTTP(cfg.Metrics.Port)
		defer stopMetrics()
	}

	// 4. Infrastructure
	db, err := database.NewDB(cfg.Data.Database, cfg.CircuitBreaker, logger, metricsImpl)
	if err != nil {
		slog.Error("failed to connect database", "error", err)
		os.Exit(1)
	}

	if cfg.Server.Environment == "dev" {
		if err := db.RawDB().AutoMigrate(
			&domain.Instrument{},
			&domain.Order{},
			&domain.Execution{},
			&domain.BlockTrade{},
			&domain.Allocation{},
			&outbox.Message{},
		); err != nil {
			slog.Error("failed to migrate database", "error", err)
		}
	}

	redisClient, redisCleanup, err := redispkg.NewClient(&cfg.Data.Redis, logger)
	if err != nil {
		slog.Error("failed to connect redis", "error", err)
		os.Exit(1)
	}
	defer redisCleanup()

	outboxMgr := outbox.NewManager(db.RawDB(), logger.Logger)

	// 5. Repositories and runtime
	store := mysql.NewStore(db.RawDB())
	instruments := mysql.NewInstrumentRepo(db.RawDB())
	orders := mysql.NewOrderRepo(db.RawDB())
	executions := mysql.NewExecutionRepo(db.RawDB())
	blocks := mysql.NewBlockRepo(db.RawDB())
	allocations := mysql.NewAllocationRepo(db.RawDB())
	publisher := messaging.NewOutboxPublisher(outboxMgr, db.RawDB())
	runtime := application.NewRuntime(store, cfg.PostTrade.RuleTimeout, logger)

	scales := domain.DefaultCurrencyScales()
	for currency, scale := range cfg.PostTrade.CurrencyScales {
		scales[currency] = scale
	}

	// 6. Application services
	ingestSvc := application.NewIngestService(runtime, instruments, orders, executions, blocks, publisher, scales, logger)
	allocSvc := application.NewAllocationService(runtime, orders, blocks, allocations, publisher, cfg.PostTrade.QtyScale, logger)
	application.NewSettlementService(runtime, blocks, instruments, publisher,
		domain.TradingCalendar{}, cfg.PostTrade.SettlementCycleDays, scales, logger)
	application.NewBustService(runtime, blocks, logger)
	opsSvc := application.NewOpsService(runtime, instruments, orders, executions, blocks, allocations, logger)

	// 7. Outbound: gateway client, producers, outbox processor
	gatewayClient := gateway.NewClient(cfg.PostTrade.Gateway.BaseURL, cfg.PostTrade.Gateway.Timeout, retry.Config{
		MaxRetries:     cfg.PostTrade.Gateway.MaxRetries,
		InitialBackoff: cfg.PostTrade.Gateway.InitialBackoff,
		MaxBackoff:     cfg.PostTrade.Gateway.MaxBackoff,
		Multiplier:     2.0,
		Jitter:         0.1,
	}, logger)

	eventsProducer := kafka.NewProducer(&cfg.PostTrade.TradeEvents, logger, metricsImpl)
	defer eventsProducer.Close()
	dlqCfg := cfg.PostTrade.ExecutionFeed
	dlqCfg.Topic = domain.TopicExecutionFeedDLQ
	dlqProducer := kafka.NewProducer(&dlqCfg, logger, metricsImpl)
	defer dlqProducer.Close()

	dispatcher := messaging.NewDispatcher(eventsProducer, gatewayClient, logger)
	processor := outbox.NewProcessor(outboxMgr, dispatcher.Push,
		cfg.PostTrade.OutboxBatchSize, cfg.PostTrade.OutboxInterval)
	processor.Start()
	defer processor.Stop()

	// 8. Inbound consumers
	redisConcrete, ok := redisClient.(*redislib.Client)
	if !ok {
		slog.Error("redis client is not a standalone *redis.Client")
		os.Exit(1)
	}
	deduper := messaging.NewDeduper(redisConcrete, cfg.PostTrade.DedupeHorizon)
	feedHandler := consumer.NewExecutionFeedHandler(ingestSvc, deduper, dlqProducer, logger)
	eventHandler := consumer.NewTradeEventHandler(allocSvc, logger)

	workers := cfg.PostTrade.ConsumerWorkers
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedConsumer := kafka.NewConsumer(&cfg.PostTrade.ExecutionFeed, logger, metricsImpl)
	defer feedConsumer.Close()
	feedConsumer.Start(ctx, workers, feedHandler.Handle)

	eventsConsumer := kafka.NewConsumer(&cfg.PostTrade.TradeEvents, logger, metricsImpl)
	defer eventsConsumer.Close()
	eventsConsumer.Start(ctx, workers, eventHandler.Handle)

	// 9. HTTP
	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	httpserver.NewPostTradeHandler(opsSvc).RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.Server.HTTP.Port)
	server := &http.Server{Addr: addr, Handler: r}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-gctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
	}
}
