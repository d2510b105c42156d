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

	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/analytics/store"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/tfidf-search-server/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "shards", cfg.Search.ShardCount)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)

	policy := ranker.Sequential
	if cfg.Search.Parallel {
		policy = ranker.Parallel
	}
	exec, err := executor.NewFromText(cfg.Search.StopWords, executor.Options{
		Shards:         cfg.Search.ShardCount,
		Workers:        cfg.Search.Workers,
		Policy:         policy,
		Unsynchronized: cfg.Search.Unsynchronized,
	})
	if err != nil {
		slog.Error("failed to create search executor", "error", err)
		os.Exit(1)
	}
	slog.Info("search executor initialized", "policy", policy, "unsynchronized", cfg.Search.Unsynchronized)

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
				OnStateChange: func(name string, to resilience.State) {
					m.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
				},
			})
			queryCache = cache.New(redisClient, cfg.Redis, breaker)
			slog.Info("search cache enabled",
				"addr", cfg.Redis.Addr,
				"ttl", cfg.Redis.CacheTTL,
			)
		}
	}

	history := analytics.NewHistory(cfg.Search.HistoryWindow, cfg.Analytics.TopQueries)

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		analyticsProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer analyticsProducer.Close()
		collector = analytics.NewCollector(analyticsProducer, 10000)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

		var inv consumer.Invalidator
		if queryCache != nil {
			inv = queryCache
		}
		// Every replica holds a full index, so each one needs its own group
		// to see every partition.
		host, _ := os.Hostname()
		ingest := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest,
			consumer.HandleMessage(exec, inv, m),
			kafka.FromFirstOffset(), kafka.WithGroupID(cfg.Kafka.ConsumerGroup+"-"+host))
		go func() {
			if err := consumer.New(ingest).Start(ctx); err != nil {
				slog.Error("index consumer error", "error", err)
			}
		}()
	}

	var db *postgres.Client
	if cfg.Analytics.SnapshotEnabled {
		db, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, history snapshots disabled", "error", err)
		} else {
			defer db.Close()
			snapshots := store.New(db)
			if err := snapshots.EnsureSchema(ctx); err != nil {
				slog.Error("failed to create snapshot schema", "error", err)
				os.Exit(1)
			}
			snapshots.StartPeriodicSave(ctx, history, cfg.Analytics.SnapshotInterval)
			slog.Info("history snapshots enabled", "interval", cfg.Analytics.SnapshotInterval)
		}
	}

	checker := health.NewChecker()
	checker.Register("search_engine", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", exec.DocumentCount(), exec.TermCount()),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if db == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := db.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(exec, handler.Options{
		Cache:     queryCache,
		History:   history,
		Collector: collector,
		Metrics:   m,
		PageSize:  cfg.Search.PageSize,
	})
	analyticsH := analytics.NewHandler(history)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /api/v1/stats", analyticsH.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.Server.RateLimit > 0 {
		chain = middleware.RateLimit(middleware.NewLimiter(ctx, cfg.Server.RateLimit, cfg.Server.RateBurst))(chain)
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowOrigins = cfg.Server.CORSOrigins
		chain = middleware.CORS(cors)(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			if err := shutdownMetrics(context.Background()); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
