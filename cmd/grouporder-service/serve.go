package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	catalogdomain "github.com/dmehra2102/streetfood-connect/internal/catalog/domain"
	catalogpg "github.com/dmehra2102/streetfood-connect/internal/catalog/infrastructure/postgres"
	catalogredis "github.com/dmehra2102/streetfood-connect/internal/catalog/infrastructure/redis"
	"github.com/dmehra2102/streetfood-connect/internal/grouporder/application"
	"github.com/dmehra2102/streetfood-connect/internal/grouporder/infrastructure/catalog"
	grouporderhttp "github.com/dmehra2102/streetfood-connect/internal/grouporder/infrastructure/http"
	grouporderkafka "github.com/dmehra2102/streetfood-connect/internal/grouporder/infrastructure/kafka"
	"github.com/dmehra2102/streetfood-connect/internal/grouporder/infrastructure/memory"
	grouporderpg "github.com/dmehra2102/streetfood-connect/internal/grouporder/infrastructure/postgres"
	grouporderredis "github.com/dmehra2102/streetfood-connect/internal/grouporder/infrastructure/redis"
	"github.com/dmehra2102/streetfood-connect/pkg/auth"
	"github.com/dmehra2102/streetfood-connect/pkg/idempotency"
	"github.com/dmehra2102/streetfood-connect/pkg/logging"
	"github.com/dmehra2102/streetfood-connect/pkg/metrics"
	"github.com/dmehra2102/streetfood-connect/pkg/outbox"
	"github.com/dmehra2102/streetfood-connect/pkg/tracing"
)

const serviceName = "grouporder-service"

func serve(c *cli.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	tp, err := tracing.Init(ctx, serviceName, cfg.OTLPEndpoint, log)
	if err != nil {
		return fmt.Errorf("otel init: %w", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	serverMetrics := metrics.NewServerMetrics(reg, "grouporder")
	opts := []application.Option{application.WithHooks(metrics.NewAggregateHooks(reg))}

	// Redis is optional: without it there is no live sink, cache or
	// idempotency guard.
	var rdb *redis.Client
	var idem idempotency.Marker
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable at startup", "addr", cfg.RedisAddr, "err", err)
		}
		idem = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
		opts = append(opts, application.WithEventSink(grouporderredis.NewPublisher(rdb)))
	}

	var (
		repo     application.Repository
		products application.ProductResolver
		ready    func(ctx context.Context) error
	)
	switch cfg.Store {
	case storeMemory:
		static, err := loadProducts(cfg.ProductsFile)
		if err != nil {
			return err
		}
		repo = memory.NewRepository()
		products = catalog.NewResolver(static)
		log.Info("using in-memory store", "products", len(static))
	case storePostgres:
		pool, err := pgxpool.New(ctx, cfg.PGURL)
		if err != nil {
			return fmt.Errorf("pg connect: %w", err)
		}
		defer pool.Close()
		ready = pool.Ping

		repo = grouporderpg.NewRepository(log, pool, cfg.LockTimeout, serviceName)
		var source catalog.Source = catalogpg.NewRepository(log, pool)
		if rdb != nil {
			source = catalogredis.NewCachedSource(log, rdb, source, cfg.ProductCacheTTL)
		}
		products = catalog.NewResolver(source)

		writer := grouporderkafka.NewWriter(cfg.KafkaAddr)
		defer writer.Close()
		dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
		relay := outbox.NewRelay(log, grouporderpg.NewOutboxStore(log, pool), dispatch, serviceName+"-"+uuid.NewString()[:8])
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("relay stopped with error", "err", err)
			}
		}()
	}

	svc := application.NewService(log, repo, products, opts...)
	handler := grouporderhttp.NewHandler(log, svc, auth.NewVerifier(cfg.JWTSecret), idem)

	r := chi.NewRouter()
	r.Use(serverMetrics.Middleware)
	r.Get("/healthz", healthz(ready))
	r.Handle("/metrics", metrics.Handler(reg))
	r.Mount("/", handler.Routes())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("grouporder-service shutdown complete")
	return nil
}

func healthz(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	}
}

func loadProducts(path string) (catalog.Static, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	var list []catalogdomain.Product
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse products %s: %w", path, err)
	}
	static := make(catalog.Static, len(list))
	for _, p := range list {
		static[p.ID] = p
	}
	return static, nil
}
