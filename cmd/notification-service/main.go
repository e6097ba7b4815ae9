package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/dmehra2102/streetfood-connect/internal/notification/application"
	notificationkafka "github.com/dmehra2102/streetfood-connect/internal/notification/infrastructure/kafka"
	notificationredis "github.com/dmehra2102/streetfood-connect/internal/notification/infrastructure/redis"
	"github.com/dmehra2102/streetfood-connect/pkg/idempotency"
	"github.com/dmehra2102/streetfood-connect/pkg/logging"
	"github.com/dmehra2102/streetfood-connect/pkg/metrics"
	"github.com/dmehra2102/streetfood-connect/pkg/shutdown"
	"github.com/dmehra2102/streetfood-connect/pkg/tracing"
)

func main() {
	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	app := &cli.App{
		Name:   "notification-service",
		Usage:  "fan group order events out to vendors over redis pub/sub",
		Action: run,
	}
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	tp, err := tracing.Init(ctx, "notification-service", cfg.OTLPEndpoint, log)
	if err != nil {
		return fmt.Errorf("otel init: %w", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, cfg.IdempotencyTTL)

	svc := application.NewService(log, notificationredis.NewPublisher(rdb))
	reader := notificationkafka.NewReader(cfg.KafkaAddr, cfg.Topic, cfg.Group)
	consumer := notificationkafka.NewConsumer(log, reader, svc, idem)

	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("consumer stopped", "err", err)
			cancel()
		}
	}()

	reg := prometheus.NewRegistry()
	serverMetrics := metrics.NewServerMetrics(reg, "notification")
	r := chi.NewRouter()
	r.Use(serverMetrics.Middleware)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := rdb.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("notification-service shutdown")
	return nil
}
