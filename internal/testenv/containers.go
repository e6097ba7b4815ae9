//go:build integration

// Package testenv starts throwaway Postgres and Kafka containers for
// integration tests.
package testenv

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/dmehra2102/streetfood-connect/migrations"
	"github.com/dmehra2102/streetfood-connect/pkg/migrate"
)

type Env struct {
	PG    *postgres.PostgresContainer
	Kafka *kafka.KafkaContainer
	PGURL string
	KAddr []string
	Pool  *pgxpool.Pool
}

type Options struct {
	WithKafka bool
}

// Setup starts the containers, applies migrations and registers cleanup on tb.
func Setup(tb testing.TB, opts Options) *Env {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("streetfood"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		tb.Fatalf("start postgres: %v", err)
	}
	env := &Env{PG: pgC}
	tb.Cleanup(func() { env.teardown() })

	env.PGURL, err = pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tb.Fatalf("postgres dsn: %v", err)
	}
	if err := migrate.Up(Logger(), migrations.FS, env.PGURL); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	env.Pool, err = pgxpool.New(context.Background(), env.PGURL)
	if err != nil {
		tb.Fatalf("pgxpool: %v", err)
	}

	if opts.WithKafka {
		kafkaC, err := kafka.Run(ctx,
			"confluentinc/confluent-local:7.5.0",
			kafka.WithClusterID("streetfood-test"),
		)
		if err != nil {
			tb.Fatalf("start kafka: %v", err)
		}
		env.Kafka = kafkaC
		env.KAddr, err = kafkaC.Brokers(ctx)
		if err != nil {
			tb.Fatalf("kafka brokers: %v", err)
		}
	}
	return env
}

// Reset truncates every table between tests.
func (e *Env) Reset(tb testing.TB) {
	tb.Helper()
	_, err := e.Pool.Exec(context.Background(), `TRUNCATE group_order_participants, group_orders, outbox, products RESTART IDENTITY`)
	if err != nil {
		tb.Fatalf("truncate: %v", err)
	}
}

func (e *Env) teardown() {
	ctx := context.Background()
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.Kafka != nil {
		_ = e.Kafka.Terminate(ctx)
	}
	if e.PG != nil {
		_ = e.PG.Terminate(ctx)
	}
}

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
