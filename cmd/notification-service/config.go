package main

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8081"`
	LogLevel       string        `envconfig:"LOG_LEVEL" default:"info"`
	KafkaAddr      []string      `envconfig:"KAFKA_ADDR" default:"localhost:9092"`
	Topic          string        `envconfig:"IN_TOPIC" default:"grouporder.events"`
	Group          string        `envconfig:"CONSUMER_GROUP" default:"notification-service"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	OTLPEndpoint   string        `envconfig:"OTLP_ENDPOINT"`
	IdempotencyTTL time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"10m"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
