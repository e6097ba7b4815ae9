package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, storePostgres, cfg.Store)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaAddr)
	assert.Equal(t, "grouporder.events", cfg.OutboxTopic)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("GROUPORDER_LOCK_TIMEOUT", "250ms")
	t.Setenv("KAFKA_ADDR", "k1:9092,k2:9092")
	t.Setenv("STORE", "memory")
	t.Setenv("PRODUCTS_FILE", "products.json")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaAddr)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE", "sqlite")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), `got "sqlite"`)
}

func TestBadDurationRejected(t *testing.T) {
	t.Setenv("GROUPORDER_LOCK_TIMEOUT", "soon")
	_, err := LoadConfig()
	assert.Error(t, err)
}
