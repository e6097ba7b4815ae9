package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	healthz(nil)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	healthz(func(context.Context) error { return errors.New("down") })(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLoadProducts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"P1","supplier_id":"S1","unit":"kg"},{"id":"P2","supplier_id":"S2"}]`), 0o600))

	static, err := loadProducts(path)
	require.NoError(t, err)
	require.Len(t, static, 2)
	assert.Equal(t, "kg", static["P1"].Unit)

	_, err = loadProducts(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
