package main

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stencil/app"
	"stencil/config"
)

func TestIndex(t *testing.T) {
	cfg := &config.Config{
		Env:                 "test",
		Testing:             true,
		Port:                5000,
		SecretKey:           "test-secret",
		DatabaseInMemory:    true,
		CacheType:           "null",
		StaticDir:           "does-not-exist",
		DefaultLocale:       "en",
		MethodOverrideField: "_method",
	}
	a, err := app.New(cfg, loadSettings(cfg), app.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")
	assert.Contains(t, rec.Body.String(), `<a href="/post/">`)

	var names []string
	for _, r := range a.Routes() {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "index")
	assert.Contains(t, names, "post.index")
}
