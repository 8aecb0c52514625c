package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasenjit/go-intentions/internal/events"
	"github.com/prasenjit/go-intentions/internal/metrics"
	"github.com/prasenjit/go-intentions/internal/storage"
)

func newTestRouter(opts Options) *Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(storage.NewMemoryStorage(), events.NewService(10), metrics.New(), logger, opts)
}

func serve(r *Router, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	return w
}

func TestRouter_Routes(t *testing.T) {
	r := newTestRouter(Options{})

	w := serve(r, "GET", "/_api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, "POST", "/_api/intentions", `{"SourceName":"web","DestinationName":"db","Action":"allow"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = serve(r, "GET", "/_api/intentions?destination=db", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"SourceName":"web"`)

	w = serve(r, "GET", "/_api/headers/types", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(Options{})

	w := serve(r, "OPTIONS", "/_api/intentions", "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(Options{ExposeMetrics: true})

	serve(r, "GET", "/_api/health", "")

	w := serve(r, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "intentions_api_requests_total")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	r := newTestRouter(Options{})

	w := serve(r, "GET", "/metrics", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
