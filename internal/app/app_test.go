package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esi/esi-bot/internal/config"
	"github.com/esi/esi-bot/internal/esi"
	"github.com/esi/esi-bot/internal/logger"
	"github.com/esi/esi-bot/internal/metrics"
	"github.com/esi/esi-bot/internal/storage"
)

const testSwagger = `{"swagger":"2.0","paths":{"/status/":{"get":{}}}}`

// fakeESI serves /versions/ and swagger documents, counting swagger fetches.
type fakeESI struct {
	*httptest.Server
	fetches atomic.Int32
}

func newFakeESI(t *testing.T) *fakeESI {
	t.Helper()
	f := &fakeESI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/versions/{$}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`["latest","legacy","dev"]`))
	})
	mux.HandleFunc("/{version}/swagger.json", func(w http.ResponseWriter, _ *http.Request) {
		f.fetches.Add(1)
		_, _ = w.Write([]byte(testSwagger))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

// setupTestApp creates a minimal Application for testing endpoints
func setupTestApp(t *testing.T, host string) *Application {
	t.Helper()

	db, err := storage.NewTestDB(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	log := logger.New("error")

	client := esi.NewClient(esi.ClientConfig{Timeout: 5 * time.Second}, log, m)
	specs := esi.NewSpecCache(client, esi.SpecCacheConfig{StaleAfter: time.Hour}, db, log, m, host)

	return &Application{
		cfg: &config.Config{
			MetricsUsername:     "prometheus",
			SpecRefreshInterval: time.Hour,
		},
		db:       db,
		metrics:  m,
		registry: registry,
		logger:   log,
		specs:    specs,
	}
}

func serve(t *testing.T, app *Application, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	app.routes().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestLivenessCheckAlwaysSucceeds(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t, "http://unused.invalid")
	_ = app.db.Close()

	w := serve(t, app, http.MethodGet, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", decodeBody(t, w)["status"])
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(t, app, http.MethodHead, "/livez")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessCheck(t *testing.T) {
	t.Parallel()
	esiHost := newFakeESI(t)
	app := setupTestApp(t, esiHost.URL)

	w := serve(t, app, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "specs not loaded", decodeBody(t, w)["reason"])

	app.runSpecRefresh(context.Background())

	w = serve(t, app, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ready", body["status"])
	assert.InDelta(t, 3, body["snapshots"], 0)
	assert.Equal(t, map[string]any{
		esiHost.URL: []any{"latest", "legacy", "dev"},
	}, body["specs"])

	_ = app.db.Close()
	w = serve(t, app, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "database unavailable", decodeBody(t, w)["reason"])
}

func TestReadinessAfterRestore(t *testing.T) {
	t.Parallel()
	esiHost := newFakeESI(t)
	first := setupTestApp(t, esiHost.URL)
	first.runSpecRefresh(context.Background())

	// A second cache over the same database starts ready without fetching.
	log := logger.New("error")
	client := esi.NewClient(esi.ClientConfig{}, log, nil)
	second := &Application{
		cfg:      first.cfg,
		db:       first.db,
		registry: first.registry,
		logger:   log,
		specs:    esi.NewSpecCache(client, esi.SpecCacheConfig{StaleAfter: time.Hour}, first.db, log, nil, esiHost.URL),
	}

	restored, err := second.specs.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, restored)

	w := serve(t, second, http.MethodGet, "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunSpecRefreshSkipsFreshSpecs(t *testing.T) {
	t.Parallel()
	esiHost := newFakeESI(t)
	app := setupTestApp(t, esiHost.URL)

	app.runSpecRefresh(context.Background())
	assert.Equal(t, int32(3), esiHost.fetches.Load())

	app.runSpecRefresh(context.Background())
	assert.Equal(t, int32(3), esiHost.fetches.Load())
}

func TestRefreshSpecsStopsOnCancel(t *testing.T) {
	t.Parallel()
	esiHost := newFakeESI(t)
	app := setupTestApp(t, esiHost.URL)

	ctx, cancel := context.WithCancel(context.Background())
	app.startBackgroundJobs(ctx)

	require.Eventually(t, app.specs.Loaded, 5*time.Second, 10*time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh job did not stop")
	}
}

func TestRootRedirect(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t, "http://unused.invalid")

	w := serve(t, app, http.MethodGet, "/")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, sourceRepo, w.Header().Get("Location"))
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	app := setupTestApp(t, "http://unused.invalid")
	app.metrics.RecordCommand("status", "ok", 0.1)

	w := serve(t, app, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "esibot_")

	app.cfg.MetricsPassword = "secret"
	w = serve(t, app, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
