package proxy

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/flinkview/flinkview/internal/config"
	"github.com/flinkview/flinkview/internal/metrics"
)

func newProxy(t *testing.T, cfg config.ProxyConfig) *Proxy {
	t.Helper()
	metrics.Init()
	if cfg.DefaultPort == 0 {
		cfg.DefaultPort = 8081
	}
	return New(cfg, zaptest.NewLogger(t))
}

func TestResolveTarget(t *testing.T) {
	p := newProxy(t, config.ProxyConfig{
		TargetMap: map[string]string{"orders": "http://orders-ui:8081/"},
	})

	assert.Equal(t, "http://orders-ui:8081", p.ResolveTarget("orders"))
	assert.Equal(t, "http://payments-rest:8081", p.ResolveTarget("payments"))
}

func TestForwardStripsHopByHopRequestHeaders(t *testing.T) {
	var got http.Header
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	p := newProxy(t, config.ProxyConfig{TargetMap: map[string]string{"jobs": backend.URL}})

	req := httptest.NewRequest(http.MethodGet, "/proxy/jobs/overview", nil)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Keep-Alive", "timeout=5")
	req.Header.Set("Proxy-Authorization", "Basic xxx")
	req.Header.Set("Te", "trailers")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("X-Custom", "kept")
	rec := httptest.NewRecorder()

	p.Forward(rec, req, "jobs", "overview")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "kept", got.Get("X-Custom"))
	for _, h := range []string{"Connection", "Keep-Alive", "Proxy-Authorization", "Te", "Upgrade"} {
		assert.Empty(t, got.Get(h), "header %s must not be forwarded", h)
	}
}

func TestForwardStripsResponseHeaders(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Data", "kept")
		w.Header().Set("Content-Encoding", "identity")
		w.Header().Set("Connection", "close")
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	p := newProxy(t, config.ProxyConfig{TargetMap: map[string]string{"jobs": backend.URL}})

	req := httptest.NewRequest(http.MethodGet, "/proxy/jobs/", nil)
	rec := httptest.NewRecorder()
	p.Forward(rec, req, "jobs", "")

	assert.Equal(t, "kept", rec.Header().Get("X-Data"))
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Empty(t, rec.Header().Get("Connection"))
}

func TestForwardDecodesCompressedBackendResponse(t *testing.T) {
	const payload = `{"jobs":[]}`
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			_, _ = w.Write([]byte(payload))
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, err := gz.Write([]byte(payload))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
	}))
	defer backend.Close()

	p := newProxy(t, config.ProxyConfig{TargetMap: map[string]string{"jobs": backend.URL}})

	// A browser-style request: the client advertises gzip support, but the
	// relayed body must still arrive as plaintext with no encoding header,
	// since the transport negotiates and decodes compression itself.
	req := httptest.NewRequest(http.MethodGet, "/proxy/jobs/jobs", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	p.Forward(rec, req, "jobs", "jobs")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, rec.Body.String())
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
}

func TestForwardPropagatesStatusAndBody(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("echo:" + string(body)))
	}))
	defer backend.Close()

	p := newProxy(t, config.ProxyConfig{TargetMap: map[string]string{"jobs": backend.URL}})

	req := httptest.NewRequest(http.MethodPost, "/proxy/jobs/jars/upload", strings.NewReader("payload"))
	rec := httptest.NewRecorder()
	p.Forward(rec, req, "jobs", "jars/upload")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "echo:payload", rec.Body.String())
}

func TestForwardPreservesMethodPathAndQuery(t *testing.T) {
	var method, path, query string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		query = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer backend.Close()

	p := newProxy(t, config.ProxyConfig{TargetMap: map[string]string{"jobs": backend.URL}})

	req := httptest.NewRequest(http.MethodDelete, "/proxy/jobs/jobs/abc?mode=cancel", nil)
	rec := httptest.NewRecorder()
	p.Forward(rec, req, "jobs", "jobs/abc")

	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/jobs/abc", path)
	assert.Equal(t, "mode=cancel", query)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestForwardBackendUnreachable(t *testing.T) {
	p := newProxy(t, config.ProxyConfig{
		TargetMap: map[string]string{"jobs": "http://127.0.0.1:1"},
	})

	req := httptest.NewRequest(http.MethodGet, "/proxy/jobs/overview", nil)
	rec := httptest.NewRecorder()
	p.Forward(rec, req, "jobs", "overview")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestForwardBackendErrorStatusIsNotReinterpreted(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer backend.Close()

	p := newProxy(t, config.ProxyConfig{TargetMap: map[string]string{"jobs": backend.URL}})

	req := httptest.NewRequest(http.MethodGet, "/proxy/jobs/overview", nil)
	rec := httptest.NewRecorder()
	p.Forward(rec, req, "jobs", "overview")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}
