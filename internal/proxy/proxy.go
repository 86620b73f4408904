// Package proxy forwards HTTP requests to per-job Flink REST endpoints,
// streaming bodies in both directions.
package proxy

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/flinkview/flinkview/internal/config"
	"github.com/flinkview/flinkview/internal/metrics"
)

// requestDropHeaders are stripped from the outbound request: hop-by-hop
// headers are meaningful for a single transport connection only, and
// Accept-Encoding is left to the transport so it negotiates compression
// itself and transparently decodes the response.
var requestDropHeaders = []string{
	"Host",
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
	"Accept-Encoding",
}

// responseDropHeaders are stripped from the backend response before it is
// relayed. Compression is negotiated by the transport, which has already
// undone any content encoding by the time the body is read.
var responseDropHeaders = []string{
	"Content-Encoding",
	"Transfer-Encoding",
	"Connection",
}

// Proxy relays requests to backend base URLs resolved per application name.
// The underlying HTTP client is shared and safe for concurrent use.
type Proxy struct {
	client      *http.Client
	targets     map[string]string
	defaultPort int
	logger      *zap.Logger
}

// New builds a Proxy from configuration. The client carries no overall
// timeout so long-lived streaming responses are not cut off; cancellation
// follows the inbound request context.
func New(cfg config.ProxyConfig, logger *zap.Logger) *Proxy {
	return &Proxy{
		client:      &http.Client{},
		targets:     cfg.TargetMap,
		defaultPort: cfg.DefaultPort,
		logger:      logger,
	}
}

// ResolveTarget maps an application name to its backend base URL. Unmapped
// names fall back to the operator's REST service naming convention,
// http://<app>-rest:<port>.
func (p *Proxy) ResolveTarget(app string) string {
	if base, ok := p.targets[app]; ok {
		return strings.TrimRight(base, "/")
	}
	return fmt.Sprintf("http://%s-rest:%d", app, p.defaultPort)
}

// Forward relays the inbound request to the backend resolved for app,
// appending path and the original query string. The backend's status and
// body are passed through verbatim; only dispatch failures are reported as
// proxy errors (502).
func (p *Proxy) Forward(w http.ResponseWriter, r *http.Request, app, path string) {
	target := p.ResolveTarget(app) + "/" + strings.TrimLeft(path, "/")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		p.logger.Error("building proxy request failed",
			zap.String("app", app),
			zap.String("target", target),
			zap.Error(err),
		)
		metrics.ObserveProxyRequest(app, http.StatusBadGateway)
		http.Error(w, "bad proxy target", http.StatusBadGateway)
		return
	}
	req.ContentLength = r.ContentLength
	copyHeaders(req.Header, r.Header, requestDropHeaders)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("proxy request failed",
			zap.String("app", app),
			zap.String("target", target),
			zap.Error(err),
		)
		metrics.ObserveProxyRequest(app, http.StatusBadGateway)
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.logger.Warn("closing upstream body failed", zap.Error(cerr))
		}
	}()

	copyHeaders(w.Header(), resp.Header, responseDropHeaders)
	w.WriteHeader(resp.StatusCode)
	metrics.ObserveProxyRequest(app, resp.StatusCode)

	if err := streamBody(w, resp.Body); err != nil {
		// The caller disconnected or the upstream died mid-stream; the
		// status line is already out, so logging is all that is left.
		p.logger.Debug("proxy stream interrupted",
			zap.String("app", app),
			zap.Error(err),
		)
	}
}

// copyHeaders copies src into dst, skipping the given header names.
func copyHeaders(dst, src http.Header, skip []string) {
	for name, values := range src {
		if skipHeader(name, skip) {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func skipHeader(name string, skip []string) bool {
	for _, s := range skip {
		if strings.EqualFold(name, s) {
			return true
		}
	}
	return false
}

// streamBody relays the backend body chunk by chunk, flushing after every
// write so long-polling and event-stream responses reach the caller as they
// arrive instead of sitting in a buffer.
func streamBody(w http.ResponseWriter, body io.Reader) error {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return fmt.Errorf("writing to client: %w", writeErr)
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("reading from upstream: %w", readErr)
		}
	}
}
