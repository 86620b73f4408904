// Package api exposes the HTTP interface for the flinkview service.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/flinkview/flinkview/internal/config"
	"github.com/flinkview/flinkview/internal/flink"
	"github.com/flinkview/flinkview/internal/metrics"
)

// Version is the build fallback reported by the config endpoint when no
// version is configured.
const Version = "0.3.0"

// Forwarder relays a request to the backend resolved for an application.
type Forwarder interface {
	Forward(w http.ResponseWriter, r *http.Request, app, path string)
}

// Server wires HTTP handlers to the locator, cache, and proxy.
type Server struct {
	router  chi.Router
	cfg     config.Config
	locator flink.JobLocator
	cache   *flink.JobCache
	proxy   Forwarder
	lister  flink.DeploymentLister
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	cfg config.Config,
	locator flink.JobLocator,
	cache *flink.JobCache,
	fwd Forwarder,
	lister flink.DeploymentLister,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:     cfg,
		locator: locator,
		cache:   cache,
		proxy:   fwd,
		lister:  lister,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.getConfig)
		r.Get("/jobs", s.listJobs)
		r.Get("/jobs/{name}/resource", s.getJobResource)
	})

	r.Handle("/proxy/{app}", http.HandlerFunc(s.proxyRequest))
	r.Handle("/proxy/{app}/*", http.HandlerFunc(s.proxyRequest))

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getConfig(w http.ResponseWriter, _ *http.Request) {
	patterns := s.cfg.Patterns
	if patterns == nil {
		patterns = map[string]string{}
	}
	endpointPatterns := s.cfg.EndpointPathPatterns
	if endpointPatterns == nil {
		endpointPatterns = map[string]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appVersion":           s.cfg.ResolvedAppVersion(Version),
		"patterns":             patterns,
		"endpointPathPatterns": endpointPatterns,
	})
}

// listJobs serves the cached snapshot while it is fresh; otherwise it asks
// the locator and replaces the snapshot. Concurrent misses may refresh
// redundantly, which is harmless for an idempotent read.
func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	if jobs, ok := s.cache.Get(); ok {
		metrics.ObserveJobCache(true)
		writeJSON(w, http.StatusOK, jobs)
		return
	}
	metrics.ObserveJobCache(false)

	jobs, err := s.locator.FindAll(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "listing jobs failed")
		return
	}
	s.cache.Put(jobs)
	writeJSON(w, http.StatusOK, jobs)
}

// getJobResource returns the raw FlinkDeployment document for one job as
// YAML, useful for debugging operator behavior.
func (s *Server) getJobResource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	deployments, err := s.lister.Find(
		r.Context(),
		s.cfg.JobLocator.K8sOperator.NamespaceToWatch,
		s.cfg.JobLocator.K8sOperator.LabelSelector,
	)
	if err != nil {
		s.logger.Error("listing FlinkDeployments for resource lookup failed",
			zap.String("name", name),
			zap.Error(err),
		)
		writeError(w, http.StatusBadGateway, "listing jobs failed")
		return
	}

	for i := range deployments {
		if deployments[i].GetName() != name {
			continue
		}
		out, err := yaml.Marshal(deployments[i].Object)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "encoding resource failed")
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(out); err != nil {
			s.logger.Error("writing resource response failed", zap.Error(err))
		}
		return
	}

	writeError(w, http.StatusNotFound, "job not found")
}

func (s *Server) proxyRequest(w http.ResponseWriter, r *http.Request) {
	app := chi.URLParam(r, "app")
	path := chi.URLParam(r, "*")
	s.proxy.Forward(w, r, app, path)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
