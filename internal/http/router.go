// Package httpapi assembles the chi router: shared middleware, module routes,
// the admin group, health and metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"claimbridge/internal/platform/metrics"
	dErrors "claimbridge/pkg/domain-errors"
	"claimbridge/pkg/platform/httputil"
	adminmw "claimbridge/pkg/platform/middleware/admin"
	"claimbridge/pkg/platform/middleware/metadata"
	"claimbridge/pkg/platform/middleware/request"
	"claimbridge/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's public routes.
type Registrar interface {
	Register(r chi.Router)
}

// AdminRegistrar mounts a module's operator routes.
type AdminRegistrar interface {
	RegisterAdmin(r chi.Router)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Config is everything the router needs. A nil AdminTokens leaves the admin
// routes unmounted.
type Config struct {
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	AdminTokens adminmw.TokenValidator
	Modules     []Registrar
	Admin       []AdminRegistrar
	Checks      map[string]HealthCheck
	// CheckTimeout bounds each health check; zero means two seconds.
	CheckTimeout time.Duration
}

// NewRouter wires all endpoints behind the shared middleware stack.
func NewRouter(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recover(logger))
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(request.AccessLog(logger))
	r.Use(cfg.Metrics.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error":             "method_not_allowed",
			"error_description": r.Method + " is not allowed on " + r.URL.Path,
		})
	})

	r.Get("/healthz", healthHandler(cfg.Checks, cfg.CheckTimeout))
	r.Handle("/metrics", promhttp.Handler())

	for _, m := range cfg.Modules {
		m.Register(r)
	}

	if cfg.AdminTokens != nil && len(cfg.Admin) > 0 {
		r.Group(func(r chi.Router) {
			r.Use(adminmw.RequireAdmin(cfg.AdminTokens, logger))
			for _, m := range cfg.Admin {
				m.RegisterAdmin(r)
			}
		})
	} else if len(cfg.Admin) > 0 {
		logger.Warn("admin routes disabled: no admin token validator configured")
	}

	return r
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck, timeout time.Duration) http.HandlerFunc {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		var (
			mu      sync.Mutex
			results = make(map[string]string, len(names))
			healthy = true
		)
		g, ctx := errgroup.WithContext(r.Context())
		for _, name := range names {
			check := checks[name]
			g.Go(func() error {
				cctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()
				status := "ok"
				if err := check(cctx); err != nil {
					status = err.Error()
				}
				mu.Lock()
				defer mu.Unlock()
				results[name] = status
				if status != "ok" {
					healthy = false
				}
				return nil
			})
		}
		_ = g.Wait()

		resp := HealthResponse{Status: "ok", Checks: results}
		status := http.StatusOK
		if !healthy {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
