// Package httptransport assembles the HTTP surface: middleware, API routes,
// probes, metrics and the static demo site.
package httptransport

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	dirhandler "medcred/internal/directory/handler"
	issuehandler "medcred/internal/issuance/handler"
	"medcred/internal/platform/health"
	"medcred/pkg/platform/middleware/admin"
	"medcred/pkg/platform/middleware/client"
	"medcred/pkg/platform/middleware/request"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 1 << 20
)

// Deps are the pieces the router mounts. Nil handlers are skipped.
type Deps struct {
	Logger    *slog.Logger
	Gatherer  prometheus.Gatherer
	Latency   *request.Metrics
	Client    *client.Middleware
	Health    *health.Handler
	Directory *dirhandler.Handler
	Issuance  *issuehandler.Handler

	AdminToken         string
	CORSAllowedOrigins []string
	PublicDir          string
	ManifestsDir       string
	RequestTimeout     time.Duration
}

// NewRouter wires all endpoints with middleware.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	if d.Client != nil {
		r.Use(d.Client.Handler)
	}
	r.Use(request.Logger(d.Logger))
	r.Use(request.Recovery(d.Logger))
	r.Use(request.Latency(d.Latency))
	r.Use(request.BodyLimit(defaultMaxBodyBytes))
	r.Use(request.Timeout(timeout))

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	if d.Directory != nil {
		d.Directory.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(admin.RequireToken(d.AdminToken, d.Logger))
			d.Directory.RegisterAdmin(r)
		})
	}
	if d.Issuance != nil {
		d.Issuance.Register(r)
	}

	if isDir(d.ManifestsDir) {
		r.Handle("/manifests/*", http.StripPrefix("/manifests", http.FileServer(http.Dir(d.ManifestsDir))))
	}
	if isDir(d.PublicDir) {
		r.Handle("/*", http.FileServer(http.Dir(d.PublicDir)))
	}

	if len(d.CORSAllowedOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins: d.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", admin.HeaderName},
		ExposedHeaders: []string{issuehandler.StateHeader},
		MaxAge:         300,
	}).Handler(r)
}

func isDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
