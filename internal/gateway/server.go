package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter constructs the chi mux with all routes wired.
func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Public, no auth required.
	r.Get("/health", g.handleHealth())
	if g.metrics != nil {
		r.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(g.metrics.Registry(), promhttp.HandlerOpts{}))
	}
	r.Get("/ws/reports", g.hub.ServeHTTP)

	// Read API, auth required when configured.
	api := func(r chi.Router) {
		r.Get("/status", g.handleStatus())
		r.Route("/api", func(r chi.Router) {
			r.Get("/channels", g.handleListChannels())
			r.Get("/reports", g.handleListReports())
		})
	}
	if g.config.Auth.IsConfigured() {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(g.config.Auth))
			api(r)
		})
	} else {
		r.Group(api)
	}

	return r
}
