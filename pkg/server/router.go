// Package server exposes the bridge orchestrator REST API over chi.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apphttp "github.com/yieldrail/bridge-orchestrator/pkg/app/http"
	"github.com/yieldrail/bridge-orchestrator/pkg/auth"
	"github.com/yieldrail/bridge-orchestrator/pkg/config"
)

const defaultRequestTimeout = 60 * time.Second

// NewRouter assembles the middleware stack and all routes. The admin subtree
// is guarded by the bearer-token middleware.
func NewRouter(h *Handler, guard *auth.Guard, cfg *config.ServerConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	requestTimeout := defaultRequestTimeout
	if cfg != nil && cfg.RequestTimeout > 0 {
		requestTimeout = cfg.RequestTimeout
	}
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/health", h.health)
	r.Get("/ready", h.ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/chains", apphttp.HandleError(h.getChains))
		r.Get("/validators", apphttp.HandleError(h.getValidators))
		r.Get("/pools", apphttp.HandleError(h.getPools))
		r.Post("/liquidity/check", apphttp.HandleError(h.checkLiquidity))

		r.Route("/bridge", func(r chi.Router) {
			r.Post("/", apphttp.HandleError(h.initiateBridge))
			r.Get("/estimate", apphttp.HandleError(h.getEstimate))
			r.Get("/analytics", apphttp.HandleError(h.getAnalytics))
			r.Get("/sender/{address}", apphttp.HandleError(h.listBySender))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", apphttp.HandleError(h.getTransaction))
				r.Get("/status", apphttp.HandleError(h.getStatus))
				r.Get("/validation", apphttp.HandleError(h.getValidation))
				r.Get("/updates", apphttp.HandleError(h.getHistory))
				r.Post("/cancel", apphttp.HandleError(h.cancelTransaction))
				r.Post("/retry", apphttp.HandleError(h.retryTransaction))
				r.Post("/subscribe", apphttp.HandleError(h.subscribe))
				r.Post("/unsubscribe", apphttp.HandleError(h.unsubscribe))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(guard.Middleware)
			r.Get("/monitoring", apphttp.HandleError(h.getMonitoring))
			r.Post("/monitoring/start", apphttp.HandleError(h.startMonitoring))
			r.Post("/monitoring/stop", apphttp.HandleError(h.stopMonitoring))
			r.Get("/subscriptions", apphttp.HandleError(h.getSubscriptionStats))
		})
	})

	return r
}
