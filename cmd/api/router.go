package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/toybox-bd/storefront-api/internal/auth"
	"github.com/toybox-bd/storefront-api/internal/checkout"
	"github.com/toybox-bd/storefront-api/internal/common"
	"github.com/toybox-bd/storefront-api/internal/health"
	"github.com/toybox-bd/storefront-api/internal/obs"
	"github.com/toybox-bd/storefront-api/internal/promo"
	"github.com/toybox-bd/storefront-api/internal/ratelimit"
	"github.com/toybox-bd/storefront-api/internal/security"
	"github.com/toybox-bd/storefront-api/internal/shipping"
)

type routerDeps struct {
	Logger         zerolog.Logger
	HTTPMetrics    *obs.HTTPMetrics
	CORSOrigins    []string
	BodyLimit      int64
	HSTS           bool
	GlobalLimit    func(http.Handler) http.Handler
	PromoLimit     ratelimit.Handler
	Idem           common.Idem
	Guard          *auth.Guard
	Health         health.Handler
	Shipping       *shipping.Handler
	Promo          *promo.Handler
	Checkout       *checkout.Handler
	EnableMetrics  bool
	EnableProfiler bool
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{EnableHSTS: d.HSTS}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(d.CORSOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if d.EnableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if d.EnableProfiler {
		r.Route("/debug/pprof", func(p chi.Router) {
			p.Use(d.Guard.RequireAdmin)
			p.Mount("/", pprofMux())
		})
	}
	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		if d.GlobalLimit != nil {
			v.Use(d.GlobalLimit)
		}
		v.Use(security.BodyLimit{Max: d.BodyLimit}.Middleware)

		v.Post("/shipping/quote", d.Shipping.Quote)
		v.With(d.PromoLimit.Middleware).Post("/promo-codes/validate", d.Promo.Validate)
		v.Post("/checkout/quote", d.Checkout.Quote)
		v.With(d.Guard.RequireAdmin, d.Idem.Middleware).Post("/checkout/settle", d.Checkout.Settle)

		v.Route("/admin/promo-codes", func(a chi.Router) {
			a.Use(d.Guard.RequireAdmin)
			a.Get("/", d.Promo.List)
			a.With(d.Idem.Middleware).Post("/", d.Promo.Create)
			a.Get("/{code}", d.Promo.Get)
			a.Put("/{code}", d.Promo.Update)
		})
	})
	return r
}

func allowedOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func pprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
