package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/toybox-bd/storefront-api/internal/auth"
	"github.com/toybox-bd/storefront-api/internal/checkout"
	"github.com/toybox-bd/storefront-api/internal/common"
	"github.com/toybox-bd/storefront-api/internal/config"
	"github.com/toybox-bd/storefront-api/internal/db"
	"github.com/toybox-bd/storefront-api/internal/health"
	"github.com/toybox-bd/storefront-api/internal/obs"
	"github.com/toybox-bd/storefront-api/internal/promo"
	"github.com/toybox-bd/storefront-api/internal/ratelimit"
	"github.com/toybox-bd/storefront-api/internal/shipping"
)

const serviceName = "storefront-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   serviceName,
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			Insecure:      cfg.Obs.OTLPInsecure,
			Headers:       obs.ParseHeaders(cfg.Obs.OTLPHeaders),
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.MigrateOnStart {
		if err := db.Up(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = serviceName
	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pool.Ping(connectCtx); err != nil {
		return err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	rdb := redis.NewClient(redisOpts)
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if tracingEnabled {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	if err := rdb.Ping(connectCtx).Err(); err != nil {
		return err
	}

	guard, err := auth.NewGuard(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	var (
		httpMetrics   *obs.HTTPMetrics
		domainMetrics *obs.DomainMetrics
	)
	if cfg.Obs.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), prometheus.DefaultRegisterer)
		domainMetrics = obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, prometheus.DefaultRegisterer)
	}

	globalLimit, err := ratelimit.NewGlobal(rdb, cfg.APIRate, "ratelimit:api:")
	if err != nil {
		return err
	}

	promoSvc := &promo.Service{Q: promo.NewStore(pool), Metrics: domainMetrics}
	handler := newRouter(routerDeps{
		Logger:      logger,
		HTTPMetrics: httpMetrics,
		CORSOrigins: cfg.CORSAllowedOrigins,
		BodyLimit:   cfg.BodyLimitBytes,
		HSTS:        cfg.IsProduction(),
		GlobalLimit: globalLimit,
		PromoLimit: ratelimit.Handler{
			Limiter: ratelimit.Limiter{Client: rdb, Prefix: "ratelimit:promo:"},
			Config: ratelimit.Config{
				Key:    ratelimit.ByClientIP("validate"),
				Window: cfg.PromoRateWindow,
				Max:    cfg.PromoRateMax,
			},
		},
		Idem:           common.Idem{R: rdb, TTL: cfg.IdempotencyTTL},
		Guard:          guard,
		Health:         health.Handler{Checker: health.Deps{Pool: pool, Redis: rdb}},
		Shipping:       &shipping.Handler{Metrics: domainMetrics},
		Promo:          &promo.Handler{Svc: promoSvc},
		Checkout:       &checkout.Handler{Svc: &checkout.Service{Promo: promoSvc}},
		EnableMetrics:  cfg.Obs.MetricsEnabled,
		EnableProfiler: !cfg.IsProduction(),
	})
	if tracingEnabled {
		handler = otelhttp.NewHandler(handler, serviceName)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	health.SetReady(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
