package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost/toybox",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	env := baseEnv()
	for _, key := range []string{"APP_ENV", "PORT", "JWT_ISSUER", "IDEMPOTENCY_TTL", "PROMO_VALIDATE_RATE_MAX",
		"PROMO_VALIDATE_RATE_WINDOW", "HTTP_BODY_LIMIT_BYTES", "MIGRATE_ON_START", "API_RATE_LIMIT", "OBS_ENABLE_TRACING"} {
		env[key] = ""
	}
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "toybox-storefront", cfg.JWTIssuer)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, 30, cfg.PromoRateMax)
	require.Equal(t, time.Minute, cfg.PromoRateWindow)
	require.Equal(t, int64(1<<20), cfg.BodyLimitBytes)
	require.False(t, cfg.MigrateOnStart)
	require.Equal(t, "600-M", cfg.APIRate)
	require.False(t, cfg.Obs.TracingEnabled)
	require.True(t, cfg.Obs.MetricsEnabled)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["APP_ENV"] = "production"
	env["PORT"] = ":9090"
	env["CORS_ALLOWED_ORIGINS"] = "https://toybox.com.bd, https://admin.toybox.com.bd,"
	env["PROMO_VALIDATE_RATE_MAX"] = "5"
	env["PROMO_VALIDATE_RATE_WINDOW"] = "30s"
	env["MIGRATE_ON_START"] = "true"
	env["IDEMPOTENCY_TTL"] = "not-a-duration"
	env["OBS_OTLP_HEADERS"] = "x-api-key=abc"
	env["OBS_OTLP_INSECURE"] = "true"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, []string{"https://toybox.com.bd", "https://admin.toybox.com.bd"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 5, cfg.PromoRateMax)
	require.Equal(t, 30*time.Second, cfg.PromoRateWindow)
	require.True(t, cfg.MigrateOnStart)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
	require.Equal(t, "x-api-key=abc", cfg.Obs.OTLPHeaders)
	require.True(t, cfg.Obs.OTLPInsecure)
}

func TestLoadRequiresSecrets(t *testing.T) {
	env := baseEnv()
	env["JWT_SECRET"] = ""
	_, err := LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["PROMO_VALIDATE_RATE_MAX"] = "0"
	_, err = LoadForTests(env)
	require.Error(t, err)
}
