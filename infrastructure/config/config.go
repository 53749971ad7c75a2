// Package config loads environment-derived configuration for the
// governance core: retry policy, scaling thresholds, quota limits, and
// identity verification key (spec.md §6 "Environment-derived configuration").
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// RetryConfig configures the default retry/backoff policy for task
// messages and scheduled scans.
type RetryConfig struct {
	MaxRetries   int           `env:"GOV_RETRY_MAX_RETRIES,default=3"`
	InitialDelay time.Duration `env:"GOV_RETRY_INITIAL_DELAY,default=1s"`
	Multiplier   float64       `env:"GOV_RETRY_MULTIPLIER,default=2.0"`
	MaxDelay     time.Duration `env:"GOV_RETRY_MAX_DELAY,default=5m"`
}

// ScalingConfig configures the task-queue auto-scaler (spec.md §4.H).
type ScalingConfig struct {
	MinWorkers         int           `env:"GOV_SCALE_MIN_WORKERS,default=1"`
	MaxWorkers         int           `env:"GOV_SCALE_MAX_WORKERS,default=10"`
	ScaleUpThreshold   int           `env:"GOV_SCALE_UP_THRESHOLD,default=10"`
	ScaleDownThreshold int           `env:"GOV_SCALE_DOWN_THRESHOLD,default=2"`
	ScaleUpIncrement   int           `env:"GOV_SCALE_UP_INCREMENT,default=1"`
	ScaleDownIncrement int           `env:"GOV_SCALE_DOWN_INCREMENT,default=1"`
	ScaleUpCooldown    time.Duration `env:"GOV_SCALE_UP_COOLDOWN,default=1m"`
	ScaleDownCooldown  time.Duration `env:"GOV_SCALE_DOWN_COOLDOWN,default=2m"`
}

// QuotaConfig configures the default tenant metering quota thresholds
// and the burst-admission rate limiter in front of metering.RecordEvent.
type QuotaConfig struct {
	WarningThreshold  float64 `env:"GOV_QUOTA_WARNING_PCT,default=70"`
	CriticalThreshold float64 `env:"GOV_QUOTA_CRITICAL_PCT,default=90"`
	RateLimitPerSecond float64 `env:"GOV_QUOTA_RATE_PER_SECOND,default=100"`
	RateLimitBurst     int     `env:"GOV_QUOTA_RATE_BURST,default=200"`
}

// IdentityConfig configures privileged-call identity verification.
type IdentityConfig struct {
	PublicKeyPath string `env:"GOV_IDENTITY_PUBLIC_KEY_PATH"`
}

// TenantConfig configures tenant isolation behavior.
type TenantConfig struct {
	DefaultTenantID string `env:"GOV_DEFAULT_TENANT_ID,default=default"`
}

// CDEConfig configures the critical-data-element scoring service.
type CDEConfig struct {
	WeightsPolicyPath string `env:"GOV_CDE_WEIGHTS_POLICY_PATH"`
}

// RedisConfig configures the optional Redis-backed queue.
type RedisConfig struct {
	Addr     string `env:"GOV_REDIS_ADDR,default=localhost:6379"`
	Password string `env:"GOV_REDIS_PASSWORD"`
	DB       int    `env:"GOV_REDIS_DB,default=0"`
}

// Config is the full environment-derived configuration tree.
type Config struct {
	ServerHost string `env:"GOV_SERVER_HOST,default=0.0.0.0"`
	ServerPort int    `env:"GOV_SERVER_PORT,default=8080"`
	LogLevel   string `env:"LOG_LEVEL,default=info"`
	LogFormat  string `env:"LOG_FORMAT,default=json"`

	Retry    RetryConfig
	Scaling  ScalingConfig
	Quota    QuotaConfig
	Identity IdentityConfig
	Tenant   TenantConfig
	Redis    RedisConfig
	CDE      CDEConfig
}

// Load reads a .env file (if present) and decodes environment variables
// into a Config, applying the defaults declared via struct tags.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config: load .env: %w", err)
		}
	}

	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode environment: %w", err)
	}
	return &cfg, nil
}
