// Package config builds runtime configuration from environment variables so
// main stays lean. Every tunable of the verification pipeline lives here;
// nothing in the domain packages reads the environment directly.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// StoreBackend selects the submission store implementation.
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreRedis    StoreBackend = "redis"
	StorePostgres StoreBackend = "postgres"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	// AuthDisabled turns off bearer auth on the API, intended for local
	// development only.
	AuthDisabled bool
}

// RedisConfig carries go-redis client settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig carries the audit event publisher settings. An empty broker
// list disables Kafka publishing; events still reach the in-process audit
// store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// OracleWeights holds the per-signal aggregation weights. They are
// configuration, not per-call constants; a failed provider is zero-weighted
// at aggregation time and the remainder renormalized.
type OracleWeights struct {
	Existence map[string]float64
	Ownership map[string]float64
}

// ConsensusThresholds are the hard eligibility rules. The defaults are the
// demo thresholds; production deployments are expected to override them via
// environment (historically 0.90 existence / 0.80 ownership).
type ConsensusThresholds struct {
	MinExistence float64
	MinOwnership float64
	MaxFraud     float64
}

// FraudConfig holds the anomaly severity cutoffs on rule score contribution.
type FraudConfig struct {
	CriticalScore float64
	HighScore     float64
}

// PipelineConfig bounds each verification stage. A stage that exceeds its
// timeout fails the submission (providers inside the oracle stage degrade
// individually instead).
type PipelineConfig struct {
	ProviderTimeout time.Duration
	StageTimeout    time.Duration
	// Seed fixes the ABM simulation RNG. Zero means time-seeded, which makes
	// the simulation non-deterministic across runs.
	Seed int64
}

// Config is the full application configuration.
type Config struct {
	Server      Server
	Store       StoreBackend
	Redis       RedisConfig
	PostgresURL string
	Kafka       KafkaConfig
	Weights     OracleWeights
	Thresholds  ConsensusThresholds
	Fraud       FraudConfig
	Pipeline    PipelineConfig
}

// FromEnv builds a Config from environment variables, applying defaults
// suitable for local development.
func FromEnv() Config {
	cfg := Config{
		Server: Server{
			Addr:          envStr("ASSETGATE_ADDR", ":8080"),
			JWTSigningKey: envStr("ASSETGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			AuthDisabled:  os.Getenv("ASSETGATE_AUTH_DISABLED") == "true",
		},
		Store: StoreBackend(envStr("ASSETGATE_STORE", string(StoreMemory))),
		Redis: RedisConfig{
			URL:          os.Getenv("ASSETGATE_REDIS_URL"),
			PoolSize:     envInt("ASSETGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("ASSETGATE_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDur("ASSETGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDur("ASSETGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDur("ASSETGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		PostgresURL: os.Getenv("ASSETGATE_POSTGRES_URL"),
		Kafka: KafkaConfig{
			Brokers: envList("ASSETGATE_KAFKA_BROKERS"),
			Topic:   envStr("ASSETGATE_KAFKA_TOPIC", "assetgate.audit"),
		},
		Weights:    DefaultOracleWeights(),
		Thresholds: DefaultThresholds(),
		Fraud: FraudConfig{
			CriticalScore: envFloat("ASSETGATE_FRAUD_CRITICAL_SCORE", 0.20),
			HighScore:     envFloat("ASSETGATE_FRAUD_HIGH_SCORE", 0.10),
		},
		Pipeline: PipelineConfig{
			ProviderTimeout: envDur("ASSETGATE_PROVIDER_TIMEOUT", 10*time.Second),
			StageTimeout:    envDur("ASSETGATE_STAGE_TIMEOUT", 60*time.Second),
			Seed:            int64(envInt("ASSETGATE_ABM_SEED", 0)),
		},
	}

	cfg.Thresholds.MinExistence = envFloat("ASSETGATE_MIN_EXISTENCE", cfg.Thresholds.MinExistence)
	cfg.Thresholds.MinOwnership = envFloat("ASSETGATE_MIN_OWNERSHIP", cfg.Thresholds.MinOwnership)
	cfg.Thresholds.MaxFraud = envFloat("ASSETGATE_MAX_FRAUD", cfg.Thresholds.MaxFraud)

	return cfg
}

// DefaultOracleWeights returns the standard signal weights. Each group sums
// to 1; renormalization at aggregation time keeps that invariant when a
// provider drops out.
func DefaultOracleWeights() OracleWeights {
	return OracleWeights{
		Existence: map[string]float64{
			"satellite":    0.25,
			"landregistry": 0.30,
			"vision":       0.15,
			"activity":     0.15,
			"historical":   0.15,
		},
		Ownership: map[string]float64{
			"did":         0.30,
			"registryown": 0.45,
			"reputation":  0.25,
		},
	}
}

// DefaultThresholds returns the demo eligibility thresholds. These were
// deliberately lowered from the stricter production values (0.90 existence,
// 0.80 ownership); override via environment for production use.
func DefaultThresholds() ConsensusThresholds {
	return ConsensusThresholds{
		MinExistence: 0.70,
		MinOwnership: 0.70,
		MaxFraud:     5.0,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
