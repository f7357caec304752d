// Package rgconfig loads process configuration from a .env file plus the
// environment, the way the teacher's example commands read provider API
// keys and connection strings via scattered os.Getenv calls (examples/llm,
// examples/multi-llm-review) — consolidated here into one typed Config and
// one Load call, using github.com/joho/godotenv for the .env layer.
package rgconfig

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven knob an Executor's collaborators
// need at startup. Zero values mean "not configured" — callers decide
// whether that's fatal (e.g. no provider keys at all) or just means a
// narrower set of node kinds is usable.
type Config struct {
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	GoogleAPIKey    string
	GoogleModel     string

	SQLiteDSN    string
	MySQLDSN     string
	DefaultPool  string // "sqlite" or "mysql", selects the DB node's default pool

	CacheMaxEntries    int64
	CacheMaxBytes      int64
	CachePolicy        string // "lru", "lfu", "fifo", "none"
	CacheDefaultTTL    time.Duration
	CacheSweepInterval time.Duration

	ContextPoolPrewarm      int
	ContextPoolMax          int
	ContextPoolTargetFields int

	MaxParallel        int
	DefaultNodeTimeout time.Duration
	OverallDeadline    time.Duration

	MetricsEnabled bool
	LogJSON        bool
}

// Load reads envPath (if it exists — a missing .env is not an error, the
// same tolerance godotenv.Load itself has for an explicit missing file
// being a common, non-fatal deployment shape) and then populates Config
// from the process environment, applying the defaults documented on each
// field's corresponding With* executor.Option when a variable is absent.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := &Config{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     envOr("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		GoogleModel:     envOr("GOOGLE_MODEL", "gemini-1.5-flash"),

		SQLiteDSN:   os.Getenv("GRAPHCORE_SQLITE_DSN"),
		MySQLDSN:    os.Getenv("GRAPHCORE_MYSQL_DSN"),
		DefaultPool: os.Getenv("GRAPHCORE_DEFAULT_POOL"),

		CacheMaxEntries:    envInt64("GRAPHCORE_CACHE_MAX_ENTRIES", 10_000),
		CacheMaxBytes:      envInt64("GRAPHCORE_CACHE_MAX_BYTES", 0),
		CachePolicy:        envOr("GRAPHCORE_CACHE_POLICY", "lru"),
		CacheDefaultTTL:    envDuration("GRAPHCORE_CACHE_DEFAULT_TTL", 5*time.Minute),
		CacheSweepInterval: envDuration("GRAPHCORE_CACHE_SWEEP_INTERVAL", time.Minute),

		ContextPoolPrewarm:      envInt("GRAPHCORE_CONTEXT_POOL_PREWARM", 0),
		ContextPoolMax:          envInt("GRAPHCORE_CONTEXT_POOL_MAX", 64),
		ContextPoolTargetFields: envInt("GRAPHCORE_CONTEXT_POOL_TARGET_FIELDS", 16),

		MaxParallel:        envInt("GRAPHCORE_MAX_PARALLEL", 8),
		DefaultNodeTimeout: envDuration("GRAPHCORE_DEFAULT_NODE_TIMEOUT", 30*time.Second),
		OverallDeadline:    envDuration("GRAPHCORE_OVERALL_DEADLINE", 0),

		MetricsEnabled: envBool("GRAPHCORE_METRICS_ENABLED", false),
		LogJSON:        envBool("GRAPHCORE_LOG_JSON", false),
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
