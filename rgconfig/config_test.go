package rgconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reasonflow/graphcore/rgcache"
)

func TestLoadAppliesDefaultsWhenEnvironmentUnset(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "claude-3-5-sonnet-latest", cfg.AnthropicModel)
	require.Equal(t, int64(10_000), cfg.CacheMaxEntries)
	require.Equal(t, "lru", cfg.CachePolicy)
	require.Equal(t, 5*time.Minute, cfg.CacheDefaultTTL)
	require.Equal(t, 8, cfg.MaxParallel)
	require.False(t, cfg.MetricsEnabled)
}

func TestLoadReadsOverridesFromEnvironment(t *testing.T) {
	t.Setenv("GRAPHCORE_CACHE_POLICY", "lfu")
	t.Setenv("GRAPHCORE_CACHE_MAX_ENTRIES", "500")
	t.Setenv("GRAPHCORE_MAX_PARALLEL", "3")
	t.Setenv("GRAPHCORE_METRICS_ENABLED", "true")
	t.Setenv("GRAPHCORE_DEFAULT_NODE_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "lfu", cfg.CachePolicy)
	require.Equal(t, int64(500), cfg.CacheMaxEntries)
	require.Equal(t, 3, cfg.MaxParallel)
	require.True(t, cfg.MetricsEnabled)
	require.Equal(t, 2*time.Second, cfg.DefaultNodeTimeout)
}

func TestLoadFallsBackOnUnparsableNumericEnvValue(t *testing.T) {
	t.Setenv("GRAPHCORE_MAX_PARALLEL", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 8, cfg.MaxParallel)
}

func TestLoadToleratesMissingEnvFile(t *testing.T) {
	_, err := Load("/nonexistent/path/to/.env")
	require.NoError(t, err)
}

func TestCachePolicyMapsKnownNamesAndDefaultsToLRU(t *testing.T) {
	cfg := &Config{CachePolicy: "fifo", CacheMaxEntries: 10}
	require.Equal(t, rgcache.PolicyFIFO, cfg.cachePolicy())

	cfg.CachePolicy = "none"
	require.Equal(t, rgcache.PolicyNone, cfg.cachePolicy())

	cfg.CachePolicy = "unrecognized"
	require.Equal(t, rgcache.PolicyLRU, cfg.cachePolicy())
}

func TestBuildPoolRegistryReturnsNilWhenNoDSNConfigured(t *testing.T) {
	cfg := &Config{}
	reg, err := cfg.BuildPoolRegistry()
	require.NoError(t, err)
	require.Nil(t, reg)
}

func TestBuildPoolRegistryRegistersSQLiteAndSetsDefault(t *testing.T) {
	cfg := &Config{SQLiteDSN: ":memory:", DefaultPool: "sqlite"}
	reg, err := cfg.BuildPoolRegistry()
	require.NoError(t, err)
	require.NotNil(t, reg)
	require.True(t, reg.Has("sqlite"))
}

func TestBuildChatModelsOnlyIncludesProvidersWithAPIKeys(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "sk-test", OpenAIModel: "gpt-4o-mini"}
	models := cfg.BuildChatModels()
	require.Len(t, models, 1)
	_, ok := models["openai"]
	require.True(t, ok)
}

func TestOptionsIncludesOverallDeadlineOnlyWhenConfigured(t *testing.T) {
	cfg := &Config{MaxParallel: 4, DefaultNodeTimeout: time.Second, CacheMaxEntries: 10}
	opts := cfg.Options()
	require.NotEmpty(t, opts)

	cfg.OverallDeadline = 10 * time.Second
	optsWithDeadline := cfg.Options()
	require.Greater(t, len(optsWithDeadline), len(opts))
}
