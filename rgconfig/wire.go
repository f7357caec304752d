package rgconfig

import (
	"github.com/reasonflow/graphcore/dbpool"
	"github.com/reasonflow/graphcore/executor"
	"github.com/reasonflow/graphcore/llm"
	"github.com/reasonflow/graphcore/llm/anthropic"
	"github.com/reasonflow/graphcore/llm/google"
	"github.com/reasonflow/graphcore/llm/openai"
	"github.com/reasonflow/graphcore/rgcache"
	"github.com/reasonflow/graphcore/rgcontext"
)

// BuildCache constructs a Cache Manager from the configured limits/policy
// (§4.5). Policy names are matched case-sensitively against the lowercase
// spellings Load reads from the environment.
func (c *Config) BuildCache() *rgcache.Cache {
	return rgcache.New(rgcache.Config{
		MaxEntries:    c.CacheMaxEntries,
		MaxBytes:      c.CacheMaxBytes,
		Policy:        c.cachePolicy(),
		DefaultTTL:    c.CacheDefaultTTL,
		SweepInterval: c.CacheSweepInterval,
	})
}

func (c *Config) cachePolicy() rgcache.Policy {
	switch c.CachePolicy {
	case "lfu":
		return rgcache.PolicyLFU
	case "fifo":
		return rgcache.PolicyFIFO
	case "none":
		return rgcache.PolicyNone
	default:
		return rgcache.PolicyLRU
	}
}

// BuildPoolRegistry opens every DSN Config names and registers it under
// its driver name, applying DefaultPool as the fallback DB nodes route to
// when their own `database` field is empty (§4.6.2). Returns a nil
// registry (not an error) when no DSN is configured — a graph with no DB
// node simply never needs one.
func (c *Config) BuildPoolRegistry() (*dbpool.Registry, error) {
	if c.SQLiteDSN == "" && c.MySQLDSN == "" {
		return nil, nil
	}

	reg := dbpool.NewRegistry()
	if c.SQLiteDSN != "" {
		db, err := dbpool.OpenSQLite(c.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		reg.Register("sqlite", db)
	}
	if c.MySQLDSN != "" {
		db, err := dbpool.OpenMySQL(c.MySQLDSN)
		if err != nil {
			return nil, err
		}
		reg.Register("mysql", db)
	}
	if c.DefaultPool != "" {
		if db, err := reg.Lookup(c.DefaultPool); err == nil {
			reg.SetDefault(db)
		}
	}
	return reg, nil
}

// BuildChatModels constructs one llm.ChatModel per provider with a
// non-empty API key, keyed by the provider name an AI node's `provider`
// field references.
func (c *Config) BuildChatModels() map[string]llm.ChatModel {
	models := make(map[string]llm.ChatModel)
	if c.AnthropicAPIKey != "" {
		models["anthropic"] = anthropic.NewChatModel(c.AnthropicAPIKey, c.AnthropicModel)
	}
	if c.OpenAIAPIKey != "" {
		models["openai"] = openai.NewChatModel(c.OpenAIAPIKey, c.OpenAIModel)
	}
	if c.GoogleAPIKey != "" {
		models["google"] = google.NewChatModel(c.GoogleAPIKey, c.GoogleModel)
	}
	return models
}

// BuildContextPool constructs the Context Pool (§4.2) from the configured
// prewarm/max/target-fields knobs.
func (c *Config) BuildContextPool() *rgcontext.Pool {
	return rgcontext.NewPool(c.ContextPoolPrewarm, c.ContextPoolMax, c.ContextPoolTargetFields)
}

// Options assembles the collaborators Config can build without error
// (cache, chat models, context pool, concurrency/timeout knobs) into an
// executor.Option slice, so a caller can write executor.New(def,
// cfg.Options()...) with the *Config returned by Load instead of wiring
// each collaborator by hand. The DB pool registry is not included: callers
// with DB nodes append executor.WithPoolRegistry with the result of
// BuildPoolRegistry. Callers that also need WithRuleEvaluator,
// WithEmitter/WithMetrics, or WithTool/WithToolSpec append those
// separately — Config has no opinion on the rule engine, tool
// implementations, or observability sinks.
func (c *Config) Options() []executor.Option {
	opts := []executor.Option{
		executor.WithMaxParallel(c.MaxParallel),
		executor.WithDefaultNodeTimeout(c.DefaultNodeTimeout),
		executor.WithContextPool(c.BuildContextPool()),
		executor.WithCache(c.BuildCache()),
	}
	if c.OverallDeadline > 0 {
		opts = append(opts, executor.WithOverallDeadline(c.OverallDeadline))
	}
	for provider, model := range c.BuildChatModels() {
		opts = append(opts, executor.WithChatModel(provider, model))
	}
	return opts
}
