package executor

import (
	"time"

	"github.com/reasonflow/graphcore/dbpool"
	"github.com/reasonflow/graphcore/llm"
	"github.com/reasonflow/graphcore/obs"
	"github.com/reasonflow/graphcore/rgcache"
	"github.com/reasonflow/graphcore/rgcontext"
	"github.com/reasonflow/graphcore/rule"
	"github.com/reasonflow/graphcore/tool"
)

// config collects every Option before New assembles an Executor, mirroring
// the teacher's engineConfig indirection in graph/options.go (validation
// and composition happen once, against a plain struct, rather than against
// the Executor itself mid-construction).
type config struct {
	maxParallel        int
	defaultNodeTimeout time.Duration
	overallDeadline    time.Duration

	cache        *rgcache.Cache
	contextPool  *rgcontext.Pool
	emitter      obs.Emitter
	metrics      *obs.PrometheusMetrics
	ruleEval     rule.Evaluator
	pools        *dbpool.Registry
	chatModels   map[string]llm.ChatModel
	toolSpecs    map[string]llm.ToolSpec
	tools        map[string]tool.Tool
	costTracker  *llm.CostTracker
}

// Option configures an Executor at construction time.
type Option func(*config)

// WithMaxParallel caps concurrent in-flight node operations within a
// layer's wave (§4.4 "Concurrency limit"). Default 8.
func WithMaxParallel(n int) Option {
	return func(c *config) { c.maxParallel = n }
}

// WithDefaultNodeTimeout sets the per-node deadline applied to every node
// dispatch (§5 "per-node deadline from config"); NodeConfig has no per-node
// override. Default 30s.
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(c *config) { c.defaultNodeTimeout = d }
}

// WithOverallDeadline bounds the entire Run call (§5 "overall deadline on
// the top-level execution").
func WithOverallDeadline(d time.Duration) Option {
	return func(c *config) { c.overallDeadline = d }
}

// WithCache attaches a Cache Manager; nodes are consulted/populated through
// it per §4.4 step 2-4. Without this option, caching is disabled entirely.
func WithCache(cache *rgcache.Cache) Option {
	return func(c *config) { c.cache = cache }
}

// WithContextPool attaches a Context Pool (§4.2) Subgraph nodes and
// top-level Run calls acquire inner Contexts from. Without this option,
// Run allocates a fresh Context directly.
func WithContextPool(pool *rgcontext.Pool) Option {
	return func(c *config) { c.contextPool = pool }
}

// WithEmitter attaches an observability sink. Defaults to obs.NullEmitter.
func WithEmitter(e obs.Emitter) Option {
	return func(c *config) { c.emitter = e }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *obs.PrometheusMetrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithRuleEvaluator installs the opaque rule-engine collaborator used by
// Rule nodes and by Conditional/Loop's condition_expr evaluation (§4.6.1,
// §1). Required if the graph contains any Rule, Conditional or Loop node
// (Foreach loops included).
func WithRuleEvaluator(eval rule.Evaluator) Option {
	return func(c *config) { c.ruleEval = eval }
}

// WithPoolRegistry installs the named database pool registry DB nodes
// route through (§4.6.2, §6).
func WithPoolRegistry(reg *dbpool.Registry) Option {
	return func(c *config) { c.pools = reg }
}

// WithChatModel registers a llm.ChatModel under a provider name; AI nodes
// resolve their `provider` field against this set at build time.
func WithChatModel(provider string, model llm.ChatModel) Option {
	return func(c *config) {
		if c.chatModels == nil {
			c.chatModels = make(map[string]llm.ChatModel)
		}
		c.chatModels[provider] = model
	}
}

// WithToolSpec registers a tool specification AI nodes can reference by
// name in their `tools` field (§4.6 supplemental tool-calling support).
func WithToolSpec(name string, spec llm.ToolSpec) Option {
	return func(c *config) {
		if c.toolSpecs == nil {
			c.toolSpecs = make(map[string]llm.ToolSpec)
		}
		c.toolSpecs[name] = spec
	}
}

// WithTool registers an executable tool.Tool under name; AI nodes invoke
// it when the model returns a matching tool call (§4.6.3 addendum). name
// should match the corresponding ToolSpec's Name registered via
// WithToolSpec, though an AI node may reference a ToolSpec with no
// executable counterpart (tool calls the graph author handles downstream
// instead of letting the node execute them inline).
func WithTool(name string, t tool.Tool) Option {
	return func(c *config) {
		if c.tools == nil {
			c.tools = make(map[string]tool.Tool)
		}
		c.tools[name] = t
	}
}

// WithCostTracker attaches a shared llm.CostTracker every AI node records
// token usage/cost into (supplemental, §4.6.3).
func WithCostTracker(ct *llm.CostTracker) Option {
	return func(c *config) { c.costTracker = ct }
}

func defaultConfig() config {
	return config{
		maxParallel:        8,
		defaultNodeTimeout: 30 * time.Second,
		emitter:            obs.NewNullEmitter(),
	}
}
