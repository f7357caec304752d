package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reasonflow/graphcore/graph"
	"github.com/reasonflow/graphcore/rgcache"
	"github.com/reasonflow/graphcore/rule"
	"github.com/reasonflow/graphcore/value"
)

func ruleNode(id, source string, fieldMapping map[string]string, deps ...string) *graph.NodeConfig {
	return &graph.NodeConfig{
		ID:           id,
		Kind:         graph.KindRule,
		RuleSource:   source,
		FieldMapping: fieldMapping,
		Dependencies: deps,
	}
}

func TestLinearChainPropagatesOutputs(t *testing.T) {
	def := graph.New("linear")
	def.AddNode(ruleNode("double", "out = n * 2", map[string]string{"n": "seed"}))
	def.AddNode(ruleNode("quadruple", "out = n * 2", map[string]string{"n": "double.out"}))
	def.AddEdge(graph.Edge{From: "double", To: "quadruple"})

	exec, err := New(def, WithRuleEvaluator(rule.MockEvaluator{}))
	require.NoError(t, err)

	rep, err := exec.Run(context.Background(), "run-1", map[string]value.Value{
		"seed": value.Number(3),
	})
	require.NoError(t, err)
	require.Nil(t, rep.Err)
	require.Equal(t, [][]string{{"double"}, {"quadruple"}}, exec.layers)

	require.Len(t, rep.Timings, 2)
	require.Equal(t, []string{"double", "quadruple"}, rep.NodeOrder)
}

func TestDiamondLayersRunConcurrentNodesInOneLayer(t *testing.T) {
	def := graph.New("diamond")
	def.AddNode(ruleNode("root", "out = n + 1", map[string]string{"n": "seed"}))
	def.AddNode(ruleNode("left", "out = n * 2", map[string]string{"n": "root.out"}))
	def.AddNode(ruleNode("right", "out = n * 3", map[string]string{"n": "root.out"}))
	def.AddNode(ruleNode("join", "out = a + b", map[string]string{"a": "left.out", "b": "right.out"}))
	def.AddEdge(graph.Edge{From: "root", To: "left"})
	def.AddEdge(graph.Edge{From: "root", To: "right"})
	def.AddEdge(graph.Edge{From: "left", To: "join"})
	def.AddEdge(graph.Edge{From: "right", To: "join"})

	exec, err := New(def, WithRuleEvaluator(rule.MockEvaluator{}), WithMaxParallel(4))
	require.NoError(t, err)

	require.Equal(t, [][]string{{"root"}, {"left", "right"}, {"join"}}, exec.layers)

	rep, err := exec.Run(context.Background(), "run-2", map[string]value.Value{
		"seed": value.Number(1),
	})
	require.NoError(t, err)
	require.Nil(t, rep.Err)
	require.Len(t, rep.Layers, 3)
	require.ElementsMatch(t, []string{"left", "right"}, rep.Layers[1].NodeIDs)
}

func TestGuardedEdgeSkipsNodeWhenFalse(t *testing.T) {
	def := graph.New("guarded")
	def.AddNode(ruleNode("gate", "out = 1", nil))
	def.AddNode(ruleNode("only_if_true", "out = 1", nil))
	def.AddEdge(graph.Edge{From: "gate", To: "only_if_true", Guard: "seed == true"})

	exec, err := New(def, WithRuleEvaluator(rule.MockEvaluator{}))
	require.NoError(t, err)

	rep, err := exec.Run(context.Background(), "run-3", map[string]value.Value{
		"seed": value.Bool(false),
	})
	require.NoError(t, err)
	require.Nil(t, rep.Err)
	require.Len(t, rep.Layers, 2)
	require.Empty(t, rep.Layers[1].NodeIDs)
	require.Equal(t, []string{"only_if_true"}, rep.Layers[1].Skipped)
}

func TestCacheHitSkipsSecondDispatch(t *testing.T) {
	def := graph.New("cached")
	def.AddNode(ruleNode("compute", "out = n * 2", map[string]string{"n": "seed"}))

	cache := rgcache.New(rgcache.Config{Policy: rgcache.PolicyLRU, MaxEntries: 100})
	exec, err := New(def, WithRuleEvaluator(rule.MockEvaluator{}), WithCache(cache))
	require.NoError(t, err)

	_, err = exec.Run(context.Background(), "run-4a", map[string]value.Value{"seed": value.Number(5)})
	require.NoError(t, err)

	rep, err := exec.Run(context.Background(), "run-4b", map[string]value.Value{"seed": value.Number(5)})
	require.NoError(t, err)
	require.Nil(t, rep.Err)
	require.True(t, rep.Timings[0].CacheHit)
	require.Equal(t, int64(1), rep.CacheStats.Hits)
}

func TestNodeFailureAbortsRunWithCodedError(t *testing.T) {
	def := graph.New("broken")
	def.AddNode(ruleNode("bad", "not a valid assignment", nil))

	exec, err := New(def, WithRuleEvaluator(rule.MockEvaluator{}))
	require.NoError(t, err)

	rep, runErr := exec.Run(context.Background(), "run-5", nil)
	require.Error(t, runErr)
	require.NotNil(t, rep.Err)
	require.Equal(t, "bad", rep.Timings[0].NodeID)
}

func TestMissingCollaboratorFailsAtConstruction(t *testing.T) {
	def := graph.New("needs-rule-eval")
	def.AddNode(ruleNode("n1", "out = 1", nil))

	_, err := New(def)
	require.Error(t, err)
}

func TestOverallDeadlineCancelsRun(t *testing.T) {
	def := graph.New("slow")
	def.AddNode(ruleNode("n1", "out = 1", nil))
	def.AddNode(ruleNode("n2", "out = 1", nil, "n1"))

	exec, err := New(def, WithRuleEvaluator(rule.MockEvaluator{}), WithOverallDeadline(1*time.Nanosecond))
	require.NoError(t, err)

	rep, runErr := exec.Run(context.Background(), "run-6", nil)
	require.Error(t, runErr)
	require.NotNil(t, rep.Err)
}
