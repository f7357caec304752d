package llm

import (
	"sync"
	"time"
)

// ModelPricing is input/output cost per 1M tokens in USD, grounded on the
// teacher's graph/cost.go static pricing table.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// defaultPricing carries forward the teacher's pricing snapshot. Prices
// drift; callers needing current numbers should call SetPricing.
var defaultPricing = map[string]ModelPricing{
	"gpt-4o":                     {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":                {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4-turbo":                {InputPer1M: 10.00, OutputPer1M: 30.00},
	"gpt-3.5-turbo":              {InputPer1M: 0.50, OutputPer1M: 1.50},
	"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-opus-20240229":     {InputPer1M: 15.00, OutputPer1M: 75.00},
	"claude-3-sonnet-20240229":   {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},
	"gemini-1.5-pro":             {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash":           {InputPer1M: 0.075, OutputPer1M: 0.30},
	"gemini-1.0-pro":             {InputPer1M: 0.50, OutputPer1M: 1.50},
}

// Call is one recorded invocation, used to build the per-run cost section
// of an execution report (report.Report).
type Call struct {
	NodeID       string
	Model        string
	InputTokens  int
	OutputTokens int
	CostUSD      float64
	At           time.Time
}

// CostTracker accumulates LLM spend across a run. One tracker is shared by
// every AI Node instance the executor dispatches, keyed by RunID so a
// report can attribute cost without each node carrying its own ledger.
type CostTracker struct {
	mu       sync.Mutex
	RunID    string
	pricing  map[string]ModelPricing
	calls    []Call
	total    float64
	byModel  map[string]float64
	byNode   map[string]float64
	inTokens int64
	outTok   int64
}

func NewCostTracker(runID string) *CostTracker {
	return &CostTracker{
		RunID:   runID,
		pricing: defaultPricing,
		byModel: make(map[string]float64),
		byNode:  make(map[string]float64),
	}
}

// SetPricing overrides or adds a model's per-1M-token rate.
func (ct *CostTracker) SetPricing(model string, inPer1M, outPer1M float64) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.pricing == nil {
		ct.pricing = make(map[string]ModelPricing)
	}
	ct.pricing[model] = ModelPricing{InputPer1M: inPer1M, OutputPer1M: outPer1M}
}

// Record logs one call's usage and returns its computed cost. An unknown
// model is recorded at zero cost rather than rejected — cost accounting is
// observability, not a gate on the AI Node's execution.
func (ct *CostTracker) Record(nodeID, model string, in, out int, at time.Time) float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	pricing := ct.pricing[model]
	cost := (float64(in)/1_000_000.0)*pricing.InputPer1M + (float64(out)/1_000_000.0)*pricing.OutputPer1M

	ct.calls = append(ct.calls, Call{NodeID: nodeID, Model: model, InputTokens: in, OutputTokens: out, CostUSD: cost, At: at})
	ct.total += cost
	ct.byModel[model] += cost
	ct.byNode[nodeID] += cost
	ct.inTokens += int64(in)
	ct.outTok += int64(out)
	return cost
}

func (ct *CostTracker) TotalCost() float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.total
}

func (ct *CostTracker) CostByModel() map[string]float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make(map[string]float64, len(ct.byModel))
	for k, v := range ct.byModel {
		out[k] = v
	}
	return out
}

func (ct *CostTracker) CostByNode() map[string]float64 {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make(map[string]float64, len(ct.byNode))
	for k, v := range ct.byNode {
		out[k] = v
	}
	return out
}

func (ct *CostTracker) Calls() []Call {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make([]Call, len(ct.calls))
	copy(out, ct.calls)
	return out
}

func (ct *CostTracker) TokenUsage() (in, out int64) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.inTokens, ct.outTok
}
