// Package graph holds the immutable Graph Definition data model: nodes
// keyed by id, directed edges with optional guard expressions, and the
// validation pass that must succeed before an Executor will run a graph
// (§3, §4.3). It is adapted from the teacher's Edge[S]/Predicate[S] shape
// (graph/edge.go in the teacher tree) generalized away from a user generic
// state type toward the spec's dotted-path Context/Value model.
package graph

// Kind discriminates a NodeConfig variant (§3).
type Kind string

const (
	KindRule           Kind = "Rule"
	KindDB             Kind = "DB"
	KindAI             Kind = "AI"
	KindConditional    Kind = "Conditional"
	KindLoop           Kind = "Loop"
	KindTryCatch       Kind = "TryCatch"
	KindRetry          Kind = "Retry"
	KindCircuitBreaker Kind = "CircuitBreaker"
	KindSubgraph       Kind = "Subgraph"
)

// LoopKind discriminates the Loop node's two iteration strategies (§3).
type LoopKind string

const (
	LoopForeach LoopKind = "Foreach"
	LoopWhile   LoopKind = "While"
)

// NodeConfig is the tagged union described in §3. Only the fields relevant
// to Kind are populated; the rest are zero. Common optional fields
// (description, dependencies, field_mappings, params, database) are carried
// on every variant.
type NodeConfig struct {
	ID   string
	Kind Kind

	Description  string
	Dependencies []string
	FieldMapping map[string]string // local param name -> dotted context path
	Params       []string          // ordered context keys substituted into queries
	Database     string            // logical pool name for DB nodes

	// Rule
	RuleSource string
	RuleRef    string

	// DB
	QueryTemplate string

	// AI
	Provider       string
	Model          string
	PromptTemplate string
	SystemPrompt   string
	Tools          []string // names resolved against the executor's WithToolSpec/WithTool registrations
	ResponseFormat string   // "" | "json" | "structured" — supplemental structured-output hint

	// Conditional
	ConditionExpr string
	TrueBranchID  string
	FalseBranchID string

	// Loop
	LoopKind     LoopKind
	BodyNodeID   string
	MaxIteration int
	ItemsKey     string // Foreach
	ItemVar      string // Foreach

	// TryCatch
	TryNodeID     string
	CatchNodeID   string
	FinallyNodeID string

	// Retry
	TargetNodeID string
	MaxAttempts  int
	BackoffMS    int
	Exponential  bool

	// CircuitBreaker (TargetNodeID shared with Retry)
	FailureThreshold int
	TimeoutMS        int

	// Subgraph
	InnerGraph   *Definition
	InputMapping map[string]string // outer dotted path -> inner key
	OutputKey    string            // inner dotted path read as this node's output
}

// Edge connects two nodes, optionally gated by a guard expression evaluated
// against the Context before the `to` node runs (§3 "Edge").
type Edge struct {
	From  string
	To    string
	Guard string // empty means unconditional
}

// Definition is the immutable node/edge data model (§3 "Graph Definition").
type Definition struct {
	ID    string
	Nodes map[string]*NodeConfig
	Edges []Edge

	// compiled caches the tag-resolution/adjacency work so the Executor
	// never does late-bound string lookups on the hot path, per DESIGN
	// NOTES §9 "resolve tags once at validation".
	compiled *compiledGraph
}

type compiledGraph struct {
	inEdges  map[string][]Edge // edges where To == node id
	outEdges map[string][]Edge // edges where From == node id
	sources  []string          // nodes with no in-edges
}

// New creates an empty, mutable-until-Validated Definition.
func New(id string) *Definition {
	return &Definition{ID: id, Nodes: make(map[string]*NodeConfig)}
}

// AddNode registers a node by its config's ID.
func (d *Definition) AddNode(n *NodeConfig) {
	d.Nodes[n.ID] = n
	d.compiled = nil
}

// AddEdge appends an edge.
func (d *Definition) AddEdge(e Edge) {
	d.Edges = append(d.Edges, e)
	d.compiled = nil
}

// InEdges returns edges whose To equals nodeID, in declaration order,
// compiling the adjacency first if it has not been compiled yet.
func (d *Definition) InEdges(nodeID string) []Edge {
	if d.compiled == nil {
		d.Compile()
	}
	return d.compiled.inEdges[nodeID]
}

// OutEdges returns edges whose From equals nodeID, in declaration order.
func (d *Definition) OutEdges(nodeID string) []Edge {
	if d.compiled == nil {
		d.Compile()
	}
	return d.compiled.outEdges[nodeID]
}

// Sources returns node ids with no incoming edges, in map-iteration-stable
// (sorted) order.
func (d *Definition) Sources() []string {
	if d.compiled == nil {
		d.Compile()
	}
	return d.compiled.sources
}

// Compile builds the adjacency indices once, so later layering/dispatch
// never re-scans the edge slice by string comparison.
func (d *Definition) Compile() {
	c := &compiledGraph{
		inEdges:  make(map[string][]Edge),
		outEdges: make(map[string][]Edge),
	}
	hasIn := make(map[string]bool)
	for _, e := range d.Edges {
		c.inEdges[e.To] = append(c.inEdges[e.To], e)
		c.outEdges[e.From] = append(c.outEdges[e.From], e)
		hasIn[e.To] = true
	}
	ids := d.sortedNodeIDs()
	for _, id := range ids {
		if !hasIn[id] {
			c.sources = append(c.sources, id)
		}
	}
	d.compiled = c
}

func (d *Definition) sortedNodeIDs() []string {
	ids := make([]string, 0, len(d.Nodes))
	for id := range d.Nodes {
		ids = append(ids, id)
	}
	sortStrings(ids)
	return ids
}

