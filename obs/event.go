package obs

// Event is a single observability event emitted during a graph execution.
// Grounded on the teacher's emit.Event (graph/emit/event.go), renamed from
// step-oriented fields to the layer-oriented vocabulary this scheduler uses.
type Event struct {
	// RunID identifies the execution that produced this event.
	RunID string

	// Layer is the 0-indexed topological layer the event belongs to, or -1
	// for run-level events (start/complete/cancel).
	Layer int

	// NodeID is empty for run- or layer-level events.
	NodeID string

	// Msg names the event kind. The executor emits "run_start",
	// "run_complete", "run_error", "layer_start", "node_dispatch",
	// "node_complete" (a cache hit is reported via its "cache_hit" meta) and
	// "node_error".
	Msg string

	// Meta carries event-specific structured data, e.g. "duration_ms",
	// "cache_hit", "error", "attempt".
	Meta map[string]any
}
