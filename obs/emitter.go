// Package obs provides pluggable observability for graph execution: a
// structured Event type and an Emitter interface with log/null/buffered/otel
// implementations. Adapted from the teacher's graph/emit package, with
// run/layer/node vocabulary in place of the teacher's run/step/node one.
package obs

import "context"

// Emitter receives events from an Executor run. Implementations must not
// block execution for long and must not panic; a slow or failing Emitter
// should degrade by dropping events rather than stalling the graph.
type Emitter interface {
	Emit(event Event)
	EmitBatch(ctx context.Context, events []Event) error
	Flush(ctx context.Context) error
}
