package obs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes one line per event to an io.Writer, either as
// key=value text or as JSONL. Adapted from graph/emit/log.go.
type LogEmitter struct {
	w        io.Writer
	jsonMode bool
}

func NewLogEmitter(w io.Writer, jsonMode bool) *LogEmitter {
	if w == nil {
		w = os.Stdout
	}
	return &LogEmitter{w: w, jsonMode: jsonMode}
}

func (l *LogEmitter) Emit(e Event) {
	if l.jsonMode {
		l.emitJSON(e)
		return
	}
	l.emitText(e)
}

func (l *LogEmitter) emitJSON(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(l.w, "{\"error\":%q}\n", err.Error())
		return
	}
	fmt.Fprintf(l.w, "%s\n", data)
}

func (l *LogEmitter) emitText(e Event) {
	fmt.Fprintf(l.w, "[%s] run=%s layer=%d node=%s", e.Msg, e.RunID, e.Layer, e.NodeID)
	if len(e.Meta) > 0 {
		if metaJSON, err := json.Marshal(e.Meta); err == nil {
			fmt.Fprintf(l.w, " meta=%s", metaJSON)
		}
	}
	fmt.Fprint(l.w, "\n")
}

func (l *LogEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		l.Emit(e)
	}
	return nil
}

func (l *LogEmitter) Flush(context.Context) error { return nil }
