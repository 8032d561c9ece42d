package prefetch

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Debug returns a sink that prints the query and its args to w
// every time a statement starts executing.
// If w is nil, os.Stdout is used
func Debug(w io.Writer) EventSink {
	if w == nil {
		w = os.Stdout
	}

	return debugSink{w: w}
}

type debugSink struct {
	w io.Writer
}

func (d debugSink) Enabled(kind EventKind) bool {
	return kind == EventStart
}

func (d debugSink) Publish(ctx context.Context, e Event) {
	attempt := e.Attempt()
	fmt.Fprintln(d.w, attempt.Query)
	fmt.Fprintln(d.w, attempt.Args)
}
