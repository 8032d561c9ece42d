package prefetch

import (
	"runtime"
	"strings"
)

// Caller is the location of the code that executed a statement
type Caller struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

const pkgPath = "github.com/stephenafamo/prefetch."

// findCaller returns the first frame outside this package.
// Frames of the client adapters count as outside
func findCaller(skip int) Caller {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, pkgPath) || strings.HasSuffix(f.File, "_test.go") {
			return Caller{File: f.File, Line: f.Line, Function: f.Function}
		}
		if !more {
			return Caller{}
		}
	}
}
