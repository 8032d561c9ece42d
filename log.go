package prefetch

import (
	"context"
	"log/slog"
)

// LogSink returns a sink that writes every lifecycle event to l.
// Start and end events are logged at debug level, failures at error level.
// If l is nil, slog.Default() is used
func LogSink(l *slog.Logger) EventSink {
	if l == nil {
		l = slog.Default()
	}

	return logSink{l: l}
}

type logSink struct {
	l *slog.Logger
}

func (s logSink) Enabled(kind EventKind) bool {
	level := slog.LevelDebug
	if kind == EventFailure {
		level = slog.LevelError
	}

	return s.l.Enabled(context.Background(), level)
}

func (s logSink) Publish(ctx context.Context, e Event) {
	attempt := e.Attempt()
	attrs := []slog.Attr{
		slog.Uint64("statement_id", attempt.StatementID),
		slog.String("key", attempt.Key),
		slog.String("target", attempt.Target),
		slog.String("query", attempt.Query),
		slog.Any("args", attempt.Args),
		slog.String("caller", attempt.Caller.Function),
	}

	switch ev := e.(type) {
	case StartEvent:
		s.l.LogAttrs(ctx, slog.LevelDebug, "prefetch: statement started", attrs...)

	case EndEvent:
		attrs = append(attrs, slog.Duration("duration", ev.Duration()))
		s.l.LogAttrs(ctx, slog.LevelDebug, "prefetch: statement finished", attrs...)

	case FailureEvent:
		attrs = append(attrs,
			slog.String("error_class", ev.ErrorClass),
			slog.String("error_code", ev.ErrorCode),
			slog.String("error", ev.ErrorMessage),
		)
		s.l.LogAttrs(ctx, slog.LevelError, "prefetch: statement failed", attrs...)
	}
}
