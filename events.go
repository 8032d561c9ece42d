package prefetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// EventKind identifies a lifecycle event
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventEnd
	EventFailure
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventFailure:
		return "failure"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one of [StartEvent], [EndEvent] or [FailureEvent]
type Event interface {
	Kind() EventKind
	Attempt() Execution
}

// Execution identifies one call to [Statement.Execute]
// All the events of the same call carry the same Execution
type Execution struct {
	StatementID uint64    `json:"statement_id"`
	Key         string    `json:"key"`
	Target      string    `json:"target"`
	Query       string    `json:"query"`
	Args        []any     `json:"args"`
	Caller      Caller    `json:"caller"`
	Time        time.Time `json:"time"`
}

// Attempt returns the execution the event belongs to
func (e Execution) Attempt() Execution {
	return e
}

// StartEvent is published before the query is sent to the client
type StartEvent struct {
	Execution
}

func (StartEvent) Kind() EventKind { return EventStart }

// EndEvent is published once the result has been buffered
type EndEvent struct {
	Execution
	EndTime time.Time `json:"end_time"`
}

func (EndEvent) Kind() EventKind { return EventEnd }

// Duration is the time between the start and the end of the execution
func (e EndEvent) Duration() time.Duration {
	return e.EndTime.Sub(e.Time)
}

// FailureEvent is published when the client fails to run the query
type FailureEvent struct {
	Execution
	ErrorClass   string `json:"error_class"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func (FailureEvent) Kind() EventKind { return EventFailure }

// Events returns a sink that publishes to every given sink in order
func Events(sinks ...EventSink) EventSink {
	return multiSink(sinks)
}

type multiSink []EventSink

func (m multiSink) Publish(ctx context.Context, e Event) {
	for _, s := range m {
		if !enabled(s, e.Kind()) {
			continue
		}
		s.Publish(ctx, e)
	}
}

func (m multiSink) Enabled(kind EventKind) bool {
	for _, s := range m {
		if enabled(s, kind) {
			return true
		}
	}

	return false
}

// OnlyEvents wraps a sink so it only receives the given kinds
func OnlyEvents(sink EventSink, kinds ...EventKind) EventSink {
	allowed := make(map[EventKind]bool, len(kinds))
	for _, k := range kinds {
		allowed[k] = true
	}

	return filteredSink{sink: sink, allowed: allowed}
}

type filteredSink struct {
	sink    EventSink
	allowed map[EventKind]bool
}

func (f filteredSink) Publish(ctx context.Context, e Event) {
	f.sink.Publish(ctx, e)
}

func (f filteredSink) Enabled(kind EventKind) bool {
	return f.allowed[kind] && enabled(f.sink, kind)
}

func enabled(sink EventSink, kind EventKind) bool {
	if sink == nil {
		return false
	}

	if f, ok := sink.(EventFilter); ok {
		return f.Enabled(kind)
	}

	return true
}

// publish hands the event to the sink.
// A panicking sink is logged and never reaches the caller
func publish(ctx context.Context, sink EventSink, logger *slog.Logger, e Event) {
	defer func() {
		if p := recover(); p != nil {
			logger.ErrorContext(ctx, "prefetch: event sink panicked",
				slog.String("event", e.Kind().String()),
				slog.Any("panic", p),
			)
		}
	}()

	sink.Publish(ctx, e)
}
