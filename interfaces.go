package prefetch

import (
	"context"
)

// DriverOptions are passed untouched to [Client.Prepare]
// Each client documents the keys it understands
type DriverOptions = map[string]any

// Client is the database connection a [Statement] runs against
// it is expected to prepare the query and return a handle to execute it
type Client interface {
	Prepare(ctx context.Context, query string, opts DriverOptions) (ClientStatement, error)
}

// ClientStatement is a prepared statement returned by a [Client]
type ClientStatement interface {
	// Execute runs the statement with the given arguments.
	// The returned value is handed back to the caller of [Statement.Execute] as is
	Execute(ctx context.Context, args ...any) (any, error)
	// FetchAllRows returns every row produced by the last execution
	FetchAllRows() ([]Row, error)
	// RowCount returns the number of rows matched by the last execution
	// as reported by the driver
	RowCount() (int64, error)
	// Close releases the statement
	Close() error
}

// ErrorCoder can be implemented by a [Client] to report a driver specific
// code for an error it returned. The code ends up in [FailureEvent]
type ErrorCoder interface {
	ErrorCode(error) string
}

// EventSink receives the lifecycle events of every execution.
// Publishing is fire and forget, a sink must not block the caller for long
type EventSink interface {
	Publish(ctx context.Context, e Event)
}

// EventFilter can be implemented by an [EventSink] to skip building
// events it is not interested in
type EventFilter interface {
	Enabled(kind EventKind) bool
}
