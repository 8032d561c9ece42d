package prefetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

//nolint:gochecknoglobals
var statementIDs atomic.Uint64

// Option configures a [Statement]
type Option func(*Statement)

// WithRowCount enables [Statement.RowCount].
// Leave it off for SELECT queries, the count is only meaningful for
// statements that change rows
func WithRowCount(enabled bool) Option {
	return func(s *Statement) {
		s.rowCountEnabled = enabled
	}
}

// WithConnection sets the connection key and target reported in events
func WithConnection(key, target string) Option {
	return func(s *Statement) {
		s.key = key
		s.target = target
	}
}

// WithDriverOptions sets the options passed to [Client.Prepare]
func WithDriverOptions(opts DriverOptions) Option {
	return func(s *Statement) {
		s.driverOptions = opts
	}
}

// WithEvents sets the sink that receives the lifecycle events.
// Without it, no events are built
func WithEvents(sink EventSink) Option {
	return func(s *Statement) {
		s.events = sink
	}
}

// WithLogger sets the logger used by the statement
func WithLogger(l *slog.Logger) Option {
	return func(s *Statement) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClasses sets the registry used to resolve class names for [ModeObject]
// The default registry is used otherwise
func WithClasses(r *Registry) Option {
	return func(s *Statement) {
		if r != nil {
			s.classes = r
		}
	}
}

// ExecuteOption changes a single call to [Statement.Execute]
type ExecuteOption func(*executeOptions)

type executeOptions struct {
	shape *Shape
}

// FetchClass fetches the rows as objects of the named class
// with no constructor arguments
func FetchClass(name string) ExecuteOption {
	return func(o *executeOptions) {
		s := Object(name)
		o.shape = &s
	}
}

// FetchShape sets the fetch shape used for the result
func FetchShape(s Shape) ExecuteOption {
	return func(o *executeOptions) {
		o.shape = &s
	}
}

// New creates a statement for the query that will run against client
func New(client Client, query string, opts ...Option) *Statement {
	s := &Statement{
		id:      statementIDs.Add(1),
		client:  client,
		query:   query,
		logger:  slog.Default(),
		classes: defaultClasses,
		fetch:   defaultFetchOptions(),
		pos:     -1,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

// Execute runs the statement with args and buffers the whole result.
// The value returned by the client is returned untouched.
// If the client fails, its error is returned as is.
// The result of a previous execution is dropped even when Execute fails
func (s *Statement) Execute(ctx context.Context, args []any, opts ...ExecuteOption) (any, error) {
	var eo executeOptions
	for _, o := range opts {
		o(&eo)
	}

	s.reset()

	if eo.shape != nil {
		if err := s.SetFetchMode(*eo.shape); err != nil {
			return nil, err
		}
	}

	if args == nil {
		args = []any{}
	}

	attempt := Execution{
		StatementID: s.id,
		Key:         s.key,
		Target:      s.target,
		Query:       s.query,
		Args:        args,
		Time:        time.Now(),
	}

	// the caller is only looked up when some event will carry it
	if enabled(s.events, EventStart) || enabled(s.events, EventEnd) || enabled(s.events, EventFailure) {
		attempt.Caller = findCaller(1)
	}

	if enabled(s.events, EventStart) {
		publish(ctx, s.events, s.logger, StartEvent{Execution: attempt})
	}

	ret, rows, count, err := s.run(ctx, args)
	if err != nil {
		if enabled(s.events, EventFailure) {
			publish(ctx, s.events, s.logger, s.failure(attempt, err))
		}
		s.logger.DebugContext(ctx, "prefetch: execution failed",
			slog.String("query", s.query),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.buffer = newRowBuffer(rows)
	s.rowCount = count
	s.state = StateUnstarted

	if enabled(s.events, EventEnd) {
		publish(ctx, s.events, s.logger, EndEvent{Execution: attempt, EndTime: time.Now()})
	}

	s.logger.DebugContext(ctx, "prefetch: executed",
		slog.String("query", s.query),
		slog.Int("rows", len(rows)),
		slog.Duration("duration", time.Since(attempt.Time)),
	)

	return ret, nil
}

// run prepares and executes the query, then reads every row
// so that the client statement can be released right away
func (s *Statement) run(ctx context.Context, args []any) (ret any, rows []Row, count int64, err error) {
	stmt, err := s.client.Prepare(ctx, s.query, s.driverOptions)
	if err != nil {
		return nil, nil, 0, err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil && err == nil {
			ret, rows, count, err = nil, nil, 0, cerr
		}
	}()

	ret, err = stmt.Execute(ctx, args...)
	if err != nil {
		return nil, nil, 0, err
	}

	rows, err = stmt.FetchAllRows()
	if err != nil {
		return nil, nil, 0, err
	}

	if s.rowCountEnabled {
		count, err = stmt.RowCount()
		if err != nil {
			return nil, nil, 0, err
		}
	}

	return ret, rows, count, nil
}

func (s *Statement) failure(attempt Execution, err error) FailureEvent {
	var code string
	if coder, ok := s.client.(ErrorCoder); ok {
		code = coder.ErrorCode(err)
	} else if st, ok := err.(interface{ SQLState() string }); ok {
		code = st.SQLState()
	}

	return FailureEvent{
		Execution:    attempt,
		ErrorClass:   fmt.Sprintf("%T", err),
		ErrorCode:    code,
		ErrorMessage: err.Error(),
	}
}

// reset drops everything left from a previous execution
func (s *Statement) reset() {
	s.buffer = nil
	s.rowCount = 0
	s.state = StateUnstarted
	s.pos = -1
	s.current = nil
	s.currentRow = Row{}
	s.err = nil
}
