package prefetch

import (
	"iter"
	"log/slog"
)

// State is the position of a [Statement] in its result
type State int

const (
	// StateUnstarted is the state before the first row is fetched
	StateUnstarted State = iota
	// StateIterating means a row is current
	StateIterating
	// StateExhausted means every row has been fetched
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateIterating:
		return "iterating"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Statement runs a query and keeps its whole result in memory.
// Rows are removed from memory as they are fetched.
//
// A Statement is not safe for concurrent use
type Statement struct {
	id              uint64
	client          Client
	query           string
	key             string
	target          string
	driverOptions   DriverOptions
	rowCountEnabled bool
	events          EventSink
	logger          *slog.Logger
	classes         *Registry

	fetch    fetchOptions
	buffer   *rowBuffer
	rowCount int64

	state      State
	pos        int
	current    any
	currentRow Row
	err        error
}

// QueryString returns the query of the statement
func (s *Statement) QueryString() string {
	return s.query
}

// ConnectionTarget returns the target of the connection the statement runs on
func (s *Statement) ConnectionTarget() string {
	return s.target
}

// State returns the iteration state
func (s *Statement) State() State {
	return s.state
}

// Columns returns the column names of the result.
// It is empty if the result has no rows
func (s *Statement) Columns() []string {
	cols := s.buffer.columnNames()
	c := make([]string, len(cols))
	copy(c, cols)
	return c
}

// Buffered returns the number of rows that have not been fetched yet
func (s *Statement) Buffered() int {
	return s.buffer.Len()
}

// SetFetchMode sets the default shape of fetched rows
func (s *Statement) SetFetchMode(shape Shape) error {
	return s.fetch.set(shape)
}

// RowCount returns the number of rows matched by the last execution.
// It fails with [ErrRowCountDisabled] unless the statement was created
// WithRowCount(true)
func (s *Statement) RowCount() (int64, error) {
	if !s.rowCountEnabled {
		return 0, ErrRowCountDisabled
	}

	return s.rowCount, nil
}

// Rewind positions the statement on the first row.
// The result cannot be read twice, so it fails once fetching has started
func (s *Statement) Rewind() error {
	if s.state != StateUnstarted {
		return ErrRewind
	}

	_, _, err := s.Fetch()
	return err
}

// Valid reports whether there is a current row
func (s *Statement) Valid() bool {
	return s.state == StateIterating
}

// Current returns the current row in the mode it was fetched in
func (s *Statement) Current() any {
	return s.current
}

// Key returns the position of the current row, starting from 0
func (s *Statement) Key() int {
	return s.pos
}

// Next moves to the next row
func (s *Statement) Next() error {
	_, _, err := s.Fetch()
	return err
}

// Err returns the error that stopped the last iteration with [Statement.All]
func (s *Statement) Err() error {
	return s.err
}

// All iterates over the remaining rows in the default mode.
// Iteration stops at the first error, which is then available from [Statement.Err]
func (s *Statement) All() iter.Seq2[int, any] {
	return func(yield func(int, any) bool) {
		s.err = nil
		for {
			row, ok, err := s.Fetch()
			if err != nil {
				s.err = err
				return
			}
			if !ok {
				return
			}
			if !yield(s.pos, row) {
				return
			}
		}
	}
}

// advance takes the next row out of the buffer.
// Once the buffer is empty the statement stays exhausted
func (s *Statement) advance() (Row, bool) {
	if s.state == StateExhausted {
		return Row{}, false
	}

	key, row, ok := s.buffer.pop()
	if !ok {
		s.state = StateExhausted
		s.current = nil
		s.currentRow = Row{}
		return Row{}, false
	}

	s.state = StateIterating
	s.pos = key
	s.currentRow = row
	return row, true
}
