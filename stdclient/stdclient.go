// Package stdclient runs prefetch statements on database/sql.
//
// Importing it registers the mysql, postgres and sqlite3 drivers.
package stdclient

import (
	"context"
	"database/sql"
	"strings"
	"unicode"

	"github.com/stephenafamo/prefetch"
)

// OptionMode is the driver option that decides how a statement is executed.
// Its value is a [Mode].
//
// database/sql reports affected rows only for ExecContext. In [ModeQuery]
// the row count of the statement is the number of rows the driver returned
const OptionMode = "stdclient.mode"

// Mode decides whether a statement is run with QueryContext or ExecContext
type Mode string

const (
	// ModeAuto looks at the first keyword of the query
	ModeAuto Mode = ""
	// ModeQuery runs the statement with QueryContext and reads its rows
	ModeQuery Mode = "query"
	// ModeExec runs the statement with ExecContext, the row count is RowsAffected
	ModeExec Mode = "exec"
)

// Preparer is implemented by *sql.DB, *sql.Tx and *sql.Conn
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// New wraps db so it can be used as a [prefetch.Client]
func New(db Preparer) *Client {
	return &Client{db: db}
}

// Client is a [prefetch.Client] on top of database/sql.
//
// With prefetch.WithRowCount, an exec reports RowsAffected. A query has no
// affected rows in database/sql, so its count is the number of rows read
type Client struct {
	db Preparer
}

// Prepare prepares the query on the wrapped connection
func (c *Client) Prepare(ctx context.Context, query string, opts prefetch.DriverOptions) (prefetch.ClientStatement, error) {
	stmt, err := c.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}

	mode, _ := opts[OptionMode].(Mode)
	if mode == ModeAuto {
		mode = ModeExec
		if returnsRows(query) {
			mode = ModeQuery
		}
	}

	return &statement{stmt: stmt, mode: mode}, nil
}

// ErrorCode returns the driver code of err
func (c *Client) ErrorCode(err error) string {
	return ErrorCode(err)
}

type statement struct {
	stmt  *sql.Stmt
	mode  Mode
	rows  []prefetch.Row
	count int64
}

// Execute runs the statement. A query returns true, an exec returns the [sql.Result].
// Rows are read and closed before returning
func (s *statement) Execute(ctx context.Context, args ...any) (any, error) {
	if s.mode == ModeExec {
		res, err := s.stmt.ExecContext(ctx, args...)
		if err != nil {
			return nil, err
		}

		s.rows = nil
		s.count, err = res.RowsAffected()
		if err != nil {
			return nil, err
		}

		return res, nil
	}

	rows, err := s.stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}

	s.rows, err = readAll(rows)
	if err != nil {
		return nil, err
	}

	// database/sql has no affected rows for queries,
	// so the count is what the driver sent back
	s.count = int64(len(s.rows))
	return true, nil
}

func (s *statement) FetchAllRows() ([]prefetch.Row, error) {
	rows := s.rows
	s.rows = nil
	return rows, nil
}

func (s *statement) RowCount() (int64, error) {
	return s.count, nil
}

func (s *statement) Close() error {
	return s.stmt.Close()
}

// readAll reads every row and closes rows
func readAll(rows *sql.Rows) (all []prefetch.Row, err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]any, len(cols))
	targets := make([]any, len(cols))
	for i := range values {
		targets[i] = &values[i]
	}

	for rows.Next() {
		for i := range values {
			values[i] = nil
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, err
		}

		all = append(all, prefetch.NewRow(cols, values))
	}

	return all, rows.Err()
}

//nolint:gochecknoglobals
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"SHOW":     true,
	"VALUES":   true,
	"PRAGMA":   true,
	"EXPLAIN":  true,
	"DESCRIBE": true,
	"DESC":     true,
	"TABLE":    true,
}

// returnsRows guesses from the first keyword whether the query returns rows
func returnsRows(query string) bool {
	q := strings.TrimLeftFunc(query, func(r rune) bool {
		return unicode.IsSpace(r) || r == '('
	})

	end := strings.IndexFunc(q, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if end < 0 {
		end = len(q)
	}

	if rowKeywords[strings.ToUpper(q[:end])] {
		return true
	}

	return strings.Contains(strings.ToUpper(query), " RETURNING ")
}
