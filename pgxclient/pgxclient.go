// Package pgxclient runs prefetch statements on pgx.
package pgxclient

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stephenafamo/prefetch"
)

// Queryer is implemented by *pgx.Conn, *pgxpool.Pool and pgx.Tx
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// New wraps q so it can be used as a [prefetch.Client]
func New(q Queryer) *Client {
	return &Client{q: q}
}

// Client is a [prefetch.Client] on top of pgx.
// pgx prepares and caches statements itself, so Prepare only
// records the query
type Client struct {
	q Queryer
}

// Prepare returns a statement for the query. Driver options are ignored
func (c *Client) Prepare(ctx context.Context, query string, _ prefetch.DriverOptions) (prefetch.ClientStatement, error) {
	return &statement{q: c.q, sql: query}, nil
}

// ErrorCode returns the SQLSTATE of a postgres error
func (c *Client) ErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

type statement struct {
	q    Queryer
	sql  string
	rows []prefetch.Row
	tag  pgconn.CommandTag
}

// Execute runs the query and reads every row.
// It returns the command tag of the query
func (s *statement) Execute(ctx context.Context, args ...any) (any, error) {
	rows, err := s.q.Query(ctx, s.sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, field := range fields {
		cols[i] = field.Name
	}

	var all []prefetch.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		all = append(all, prefetch.NewRow(cols, values))
	}

	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.rows = all
	s.tag = rows.CommandTag()
	return s.tag, nil
}

func (s *statement) FetchAllRows() ([]prefetch.Row, error) {
	rows := s.rows
	s.rows = nil
	return rows, nil
}

// RowCount returns the rows affected according to the command tag
func (s *statement) RowCount() (int64, error) {
	return s.tag.RowsAffected(), nil
}

func (s *statement) Close() error {
	return nil
}
