package stdclient

import (
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// ErrorCode returns the code the driver attached to err.
// mysql errors give their error number, postgres errors their SQLSTATE
// and sqlite errors their result code. It is empty for other errors
func ErrorCode(err error) string {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return strconv.Itoa(int(liteErr.Code))
	}

	var stater interface{ SQLState() string }
	if errors.As(err, &stater) {
		return stater.SQLState()
	}

	return ""
}
