package prefetch

import "github.com/pkg/errors"

var (
	// ErrUnsupportedFetchMode is returned when a fetch mode is not one of the supported modes.
	ErrUnsupportedFetchMode = errors.New("fetch mode is not supported")
	// ErrRowCountDisabled is returned by RowCount when the statement was not created WithRowCount(true).
	ErrRowCountDisabled = errors.New("row count is not enabled for this statement")
	// ErrUnknownColumn is returned when a column name is not part of the result.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnknownClass is returned when an object is requested for a class that was never registered.
	ErrUnknownClass = errors.New("unknown class")
	// ErrInvalidTarget is returned when a row cannot be written into the given value.
	ErrInvalidTarget = errors.New("invalid fetch target")
	// ErrRewind is returned when rewinding a statement that already started fetching.
	ErrRewind = errors.New("attempted rewinding a statement when fetching has already started")
)

func unsupportedMode(m Mode) error {
	return errors.Wrapf(ErrUnsupportedFetchMode, "fetch mode %s", m)
}
