package prefetch

import (
	"reflect"

	"github.com/pkg/errors"
)

// materialize shapes a buffered row according to the mode.
// Parameters of the mode are read from the options
func materialize(row Row, columns []string, m Mode, o fetchOptions, classes *Registry) (any, error) {
	switch m {
	case ModeAssoc:
		return assocRow(row), nil

	case ModeNum:
		return numRow(row), nil

	case ModeColumn:
		v, ok := columnValue(row, columns, o.column)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownColumn, "column index %d", o.column)
		}
		return v, nil

	case ModeObject:
		return objectRow(row, o.class, o.args, o.late, classes)

	case ModeInto:
		return intoRow(row, o.target, classes)

	default:
		return nil, unsupportedMode(m)
	}
}

func assocRow(row Row) Row {
	return row
}

// numRow returns the values in column order.
// Columns sharing a name keep their own position
func numRow(row Row) []any {
	return row.Values()
}

// columnValue returns the value at the given position of the column list
func columnValue(row Row, columns []string, index int) (any, bool) {
	if index < 0 || index >= len(columns) {
		return nil, false
	}

	return row.At(index)
}

// objectRow creates a new instance of class from the row
// Unless late is true, the fields are set before the constructor is called
func objectRow(row Row, class string, args []any, late bool, classes *Registry) (any, error) {
	if class == "" {
		return row.Map(), nil
	}

	typ, err := classes.lookup(class)
	if err != nil {
		return nil, err
	}

	obj := reflect.New(typ).Interface()

	if late {
		if err := construct(obj, args); err != nil {
			return nil, err
		}
	}

	if err := classes.populate(obj, row); err != nil {
		return nil, errors.Wrapf(err, "class %q", class)
	}

	if !late {
		if err := construct(obj, args); err != nil {
			return nil, err
		}
	}

	return obj, nil
}

// intoRow sets the fields of target from the row
func intoRow(row Row, target any, classes *Registry) (any, error) {
	if target == nil {
		return nil, errors.Wrap(ErrInvalidTarget, "no target set for ModeInto")
	}

	if err := classes.populate(target, row); err != nil {
		return nil, err
	}

	return target, nil
}

func construct(obj any, args []any) error {
	c, ok := obj.(Constructor)
	if !ok {
		return nil
	}

	return c.Construct(args...)
}
