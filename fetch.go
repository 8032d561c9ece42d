package prefetch

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
)

// Fetch returns the next row in the default mode.
// ok is false once there are no more rows
func (s *Statement) Fetch() (row any, ok bool, err error) {
	return s.fetchWith(s.fetch.mode, s.fetch)
}

// FetchMode returns the next row in the given mode.
// The parameters of the mode (class, column, target) are
// the ones last set on the statement
func (s *Statement) FetchMode(m Mode) (any, bool, error) {
	return s.fetchWith(m, s.fetch)
}

func (s *Statement) fetchWith(m Mode, o fetchOptions) (any, bool, error) {
	row, ok := s.advance()
	if !ok {
		return nil, false, nil
	}

	v, err := materialize(row, s.buffer.columnNames(), m, o, s.classes)
	if err != nil {
		s.current = nil
		return nil, false, err
	}

	s.current = v
	return v, true, nil
}

// FetchAssoc returns the next row as a [Row]
func (s *Statement) FetchAssoc() (Row, bool, error) {
	v, ok, err := s.FetchMode(ModeAssoc)
	if !ok || err != nil {
		return Row{}, ok, err
	}

	return v.(Row), true, nil
}

// FetchObject returns the next row as a new object of the named class.
// The class and args become the defaults for [ModeObject].
// With an empty class name, the row is returned as map[string]any
func (s *Statement) FetchObject(class string, args ...any) (any, bool, error) {
	if class == "" {
		o := s.fetch
		o.class = ""
		return s.fetchWith(ModeObject, o)
	}

	s.fetch.class = class
	s.fetch.args = args
	s.fetch.late = false

	return s.FetchMode(ModeObject)
}

// FetchField returns the value at index of the next row.
// ok is false if there is no next row or no column at index
func (s *Statement) FetchField(index int) (any, bool) {
	v, ok, _ := s.FetchMode(ModeAssoc)
	if !ok {
		return nil, false
	}

	return columnValue(v.(Row), s.buffer.columnNames(), index)
}

// FetchAllOption changes a single call to [Statement.FetchAll]
type FetchAllOption func(*fetchAllOptions)

type fetchAllOptions struct {
	mode   Mode
	column *int
	args   []any
}

// UsingMode fetches the rows in the given mode instead of the default one
func UsingMode(m Mode) FetchAllOption {
	return func(o *fetchAllOptions) {
		o.mode = m
	}
}

// UsingColumn sets the column used by [ModeColumn].
// It stays the default for later fetches
func UsingColumn(index int) FetchAllOption {
	return func(o *fetchAllOptions) {
		o.column = &index
	}
}

// UsingArgs sets the constructor arguments used by [ModeObject].
// They stay the default for later fetches
func UsingArgs(args ...any) FetchAllOption {
	return func(o *fetchAllOptions) {
		if args == nil {
			args = []any{}
		}
		o.args = args
	}
}

// FetchAll returns all the remaining rows
func (s *Statement) FetchAll(opts ...FetchAllOption) ([]any, error) {
	o := fetchAllOptions{mode: s.fetch.mode}
	for _, opt := range opts {
		opt(&o)
	}

	if !o.mode.Supported() {
		return nil, unsupportedMode(o.mode)
	}

	if o.column != nil {
		s.fetch.column = *o.column
	}
	if o.args != nil {
		s.fetch.args = o.args
	}

	result := []any{}
	for {
		row, ok, err := s.FetchMode(o.mode)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, nil
		}

		result = append(result, row)
	}
}

// FetchCol returns the value at index of every remaining row.
// It stops at the first row without a value at index
func (s *Statement) FetchCol(index int) []any {
	result := []any{}
	for {
		v, ok := s.FetchField(index)
		if !ok {
			return result
		}

		result = append(result, v)
	}
}

// FetchAllKeyed returns a map of the column at keyIndex to the column at valueIndex
// for every remaining row. If either index is not a column of the result,
// an empty map is returned and no row is consumed
func (s *Statement) FetchAllKeyed(keyIndex, valueIndex int) map[any]any {
	result := map[any]any{}

	key, ok := s.buffer.columnName(keyIndex)
	if !ok {
		return result
	}

	value, ok := s.buffer.columnName(valueIndex)
	if !ok {
		return result
	}

	for {
		row, ok, _ := s.FetchAssoc()
		if !ok {
			return result
		}

		k, _ := row.Get(key)
		v, _ := row.Get(value)
		result[mapKey(k)] = v
	}
}

// FetchAllAssoc returns the remaining rows keyed by the value of field.
// The key is read from the buffered row, not from the fetched shape
func (s *Statement) FetchAllAssoc(field string, mode ...Mode) (map[any]any, error) {
	m := s.fetch.mode
	if len(mode) > 0 {
		m = mode[0]
	}

	result := map[any]any{}
	if s.Buffered() > 0 && !s.buffer.hasColumn(field) {
		return result, errors.Wrapf(ErrUnknownColumn, "column %q", field)
	}

	for {
		row, ok, err := s.FetchMode(m)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, nil
		}

		k, _ := s.currentRow.Get(field)
		result[mapKey(k)] = row
	}
}

// mapKey makes a column value usable as a map key
func mapKey(v any) any {
	switch k := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(k)
	}

	if !reflect.TypeOf(v).Comparable() {
		return fmt.Sprint(v)
	}

	return v
}
