package prefetch

import "reflect"

// Row is a single result row held in memory.
// It keeps the column order of the query, so columns sharing
// a name are still reachable by position.
// A Row is never modified after it is created
type Row struct {
	columns []string
	values  []any
}

// NewRow creates a row from the column names and the values of a result.
// Both slices are copied. If there are more columns than values, the
// missing values are nil
func NewRow(columns []string, values []any) Row {
	r := Row{
		columns: make([]string, len(columns)),
		values:  make([]any, len(columns)),
	}

	copy(r.columns, columns)
	copy(r.values, values)

	return r
}

// Len returns the number of columns in the row
func (r Row) Len() int {
	return len(r.columns)
}

// Columns returns a copy of the column names in query order
func (r Row) Columns() []string {
	c := make([]string, len(r.columns))
	copy(c, r.columns)
	return c
}

// Values returns a copy of the values in query order
func (r Row) Values() []any {
	v := make([]any, len(r.values))
	copy(v, r.values)
	return v
}

// Get returns the value of the named column.
// If several columns share the name, the last one wins
func (r Row) Get(name string) (any, bool) {
	for i := len(r.columns) - 1; i >= 0; i-- {
		if r.columns[i] == name {
			return r.values[i], true
		}
	}

	return nil, false
}

// At returns the value at the given position
func (r Row) At(index int) (any, bool) {
	if index < 0 || index >= len(r.values) {
		return nil, false
	}

	return r.values[index], true
}

// Map returns the row as map[string]any
// Like [Row.Get], the last of several columns with the same name wins
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, name := range r.columns {
		m[name] = r.values[i]
	}

	return m
}

// Equal reports whether both rows have the same columns and values
func (r Row) Equal(o Row) bool {
	if len(r.columns) != len(o.columns) {
		return false
	}

	for i := range r.columns {
		if r.columns[i] != o.columns[i] {
			return false
		}
		if !reflect.DeepEqual(r.values[i], o.values[i]) {
			return false
		}
	}

	return true
}
