package prefetch

// rowBuffer holds every row of an execution.
// Rows are handed out in order and their slot is cleared as soon
// as they are taken so the memory can be reclaimed
type rowBuffer struct {
	rows    []Row
	next    int
	columns []string
}

func newRowBuffer(rows []Row) *rowBuffer {
	b := &rowBuffer{rows: rows, columns: []string{}}
	if len(rows) > 0 {
		b.columns = rows[0].Columns()
	}

	return b
}

// pop removes the next row from the buffer and returns it with its key
func (b *rowBuffer) pop() (int, Row, bool) {
	if b == nil || b.next >= len(b.rows) {
		return 0, Row{}, false
	}

	key := b.next
	row := b.rows[key]
	b.rows[key] = Row{}
	b.next++

	if b.next == len(b.rows) {
		b.rows = nil
		b.next = 0
	}

	return key, row, true
}

// Len is the number of rows not yet taken
func (b *rowBuffer) Len() int {
	if b == nil {
		return 0
	}

	return len(b.rows) - b.next
}

func (b *rowBuffer) columnNames() []string {
	if b == nil {
		return []string{}
	}

	return b.columns
}

// columnName returns the name of the column at the given position
func (b *rowBuffer) columnName(index int) (string, bool) {
	cols := b.columnNames()
	if index < 0 || index >= len(cols) {
		return "", false
	}

	return cols[index], true
}

func (b *rowBuffer) hasColumn(name string) bool {
	for _, c := range b.columnNames() {
		if c == name {
			return true
		}
	}

	return false
}
