package prefetch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRow(t *testing.T) {
	cols := strs{"id", "name", "id"}
	values := []any{1, "foo", 2}
	row := NewRow(cols, values)

	// changing the inputs does not change the row
	cols[0] = "changed"
	values[0] = 100

	if diff := cmp.Diff(strs{"id", "name", "id"}, row.Columns()); diff != "" {
		t.Fatalf("diff: %s", diff)
	}

	if v, _ := row.Get("id"); v != 2 {
		t.Fatalf("expected the last id, got %v", v)
	}

	if v, ok := row.At(0); !ok || v != 1 {
		t.Fatalf("expected 1 at position 0, got %v", v)
	}

	if _, ok := row.At(3); ok {
		t.Fatal("position 3 should not exist")
	}

	if _, ok := row.Get("missing"); ok {
		t.Fatal("missing column found")
	}

	if diff := cmp.Diff(map[string]any{"id": 2, "name": "foo"}, row.Map()); diff != "" {
		t.Fatalf("diff: %s", diff)
	}

	got := row.Values()
	got[0] = "changed"
	if v, _ := row.At(0); v != 1 {
		t.Fatal("Values exposed the row storage")
	}

	if !row.Equal(NewRow(strs{"id", "name", "id"}, []any{1, "foo", 2})) {
		t.Fatal("equal rows are not equal")
	}

	if row.Equal(NewRow(strs{"id", "name", "id"}, []any{1, "foo", 3})) {
		t.Fatal("different rows are equal")
	}

	short := NewRow(strs{"a", "b"}, []any{1})
	if v, ok := short.At(1); !ok || v != nil {
		t.Fatalf("missing values should be nil, got %v", v)
	}
}

func TestRowBuffer(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		var b *rowBuffer
		if _, _, ok := b.pop(); ok {
			t.Fatal("nil buffer returned a row")
		}
		if b.Len() != 0 || len(b.columnNames()) != 0 {
			t.Fatal("nil buffer is not empty")
		}
	})

	t.Run("empty", func(t *testing.T) {
		b := newRowBuffer(nil)
		if cols := b.columnNames(); cols == nil || len(cols) != 0 {
			t.Fatalf("expected an empty column list, got %#v", cols)
		}
	})

	t.Run("pop", func(t *testing.T) {
		rows := []Row{
			NewRow(strs{"a", "b"}, []any{1, 2}),
			NewRow(strs{"a", "b"}, []any{3, 4}),
		}
		b := newRowBuffer(rows)

		if diff := cmp.Diff(strs{"a", "b"}, b.columnNames()); diff != "" {
			t.Fatalf("diff: %s", diff)
		}

		for i := range 2 {
			key, row, ok := b.pop()
			if !ok || key != i {
				t.Fatalf("expected key %d, got %d (%t)", i, key, ok)
			}
			if v, _ := row.At(0); v != 1+2*i {
				t.Fatalf("wrong row %v", row.Values())
			}
			if b.Len() != 1-i {
				t.Fatalf("expected %d left, got %d", 1-i, b.Len())
			}
		}

		if rows[0].Len() != 0 {
			t.Fatal("taken row was not released")
		}

		if _, _, ok := b.pop(); ok {
			t.Fatal("drained buffer returned a row")
		}

		// the columns outlive the rows
		if name, ok := b.columnName(1); !ok || name != "b" {
			t.Fatalf("expected column b, got %q", name)
		}
		if !b.hasColumn("a") || b.hasColumn("c") {
			t.Fatal("wrong column lookup")
		}
	})
}

func TestSetFetchMode(t *testing.T) {
	target := &User{}

	cases := []struct {
		name     string
		shape    Shape
		expected fetchOptions
		err      error
	}{
		{
			name:     "assoc ignores parameters",
			shape:    Shape{Mode: ModeAssoc, Class: "user", Column: 3},
			expected: fetchOptions{mode: ModeAssoc},
		},
		{
			name:     "column",
			shape:    Column(2),
			expected: fetchOptions{mode: ModeColumn, column: 2},
		},
		{
			name:     "object",
			shape:    Object("user", 1, 2),
			expected: fetchOptions{mode: ModeObject, class: "user", args: []any{1, 2}},
		},
		{
			name:     "late object",
			shape:    ObjectLate("user"),
			expected: fetchOptions{mode: ModeObject, class: "user", late: true},
		},
		{
			name:     "into",
			shape:    Into(target),
			expected: fetchOptions{mode: ModeInto, target: target},
		},
		{
			name:     "num",
			shape:    Num(),
			expected: fetchOptions{mode: ModeNum},
		},
		{
			name:     "unsupported",
			shape:    Shape{Mode: 12},
			expected: fetchOptions{mode: ModeObject},
			err:      ErrUnsupportedFetchMode,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := fetchOptions{mode: ModeObject}
			err := o.set(tc.shape)
			if diff := diffErr(tc.err, err); diff != "" {
				t.Fatalf("diff: %s", diff)
			}

			if diff := cmp.Diff(tc.expected, o, cmp.AllowUnexported(fetchOptions{})); diff != "" {
				t.Fatalf("diff: %s", diff)
			}
		})
	}

	t.Run("object keeps previous args", func(t *testing.T) {
		o := fetchOptions{mode: ModeObject, args: []any{"kept"}}
		o.set(Object("user"))
		if diff := cmp.Diff([]any{"kept"}, o.args); diff != "" {
			t.Fatalf("diff: %s", diff)
		}
	})
}

func TestModeString(t *testing.T) {
	if ModeColumn.String() != "ModeColumn" {
		t.Fatalf("got %s", ModeColumn)
	}

	if Mode(42).String() != "Mode(42)" {
		t.Fatalf("got %s", Mode(42))
	}

	err := unsupportedMode(Mode(42))
	if err.Error() != "fetch mode Mode(42): fetch mode is not supported" {
		t.Fatalf("unexpected message %q", err)
	}
}
