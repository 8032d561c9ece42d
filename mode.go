package prefetch

import "strconv"

// Mode is the representation a fetched row is returned in
type Mode int

const (
	// ModeAssoc returns each row as a [Row]
	ModeAssoc Mode = iota + 1
	// ModeNum returns each row as []any in column order
	ModeNum
	// ModeColumn returns a single column of each row
	ModeColumn
	// ModeObject returns each row as a new object of a registered class.
	// Without a class, a map[string]any is returned
	ModeObject
	// ModeInto writes each row into an existing value
	ModeInto
)

var modeNames = map[Mode]string{
	ModeAssoc:  "ModeAssoc",
	ModeNum:    "ModeNum",
	ModeColumn: "ModeColumn",
	ModeObject: "ModeObject",
	ModeInto:   "ModeInto",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}

	return "Mode(" + strconv.Itoa(int(m)) + ")"
}

// Supported reports whether rows can be fetched in this mode
func (m Mode) Supported() bool {
	_, ok := modeNames[m]
	return ok
}

// Shape is a fetch mode together with the parameters it needs
type Shape struct {
	Mode Mode

	// Class is the registered class name for [ModeObject]
	Class string
	// Args are passed to the constructor for [ModeObject]
	Args []any
	// Late makes [ModeObject] run the constructor before the fields are set
	Late bool
	// Target receives the row for [ModeInto]
	Target any
	// Column is the column position for [ModeColumn]
	Column int
}

// Assoc returns rows as [Row]
func Assoc() Shape {
	return Shape{Mode: ModeAssoc}
}

// Num returns rows as []any
func Num() Shape {
	return Shape{Mode: ModeNum}
}

// Column returns the value at the given position of each row.
// A position outside the result fails with [ErrUnknownColumn], so
// a NULL value is always a real NULL
func Column(index int) Shape {
	return Shape{Mode: ModeColumn, Column: index}
}

// Object returns each row as a new instance of the named class.
// The fields are set from the row before the constructor is called with args
func Object(class string, args ...any) Shape {
	return Shape{Mode: ModeObject, Class: class, Args: args}
}

// ObjectLate is like [Object] but the constructor runs first
// and the fields are set afterwards
func ObjectLate(class string, args ...any) Shape {
	return Shape{Mode: ModeObject, Class: class, Args: args, Late: true}
}

// Into writes each row into target which should be a pointer
func Into(target any) Shape {
	return Shape{Mode: ModeInto, Target: target}
}

// fetchOptions is the fetch configuration of a statement
type fetchOptions struct {
	mode   Mode
	class  string
	args   []any
	late   bool
	target any
	column int
}

func defaultFetchOptions() fetchOptions {
	return fetchOptions{mode: ModeObject}
}

// set changes the default mode. Only the parameters
// relevant to the mode are kept
func (o *fetchOptions) set(s Shape) error {
	if !s.Mode.Supported() {
		return unsupportedMode(s.Mode)
	}

	o.mode = s.Mode
	switch s.Mode {
	case ModeObject:
		o.class = s.Class
		o.late = s.Late
		if len(s.Args) > 0 {
			o.args = s.Args
		}

	case ModeColumn:
		o.column = s.Column

	case ModeInto:
		o.target = s.Target
	}

	return nil
}
