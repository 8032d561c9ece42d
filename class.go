package prefetch

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var (
	matchFirstCapRe = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCapRe   = regexp.MustCompile("([a-z0-9])([A-Z])")

	//nolint:gochecknoglobals
	defaultClasses = newDefaultRegistry()
)

// Constructor is implemented by classes that need to run code when
// an object is fetched. For [ModeObject] it is called after the fields
// have been set from the row, unless the shape is [ObjectLate]
type Constructor interface {
	Construct(args ...any) error
}

// Hydrator is implemented by classes that set their own fields from a row.
// When implemented, no reflection is used to populate the object
type Hydrator interface {
	Hydrate(Row) error
}

// NameMapperFunc is a function type that maps a struct field name to the database column name.
type NameMapperFunc func(string) string

// snakeCaseFieldFunc is a NameMapperFunc that maps struct field to snake case.
func snakeCaseFieldFunc(str string) string {
	snake := matchFirstCapRe.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCapRe.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}

func newDefaultRegistry() *Registry {
	return &Registry{
		structTagKey:    "db",
		columnSeparator: ".",
		fieldMapperFn:   snakeCaseFieldFunc,
		maxDepth:        3,
		classes:         make(map[string]reflect.Type),
		cache:           make(map[reflect.Type]mapping),
	}
}

// NewRegistry creates a class registry with the provided list of options.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := newDefaultRegistry()
	for _, o := range opts {
		if err := o(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegistryOption are options to modify how the fields of a class are matched to columns
type RegistryOption func(r *Registry) error

// WithStructTagKey allows to use a custom struct tag key.
// The default tag key is `db`.
func WithStructTagKey(tagKey string) RegistryOption {
	return func(r *Registry) error {
		if tagKey == "" {
			return fmt.Errorf("struct tag key cannot be empty")
		}
		r.structTagKey = tagKey
		return nil
	}
}

// WithColumnSeparator allows to use a custom separator character for column name when combining nested structs.
// The default separator is "." character.
func WithColumnSeparator(separator string) RegistryOption {
	return func(r *Registry) error {
		r.columnSeparator = separator
		return nil
	}
}

// WithFieldNameMapper allows to use a custom function to map field name to column names.
// The default function maps fields names to "snake_case"
func WithFieldNameMapper(mapperFn NameMapperFunc) RegistryOption {
	return func(r *Registry) error {
		r.fieldMapperFn = mapperFn
		return nil
	}
}

// Registry maps class names to Go struct types for [ModeObject].
// It is safe for concurrent use
type Registry struct {
	structTagKey    string
	columnSeparator string
	fieldMapperFn   NameMapperFunc
	maxDepth        int

	mutex   sync.RWMutex
	classes map[string]reflect.Type
	cache   map[reflect.Type]mapping
}

// Register makes the type of proto available under name.
// proto must be a struct or a pointer to a struct
func (r *Registry) Register(name string, proto any) error {
	typ := reflect.TypeOf(proto)
	if typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	if typ == nil || typ.Kind() != reflect.Struct {
		return errors.Wrapf(ErrInvalidTarget, "class %q must be a struct, got %T", name, proto)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.classes[name] = typ
	return nil
}

// RegisterClass registers T under name in the default registry
func RegisterClass[T any](name string) error {
	var x T
	return defaultClasses.Register(name, x)
}

// Register registers the type of proto under name in the default registry
func Register(name string, proto any) error {
	return defaultClasses.Register(name, proto)
}

func (r *Registry) lookup(name string) (reflect.Type, error) {
	r.mutex.RLock()
	typ, ok := r.classes[name]
	r.mutex.RUnlock()

	if !ok {
		return nil, errors.Wrapf(ErrUnknownClass, "class %q", name)
	}

	return typ, nil
}

func (r *Registry) getMapping(typ reflect.Type) mapping {
	r.mutex.RLock()
	m, ok := r.cache[typ]
	r.mutex.RUnlock()

	if ok {
		return m
	}

	m = make(mapping)
	r.setMappings(typ, "", make(visited), m, nil)

	r.mutex.Lock()
	r.cache[typ] = m
	r.mutex.Unlock()

	return m
}
