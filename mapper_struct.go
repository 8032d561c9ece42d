package prefetch

import (
	"database/sql"
	"reflect"
	"strings"

	"github.com/aarondl/opt"
	"github.com/pkg/errors"
)

var scannerTyp = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

type visited map[reflect.Type]int

func (v visited) copy() visited {
	v2 := make(visited, len(v))
	for t, c := range v {
		v2[t] = c
	}

	return v2
}

type mapping = map[string]mapinfo

type mapinfo struct {
	position []int
	init     [][]int
}

func (r *Registry) setMappings(typ reflect.Type, prefix string, v visited, m mapping, inits [][]int, position ...int) {
	count := v[typ]
	if count > r.maxDepth {
		return
	}
	v[typ] = count + 1

	var hasExported bool

	// A type that can scan itself is used as a value
	if reflect.PointerTo(typ).Implements(scannerTyp) && prefix != "" {
		m[prefix] = mapinfo{
			position: position,
			init:     inits,
		}
		return
	}

	// Go through the struct fields and populate the map.
	// Recursively go into any child structs, adding a prefix where necessary
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)

		// Don't consider unexported fields
		if !field.IsExported() {
			continue
		}

		// Skip columns that have the tag "-"
		tag := strings.Split(field.Tag.Get(r.structTagKey), ",")[0]
		if tag == "-" {
			continue
		}

		hasExported = true

		key := prefix

		if !field.Anonymous {
			var sep string
			if prefix != "" {
				sep = r.columnSeparator
			}

			name := tag
			if tag == "" {
				name = r.fieldMapperFn(field.Name)
			}

			key = strings.Join([]string{key, name}, sep)
		}

		currentIndex := append(append([]int{}, position...), i)
		fieldType := field.Type
		fieldInits := inits

		if fieldType.Kind() == reflect.Pointer {
			fieldInits = append(append([][]int{}, inits...), currentIndex)
			fieldType = fieldType.Elem()
		}

		if fieldType.Kind() == reflect.Struct {
			r.setMappings(fieldType, key, v.copy(), m, fieldInits, currentIndex...)
			continue
		}

		m[key] = mapinfo{
			position: currentIndex,
			init:     inits,
		}
	}

	// If it has no exported field (such as time.Time) then we attempt to
	// directly set it
	if !hasExported && prefix != "" {
		m[prefix] = mapinfo{
			position: position,
			init:     inits,
		}
	}
}

// populate sets the fields of obj from the row.
// obj is a Hydrator or a pointer to a struct
func (r *Registry) populate(obj any, row Row) error {
	if h, ok := obj.(Hydrator); ok {
		return h.Hydrate(row)
	}

	val := reflect.ValueOf(obj)
	if val.Kind() != reflect.Pointer || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return errors.Wrapf(ErrInvalidTarget, "cannot populate %T, expected a pointer to a struct", obj)
	}

	target := val.Elem()
	m := r.getMapping(target.Type())

	for i, name := range row.columns {
		info, ok := m[name]
		if !ok {
			continue
		}

		for _, idx := range info.init {
			pv := target.FieldByIndex(idx)
			if !pv.IsNil() {
				continue
			}

			pv.Set(reflect.New(pv.Type().Elem()))
		}

		fv := target.FieldByIndex(info.position)
		if err := assign(fv, row.values[i]); err != nil {
			return errors.Wrapf(err, "column %q", name)
		}
	}

	return nil
}

func assign(fv reflect.Value, value any) error {
	if value == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	src := reflect.ValueOf(value)
	if src.Type().AssignableTo(fv.Type()) {
		fv.Set(src)
		return nil
	}

	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		return assign(fv.Elem(), value)
	}

	return opt.ConvertAssign(fv.Addr().Interface(), value)
}
