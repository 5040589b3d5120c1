package route

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// ErrNotSettable is returned when a path cannot be written, either because
// it is missing or because its container is not addressable.
var ErrNotSettable = errors.New("route: path is not settable")

// SplitPath turns "model.items[1].name" into ["model", "items", "1", "name"].
func SplitPath(path string) []string {
	path = strings.NewReplacer("[", ".", "]", "").Replace(path)
	parts := strings.Split(path, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Lookup resolves a dotted path against maps, slices, arrays, structs and
// pointers to them. Struct fields match by name, case-insensitively, or by
// json tag.
func Lookup(root any, path string) (any, bool) {
	return lookupParts(root, SplitPath(path))
}

func lookupParts(root any, parts []string) (any, bool) {
	v := reflect.ValueOf(root)
	for _, part := range parts {
		next, ok := child(v, part)
		if !ok {
			return nil, false
		}
		v = next
	}
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

// Assign writes value at path inside root. The container holding the last
// part must exist; intermediate values are never created.
func Assign(root any, path string, value any) error {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return ErrNotSettable
	}
	v := reflect.ValueOf(root)
	for _, part := range parts[:len(parts)-1] {
		next, ok := child(v, part)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNotSettable, path)
		}
		v = next
	}
	return assign(indirect(v), parts[len(parts)-1], value)
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func child(v reflect.Value, part string) (reflect.Value, bool) {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		e := v.MapIndex(reflect.ValueOf(part).Convert(v.Type().Key()))
		if !e.IsValid() {
			return reflect.Value{}, false
		}
		return e, true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 || i >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(i), true
	case reflect.Struct:
		f, ok := field(v, part)
		return f, ok
	}
	return reflect.Value{}, false
}

func field(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if sf.Name == name || tag == name || strings.EqualFold(sf.Name, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func assign(container reflect.Value, part string, value any) error {
	if !container.IsValid() {
		return ErrNotSettable
	}
	switch container.Kind() {
	case reflect.Map:
		if container.IsNil() || container.Type().Key().Kind() != reflect.String {
			return ErrNotSettable
		}
		val, err := convert(value, container.Type().Elem())
		if err != nil {
			return err
		}
		container.SetMapIndex(reflect.ValueOf(part).Convert(container.Type().Key()), val)
		return nil
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(part)
		if err != nil || i < 0 || i >= container.Len() {
			return ErrNotSettable
		}
		return set(container.Index(i), value)
	case reflect.Struct:
		f, ok := field(container, part)
		if !ok {
			return ErrNotSettable
		}
		return set(f, value)
	}
	return ErrNotSettable
}

func set(dst reflect.Value, value any) error {
	if !dst.CanSet() {
		return ErrNotSettable
	}
	val, err := convert(value, dst.Type())
	if err != nil {
		return err
	}
	dst.Set(val)
	return nil
}

// convert adapts value to t. Strings coming from form controls are parsed
// into numeric and boolean targets.
func convert(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if s, ok := value.(string); ok {
		switch t.Kind() {
		case reflect.Bool:
			b, err := strconv.ParseBool(s)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %v", ErrNotSettable, err)
			}
			return reflect.ValueOf(b).Convert(t), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %v", ErrNotSettable, err)
			}
			return reflect.ValueOf(n).Convert(t), nil
		case reflect.Float32, reflect.Float64:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %v", ErrNotSettable, err)
			}
			return reflect.ValueOf(f).Convert(t), nil
		}
	}
	if v.Type().ConvertibleTo(t) && v.Kind() != reflect.String {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s", ErrNotSettable, value, t)
}
