package expr

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Root aliases accepted as the first path segment. Plugin manifests address
// the data namespace either directly or through one of these names.
var rootAliases = []string{"context", "it"}

var (
	// ErrUndefined is returned by Lookup when a path step does not exist.
	ErrUndefined = errors.New("undefined")
	// ErrNotScalar is returned when a placeholder resolves to a map or list.
	ErrNotScalar = errors.New("not a scalar value")
)

// Step is one element of a Path: a property name or a list index.
type Step struct {
	Key     string
	Index   int
	IsIndex bool
}

func (s Step) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// Path is a parsed property path.
type Path []Step

func (p Path) String() string {
	var b strings.Builder
	for i, step := range p {
		switch {
		case step.IsIndex:
			b.WriteString(step.String())
		case i > 0 && !isPlainIdent(step.Key):
			b.WriteString("[" + strconv.Quote(step.Key) + "]")
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(step.Key)
		}
	}
	return b.String()
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !isIdentRune(r, i == 0) {
			return false
		}
	}
	return true
}

// Lookup resolves a dotted path such as "cfsconfig.Projects[0]" against data
// and returns the value found there, which need not be a scalar.
func Lookup(data any, path string) (any, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, &Error{Expression: path, Reason: err.Error()}
	}
	value, err := p.lookup(data)
	if err != nil {
		return nil, &Error{Expression: path, Path: path, Reason: err.Error(), Err: err}
	}
	return value, nil
}

func (p Path) lookup(data any) (any, error) {
	steps := p
	if len(steps) > 1 && !steps[0].IsIndex && isRootAlias(steps[0].Key) {
		if _, ok := field(reflect.ValueOf(data), steps[0].Key); !ok {
			steps = steps[1:]
		}
	}

	current := reflect.ValueOf(data)
	for i, step := range steps {
		next, ok := walk(current, step)
		if !ok {
			return nil, fmt.Errorf("%w at %s", ErrUndefined, steps[:i+1])
		}
		current = next
	}

	current = indirect(current)
	if !current.IsValid() {
		return nil, fmt.Errorf("%w: value is nil", ErrUndefined)
	}
	return current.Interface(), nil
}

func isRootAlias(key string) bool {
	for _, alias := range rootAliases {
		if key == alias {
			return true
		}
	}
	return false
}

func walk(v reflect.Value, step Step) (reflect.Value, bool) {
	if step.IsIndex {
		return index(v, step.Index)
	}
	return field(v, step.Key)
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func field(v reflect.Value, key string) (reflect.Value, bool) {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		elem := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !elem.IsValid() {
			return reflect.Value{}, false
		}
		return elem, true
	case reflect.Struct:
		f := v.FieldByName(key)
		if !f.IsValid() || !f.CanInterface() {
			return reflect.Value{}, false
		}
		return f, true
	case reflect.Slice, reflect.Array:
		if key == "length" {
			return reflect.ValueOf(v.Len()), true
		}
	}

	return reflect.Value{}, false
}

func index(v reflect.Value, i int) (reflect.Value, bool) {
	v = indirect(v)
	if !v.IsValid() {
		return reflect.Value{}, false
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if i >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(i), true
	case reflect.Map:
		return field(v, strconv.Itoa(i))
	}

	return reflect.Value{}, false
}

func formatScalar(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case fmt.Stringer:
		return v.String(), nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	}

	return "", fmt.Errorf("%w (%T)", ErrNotScalar, value)
}
