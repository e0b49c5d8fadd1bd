// Package render holds the function library and include support available to
// plugin templates.
package render

import (
	"encoding/json"
	"fmt"
	"path"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FuncMap returns the functions every plugin template can call. Templates
// execute with missingkey=error, so optional context fields are read with
// get or hasKey rather than plain field access.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"snake":          strcase.ToSnake,
		"screamingSnake": strcase.ToScreamingSnake,
		"camel":          strcase.ToCamel,
		"lowerCamel":     strcase.ToLowerCamel,
		"kebab":          strcase.ToKebab,
		"title":          TitleCase,
		"lower":          strings.ToLower,
		"upper":          strings.ToUpper,
		"trim":           strings.TrimSpace,
		"trimPrefix":     strings.TrimPrefix,
		"trimSuffix":     strings.TrimSuffix,
		"replace":        strings.ReplaceAll,
		"contains":       strings.Contains,
		"hasPrefix":      strings.HasPrefix,
		"hasSuffix":      strings.HasSuffix,
		"split":          strings.Split,
		"join":           join,
		"repeat":         strings.Repeat,
		"indent":         indent,
		"comment":        comment,
		"quote":          strconv.Quote,

		"hex":  hex,
		"add":  add,
		"sub":  sub,
		"seq":  seq,
		"json": toJSON,
		"uuid": generateUUID,
		"base": path.Base,
		"dir":  path.Dir,
		"ext":  path.Ext,

		"get":      get,
		"hasKey":   hasKey,
		"default":  defaultValue,
		"coalesce": coalesce,
		"ternary":  ternary,
		"list":     list,
		"dict":     dict,

		"include": unboundInclude,
	}
}

// TitleCase lower-cases s and capitalises the first letter of each
// space-separated word, so "workspaceName" becomes "Workspacename" and
// "board-name" becomes "Board-name".
func TitleCase(s string) string {
	upper := cases.Upper(language.Und)
	words := strings.Split(cases.Lower(language.Und).String(s), " ")
	for i, w := range words {
		_, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = upper.String(w[:size]) + w[size:]
	}
	return strings.Join(words, " ")
}

func join(sep string, items any) string {
	v := reflect.ValueOf(items)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return fmt.Sprint(items)
	}
	parts := make([]string, v.Len())
	for i := range parts {
		parts[i] = fmt.Sprint(v.Index(i).Interface())
	}
	return strings.Join(parts, sep)
}

func indent(spaces int, text string) string {
	pad := strings.Repeat(" ", spaces)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}

func comment(prefix, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(prefix+" "+line, " ")
	}
	return strings.Join(lines, "\n")
}

// hex formats an integer as a zero-padded, upper-case C hex literal of the
// given width in digits.
func hex(width int, value any) (string, error) {
	n, err := toUint(value)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0x%0*X", width, n), nil
}

func toUint(value any) (uint64, error) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return uint64(v.Float()), nil
	case reflect.String:
		return strconv.ParseUint(v.String(), 0, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to an integer", value)
}

func toInt(value any) (int64, error) {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return int64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return int64(v.Float()), nil
	case reflect.String:
		return strconv.ParseInt(v.String(), 0, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to an integer", value)
}

func add(a, b any) (int64, error) {
	x, err := toInt(a)
	if err != nil {
		return 0, err
	}
	y, err := toInt(b)
	if err != nil {
		return 0, err
	}
	return x + y, nil
}

func sub(a, b any) (int64, error) {
	x, err := toInt(a)
	if err != nil {
		return 0, err
	}
	y, err := toInt(b)
	if err != nil {
		return 0, err
	}
	return x - y, nil
}

// seq returns 0..n-1, for ranging over a count such as a number of cores.
func seq(n any) ([]int, error) {
	count, err := toInt(n)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("seq: negative count %d", count)
	}
	out := make([]int, count)
	for i := range out {
		out[i] = i
	}
	return out, nil
}

func toJSON(value any) (string, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func generateUUID() string {
	return uuid.New().String()
}

// get returns m[key], or nil when m is not a map or has no such key.
func get(m any, key string) any {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return nil
	}
	item := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
	if !item.IsValid() {
		return nil
	}
	return item.Interface()
}

func hasKey(m any, key string) bool {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return false
	}
	return v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key())).IsValid()
}

func defaultValue(def any, given any) any {
	if isEmpty(given) {
		return def
	}
	return given
}

func coalesce(values ...any) any {
	for _, v := range values {
		if !isEmpty(v) {
			return v
		}
	}
	return nil
}

func ternary(condition bool, trueVal, falseVal any) any {
	if condition {
		return trueVal
	}
	return falseVal
}

func list(items ...any) []any {
	return items
}

func dict(pairs ...any) (map[string]any, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		out[key] = pairs[i+1]
	}
	return out, nil
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}
