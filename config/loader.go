// Package config loads plugin manifests and generation contexts from YAML,
// TOML or JSON files.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that check themselves
// after decoding. It runs after the struct's validate tags have passed.
type Validator interface {
	Validate() error
}

// Format identifies a configuration encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the decoder for path from its extension. Anything that is
// not YAML or TOML is read as JSON, which covers .json as well as the
// extension-less .cfsplugin and .cfsworkspace files.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	default:
		return FormatJSON
	}
}

// Load reads path into target using the decoder matching its extension and
// runs target's validation, if any.
func Load[T any](path string, target *T) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	return Decode(FormatOf(path), data, target)
}

// LoadYAML loads a YAML file regardless of its extension.
func LoadYAML[T any](path string, target *T) error {
	data, err := readFile(path)
	if err != nil {
		return err
	}
	return Decode(FormatYAML, data, target)
}

// LoadYAMLFromString decodes YAML held in memory. Useful in tests.
func LoadYAMLFromString[T any](yamlContent string, target *T) error {
	return Decode(FormatYAML, []byte(yamlContent), target)
}

// LoadContext reads a generation context file into a generic map.
func LoadContext(path string) (map[string]any, error) {
	var data map[string]any
	if err := Load(path, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}

// Decode parses data in the given format into target and validates it:
// struct targets are checked against their validate tags, then targets
// implementing Validator run their own checks.
func Decode[T any](format Format, data []byte, target *T) error {
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, target)
	case FormatTOML:
		err = toml.Unmarshal(data, target)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		err = dec.Decode(target)
		if err == nil {
			normalizeNumbers(target)
		}
	default:
		return fmt.Errorf("unsupported configuration format %q", format)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s configuration: %w", strings.ToUpper(string(format)), err)
	}

	if err := validateStruct(target); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return nil
}

var structValidator = newStructValidator()

// newStructValidator reports fields by their JSON names, which is how they
// appear in the files being loaded.
func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func validateStruct(target any) error {
	v := reflect.ValueOf(target)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	err := structValidator.Struct(v.Interface())
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fieldError(fe))
	}
	return errors.Join(errs...)
}

func fieldError(fe validator.FieldError) error {
	// Namespace starts with the Go type name of the root struct.
	_, field, _ := strings.Cut(fe.Namespace(), ".")

	switch {
	case fe.Tag() == "required":
		return fmt.Errorf("%s is required", field)
	case fe.Param() != "":
		return fmt.Errorf("%s must satisfy %s=%s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s must be a valid %s, got %v", field, fe.Tag(), fe.Value())
}

func readFile(path string) ([]byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", path, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", absPath, err)
	}
	return data, nil
}

// normalizeNumbers turns json.Number values in generic maps into int64 when
// they are integral and float64 otherwise, so that "2" stays "2" when it is
// substituted into a destination path.
func normalizeNumbers(target any) {
	switch v := target.(type) {
	case *map[string]any:
		if v != nil {
			for k, item := range *v {
				(*v)[k] = normalizeValue(item)
			}
		}
	case *any:
		if v != nil {
			*v = normalizeValue(*v)
		}
	}
}

// Normalize converts the json.Number values held in generic data decoded
// from JSON into int64 or float64. Load does this itself for map and any
// targets; typed targets call it on their free-form fields.
func Normalize(value any) any {
	return normalizeValue(value)
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]any:
		for k, item := range v {
			v[k] = normalizeValue(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = normalizeValue(item)
		}
		return v
	}
	return value
}
