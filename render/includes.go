package render

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"text/template"

	"github.com/cpcf/cfsgen/expr"
)

const defaultMaxIncludeDepth = 10

var (
	ErrIncludeCycle = errors.New("circular include")
	ErrIncludeDepth = errors.New("include depth limit exceeded")
)

// TemplateSource returns the parsed template stored under a lookup key. Keys
// are slash-separated paths relative to the plugins root.
type TemplateSource interface {
	Get(key string) (*template.Template, error)
}

// IncludeManager executes templates and binds the include function so that a
// template can render another one by its lookup key, including templates that
// belong to a sibling plugin.
//
// Inside a template, include takes the key and optionally the data to render
// it with; the including template's data is used when none is given:
//
//	{{ include "common/templates/license.h.tmpl" }}
//	{{ include "./peripheral.c.tmpl" .cfsconfig }}
//
// Keys beginning with "./" or "../" are relative to the including template.
type IncludeManager struct {
	source   TemplateSource
	maxDepth int
}

func NewIncludeManager(source TemplateSource) *IncludeManager {
	return &IncludeManager{
		source:   source,
		maxDepth: defaultMaxIncludeDepth,
	}
}

func (im *IncludeManager) SetMaxDepth(depth int) {
	im.maxDepth = depth
}

// Execute renders the template stored under key to w. A reference to a
// missing or nil context field is reported as *expr.Error; other execution
// failures, such as include cycles or failing functions, are returned
// wrapped with the key.
func (im *IncludeManager) Execute(w io.Writer, key string, data any) error {
	tmpl, err := im.source.Get(key)
	if err != nil {
		return err
	}
	if err := im.execute(w, tmpl, key, data, []string{key}); err != nil {
		return classify(key, err)
	}
	return nil
}

// Messages text/template uses when a template references data that is not
// there.
var undefinedReferences = []string{
	"no entry for key",
	"nil pointer evaluating",
	"can't evaluate field",
}

func classify(key string, err error) error {
	if errors.Is(err, ErrIncludeCycle) || errors.Is(err, ErrIncludeDepth) {
		return fmt.Errorf("failed to execute template %s: %w", key, err)
	}
	msg := err.Error()
	for _, ref := range undefinedReferences {
		if strings.Contains(msg, ref) {
			return expr.Wrap(key, err)
		}
	}
	return fmt.Errorf("failed to execute template %s: %w", key, err)
}

func (im *IncludeManager) execute(w io.Writer, tmpl *template.Template, key string, data any, stack []string) error {
	bound, err := tmpl.Clone()
	if err != nil {
		return fmt.Errorf("failed to clone template %s: %w", key, err)
	}

	bound.Funcs(template.FuncMap{
		"include": func(name string, args ...any) (string, error) {
			includeData := data
			if len(args) > 0 {
				includeData = args[0]
			}
			return im.include(key, name, includeData, stack)
		},
	})

	return bound.Execute(w, data)
}

func (im *IncludeManager) include(from, name string, data any, stack []string) (string, error) {
	key, err := ResolveKey(from, name)
	if err != nil {
		return "", err
	}

	if len(stack) >= im.maxDepth {
		return "", fmt.Errorf("%w (%d) including %s", ErrIncludeDepth, im.maxDepth, key)
	}
	for _, k := range stack {
		if k == key {
			return "", fmt.Errorf("%w: %s -> %s", ErrIncludeCycle, strings.Join(stack, " -> "), key)
		}
	}

	tmpl, err := im.source.Get(key)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	next := append(stack[:len(stack):len(stack)], key)
	if err := im.execute(&b, tmpl, key, data, next); err != nil {
		return "", err
	}
	return b.String(), nil
}

// ResolveKey returns the lookup key that name refers to when included from
// the template stored under from.
func ResolveKey(from, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty include name")
	}

	name = strings.ReplaceAll(name, `\`, "/")
	var key string
	if strings.HasPrefix(name, "./") || strings.HasPrefix(name, "../") {
		key = path.Join(path.Dir(from), name)
	} else {
		key = path.Clean(strings.TrimPrefix(name, "/"))
	}

	if key == ".." || strings.HasPrefix(key, "../") {
		return "", fmt.Errorf("include %q escapes the plugins root", name)
	}
	return key, nil
}

func unboundInclude(name string, args ...any) (string, error) {
	return "", fmt.Errorf("include %q: template is not being executed by an IncludeManager", name)
}
