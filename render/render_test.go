package render

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"text/template"

	"github.com/cpcf/cfsgen/expr"
)

type mapSource map[string]string

func (m mapSource) Get(key string) (*template.Template, error) {
	content, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("template %s not found", key)
	}
	return template.New(key).Option("missingkey=error").Funcs(FuncMap()).Parse(content)
}

func execute(t *testing.T, text string, data any) string {
	t.Helper()
	tmpl, err := template.New("test").Funcs(FuncMap()).Parse(text)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	return b.String()
}

func TestFuncMap(t *testing.T) {
	data := map[string]any{
		"name":  "uart_driver",
		"soc":   "MAX32690",
		"base":  0x40042000,
		"cores": 2,
		"empty": "",
		"list":  []string{"a", "b"},
		"cfg":   map[string]any{"Baud": 115200},
	}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"snake", `{{ snake "UartDriver" }}`, "uart_driver"},
		{"screaming snake", `{{ screamingSnake .name }}`, "UART_DRIVER"},
		{"camel", `{{ camel .name }}`, "UartDriver"},
		{"lower camel", `{{ lowerCamel .name }}`, "uartDriver"},
		{"kebab", `{{ kebab .name }}`, "uart-driver"},
		{"title", `{{ title "board name" }}`, "Board Name"},
		{"upper", `{{ upper .soc }}`, "MAX32690"},
		{"hex", `{{ hex 8 .base }}`, "0x40042000"},
		{"hex from string", `{{ hex 4 "255" }}`, "0x00FF"},
		{"seq", `{{ range seq .cores }}{{ . }}{{ end }}`, "01"},
		{"add", `{{ add .cores 1 }}`, "3"},
		{"join", `{{ join "," .list }}`, "a,b"},
		{"indent", `{{ indent 2 "a\nb" }}`, "  a\n  b"},
		{"comment", `{{ comment "//" "a\n" }}`, "// a\n//"},
		{"default used", `{{ default "none" .empty }}`, "none"},
		{"default unused", `{{ default "none" .soc }}`, "MAX32690"},
		{"coalesce", `{{ coalesce .empty "" "x" }}`, "x"},
		{"ternary", `{{ ternary true "y" "n" }}`, "y"},
		{"get present", `{{ get .cfg "Baud" }}`, "115200"},
		{"get missing", `{{ get .cfg "Parity" | default "none" }}`, "none"},
		{"hasKey", `{{ hasKey .cfg "Baud" }}/{{ hasKey .cfg "Parity" }}`, "true/false"},
		{"dict", `{{ $d := dict "a" 1 }}{{ $d.a }}`, "1"},
		{"json", `{{ json .list }}`, "[\n  \"a\",\n  \"b\"\n]"},
		{"base", `{{ base "src/main.c" }}`, "main.c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := execute(t, tt.tmpl, data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUUIDFunc(t *testing.T) {
	got := execute(t, `{{ uuid }}`, nil)
	if len(got) != 36 || strings.Count(got, "-") != 4 {
		t.Errorf("unexpected uuid %q", got)
	}
	if got == execute(t, `{{ uuid }}`, nil) {
		t.Error("uuid should differ between calls")
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"location":       "Location",
		"workspaceName":  "Workspacename",
		"soc":            "Soc",
		"board name":     "Board Name",
		"board-name":     "Board-name",
		"MAX32690_EVKIT": "Max32690_evkit",
		"two  spaces":    "Two  Spaces",
		"élan":           "Élan",
		"":               "",
	}
	for in, want := range tests {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIncludeManager(t *testing.T) {
	source := mapSource{
		"msdk/templates/main.c.tmpl":  `{{ include "common/license.tmpl" }}int main(void) { /* {{ .soc }} */ }`,
		"msdk/templates/board.h.tmpl": `{{ include "./pins.h.tmpl" .pins }}`,
		"msdk/templates/pins.h.tmpl":  `{{ range . }}#define {{ . }}{{ end }}`,
		"common/license.tmpl":         "// SPDX {{ .year }}\n",
		"msdk/templates/cycle_a.tmpl": `{{ include "msdk/templates/cycle_b.tmpl" }}`,
		"msdk/templates/cycle_b.tmpl": `{{ include "msdk/templates/cycle_a.tmpl" }}`,
		"msdk/templates/missing.tmpl": `{{ .nope }}`,
		"msdk/templates/escape.tmpl":  `{{ include "../../../etc/passwd" }}`,
		"msdk/templates/deep.tmpl":    `{{ include "msdk/templates/deep.tmpl" }}`,
		"msdk/templates/nested.tmpl":  `{{ include "msdk/templates/missing.tmpl" }}`,
		"msdk/templates/failing.tmpl": `{{ hex 4 "not a number" }}`,
	}
	im := NewIncludeManager(source)

	render := func(key string, data any) (string, error) {
		var b strings.Builder
		err := im.Execute(&b, key, data)
		return b.String(), err
	}

	t.Run("cross plugin include", func(t *testing.T) {
		got, err := render("msdk/templates/main.c.tmpl", map[string]any{"soc": "MAX32690", "year": 2024})
		if err != nil {
			t.Fatal(err)
		}
		want := "// SPDX 2024\nint main(void) { /* MAX32690 */ }"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("relative include with data", func(t *testing.T) {
		got, err := render("msdk/templates/board.h.tmpl", map[string]any{"pins": []string{"P0", "P1"}})
		if err != nil {
			t.Fatal(err)
		}
		if got != "#define P0#define P1" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		_, err := render("msdk/templates/cycle_a.tmpl", nil)
		if !errors.Is(err, ErrIncludeCycle) {
			t.Fatalf("expected ErrIncludeCycle, got %v", err)
		}
	})

	t.Run("missing field is an expression error", func(t *testing.T) {
		_, err := render("msdk/templates/missing.tmpl", map[string]any{})
		var exprErr *expr.Error
		if !errors.As(err, &exprErr) {
			t.Fatalf("expected *expr.Error, got %T: %v", err, err)
		}
		if exprErr.Expression != "msdk/templates/missing.tmpl" {
			t.Errorf("Expression = %q", exprErr.Expression)
		}
	})

	t.Run("escape plugins root", func(t *testing.T) {
		_, err := render("msdk/templates/escape.tmpl", nil)
		if err == nil || !strings.Contains(err.Error(), "escapes the plugins root") {
			t.Fatalf("expected escape error, got %v", err)
		}
	})

	t.Run("self include", func(t *testing.T) {
		_, err := render("msdk/templates/deep.tmpl", nil)
		if !errors.Is(err, ErrIncludeCycle) {
			t.Fatalf("expected ErrIncludeCycle, got %v", err)
		}
		var exprErr *expr.Error
		if errors.As(err, &exprErr) {
			t.Errorf("include cycle reported as expression error: %v", err)
		}
	})

	t.Run("missing field in included template", func(t *testing.T) {
		_, err := render("msdk/templates/nested.tmpl", map[string]any{})
		var exprErr *expr.Error
		if !errors.As(err, &exprErr) {
			t.Fatalf("expected *expr.Error, got %T: %v", err, err)
		}
	})

	t.Run("failing function is not an expression error", func(t *testing.T) {
		_, err := render("msdk/templates/failing.tmpl", nil)
		if err == nil {
			t.Fatal("expected error")
		}
		var exprErr *expr.Error
		if errors.As(err, &exprErr) {
			t.Errorf("function failure reported as expression error: %v", err)
		}
	})
}

func TestIncludeDepthLimit(t *testing.T) {
	source := mapSource{}
	for i := 0; i < 5; i++ {
		source[fmt.Sprintf("p/t%d.tmpl", i)] = fmt.Sprintf(`{{ include "p/t%d.tmpl" }}`, i+1)
	}
	source["p/t5.tmpl"] = "leaf"

	im := NewIncludeManager(source)
	var b strings.Builder
	if err := im.Execute(&b, "p/t0.tmpl", nil); err != nil {
		t.Fatalf("depth 6 chain should render: %v", err)
	}
	if b.String() != "leaf" {
		t.Errorf("got %q", b.String())
	}

	im.SetMaxDepth(3)
	b.Reset()
	err := im.Execute(&b, "p/t0.tmpl", nil)
	if !errors.Is(err, ErrIncludeDepth) {
		t.Fatalf("expected ErrIncludeDepth, got %v", err)
	}
	var exprErr *expr.Error
	if errors.As(err, &exprErr) {
		t.Errorf("depth limit reported as expression error: %v", err)
	}
}

func TestResolveKey(t *testing.T) {
	tests := []struct {
		from, name, want string
		wantErr          bool
	}{
		{"msdk/templates/a.tmpl", "common/b.tmpl", "common/b.tmpl", false},
		{"msdk/templates/a.tmpl", "./b.tmpl", "msdk/templates/b.tmpl", false},
		{"msdk/templates/a.tmpl", "../../zephyr/c.tmpl", "zephyr/c.tmpl", false},
		{"msdk/templates/a.tmpl", `common\b.tmpl`, "common/b.tmpl", false},
		{"msdk/a.tmpl", "../../x", "", true},
		{"msdk/a.tmpl", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveKey(tt.from, tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnboundInclude(t *testing.T) {
	tmpl := template.Must(template.New("x").Funcs(FuncMap()).Parse(`{{ include "a" }}`))
	if err := tmpl.Execute(&strings.Builder{}, nil); err == nil {
		t.Fatal("include outside an IncludeManager should fail")
	}
}
