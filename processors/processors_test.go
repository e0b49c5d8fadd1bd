package processors

import (
	"strings"
	"testing"
)

func TestGoImports(t *testing.T) {
	processor := NewGoImports()

	tests := []struct {
		name     string
		filePath string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "drops unused imports",
			filePath: "out/tools/flash.go",
			input:    "package main\n\nimport (\n\t\"fmt\"\n\t\"os\"\n)\n\nfunc main() { os.Exit(0) }\n",
			contains: []string{`"os"`},
			excludes: []string{`"fmt"`},
		},
		{
			name:     "formats source",
			filePath: "out/tools/gen.GO",
			input:    "package main\nfunc  main( ) {\n}\n",
			contains: []string{"func main() {\n}"},
		},
		{
			name:     "C sources untouched",
			filePath: "out/src/main.c",
			input:    "int  main( void ){return 0;}",
			contains: []string{"int  main( void ){return 0;}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := processor.ProcessContent(tt.filePath, []byte(tt.input))
			if err != nil {
				t.Fatalf("ProcessContent failed: %v", err)
			}
			for _, s := range tt.contains {
				if !strings.Contains(string(got), s) {
					t.Errorf("output missing %q:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(string(got), s) {
					t.Errorf("output should not contain %q:\n%s", s, got)
				}
			}
		})
	}
}

func TestGoImportsInvalidSource(t *testing.T) {
	if _, err := NewGoImports().ProcessContent("broken.go", []byte("package main\nfunc {")); err == nil {
		t.Fatal("expected error for invalid Go source")
	}
}

func TestLineEndings(t *testing.T) {
	tests := []struct {
		name  string
		final bool
		input string
		want  string
	}{
		{"crlf", true, "a\r\nb\r\n", "a\nb\n"},
		{"adds final newline", true, "#define X 1", "#define X 1\n"},
		{"keeps missing newline", false, "#define X 1", "#define X 1"},
		{"empty", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &LineEndings{FinalNewline: tt.final}
			got, err := p.ProcessContent("board.h", []byte(tt.input))
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
