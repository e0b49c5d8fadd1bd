package engine

import (
	"path"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestExtname(t *testing.T) {
	tests := []struct {
		dst  string
		want string
	}{
		{"out/main.c", ".c"},
		{"out/proj1", ""},
		{"out/archive.tar.gz", ".gz"},
		{".vscode", ""},
		{"ws/.vscode", ""},
		{"ws/.vscode/settings.json", ".json"},
		{".cfs/.cfsworkspace", ""},
		{".env.local", ".local"},
		{"out/app.", "."},
		{"out/dir/", ""},
		{"out.d/main", ""},
		{"", ""},
		{"..", ""},
	}

	for _, tt := range tests {
		t.Run(tt.dst, func(t *testing.T) {
			if got := extname(tt.dst); got != tt.want {
				t.Errorf("extname(%q) = %q, want %q", tt.dst, got, tt.want)
			}
		})
	}
}

func TestPlacement(t *testing.T) {
	tests := []struct {
		dst, name         string
		wantFile, wantDir string
	}{
		{"out/proj1", "main.c", "out/proj1/main.c", "out/proj1"},
		{"out/assets/logo.png", "vendor.png", "out/assets/logo.png", "out/assets"},
		{"main.c", "x.c", "main.c", "."},
		{"", "main.c", "main.c", "."},
		{"/abs/out/", "main.c", "/abs/out/main.c", "/abs/out/"},
	}

	for _, tt := range tests {
		t.Run(tt.dst, func(t *testing.T) {
			file, dir := placement(tt.dst, tt.name)
			if file != tt.wantFile || dir != tt.wantDir {
				t.Errorf("placement(%q, %q) = %q, %q, want %q, %q", tt.dst, tt.name, file, dir, tt.wantFile, tt.wantDir)
			}
		})
	}
}

func TestPlacementIsTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		dst := rapid.StringMatching(`(/?[a-z._]{0,8}){0,4}/?`).Draw(t, "dst")
		name := rapid.StringMatching(`[a-z]{1,8}\.[a-z]{1,3}`).Draw(t, "name")

		file, dir := placement(dst, name)
		if extname(dst) != "" {
			if file != dst {
				t.Fatalf("file target %q placed at %q", dst, file)
			}
			if dir != path.Dir(dst) {
				t.Fatalf("file target %q needs dir %q", dst, dir)
			}
			return
		}

		if path.Base(file) != name {
			t.Fatalf("directory target %q placed %q at %q", dst, name, file)
		}
		if !strings.HasPrefix(file, path.Clean(dir)) && path.Clean(dir) != "." {
			t.Fatalf("file %q is not inside %q", file, dir)
		}
	})
}

func TestStripTemplateSuffix(t *testing.T) {
	suffixes := []string{".eta", ".tmpl"}
	tests := map[string]string{
		"main.c.eta":    "main.c",
		"config.h.tmpl": "config.h",
		"README.md":     "README.md",
		".eta":          ".eta",
		"x.eta.tmpl":    "x.eta",
	}
	for in, want := range tests {
		if got := stripTemplateSuffix(in, suffixes); got != want {
			t.Errorf("stripTemplateSuffix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveLocation(t *testing.T) {
	tests := []struct {
		name    string
		baseDir string
		data    map[string]any
		want    string
	}{
		{"base dir wins", "/out", map[string]any{"path": "/ctx"}, "/out"},
		{"context path", "", map[string]any{"path": "/ctx"}, "/ctx"},
		{"neither", "", map[string]any{}, ""},
		{"nil data", "", nil, ""},
		{"non string path", "", map[string]any{"path": 3}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveLocation(tt.baseDir, tt.data); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
