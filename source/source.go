// Package source expands manifest glob patterns into the plugin files they
// match.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Resolve expands pattern relative to pluginRoot and returns the absolute,
// slash-separated paths of the matching regular files. Patterns support
// single-segment wildcards, character classes, {a,b} alternatives and **
// for any number of directories. Patterns may climb out of the plugin with
// "../" to reach assets shared between plugins.
//
// Matches are returned in directory walk order, which is lexical within each
// directory. No match is not an error.
func Resolve(pluginRoot, pattern string) ([]string, error) {
	root, err := filepath.Abs(pluginRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plugin root %q: %w", pluginRoot, err)
	}

	full := Join(filepath.ToSlash(root), pattern)
	base, rest := doublestar.SplitPattern(full)

	if rest == "" || !hasMeta(rest) {
		return statOne(full)
	}

	matches, err := ResolveFS(os.DirFS(filepath.FromSlash(base)), rest)
	if err != nil {
		return nil, err
	}

	for i, m := range matches {
		matches[i] = path.Join(base, m)
	}
	return matches, nil
}

// ResolveFS expands pattern against fsys and returns the fs-relative paths of
// matching regular files.
func ResolveFS(fsys fs.FS, pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(path.Clean(pattern), "./")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
	}
	return matches, nil
}

// Join joins elements with forward slashes and cleans the result, whatever
// separators the elements use. An empty base leaves elem relative.
func Join(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for _, e := range elem {
		if e != "" {
			parts = append(parts, ToSlash(e))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return path.Join(parts...)
}

// ToSlash rewrites every backslash as a forward slash. Unlike
// filepath.ToSlash it does so on every platform, so expression results
// written on Windows behave the same everywhere.
func ToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, `*?[{\`)
}

func statOne(name string) ([]string, error) {
	info, err := os.Stat(filepath.FromSlash(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, nil
	}
	return []string{name}, nil
}
