package engine

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// resolveLocation picks the directory destinations are placed under: the
// explicit base directory, else the context's path field, else none.
func resolveLocation(baseDir string, data map[string]any) string {
	if baseDir != "" {
		return baseDir
	}
	if p, ok := data["path"].(string); ok {
		return p
	}
	return ""
}

// absLocation makes a non-empty location absolute against the working
// directory. An empty location stays empty.
func absLocation(location string) (string, error) {
	if location == "" {
		return "", nil
	}
	abs, err := filepath.Abs(filepath.FromSlash(location))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", location, err)
	}
	return filepath.ToSlash(abs), nil
}

// extname returns the extension of the last element of p, including the dot.
// Leading dots do not start an extension, so ".vscode" has none while
// "out/app." has ".".
func extname(p string) string {
	p = strings.TrimRight(p, "/")
	base := p[strings.LastIndex(p, "/")+1:]
	base = strings.TrimLeft(base, ".")
	if i := strings.LastIndex(base, "."); i >= 0 {
		return base[i:]
	}
	return ""
}

// isFileTarget reports whether dst names a file rather than a directory to
// place matched sources in.
func isFileTarget(dst string) bool {
	return extname(dst) != ""
}

// placement returns the file a source named name is written to under dst,
// and the directory that has to exist first.
func placement(dst, name string) (file, dir string) {
	if isFileTarget(dst) {
		return dst, path.Dir(dst)
	}
	if dst == "" {
		dst = "."
	}
	return path.Join(dst, name), dst
}

func stripTemplateSuffix(name string, suffixes []string) string {
	for _, suffix := range suffixes {
		if len(name) > len(suffix) && strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

// lookupKey returns the slash-separated path of file relative to the plugins
// root.
func lookupKey(pluginsRoot, file string) (string, error) {
	rel, err := filepath.Rel(pluginsRoot, filepath.FromSlash(file))
	if err != nil {
		return "", fmt.Errorf("cannot make %s relative to the plugins root: %w", file, err)
	}
	return filepath.ToSlash(rel), nil
}
