// Package testing provides plugin fixtures, in-memory plugin filesystems and
// output tree snapshots for generator tests. Import it as gentest.
package testing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing/fstest"
)

// Tree maps slash-separated paths, relative to the snapshot root, to file
// contents.
type Tree map[string]string

// WriteTree materialises files under root, creating directories as needed.
// It is the usual way to lay out a plugins root in tests:
//
//	gentest.WriteTree(dir, gentest.Tree{
//		"my-plugin/templates/main.c.eta": "int main(void) { return 0; }\n",
//	})
func WriteTree(root string, files Tree) error {
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}

// Snapshot reads every regular file below root.
func Snapshot(root string) (Tree, error) {
	tree := make(Tree)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot %s: %w", root, err)
	}
	return tree, nil
}

// FS returns the tree as an in-memory filesystem. Directories are implied by
// the file paths.
func (t Tree) FS() fstest.MapFS {
	fsys := make(fstest.MapFS, len(t))
	for name, content := range t {
		fsys[path.Clean(name)] = &fstest.MapFile{Data: []byte(content), Mode: 0o644}
	}
	return fsys
}

// Paths returns the sorted file paths of the tree.
func (t Tree) Paths() []string {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Hash returns a digest of the whole tree, stable across map iteration order.
func (t Tree) Hash() string {
	h := sha256.New()
	for _, p := range t.Paths() {
		fmt.Fprintf(h, "%s\x00%s\x00", p, t[p])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Diff describes how other differs from t, or returns "" when they match.
func (t Tree) Diff(other Tree) string {
	var lines []string
	for _, p := range t.Paths() {
		content, ok := other[p]
		switch {
		case !ok:
			lines = append(lines, "- "+p)
		case content != t[p]:
			lines = append(lines, "~ "+p)
		}
	}
	for _, p := range other.Paths() {
		if _, ok := t[p]; !ok {
			lines = append(lines, "+ "+p)
		}
	}
	return strings.Join(lines, "\n")
}
