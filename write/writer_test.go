package write

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBaseWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewBaseWriter()
	target := filepath.ToSlash(filepath.Join(dir, "a", "b", "main.c"))

	if err := w.MkdirAll(filepath.ToSlash(filepath.Join(dir, "a", "b"))); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := w.Write(target, []byte("int main;"), DefaultOptions()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := os.ReadFile(filepath.FromSlash(target))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "int main;" {
		t.Errorf("content = %q", got)
	}

	info, err := os.Stat(filepath.FromSlash(target))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}

	if err := w.Write(target, []byte("again"), DefaultOptions()); err != nil {
		t.Errorf("overwrite failed: %v", err)
	}
	if err := w.Write(target, []byte("x"), WriteOptions{}); err == nil {
		t.Error("expected error writing over an existing file without Overwrite")
	}
}

func TestBaseWriterOptions(t *testing.T) {
	dir := t.TempDir()
	w := NewBaseWriter()
	target := filepath.Join(dir, "deep", "run.sh")

	if err := w.MkdirAll(filepath.Join(dir, "deep")); err != nil {
		t.Fatal(err)
	}
	opts := WriteOptions{Overwrite: true, Atomic: true, Mode: 0o755}
	if err := w.Write(target, []byte("#!/bin/sh\n"), opts); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
	if leftovers, _ := filepath.Glob(filepath.Join(dir, "deep", "*.tmp")); len(leftovers) != 0 {
		t.Errorf("atomic write left temporary files behind: %v", leftovers)
	}

	if err := w.Write(target, []byte("#!/bin/sh\nexit 0\n"), opts); err != nil {
		t.Fatalf("atomic overwrite failed: %v", err)
	}
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "#!/bin/sh\nexit 0\n" {
		t.Errorf("content = %q", got)
	}
	if err := w.Write(target, []byte("x"), WriteOptions{Atomic: true}); err == nil {
		t.Error("expected atomic write over an existing file without Overwrite to fail")
	}
}

func TestBaseWriterSkipUnchanged(t *testing.T) {
	dir := t.TempDir()
	w := NewBaseWriter()
	target := filepath.Join(dir, "prj.conf")

	if err := os.WriteFile(target, []byte("CONFIG_GPIO=y\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	opts := WriteOptions{Overwrite: true, SkipUnchanged: true}
	if err := w.Write(target, []byte("CONFIG_GPIO=y\n"), opts); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("unchanged file was rewritten: mode = %v", info.Mode().Perm())
	}

	if err := w.Write(target, []byte("CONFIG_GPIO=n\n"), opts); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(target)
	if string(got) != "CONFIG_GPIO=n\n" {
		t.Errorf("changed content not written: %q", got)
	}
}

func TestDryRunWriter(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.txt")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewDryRunWriter()
	newDir := filepath.ToSlash(filepath.Join(dir, "src"))
	if err := w.MkdirAll(newDir); err != nil {
		t.Fatal(err)
	}
	if err := w.MkdirAll(filepath.ToSlash(dir)); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(newDir+"/main.c", []byte("abc"), DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(filepath.ToSlash(existing), []byte("new"), DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	changes := w.GetChanges()
	want := []struct {
		path   string
		action string
		size   int
	}{
		{newDir, ActionMkdir, 0},
		{newDir + "/main.c", ActionCreate, 3},
		{filepath.ToSlash(existing), ActionUpdate, 3},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d: %+v", len(changes), len(want), changes)
	}
	for i, c := range changes {
		if c.Path != want[i].path || c.Action != want[i].action || c.Size != want[i].size {
			t.Errorf("change %d = %+v, want %+v", i, c, want[i])
		}
	}

	if _, err := os.Stat(filepath.FromSlash(newDir)); !os.IsNotExist(err) {
		t.Error("dry run created a directory")
	}
}

func TestDryRunWriterSkipUnchanged(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "prj.conf")
	if err := os.WriteFile(existing, []byte("CONFIG_GPIO=y\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewDryRunWriter()
	opts := WriteOptions{Overwrite: true, SkipUnchanged: true}
	if err := w.Write(filepath.ToSlash(existing), []byte("CONFIG_GPIO=y\n"), opts); err != nil {
		t.Fatal(err)
	}
	if changes := w.GetChanges(); len(changes) != 0 {
		t.Errorf("unchanged file recorded: %+v", changes)
	}

	if err := w.Write(filepath.ToSlash(existing), []byte("CONFIG_GPIO=n\n"), opts); err != nil {
		t.Fatal(err)
	}
	changes := w.GetChanges()
	if len(changes) != 1 || changes[0].Action != ActionUpdate {
		t.Errorf("changes = %+v, want one update", changes)
	}
}

func TestLoggingWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dir := t.TempDir()
	w := NewLoggingWriter(NewBaseWriter(), logger)

	if err := w.Write(filepath.Join(dir, "ok.txt"), []byte("x"), DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(filepath.Join(dir, "missing", "no.txt"), []byte("x"), DefaultOptions()); err == nil {
		t.Fatal("expected write into a missing directory to fail")
	}

	out := buf.String()
	if !strings.Contains(out, "wrote file") {
		t.Errorf("missing debug line for successful write:\n%s", out)
	}
	if !strings.Contains(out, "write failed") {
		t.Errorf("missing error line for failed write:\n%s", out)
	}
}
