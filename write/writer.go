// Package write puts generated and copied content on disk.
package write

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Writer is the sink used by the generation services. Destination paths are
// slash-separated; implementations convert them for the host OS.
type Writer interface {
	Write(path string, content []byte, options WriteOptions) error
	MkdirAll(dir string) error
}

type WriteOptions struct {
	Overwrite bool
	// Atomic writes to a temporary file next to the destination and renames
	// it into place.
	Atomic bool
	// SkipUnchanged leaves a file alone when it already holds content, so
	// regenerating an unchanged tree keeps modification times.
	SkipUnchanged bool
	// Mode is the permission of written files; zero means 0o644.
	Mode fs.FileMode
}

// DefaultOptions overwrite whatever is at the destination, which is how the
// generators make re-invocation the recovery path after a failure.
func DefaultOptions() WriteOptions {
	return WriteOptions{Overwrite: true}
}

const (
	defaultFileMode fs.FileMode = 0o644
	defaultDirMode  fs.FileMode = 0o755
)

// BaseWriter writes straight to the local filesystem.
type BaseWriter struct{}

func NewBaseWriter() *BaseWriter {
	return &BaseWriter{}
}

func (bw *BaseWriter) Write(path string, content []byte, options WriteOptions) error {
	path = filepath.FromSlash(path)

	mode := options.Mode.Perm()
	if mode == 0 {
		mode = defaultFileMode
	}

	existing, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if exists {
		if !options.Overwrite {
			return &fs.PathError{Op: "write", Path: path, Err: fs.ErrExist}
		}
		if options.SkipUnchanged && bytes.Equal(existing, content) {
			return nil
		}
	}

	if options.Atomic {
		return writeAtomic(path, content, mode)
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return err
	}
	// WriteFile only applies mode to new files.
	return os.Chmod(path, mode)
}

// MkdirAll creates dir and any missing parents. An existing directory is not
// an error.
func (bw *BaseWriter) MkdirAll(dir string) error {
	return os.MkdirAll(filepath.FromSlash(dir), defaultDirMode)
}

// writeAtomic writes to a temporary file in the destination directory and
// renames it into place, so readers never observe a partial file.
func writeAtomic(path string, content []byte, mode fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(content)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Chmod(tmpPath, mode)
	}
	if err == nil {
		err = os.Rename(tmpPath, path)
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
