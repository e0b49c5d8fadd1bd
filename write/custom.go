package write

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DryRunWriter records what would be written without touching the
// filesystem.
type DryRunWriter struct {
	mu      sync.Mutex
	changes []Change
}

type Change struct {
	Path      string    `json:"path"`
	Action    string    `json:"action"`
	Size      int       `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionMkdir  = "mkdir"
)

func NewDryRunWriter() *DryRunWriter {
	return &DryRunWriter{
		changes: make([]Change, 0),
	}
}

// Write records a create or update of path. With options.SkipUnchanged
// nothing is recorded when path already holds content.
func (drw *DryRunWriter) Write(path string, content []byte, options WriteOptions) error {
	action := ActionCreate
	if existing, err := os.ReadFile(filepath.FromSlash(path)); err == nil {
		if options.SkipUnchanged && bytes.Equal(existing, content) {
			return nil
		}
		action = ActionUpdate
	}

	drw.record(Change{
		Path:      path,
		Action:    action,
		Size:      len(content),
		Timestamp: time.Now(),
	})
	return nil
}

func (drw *DryRunWriter) MkdirAll(dir string) error {
	if info, err := os.Stat(filepath.FromSlash(dir)); err == nil && info.IsDir() {
		return nil
	}

	drw.record(Change{Path: dir, Action: ActionMkdir, Timestamp: time.Now()})
	return nil
}

func (drw *DryRunWriter) record(change Change) {
	drw.mu.Lock()
	defer drw.mu.Unlock()
	drw.changes = append(drw.changes, change)
}

func (drw *DryRunWriter) GetChanges() []Change {
	drw.mu.Lock()
	defer drw.mu.Unlock()
	return append([]Change(nil), drw.changes...)
}

// LoggingWriter logs every write and directory creation of the wrapped writer.
type LoggingWriter struct {
	baseWriter Writer
	logger     *slog.Logger
}

func NewLoggingWriter(baseWriter Writer, logger *slog.Logger) *LoggingWriter {
	if baseWriter == nil {
		baseWriter = NewBaseWriter()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingWriter{
		baseWriter: baseWriter,
		logger:     logger,
	}
}

func (lw *LoggingWriter) Write(path string, content []byte, options WriteOptions) error {
	start := time.Now()
	err := lw.baseWriter.Write(path, content, options)
	duration := time.Since(start)

	if err != nil {
		lw.logger.Error("write failed", "path", path, "error", err, "duration", duration)
	} else {
		lw.logger.Debug("wrote file", "path", path, "bytes", len(content), "duration", duration)
	}

	return err
}

func (lw *LoggingWriter) MkdirAll(dir string) error {
	err := lw.baseWriter.MkdirAll(dir)
	if err != nil {
		lw.logger.Error("mkdir failed", "path", dir, "error", err)
	}
	return err
}
