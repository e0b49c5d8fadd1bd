package engine

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/cpcf/cfsgen/expr"
	"github.com/cpcf/cfsgen/source"
	"github.com/cpcf/cfsgen/write"
)

// CopyFilesService copies plugin files verbatim into the generated tree.
type CopyFilesService struct {
	ctx     Context
	writer  write.Writer
	options write.WriteOptions
	logger  *slog.Logger
}

func (s *CopyFilesService) Capability() Capability {
	return CapabilityCopyFiles
}

// CopyFiles processes files in order. Each record's Dst is evaluated against
// the service's context and placed under baseDir, or under the context's path
// field when baseDir is empty, made absolute. The first failure stops the
// copy; files already written stay in place.
func (s *CopyFilesService) CopyFiles(files []FileRecord, baseDir string) error {
	location, err := absLocation(resolveLocation(baseDir, s.ctx.Data))
	if err != nil {
		return newGenerationError(CapabilityCopyFiles, "", baseDir, err)
	}

	for _, f := range files {
		if err := s.copyRecord(f, location); err != nil {
			return err
		}
	}
	return nil
}

func (s *CopyFilesService) copyRecord(f FileRecord, location string) error {
	evaluated, err := expr.Evaluate(f.Dst, s.ctx.Data)
	if err != nil {
		return newGenerationError(CapabilityCopyFiles, f.Src, f.Dst, err)
	}
	dst := source.Join(location, evaluated)

	matches, err := source.Resolve(s.ctx.PluginPath, f.Src)
	if err != nil {
		return newGenerationError(CapabilityCopyFiles, f.Src, dst, err)
	}
	if len(matches) == 0 {
		s.logger.Debug("no files matched", "src", f.Src)
	}

	for _, match := range matches {
		file, dir := placement(dst, path.Base(match))
		if err := s.copyFile(match, file, dir); err != nil {
			return newGenerationError(CapabilityCopyFiles, match, file, err)
		}
		s.logger.Debug("copied file", "src", match, "dst", file)
	}
	return nil
}

func (s *CopyFilesService) copyFile(src, file, dir string) error {
	if err := s.writer.MkdirAll(dir); err != nil {
		return err
	}

	srcPath := filepath.FromSlash(src)
	info, err := os.Stat(srcPath)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}

	opts := s.options
	opts.Mode = info.Mode().Perm()
	return s.writer.Write(file, content, opts)
}
