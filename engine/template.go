package engine

import (
	"log/slog"
	"maps"
	"path"
	"time"

	"github.com/cpcf/cfsgen/expr"
	"github.com/cpcf/cfsgen/source"
	"github.com/cpcf/cfsgen/write"
)

// TimestampLayout formats the timestamp injected into template data.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// TemplateService renders plugin templates into the generated tree.
type TemplateService struct {
	ctx      Context
	renderer *Renderer
	writer   write.Writer
	options  write.WriteOptions
	logger   *slog.Logger
	clock    func() time.Time
	suffixes []string
}

func (s *TemplateService) Capability() Capability {
	return CapabilityTemplate
}

// RenderTemplates renders every template matched by each record with data
// plus a "timestamp" field, and returns the written paths in write order.
//
// When baseDir is empty the context's path field is used instead, and the
// chosen directory is made absolute. With neither, a record's Dst is used as
// written: it is still evaluated, so a reference to a missing field fails,
// but the result is not substituted.
//
// The first failure stops rendering; files already written stay in place.
func (s *TemplateService) RenderTemplates(templates []TemplateRecord, data map[string]any, baseDir string) ([]string, error) {
	location, err := absLocation(resolveLocation(baseDir, data))
	if err != nil {
		return nil, newGenerationError(CapabilityTemplate, "", baseDir, err)
	}

	vars := make(map[string]any, len(data)+1)
	maps.Copy(vars, data)
	vars["timestamp"] = s.clock().UTC().Format(TimestampLayout)

	var written []string
	for _, t := range templates {
		paths, err := s.renderRecord(t, data, vars, location)
		if err != nil {
			return nil, err
		}
		written = append(written, paths...)
	}
	return written, nil
}

func (s *TemplateService) renderRecord(t TemplateRecord, data, vars map[string]any, location string) ([]string, error) {
	evaluated, err := expr.Evaluate(t.Dst, data)
	if err != nil {
		return nil, newGenerationError(CapabilityTemplate, t.Src, t.Dst, err)
	}

	dst := source.ToSlash(t.Dst)
	if location != "" {
		dst = source.Join(location, evaluated)
	}

	matches, err := source.Resolve(s.ctx.PluginPath, t.Src)
	if err != nil {
		return nil, newGenerationError(CapabilityTemplate, t.Src, dst, err)
	}
	if len(matches) == 0 {
		s.logger.Debug("no templates matched", "src", t.Src)
	}

	written := make([]string, 0, len(matches))
	for _, match := range matches {
		name := stripTemplateSuffix(path.Base(match), s.suffixes)
		file, dir := placement(dst, name)
		if err := s.renderFile(match, file, dir, vars); err != nil {
			return nil, newGenerationError(CapabilityTemplate, match, file, err)
		}
		s.logger.Debug("rendered template", "src", match, "dst", file)
		written = append(written, file)
	}
	return written, nil
}

func (s *TemplateService) renderFile(src, file, dir string, vars map[string]any) error {
	key, err := lookupKey(s.ctx.PluginsRoot, src)
	if err != nil {
		return err
	}

	content, err := s.renderer.Render(key, file, vars)
	if err != nil {
		return err
	}

	if err := s.writer.MkdirAll(dir); err != nil {
		return err
	}
	return s.writer.Write(file, content, s.options)
}
