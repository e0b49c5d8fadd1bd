package engine

import (
	"bytes"
	"log/slog"

	"github.com/cpcf/cfsgen/postprocess"
	"github.com/cpcf/cfsgen/render"
)

// Renderer executes cached templates and runs the result through the
// post-processing chain.
type Renderer struct {
	logger         *slog.Logger
	includes       *render.IncludeManager
	postprocessors *postprocess.Chain
}

func NewRenderer(logger *slog.Logger, includes *render.IncludeManager, postprocessors *postprocess.Chain) *Renderer {
	return &Renderer{
		logger:         logger,
		includes:       includes,
		postprocessors: postprocessors,
	}
}

// Render executes the template stored under key with data. outputPath is
// where the result will be written and selects the post-processors that
// apply to it.
func (r *Renderer) Render(key, outputPath string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.includes.Execute(&buf, key, data); err != nil {
		return nil, err
	}

	content := buf.Bytes()

	if r.postprocessors.HasProcessors() {
		processed, err := r.postprocessors.Process(outputPath, content)
		if err != nil {
			r.logger.Warn("post-processing failed", "path", outputPath, "error", err)
			// Continue with unprocessed content rather than failing
		} else {
			content = processed
		}
	}

	return content, nil
}
