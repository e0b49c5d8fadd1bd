package engine

import (
	"log/slog"
	"text/template"
	"time"

	"github.com/cpcf/cfsgen/postprocess"
	"github.com/cpcf/cfsgen/write"
)

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithWriter sends every copy and rendered file through w, for example a
// write.DryRunWriter.
func WithWriter(w write.Writer) Option {
	return func(e *Engine) {
		e.writer = w
	}
}

// WithWriteOptions sets the options every copied and rendered file is
// written with. Copies always keep the source file's permissions.
func WithWriteOptions(opts write.WriteOptions) Option {
	return func(e *Engine) {
		e.writeOptions = opts
	}
}

// WithClock sets the source of the timestamp injected into template data.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

func WithPostProcessor(processor postprocess.Processor) Option {
	return func(e *Engine) {
		e.postprocessors.Add(processor)
	}
}

// WithFuncs makes extra functions available to templates. They take
// precedence over the built-in ones of the same name.
func WithFuncs(funcs template.FuncMap) Option {
	return func(e *Engine) {
		for name, fn := range funcs {
			e.funcs[name] = fn
		}
	}
}

// WithTemplateSuffixes replaces the suffixes stripped from a template's name
// when it is rendered into a destination directory.
func WithTemplateSuffixes(suffixes ...string) Option {
	return func(e *Engine) {
		e.suffixes = suffixes
	}
}

func WithMaxIncludeDepth(depth int) Option {
	return func(e *Engine) {
		e.maxIncludeDepth = depth
	}
}
