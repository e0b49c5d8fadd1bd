// Package engine provides the generation capabilities a plugin manifest is
// executed with: copying raw files and rendering templates.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"text/template"
	"time"

	"github.com/cpcf/cfsgen/postprocess"
	"github.com/cpcf/cfsgen/render"
	"github.com/cpcf/cfsgen/write"
)

// Capability identifies a generation service.
type Capability string

const (
	CapabilityCopyFiles          Capability = "copyFiles"
	CapabilityTemplate           Capability = "template"
	CapabilitySocControlOverride Capability = "socControlOverride"
)

// Service is implemented by every capability service.
type Service interface {
	Capability() Capability
}

// Registry hands out services by capability.
type Registry interface {
	Service(capability Capability) (Service, error)
}

// ServiceAs looks capability up in r and asserts the concrete service type.
func ServiceAs[S Service](r Registry, capability Capability) (S, error) {
	var zero S
	svc, err := r.Service(capability)
	if err != nil {
		return zero, err
	}
	s, ok := svc.(S)
	if !ok {
		return zero, fmt.Errorf("service %q is a %T, not a %T", string(capability), svc, zero)
	}
	return s, nil
}

// Engine is the service registry for one plugin and generation context.
// Services are built on first use and then reused.
type Engine struct {
	ctx             Context
	logger          *slog.Logger
	writer          write.Writer
	writeOptions    write.WriteOptions
	clock           func() time.Time
	funcs           template.FuncMap
	suffixes        []string
	maxIncludeDepth int
	postprocessors  *postprocess.Chain

	copyOnce     sync.Once
	copyFiles    *CopyFilesService
	templateOnce sync.Once
	templates    *TemplateService
	cache        *TemplateCache
}

func New(ctx Context, opts ...Option) *Engine {
	e := &Engine{
		ctx:            ctx,
		logger:         slog.Default(),
		writer:         write.NewBaseWriter(),
		writeOptions:   write.DefaultOptions(),
		clock:          time.Now,
		funcs:          render.FuncMap(),
		suffixes:       []string{".eta", ".tmpl"},
		postprocessors: postprocess.NewChain(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) Context() Context {
	return e.ctx
}

// Service returns the service for capability. Capabilities without a service
// fail with *CapabilityNotSupportedError.
func (e *Engine) Service(capability Capability) (Service, error) {
	switch capability {
	case CapabilityCopyFiles:
		return e.CopyFiles(), nil
	case CapabilityTemplate:
		return e.Templates(), nil
	}
	return nil, &CapabilityNotSupportedError{Capability: capability}
}

func (e *Engine) CopyFiles() *CopyFilesService {
	e.copyOnce.Do(func() {
		e.copyFiles = &CopyFilesService{
			ctx:     e.ctx,
			writer:  e.writer,
			options: e.writeOptions,
			logger:  e.logger,
		}
	})
	return e.copyFiles
}

func (e *Engine) Templates() *TemplateService {
	e.templateOnce.Do(func() {
		e.cache = NewTemplateCache(e.ctx.PluginsRoot, e.funcs)

		includes := render.NewIncludeManager(e.cache)
		if e.maxIncludeDepth > 0 {
			includes.SetMaxDepth(e.maxIncludeDepth)
		}

		e.templates = &TemplateService{
			ctx:      e.ctx,
			renderer: NewRenderer(e.logger, includes, e.postprocessors),
			writer:   e.writer,
			options:  e.writeOptions,
			logger:   e.logger,
			clock:    e.clock,
			suffixes: e.suffixes,
		}
	})
	return e.templates
}
