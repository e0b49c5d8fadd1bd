// Package plugin loads .cfsplugin descriptors and exposes the generators and
// services of the plugins they describe.
package plugin

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/cpcf/cfsgen/config"
	"github.com/cpcf/cfsgen/controls"
	"github.com/cpcf/cfsgen/engine"
	"github.com/cpcf/cfsgen/generator"
)

// InfoFile is the name of the descriptor at the root of every plugin.
const InfoFile = ".cfsplugin"

// Scope names a generation feature of a plugin.
type Scope string

const (
	ScopeWorkspace Scope = "workspace"
	ScopeProject   Scope = "project"
	ScopeCodeGen   Scope = "codegen"
)

// Info is the content of a .cfsplugin file.
type Info struct {
	PluginID          string         `json:"pluginId" yaml:"pluginId" toml:"pluginId" validate:"required"`
	PluginName        string         `json:"pluginName" yaml:"pluginName" toml:"pluginName"`
	PluginDescription string         `json:"pluginDescription,omitempty" yaml:"pluginDescription,omitempty" toml:"pluginDescription,omitempty"`
	PluginVersion     string         `json:"pluginVersion" yaml:"pluginVersion" toml:"pluginVersion" validate:"required,semver"`
	Author            string         `json:"author,omitempty" yaml:"author,omitempty" toml:"author,omitempty"`
	Features          Features       `json:"features" yaml:"features" toml:"features"`
	Properties        map[string]any `json:"properties,omitempty" yaml:"properties,omitempty" toml:"properties,omitempty"`

	// PluginPath is the path of the descriptor the info was loaded from.
	PluginPath string `json:"-" yaml:"-" toml:"-"`
}

// Features holds the manifest of each generation scope a plugin supports.
type Features struct {
	Workspace *engine.PluginFeature `json:"workspace,omitempty" yaml:"workspace,omitempty" toml:"workspace,omitempty"`
	Project   *engine.PluginFeature `json:"project,omitempty" yaml:"project,omitempty" toml:"project,omitempty"`
	CodeGen   *engine.PluginFeature `json:"codegen,omitempty" yaml:"codegen,omitempty" toml:"codegen,omitempty"`
}

// ScopeNotSupportedError is returned when a plugin declares no feature for
// the requested scope.
type ScopeNotSupportedError struct {
	PluginID string
	Scope    Scope
}

func (e *ScopeNotSupportedError) Error() string {
	return fmt.Sprintf("generator: %s is not supported by plugin %s", e.Scope, e.PluginID)
}

// Plugin is a loaded plugin.
type Plugin struct {
	Info Info

	logger    *slog.Logger
	overrider *controls.Overrider
}

type Option func(*Plugin)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Plugin) {
		p.logger = logger
	}
}

// Load reads the plugin descriptor at path.
func Load(path string, opts ...Option) (*Plugin, error) {
	var info Info
	if err := config.Load(path, &info); err != nil {
		return nil, fmt.Errorf("failed to load plugin %s: %w", path, err)
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	info.PluginPath = filepath.ToSlash(path)

	for k, v := range info.Properties {
		info.Properties[k] = config.Normalize(v)
	}

	return New(info, opts...), nil
}

// New wraps already decoded plugin info.
func New(info Info, opts ...Option) *Plugin {
	p := &Plugin{
		Info:      info,
		logger:    slog.Default(),
		overrider: controls.New(info.Properties),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the plugin's root directory, the directory holding its
// descriptor. Manifest globs are relative to it.
func (p *Plugin) Root() string {
	return filepath.Dir(filepath.FromSlash(p.Info.PluginPath))
}

// Feature returns the manifest the plugin declares for scope.
func (p *Plugin) Feature(scope Scope) (engine.PluginFeature, error) {
	var feature *engine.PluginFeature
	switch scope {
	case ScopeWorkspace:
		feature = p.Info.Features.Workspace
	case ScopeProject:
		feature = p.Info.Features.Project
	case ScopeCodeGen:
		feature = p.Info.Features.CodeGen
	}
	if feature == nil {
		return engine.PluginFeature{}, &ScopeNotSupportedError{PluginID: p.Info.PluginID, Scope: scope}
	}
	return *feature, nil
}

// Generator returns a generator running the plugin's feature for scope
// against data.
func (p *Plugin) Generator(scope Scope, data map[string]any, opts ...generator.Option) (*generator.Generator, error) {
	feature, err := p.Feature(scope)
	if err != nil {
		return nil, err
	}
	opts = append([]generator.Option{generator.WithLogger(p.logger)}, opts...)
	return generator.New(p.Root(), feature, data, opts...), nil
}

// ControlsService serves the socControlOverride capability.
type ControlsService struct {
	*controls.Overrider
}

func (ControlsService) Capability() engine.Capability {
	return engine.CapabilitySocControlOverride
}

// Service returns the plugin-level service for capability. Copy and template
// services belong to a generator's registry and are not served here.
func (p *Plugin) Service(capability engine.Capability) (engine.Service, error) {
	if capability == engine.CapabilitySocControlOverride {
		return ControlsService{Overrider: p.overrider}, nil
	}
	return nil, &engine.CapabilityNotSupportedError{Capability: capability}
}

// Properties returns the plugin's properties for scope. With a SoC data
// model the plugin's control directives are applied to it.
func (p *Plugin) Properties(scope string, soc *controls.Soc) (any, error) {
	if _, ok := p.Info.Properties[scope]; !ok && soc == nil {
		p.logger.Warn("plugin does not support properties for scope", "plugin", p.Info.PluginName, "scope", scope)
	}

	svc, err := engine.ServiceAs[ControlsService](p, engine.CapabilitySocControlOverride)
	if err != nil {
		return nil, err
	}
	return svc.OverrideControls(controls.Scope(scope), soc)
}
