// Package generator runs a plugin feature in one of its three generation
// modes: code generation for a project of a multi-core configuration, bare
// project scaffolding, and workspace bootstrap.
package generator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sort"

	"github.com/cpcf/cfsgen/engine"
	"github.com/cpcf/cfsgen/expr"
	"github.com/cpcf/cfsgen/render"
	"github.com/cpcf/cfsgen/source"
	"github.com/cpcf/cfsgen/write"
)

const (
	// MetadataDir is the hidden directory created in a new workspace.
	MetadataDir = ".cfs"
	// MetadataFile is the workspace descriptor written inside MetadataDir.
	MetadataFile = ".cfsworkspace"
)

// Generator binds a plugin feature to the plugin's root and a generation
// context. It holds no state between calls.
type Generator struct {
	feature      engine.PluginFeature
	data         map[string]any
	registry     engine.Registry
	writer       write.Writer
	writeOptions write.WriteOptions
	logger       *slog.Logger
}

type Option func(*options)

type options struct {
	logger       *slog.Logger
	writer       write.Writer
	writeOptions write.WriteOptions
	registry     engine.Registry
	engineOpts   []engine.Option
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWriter sends the workspace descriptor and every generated file
// through w.
func WithWriter(w write.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// WithWriteOptions sets the options the workspace descriptor and every
// generated file are written with. The descriptor is always written
// atomically.
func WithWriteOptions(opts write.WriteOptions) Option {
	return func(o *options) {
		o.writeOptions = opts
	}
}

// WithRegistry replaces the engine that serves the copy and template
// capabilities. The registry must be scoped to the same plugin and context.
func WithRegistry(r engine.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithEngineOptions configures the engine built for the generator.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// New returns a generator for feature, whose manifests are relative to the
// plugin rooted at pluginPath. data is the generation context.
func New(pluginPath string, feature engine.PluginFeature, data map[string]any, opts ...Option) *Generator {
	o := &options{
		logger:       slog.Default(),
		writer:       write.NewBaseWriter(),
		writeOptions: write.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.registry == nil {
		engineOpts := append([]engine.Option{
			engine.WithLogger(o.logger),
			engine.WithWriter(o.writer),
			engine.WithWriteOptions(o.writeOptions),
		}, o.engineOpts...)
		o.registry = engine.New(engine.NewContext(pluginPath, data), engineOpts...)
	}

	return &Generator{
		feature:      feature,
		data:         data,
		registry:     o.registry,
		writer:       o.writer,
		writeOptions: o.writeOptions,
		logger:       o.logger,
	}
}

// Registry returns the registry the generator takes its services from.
func (g *Generator) Registry() engine.Registry {
	return g.registry
}

// GenerateCode generates the project named by data's projectId into
// baseDir/<ProjectName>, where ProjectName is the project's
// PlatformConfig.ProjectName in cfsconfig.Projects. Templates are rendered
// with data. It returns the paths of the rendered files.
//
// An unknown projectId fails with *ProjectNotFoundError before anything is
// written.
func (g *Generator) GenerateCode(data map[string]any, baseDir string) ([]string, error) {
	projectName, err := findProjectName(data)
	if err != nil {
		return nil, err
	}

	projectDir := source.Join(baseDir, projectName)
	g.logger.Debug("generating code", "project", data["projectId"], "dir", projectDir)

	return g.copyThenRender(data, projectDir)
}

// GenerateProject scaffolds the feature directly into baseDir with the
// generator's context as template data.
func (g *Generator) GenerateProject(baseDir string) ([]string, error) {
	g.logger.Debug("generating project", "dir", baseDir)
	return g.copyThenRender(g.data, baseDir)
}

// GenerateWorkspace creates the workspace directory <location>/<workspaceName>
// with a .cfs/.cfsworkspace descriptor holding workspace with its top-level
// keys in Title Case, then scaffolds the feature into it with the generator's
// context as template data.
func (g *Generator) GenerateWorkspace(workspace map[string]any) error {
	location, _ := workspace["location"].(string)
	if location == "" {
		return ErrMissingWorkspaceLocation
	}
	name, _ := workspace["workspaceName"].(string)
	workspacePath := source.Join(location, name)

	metadata, err := workspaceMetadata(workspace)
	if err != nil {
		return err
	}

	metadataDir := source.Join(workspacePath, MetadataDir)
	if err := g.writer.MkdirAll(metadataDir); err != nil {
		return fmt.Errorf("failed to create workspace %s: %w", workspacePath, err)
	}

	metadataPath := source.Join(metadataDir, MetadataFile)
	opts := g.writeOptions
	opts.Atomic = true
	if err := g.writer.Write(metadataPath, metadata, opts); err != nil {
		return fmt.Errorf("failed to write %s: %w", metadataPath, err)
	}
	g.logger.Debug("created workspace", "dir", workspacePath)

	_, err = g.copyThenRender(g.data, workspacePath)
	return err
}

func (g *Generator) copyThenRender(data map[string]any, dir string) ([]string, error) {
	copier, err := engine.ServiceAs[*engine.CopyFilesService](g.registry, engine.CapabilityCopyFiles)
	if err != nil {
		return nil, err
	}
	if err := copier.CopyFiles(g.feature.Files, dir); err != nil {
		return nil, err
	}

	templates, err := engine.ServiceAs[*engine.TemplateService](g.registry, engine.CapabilityTemplate)
	if err != nil {
		return nil, err
	}
	return templates.RenderTemplates(g.feature.Templates, data, dir)
}

func findProjectName(data map[string]any) (string, error) {
	projectID, err := expr.Evaluate("${projectId}", data)
	if err != nil {
		return "", fmt.Errorf("code generation needs a project: %w", err)
	}

	projects, err := expr.Lookup(data, "cfsconfig.Projects")
	if err != nil {
		return "", &ProjectNotFoundError{ProjectID: projectID}
	}

	v := reflect.ValueOf(projects)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return "", fmt.Errorf("cfsconfig.Projects is a %T, not a list", projects)
	}

	for i := 0; i < v.Len(); i++ {
		id, err := expr.Evaluate(fmt.Sprintf("${cfsconfig.Projects[%d].ProjectId ?? ''}", i), data)
		if err != nil || id != projectID {
			continue
		}
		return expr.Evaluate(fmt.Sprintf("${cfsconfig.Projects[%d].PlatformConfig.ProjectName}", i), data)
	}

	return "", &ProjectNotFoundError{ProjectID: projectID}
}

// workspaceMetadata renders the workspace descriptor. Keys are written in
// sorted order; when two keys collide after re-casing, the later one in that
// order wins.
func workspaceMetadata(workspace map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(workspace))
	for k := range workspace {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	titled := make(map[string]any, len(workspace))
	for _, k := range keys {
		titled[render.TitleCase(k)] = workspace[k]
	}

	data, err := json.MarshalIndent(titled, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode workspace: %w", err)
	}
	return data, nil
}
