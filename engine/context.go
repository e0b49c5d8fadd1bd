package engine

import (
	"path/filepath"
)

// Context scopes the generation services to one plugin and one generation
// context.
type Context struct {
	// PluginPath is the plugin's root directory. Manifest src globs are
	// resolved against it.
	PluginPath string
	// PluginsRoot is the directory holding every installed plugin. Template
	// lookup keys are relative to it.
	PluginsRoot string
	// Data is the caller-supplied generation context. It is never modified.
	Data map[string]any
}

// NewContext scopes services to the plugin rooted at pluginPath. The plugins
// root is the plugin's parent directory.
func NewContext(pluginPath string, data map[string]any) Context {
	if abs, err := filepath.Abs(pluginPath); err == nil {
		pluginPath = abs
	}
	return Context{
		PluginPath:  pluginPath,
		PluginsRoot: filepath.Dir(pluginPath),
		Data:        data,
	}
}
