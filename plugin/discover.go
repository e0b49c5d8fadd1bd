package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/cpcf/cfsgen/source"
)

// discoverPattern matches a descriptor at the root of a search path or one
// directory below it.
const discoverPattern = "{" + InfoFile + ",*/" + InfoFile + "}"

var ErrPluginNotFound = errors.New("plugin not found")

// NotFoundError is returned by Find.
type NotFoundError struct {
	PluginID string
	Version  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("plugin %s version %s not found in plugin directories", e.PluginID, e.Version)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrPluginNotFound
}

// Discover loads every plugin found in searchPaths. Search paths that are
// not directories and descriptors that fail to load are logged and skipped.
func Discover(searchPaths []string, opts ...Option) []*Plugin {
	logger := New(Info{}, opts...).logger

	var plugins []*Plugin
	for _, dir := range searchPaths {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			logger.Warn("invalid plugin directory", "dir", dir, "error", err)
			continue
		}

		matches, err := source.ResolveFS(os.DirFS(dir), discoverPattern)
		if err != nil {
			logger.Warn("failed to search plugin directory", "dir", dir, "error", err)
			continue
		}

		for _, match := range matches {
			path := filepath.Join(dir, filepath.FromSlash(match))
			p, err := Load(path, opts...)
			if err != nil {
				logger.Warn("skipping plugin", "path", path, "error", err)
				continue
			}
			plugins = append(plugins, p)
		}
	}
	return plugins
}

// Find returns the plugin with the given id and version. An empty version
// selects the highest installed version of the plugin.
func Find(plugins []*Plugin, id, version string) (*Plugin, error) {
	var found *Plugin
	for _, p := range plugins {
		if p.Info.PluginID != id {
			continue
		}
		if version != "" {
			if p.Info.PluginVersion == version {
				return p, nil
			}
			continue
		}
		if found == nil || compareVersions(p.Info.PluginVersion, found.Info.PluginVersion) > 0 {
			found = p
		}
	}

	if found == nil {
		return nil, &NotFoundError{PluginID: id, Version: version}
	}
	return found, nil
}

func compareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

func canonical(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
