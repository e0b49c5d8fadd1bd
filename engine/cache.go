package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"text/template"
)

// TemplateCache parses plugin templates on first use and keeps them by lookup
// key, the template's slash-separated path relative to the plugins root.
type TemplateCache struct {
	root  string
	funcs template.FuncMap

	mu        sync.RWMutex
	templates map[string]*template.Template
}

func NewTemplateCache(pluginsRoot string, funcs template.FuncMap) *TemplateCache {
	return &TemplateCache{
		root:      pluginsRoot,
		funcs:     funcs,
		templates: make(map[string]*template.Template),
	}
}

func (c *TemplateCache) Get(key string) (*template.Template, error) {
	c.mu.RLock()
	if tmpl, exists := c.templates[key]; exists {
		c.mu.RUnlock()
		return tmpl, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if tmpl, exists := c.templates[key]; exists {
		return tmpl, nil
	}

	content, err := os.ReadFile(filepath.Join(c.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(key).Option("missingkey=error").Funcs(c.funcs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", key, err)
	}

	c.templates[key] = tmpl
	return tmpl, nil
}
