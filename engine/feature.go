package engine

// PluginFeature is the unit of generation work declared by a plugin for one
// scope: raw files to copy and templates to render, each in manifest order.
type PluginFeature struct {
	Files     []FileRecord     `json:"files,omitempty" yaml:"files,omitempty" toml:"files,omitempty" mapstructure:"files"`
	Templates []TemplateRecord `json:"templates,omitempty" yaml:"templates,omitempty" toml:"templates,omitempty" mapstructure:"templates"`
}

// FileRecord maps the plugin files matched by the Src glob to the destination
// expression Dst. Matched files are copied byte for byte.
type FileRecord struct {
	Src string `json:"src" yaml:"src" toml:"src" mapstructure:"src"`
	Dst string `json:"dst" yaml:"dst" toml:"dst" mapstructure:"dst"`
}

// TemplateRecord maps the plugin templates matched by the Src glob to the
// destination expression Dst.
type TemplateRecord struct {
	Src string `json:"src" yaml:"src" toml:"src" mapstructure:"src"`
	Dst string `json:"dst" yaml:"dst" toml:"dst" mapstructure:"dst"`
}

// IsEmpty reports whether the feature has nothing to generate.
func (f PluginFeature) IsEmpty() bool {
	return len(f.Files) == 0 && len(f.Templates) == 0
}
