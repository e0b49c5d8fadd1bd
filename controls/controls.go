// Package controls adjusts the configuration controls of a SoC data model
// with the directives a plugin declares in its properties, so that the
// configuration UI only offers what the plugin's generated code supports.
package controls

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/go-viper/mapstructure/v2"
)

// Scope selects which part of the SoC data model is overridden.
type Scope string

const (
	ScopePeripheral  Scope = "peripheral"
	ScopeMemory      Scope = "memory"
	ScopePinConfig   Scope = "pinConfig"
	ScopeClockConfig Scope = "clockConfig"
)

// Control is one configuration control of the data model. Only its Id is
// interpreted; every other field is passed through.
type Control map[string]any

func (c Control) ID() string {
	switch id := c["Id"].(type) {
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}

// Soc is the part of a SoC data model read by the overrides.
type Soc struct {
	Name       string               `json:"Name" mapstructure:"Name"`
	Controls   map[string][]Control `json:"Controls" mapstructure:"Controls"`
	ClockNodes []ClockNode          `json:"ClockNodes" mapstructure:"ClockNodes"`
}

// ClockNode is a node of the clock tree. Nodes without a ConfigUIOrder are
// not configurable.
type ClockNode struct {
	Name          string   `json:"Name" mapstructure:"Name"`
	ConfigUIOrder []string `json:"ConfigUIOrder" mapstructure:"ConfigUIOrder"`
}

// Directive describes how a plugin changes one list of controls.
//
// SupportedControls, when present, keeps only the listed controls and takes
// precedence over RemovedControls. Added controls are appended and marked
// with PluginOption. Modified controls are merged field by field into the
// control with the same Id. DefaultOverrides replace a control's Default,
// optionally only for parts whose name matches PartRegexp.
type Directive struct {
	SupportedControls []ControlRef      `mapstructure:"supportedControls"`
	RemovedControls   []ControlRef      `mapstructure:"removedControls"`
	AddedControls     []Control         `mapstructure:"addedControls"`
	ModifiedControls  []Control         `mapstructure:"modifiedControls"`
	DefaultOverrides  []DefaultOverride `mapstructure:"defaultOverrides"`
}

type ControlRef struct {
	ID string `mapstructure:"Id"`
}

type DefaultOverride struct {
	ID         string  `mapstructure:"Id"`
	Value      any     `mapstructure:"Value"`
	PartRegexp *string `mapstructure:"partRegexp"`
}

// Overrider applies the directives found in a plugin's properties.
type Overrider struct {
	properties map[string]any
}

// New returns an Overrider for a plugin's properties, keyed by scope.
func New(properties map[string]any) *Overrider {
	return &Overrider{properties: properties}
}

// Properties returns the plugin's raw properties for scope, or an empty list.
func (o *Overrider) Properties(scope Scope) any {
	if v, ok := o.properties[string(scope)]; ok && v != nil {
		return v
	}
	return []any{}
}

// OverrideControls returns the controls of soc for scope with the plugin's
// directives applied. soc is not modified.
//
// With a nil soc the plugin's raw properties for scope are returned. The
// peripheral and clockConfig scopes return a map[string][]Control keyed by
// peripheral or clock node; memory and pinConfig return a single-entry map
// keyed "memory" and "PinConfig". Other scopes return an empty list.
func (o *Overrider) OverrideControls(scope Scope, soc *Soc) (any, error) {
	if soc == nil {
		return o.Properties(scope), nil
	}

	switch scope {
	case ScopePeripheral:
		return o.peripheral(soc)
	case ScopeMemory:
		return o.memory()
	case ScopePinConfig:
		return o.pinConfig(soc)
	case ScopeClockConfig:
		return o.clockConfig(soc)
	}
	return []Control{}, nil
}

func (o *Overrider) peripheral(soc *Soc) (map[string][]Control, error) {
	directives, err := o.targetDirectives(ScopePeripheral)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]Control, len(soc.Controls))
	for target, controls := range soc.Controls {
		if target == "ClockConfig" || target == "PinConfig" {
			continue
		}

		d, ok := directives[target]
		if !ok {
			result[target] = controls
			continue
		}
		applied, err := d.apply(controls, soc.Name, nil, true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", target, err)
		}
		result[target] = applied
	}
	return result, nil
}

func (o *Overrider) memory() (map[string][]Control, error) {
	d, err := o.directive(ScopeMemory)
	if err != nil {
		return nil, err
	}

	added := make([]Control, 0, len(d.AddedControls))
	for _, c := range d.AddedControls {
		added = append(added, pluginOption(c, nil))
	}
	return map[string][]Control{string(ScopeMemory): added}, nil
}

func (o *Overrider) pinConfig(soc *Soc) (map[string][]Control, error) {
	d, err := o.directive(ScopePinConfig)
	if err != nil {
		return nil, err
	}

	applied, err := d.apply(soc.Controls["PinConfig"], soc.Name, nil, false)
	if err != nil {
		return nil, err
	}
	return map[string][]Control{"PinConfig": applied}, nil
}

func (o *Overrider) clockConfig(soc *Soc) (map[string][]Control, error) {
	directives, err := o.targetDirectives(ScopeClockConfig)
	if err != nil {
		return nil, err
	}

	available := soc.Controls["ClockConfig"]
	result := make(map[string][]Control)
	for _, node := range soc.ClockNodes {
		if node.ConfigUIOrder == nil {
			continue
		}

		var controls []Control
		for _, id := range node.ConfigUIOrder {
			if i := indexOf(available, id); i >= 0 {
				controls = append(controls, maps.Clone(available[i]))
			}
		}

		if d, ok := directives[node.Name]; ok {
			controls, err = d.apply(controls, soc.Name, map[string]any{"ClockNode": node.Name}, true)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", node.Name, err)
			}
		}

		if len(controls) > 0 {
			result[node.Name] = controls
		}
	}
	return result, nil
}

func (d Directive) apply(controls []Control, socName string, extra map[string]any, withDefaults bool) ([]Control, error) {
	out := slices.Clone(controls)

	switch {
	case d.SupportedControls != nil:
		out = slices.DeleteFunc(out, func(c Control) bool { return !containsRef(d.SupportedControls, c.ID()) })
	case d.RemovedControls != nil:
		out = slices.DeleteFunc(out, func(c Control) bool { return containsRef(d.RemovedControls, c.ID()) })
	}

	for _, c := range d.AddedControls {
		out = append(out, pluginOption(c, extra))
	}

	for _, m := range d.ModifiedControls {
		if i := indexOf(out, m.ID()); i >= 0 {
			out[i] = merge(out[i], m)
		}
	}

	if !withDefaults {
		return out, nil
	}

	for _, def := range d.DefaultOverrides {
		if def.PartRegexp != nil {
			re, err := regexp.Compile(*def.PartRegexp)
			if err != nil {
				return nil, fmt.Errorf("invalid partRegexp for %s: %w", def.ID, err)
			}
			if !re.MatchString(socName) {
				continue
			}
		}
		if i := indexOf(out, def.ID); i >= 0 {
			out[i] = merge(out[i], map[string]any{"Default": def.Value})
		}
	}
	return out, nil
}

func (o *Overrider) directive(scope Scope) (Directive, error) {
	var d Directive
	raw, ok := o.properties[string(scope)]
	if !ok || raw == nil {
		return d, nil
	}
	if err := decode(raw, &d); err != nil {
		return d, fmt.Errorf("invalid %s directives: %w", scope, err)
	}
	return d, nil
}

func (o *Overrider) targetDirectives(scope Scope) (map[string]Directive, error) {
	directives := make(map[string]Directive)
	raw, ok := o.properties[string(scope)]
	if !ok || raw == nil {
		return directives, nil
	}
	if err := decode(raw, &directives); err != nil {
		return nil, fmt.Errorf("invalid %s directives: %w", scope, err)
	}
	return directives, nil
}

// DecodeSoc converts a SoC data model decoded from JSON into a Soc.
func DecodeSoc(data map[string]any) (*Soc, error) {
	var soc Soc
	if err := decode(data, &soc); err != nil {
		return nil, fmt.Errorf("invalid SoC data model: %w", err)
	}
	return &soc, nil
}

func decode(input, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: target})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func pluginOption(c Control, extra map[string]any) Control {
	out := make(Control, len(c)+1+len(extra))
	maps.Copy(out, c)
	out["PluginOption"] = true
	maps.Copy(out, extra)
	return out
}

// merge returns a copy of c with fields set over it.
func merge(c Control, fields map[string]any) Control {
	out := make(Control, len(c)+len(fields))
	maps.Copy(out, c)
	maps.Copy(out, fields)
	return out
}

func indexOf(controls []Control, id string) int {
	return slices.IndexFunc(controls, func(c Control) bool { return c.ID() == id })
}

func containsRef(refs []ControlRef, id string) bool {
	return slices.ContainsFunc(refs, func(r ControlRef) bool { return r.ID == id })
}
