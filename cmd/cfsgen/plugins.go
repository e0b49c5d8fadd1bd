package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cpcf/cfsgen/plugin"
)

func newPluginsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the plugins found in the plugin directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plugins := plugin.Discover(a.pluginDirs, plugin.WithLogger(a.logger))
			if len(plugins) == 0 {
				fmt.Fprintln(a.out, a.styles.muted.Render("No plugins found in "+strings.Join(a.pluginDirs, ", ")))
				return nil
			}

			slices.SortFunc(plugins, func(x, y *plugin.Plugin) int {
				if c := strings.Compare(x.Info.PluginID, y.Info.PluginID); c != 0 {
					return c
				}
				return strings.Compare(x.Info.PluginVersion, y.Info.PluginVersion)
			})

			for _, p := range plugins {
				fmt.Fprintf(a.out, "%s %s  %s\n",
					a.styles.title.Render(p.Info.PluginID),
					p.Info.PluginVersion,
					a.styles.muted.Render(strings.Join(scopes(p), ",")))
				if p.Info.PluginName != "" {
					fmt.Fprintln(a.out, "  "+p.Info.PluginName)
				}
				fmt.Fprintln(a.out, "  "+a.styles.path.Render(p.Root()))
			}
			return nil
		},
	}
}

func scopes(p *plugin.Plugin) []string {
	var out []string
	for _, scope := range []plugin.Scope{plugin.ScopeWorkspace, plugin.ScopeProject, plugin.ScopeCodeGen} {
		if _, err := p.Feature(scope); err == nil {
			out = append(out, string(scope))
		}
	}
	return out
}
