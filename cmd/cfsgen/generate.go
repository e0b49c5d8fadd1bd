package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cpcf/cfsgen/config"
	"github.com/cpcf/cfsgen/generator"
	"github.com/cpcf/cfsgen/plugin"
)

func newCodeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Generate code for one project of a workspace",
		Long: `Generate code for the project named by the context's projectId.

The files land in <out>/<ProjectName>, where ProjectName comes from the
matching entry of cfsconfig.Projects.`,
		Example: "  cfsgen code --plugin com.example.zephyr -c context.json -o ./workspace",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.LoadContext(a.contextFile)
			if err != nil {
				return err
			}

			g, dry, err := a.generator(plugin.ScopeCodeGen, data)
			if err != nil {
				return err
			}

			written, err := g.GenerateCode(data, a.outDir)
			if err != nil {
				return err
			}
			a.report("Generated "+plural(len(written), "file"), written, dry)
			return nil
		},
	}
	a.bindPluginFlags(cmd)
	cmd.Flags().StringVarP(&a.outDir, "out", "o", ".", "workspace directory holding the project directories")
	return cmd
}

func newProjectCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Short:   "Scaffold a bare project",
		Example: "  cfsgen project --plugin com.example.zephyr -c project.yaml -o ./blinky",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.LoadContext(a.contextFile)
			if err != nil {
				return err
			}

			g, dry, err := a.generator(plugin.ScopeProject, data)
			if err != nil {
				return err
			}

			written, err := g.GenerateProject(a.outDir)
			if err != nil {
				return err
			}
			a.report("Generated "+plural(len(written), "template"), written, dry)
			return nil
		},
	}
	a.bindPluginFlags(cmd)
	cmd.Flags().StringVarP(&a.outDir, "out", "o", ".", "project directory")
	return cmd
}

func newWorkspaceCommand(a *app) *cobra.Command {
	var location, name string

	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Bootstrap a workspace",
		Long: `Bootstrap a workspace at <location>/<workspaceName>.

The context file is the workspace descriptor. --location and --name override
its location and workspaceName fields.`,
		Example: "  cfsgen workspace --plugin com.example.zephyr -c workspace.json --location ~/cfs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := config.LoadContext(a.contextFile)
			if err != nil {
				return err
			}
			if location != "" {
				ws["location"] = location
			}
			if name != "" {
				ws["workspaceName"] = name
			}

			g, dry, err := a.generator(plugin.ScopeWorkspace, ws)
			if err != nil {
				return err
			}

			if err := g.GenerateWorkspace(ws); err != nil {
				return err
			}

			loc, _ := ws["location"].(string)
			wsName, _ := ws["workspaceName"].(string)
			root := filepath.Join(loc, wsName)
			metadata := filepath.ToSlash(filepath.Join(root, generator.MetadataDir, generator.MetadataFile))
			a.report(fmt.Sprintf("Created workspace %s", root), []string{metadata}, dry)
			return nil
		},
	}
	a.bindPluginFlags(cmd)
	cmd.Flags().StringVar(&location, "location", "", "directory the workspace is created in")
	cmd.Flags().StringVar(&name, "name", "", "workspace name")
	return cmd
}
