package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cpcf/cfsgen/engine"
	"github.com/cpcf/cfsgen/generator"
	"github.com/cpcf/cfsgen/plugin"
	"github.com/cpcf/cfsgen/postprocess"
	"github.com/cpcf/cfsgen/processors"
	"github.com/cpcf/cfsgen/write"
)

// app holds the flags shared by every subcommand.
type app struct {
	pluginDirs    []string
	pluginID      string
	pluginVersion string
	contextFile   string
	outDir        string
	dryRun        bool
	skipUnchanged bool
	logLevel      string
	goimports     bool
	lineEndings   bool

	logger *slog.Logger
	out    io.Writer
	styles styles
}

func newRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "cfsgen",
		Short: "Generate workspaces, projects and code from CFS plugins",
		Long: `cfsgen renders the file and template manifests of CFS plugins.

Plugins are directories holding a .cfsplugin descriptor. They are searched for
in every --plugin-dir and in the directories directly below it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			a.out = cmd.OutOrStdout()
			a.styles = newStyles(a.out)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringSliceVar(&a.pluginDirs, "plugin-dir", []string{"."}, "directory to search for plugins (repeatable)")
	flags.BoolVar(&a.dryRun, "dry-run", false, "report what would be written without touching the filesystem")
	flags.BoolVar(&a.skipUnchanged, "skip-unchanged", false, "leave files that already hold the generated content untouched")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.BoolVar(&a.goimports, "goimports", true, "run goimports on generated .go files")
	flags.BoolVar(&a.lineEndings, "lf", false, "normalise generated files to LF line endings")

	cmd.AddCommand(
		newCodeCommand(a),
		newProjectCommand(a),
		newWorkspaceCommand(a),
		newPluginsCommand(a),
	)

	return cmd
}

// bindPluginFlags adds the flags selecting a plugin and its inputs.
func (a *app) bindPluginFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.pluginID, "plugin", "", "id of the plugin to run")
	cmd.Flags().StringVar(&a.pluginVersion, "plugin-version", "", "plugin version (default: latest installed)")
	cmd.Flags().StringVarP(&a.contextFile, "context", "c", "", "generation context file (JSON, YAML or TOML)")
	_ = cmd.MarkFlagRequired("plugin")
	_ = cmd.MarkFlagRequired("context")
}

func (a *app) findPlugin() (*plugin.Plugin, error) {
	plugins := plugin.Discover(a.pluginDirs, plugin.WithLogger(a.logger))
	return plugin.Find(plugins, a.pluginID, a.pluginVersion)
}

// generator builds the generator for scope. With --dry-run the returned
// DryRunWriter holds the changes that would have been made.
func (a *app) generator(scope plugin.Scope, data map[string]any) (*generator.Generator, *write.DryRunWriter, error) {
	p, err := a.findPlugin()
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("using plugin", "id", p.Info.PluginID, "version", p.Info.PluginVersion, "path", p.Root())

	var w write.Writer = write.NewLoggingWriter(write.NewBaseWriter(), a.logger)
	var dry *write.DryRunWriter
	if a.dryRun {
		dry = write.NewDryRunWriter()
		w = dry
	}

	var engineOpts []engine.Option
	if a.lineEndings {
		engineOpts = append(engineOpts, engine.WithPostProcessor(processors.NewLineEndings()))
	}
	if a.goimports {
		engineOpts = append(engineOpts, engine.WithPostProcessor(postprocess.ForExtensions(processors.NewGoImports(), ".go")))
	}

	opts := write.DefaultOptions()
	opts.SkipUnchanged = a.skipUnchanged

	g, err := p.Generator(scope, data,
		generator.WithWriter(w),
		generator.WithWriteOptions(opts),
		generator.WithEngineOptions(engineOpts...),
	)
	if err != nil {
		return nil, nil, err
	}
	return g, dry, nil
}

func (a *app) report(summary string, written []string, dry *write.DryRunWriter) {
	if dry != nil {
		fmt.Fprintln(a.out, a.styles.title.Render("Dry run, nothing written"))
		for _, change := range dry.GetChanges() {
			fmt.Fprintf(a.out, "  %s %s\n", a.styles.action(change.Action), a.styles.path.Render(change.Path))
		}
		return
	}

	fmt.Fprintln(a.out, a.styles.success.Render(summary))
	for _, file := range written {
		fmt.Fprintln(a.out, "  "+a.styles.path.Render(file))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, strings.TrimSuffix(word, "s"))
}
