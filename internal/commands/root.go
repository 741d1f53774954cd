// Package commands implements the mcpanel command line.
package commands

import (
	"context"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/gaborage/mcpanel/app"
	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/pterodactyl"
)

// RootOptions holds the persistent flags shared by every subcommand
type RootOptions struct {
	ConfigFile string
	EnvFile    string
	NoColor    bool
	DryRun     bool
	JSON       bool

	base *app.Options
}

// NewRootCommand creates the mcpanel command tree. base seeds every App the
// subcommands build; nil selects the production wiring.
func NewRootCommand(version string, base *app.Options) *cobra.Command {
	opts := &RootOptions{base: base}

	cmd := &cobra.Command{
		Use:   "mcpanel",
		Short: "Manage Minecraft servers and their mods",
		Long: `mcpanel talks to the Modrinth API to look up and download mods and to a
Pterodactyl panel to control game servers.

Settings come from config.yaml, the environment and an optional .env.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", config.DefaultFile, "YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "YAML file copied into the environment")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&opts.DryRun, "dry-run", false, "Do not send mutating panel requests")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Print raw JSON documents")

	cmd.AddCommand(
		NewModrinthCommand(opts),
		NewPteroCommand(opts),
		NewRunCommand(opts),
		NewVersionCommand(version),
	)

	return cmd
}

// newApp builds an App from base with the flag overrides applied.
func (o *RootOptions) newApp(cmd *cobra.Command) (*app.App, error) {
	var appOpts app.Options
	if o.base != nil {
		appOpts = *o.base
	}

	if appOpts.ConfigLoader == nil {
		file := o.ConfigFile
		appOpts.ConfigLoader = func() (*config.Config, error) {
			return config.Load(config.WithFile(file))
		}
	}
	if appOpts.EnvFile == "" {
		appOpts.EnvFile = o.EnvFile
	}
	if appOpts.Logger == nil && appOpts.LogWriter == nil {
		appOpts.LogWriter = cmd.ErrOrStderr()
	}
	if o.DryRun {
		appOpts.PterodactylOptions = append(slices.Clone(appOpts.PterodactylOptions), pterodactyl.WithDryRun(true))
	}

	return app.NewWithOptions(&appOpts)
}

// withApp runs fn against a fresh App and always shuts it down.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App, p *printer) error) error {
	a, err := o.newApp(cmd)
	if err != nil {
		return err
	}

	err = fn(cmd.Context(), a, o.printer(cmd))
	if shutdownErr := a.Shutdown(); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	return err
}

func (o *RootOptions) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), o.NoColor)
}

// Execute runs the command tree and reports whether it succeeded.
func Execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		newPrinter(os.Stderr, false).warn("Error: %v", err)
		return 1
	}
	return 0
}
