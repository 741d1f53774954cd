package commands

import (
	"github.com/spf13/cobra"

	"github.com/gaborage/mcpanel/app"
)

// RunOptions holds options for the run command
type RunOptions struct {
	Verify bool
	Strict bool
}

// NewRunCommand creates the run command, which keeps the application and
// its modules alive until interrupted.
func NewRunCommand(root *RootOptions) *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the application and wait for a shutdown signal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := root.newApp(cmd)
			if err != nil {
				return err
			}

			if opts.Verify {
				credentials := app.NewCredentialsModule()
				credentials.Strict = opts.Strict
				if err := a.RegisterModule(credentials); err != nil {
					return joinShutdown(a, err)
				}
			}

			p := root.printer(cmd)
			for _, m := range a.Modules() {
				p.dim("module %s %s", m.Name, m.Description)
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&opts.Verify, "verify", true, "Verify upstream credentials at startup")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail startup when credentials are rejected")

	return cmd
}

// joinShutdown stops a after a startup failure, keeping err as the cause.
func joinShutdown(a *app.App, err error) error {
	if shutdownErr := a.Shutdown(); shutdownErr != nil {
		a.Logger().Warn().Err(shutdownErr).Msg("Shutdown after startup failure")
	}
	return err
}
