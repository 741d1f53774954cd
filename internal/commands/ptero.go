package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/mcpanel/app"
	"github.com/gaborage/mcpanel/config"
	"github.com/gaborage/mcpanel/pterodactyl"
)

type serverAttributes struct {
	Identifier  string `json:"identifier"`
	Name        string `json:"name"`
	Node        string `json:"node"`
	Description string `json:"description"`
	IsSuspended bool   `json:"is_suspended"`
}

type fileAttributes struct {
	Name       string `json:"name"`
	Mode       string `json:"mode"`
	Size       int64  `json:"size"`
	IsFile     bool   `json:"is_file"`
	ModifiedAt string `json:"modified_at"`
}

// listDocument is the panel's list envelope: {"data": [{"attributes": ...}]}.
type listDocument[T any] struct {
	Data []struct {
		Attributes T `json:"attributes"`
	} `json:"data"`
}

func decodeList[T any](doc map[string]any) ([]T, error) {
	var list listDocument[T]
	if err := decodeDocument(doc, &list); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	out := make([]T, 0, len(list.Data))
	for _, item := range list.Data {
		out = append(out, item.Attributes)
	}
	return out, nil
}

// withPanel runs fn only when a panel url is configured.
func (o *RootOptions) withPanel(cmd *cobra.Command, fn func(ctx context.Context, panel *pterodactyl.API, p *printer) error) error {
	return o.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
		panel := a.Deps().Pterodactyl
		if panel == nil {
			key := "pterodactyl.api.url"
			return config.NewNotConfiguredError("pterodactyl", key)
		}
		if panel.DryRun() {
			p.dim("dry run: mutating requests are not sent")
		}
		return fn(ctx, panel, p)
	})
}

// NewPteroCommand groups the Pterodactyl panel subcommands
func NewPteroCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ptero",
		Aliases: []string{"panel"},
		Short:   "Control servers on a Pterodactyl panel",
	}
	cmd.AddCommand(
		newServersCommand(root),
		newPowerCommand(root),
		newCommandCommand(root),
		newListFilesCommand(root),
		newUploadCommand(root),
		newRemoveCommand(root),
		newFileURLCommand(root),
		newVerifyCommand(root),
	)
	return cmd
}

func newServersCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "servers",
		Short: "List the servers visible to the API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withPanel(cmd, func(ctx context.Context, panel *pterodactyl.API, p *printer) error {
				doc, err := panel.ServersList(ctx)
				if err != nil {
					return err
				}
				if root.JSON {
					return p.json(doc)
				}

				servers, err := decodeList[serverAttributes](doc)
				if err != nil {
					return err
				}
				p.title("%d server(s)", len(servers))
				for _, s := range servers {
					state := ""
					if s.IsSuspended {
						state = " (suspended)"
					}
					p.line("  %-10s %-24s %s%s", s.Identifier, s.Name, s.Node, state)
				}
				return nil
			})
		},
	}
}

func newPowerCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "power SERVER SIGNAL",
		Short:     "Send a power signal (start, stop, restart, kill)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"start", "stop", "restart", "kill"},
		RunE: func(cmd *cobra.Command, args []string) error {
			signal := pterodactyl.PowerSignal(strings.ToLower(args[1]))
			return root.withPanel(cmd, func(ctx context.Context, panel *pterodactyl.API, p *printer) error {
				if _, err := panel.ServerPower(ctx, args[0], signal); err != nil {
					return err
				}
				p.success("%s: %s sent", args[0], signal)
				return nil
			})
		},
	}
}

func newCommandCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "command SERVER COMMAND...",
		Aliases: []string{"cmd"},
		Short:   "Run a console command",
		Args:    cobra.MinimumNArgs(2),
		Example: "  mcpanel ptero command 1a2b3c4d say hello",
		RunE: func(cmd *cobra.Command, args []string) error {
			line := strings.Join(args[1:], " ")
			return root.withPanel(cmd, func(ctx context.Context, panel *pterodactyl.API, p *printer) error {
				if _, err := panel.ServerCommand(ctx, args[0], line); err != nil {
					return err
				}
				p.success("%s: %q sent", args[0], line)
				return nil
			})
		},
	}
}

func newListFilesCommand(root *RootOptions) *cobra.Command {
	var directory string
	cmd := &cobra.Command{
		Use:   "ls SERVER",
		Short: "List files in a server directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withPanel(cmd, func(ctx context.Context, panel *pterodactyl.API, p *printer) error {
				doc, err := panel.ServerFilesList(ctx, args[0], directory)
				if err != nil {
					return err
				}
				if root.JSON {
					return p.json(doc)
				}

				files, err := decodeList[fileAttributes](doc)
				if err != nil {
					return err
				}
				p.title("%s:%s", args[0], directory)
				for _, f := range files {
					name := f.Name
					if !f.IsFile {
						name += "/"
					}
					p.line("  %-10s %10d  %-25s %s", f.Mode, f.Size, f.ModifiedAt, name)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&directory, "dir", "d", "/", "Directory to list")
	return cmd
}

func newUploadCommand(root *RootOptions) *cobra.Command {
	var directory string
	cmd := &cobra.Command{
		Use:   "upload SERVER FILE",
		Short: "Upload a local file to a server directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			name := filepath.Base(args[1])
			return root.withPanel(cmd, func(ctx context.Context, panel *pterodactyl.API, p *printer) error {
				if err := panel.ServerFilesUpload(ctx, args[0], directory, name, data); err != nil {
					return err
				}
				p.success("%s uploaded to %s:%s", name, args[0], directory)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&directory, "dir", "d", "/", "Target directory")
	return cmd
}

func newRemoveCommand(root *RootOptions) *cobra.Command {
	var directory string
	cmd := &cobra.Command{
		Use:   "rm SERVER FILE...",
		Short: "Delete files from a server directory",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withPanel(cmd, func(ctx context.Context, panel *pterodactyl.API, p *printer) error {
				if _, err := panel.ServerFilesDelete(ctx, args[0], directory, args[1:]); err != nil {
					return err
				}
				p.success("%d file(s) deleted from %s:%s", len(args)-1, args[0], directory)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&directory, "dir", "d", "/", "Directory the files live in")
	return cmd
}

func newFileURLCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "url SERVER FILE",
		Short: "Print a signed download url for a server file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withPanel(cmd, func(ctx context.Context, panel *pterodactyl.API, p *printer) error {
				doc, err := panel.ServerFilesDownload(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				signed, err := pterodactyl.SignedURL(doc)
				if err != nil {
					return err
				}
				p.line("%s", signed)
				return nil
			})
		},
	}
}

func newVerifyCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the panel API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.withPanel(cmd, func(ctx context.Context, panel *pterodactyl.API, p *printer) error {
				if err := panel.VerifyCredentials(ctx); err != nil {
					return err
				}
				p.success("panel credentials accepted")
				return nil
			})
		},
	}
}
