package commands

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/gaborage/mcpanel/app"
	"github.com/gaborage/mcpanel/modrinth"
)

// VersionFilter narrows version listings and downloads. Featured defaults to
// true: Modrinth reads featured=false as "non-featured only".
type VersionFilter struct {
	Loaders      []string
	GameVersions []string
	Featured     bool
}

func (f *VersionFilter) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.Loaders, "loader", "l", nil, "Mod loader to match, repeatable (fabric, forge, ...)")
	cmd.Flags().StringSliceVarP(&f.GameVersions, "game-version", "g", nil, "Minecraft version to match, repeatable")
	cmd.Flags().BoolVar(&f.Featured, "featured", true, "Match featured versions; --featured=false matches the rest")
}

func (f *VersionFilter) versions(ctx context.Context, api *modrinth.API, slug string) (modrinth.Versions, error) {
	return api.ProjectVersions(ctx, slug, f.Loaders, f.GameVersions, f.Featured)
}

// NewModrinthCommand groups the Modrinth subcommands
func NewModrinthCommand(root *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "modrinth",
		Aliases: []string{"mr"},
		Short:   "Look up and download Modrinth projects",
	}
	cmd.AddCommand(
		newProjectCommand(root),
		newDepsCommand(root),
		newVersionsCommand(root),
		NewDownloadCommand(root),
	)
	return cmd
}

func newProjectCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "project SLUG",
		Short:   "Show a project",
		Args:    cobra.ExactArgs(1),
		Example: "  mcpanel modrinth project fabric-api",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				api := a.Deps().Modrinth
				if root.JSON {
					doc, err := api.ProjectInfo(ctx, args[0])
					if err != nil {
						return err
					}
					return p.json(doc)
				}

				project, err := api.Project(ctx, args[0])
				if err != nil {
					return err
				}
				printProject(p, project)
				return nil
			})
		},
	}
}

func printProject(p *printer, project *modrinth.Project) {
	p.title("%s (%s)", project.Title, project.Slug)
	if project.Description != "" {
		p.dim("  %s", project.Description)
	}
	p.field("id", project.ID)
	p.field("type", project.ProjectType)
	p.field("downloads", project.Downloads)
	p.field("followers", project.Follows)
	p.field("license", project.License.ID)
	p.field("client", project.ClientSide)
	p.field("server", project.ServerSide)
	if len(project.Categories) > 0 {
		p.field("categories", strings.Join(project.Categories, ", "))
	}
	p.field("versions", len(project.Versions))
	if project.DateModified != "" {
		p.field("updated", project.DateModified)
	}
}

func newDepsCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deps SLUG",
		Short: "List the projects a project depends on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				doc, err := a.Deps().Modrinth.ProjectDependencies(ctx, args[0])
				if err != nil {
					return err
				}
				if root.JSON {
					return p.json(doc)
				}

				projects, err := dependencyProjects(doc)
				if err != nil {
					return err
				}
				p.title("%s depends on %d project(s)", args[0], len(projects))
				for _, dep := range projects {
					p.line("  %-24s %s", dep.Slug, dep.Title)
				}
				return nil
			})
		},
	}
}

func newVersionsCommand(root *RootOptions) *cobra.Command {
	var filter VersionFilter
	cmd := &cobra.Command{
		Use:     "versions SLUG",
		Short:   "List the versions of a project",
		Args:    cobra.ExactArgs(1),
		Example: "  mcpanel modrinth versions fabric-api -l fabric -g 1.20.1",
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				versions, err := filter.versions(ctx, a.Deps().Modrinth, args[0])
				if err != nil {
					return err
				}
				if root.JSON {
					return p.json(json.RawMessage(versions))
				}

				p.title("%s: %d version(s)", args[0], versions.Len())
				gjson.ParseBytes(versions).ForEach(func(_, v gjson.Result) bool {
					p.line("  %-12s %-24s %s",
						v.Get("id").String(),
						v.Get("version_number").String(),
						strings.Join(stringList(v.Get("game_versions")), ","),
					)
					return true
				})
				return nil
			})
		},
	}
	filter.bind(cmd)
	return cmd
}

func stringList(r gjson.Result) []string {
	var out []string
	for _, item := range r.Array() {
		out = append(out, item.String())
	}
	return out
}
