package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gaborage/mcpanel/app"
	"github.com/gaborage/mcpanel/modrinth"
)

// DefaultParallel bounds concurrent Modrinth requests during a download.
const DefaultParallel = 4

// DownloadOptions holds options for the download command
type DownloadOptions struct {
	Filter   VersionFilter
	Dir      string
	WithDeps bool
	Parallel int
}

// dependency is the part of a dependency project the CLI reads.
type dependency struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// ref prefers the slug, which reads better in output.
func (d dependency) ref() string {
	if d.Slug != "" {
		return d.Slug
	}
	return d.ID
}

func dependencyProjects(doc map[string]any) ([]dependency, error) {
	var out struct {
		Projects []dependency `json:"projects"`
	}
	if err := decodeDocument(doc, &out); err != nil {
		return nil, fmt.Errorf("decode dependencies: %w", err)
	}
	return out.Projects, nil
}

// NewDownloadCommand creates the download command
func NewDownloadCommand(root *RootOptions) *cobra.Command {
	opts := &DownloadOptions{}

	cmd := &cobra.Command{
		Use:   "download SLUG",
		Short: "Download the newest matching file of a project",
		Long: `Resolves the newest version of a project matching the loader and game
version filters and saves its primary file. With --with-deps every
dependency project is resolved the same way and downloaded alongside.`,
		Example: `  # Fabric API and its dependencies for 1.20.1
  mcpanel modrinth download fabric-api -l fabric -g 1.20.1 --with-deps -d ./mods`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *app.App, p *printer) error {
				return runDownload(ctx, a.Deps(), p, opts, args[0])
			})
		},
	}

	opts.Filter.bind(cmd)
	cmd.Flags().StringVarP(&opts.Dir, "dir", "d", ".", "Directory the files are written to")
	cmd.Flags().BoolVar(&opts.WithDeps, "with-deps", false, "Also download dependency projects")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", DefaultParallel, "Concurrent requests")

	return cmd
}

func runDownload(ctx context.Context, deps *app.ModuleDeps, p *printer, opts *DownloadOptions, slug string) error {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", opts.Dir, err)
	}

	projects := []string{slug}
	if opts.WithDeps {
		doc, err := deps.Modrinth.ProjectDependencies(ctx, slug)
		if err != nil {
			return err
		}
		found, err := dependencyProjects(doc)
		if err != nil {
			return err
		}
		for _, d := range found {
			projects = append(projects, d.ref())
		}
	}

	urls, err := resolveFiles(ctx, deps.Modrinth, p, &opts.Filter, projects, opts.Parallel)
	if err != nil {
		return err
	}
	if urls[0] == "" {
		return fmt.Errorf("%s: %w", slug, modrinth.ErrNoFiles)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel(opts.Parallel))
	for _, fileURL := range urls {
		if fileURL == "" {
			continue
		}
		g.Go(func() error {
			return saveFile(ctx, deps.CDN, p, opts.Dir, fileURL)
		})
	}
	return g.Wait()
}

// resolveFiles finds the newest file url of every project, in order. A
// project without a matching file yields "" and a warning.
func resolveFiles(ctx context.Context, api *modrinth.API, p *printer, filter *VersionFilter, projects []string, limit int) ([]string, error) {
	urls := make([]string, len(projects))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel(limit))
	for i, project := range projects {
		g.Go(func() error {
			versions, err := filter.versions(ctx, api, project)
			if err != nil {
				return fmt.Errorf("%s: %w", project, err)
			}
			fileURL, err := modrinth.LatestFileURL(versions)
			if errors.Is(err, modrinth.ErrNoFiles) {
				p.warn("%s: no file matches the filters", project)
				return nil
			}
			if err != nil {
				return err
			}
			urls[i] = fileURL
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

func saveFile(ctx context.Context, cdn *modrinth.CDN, p *printer, dir, fileURL string) error {
	name, err := modrinth.FileNameFromURL(fileURL)
	if err != nil {
		return err
	}
	data, err := cdn.DownloadFile(ctx, fileURL)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	p.success("%s (%d bytes)", target, len(data))
	return nil
}

func parallel(n int) int {
	if n <= 0 {
		return DefaultParallel
	}
	return n
}
