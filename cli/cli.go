package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"corecatalog/app"
	"corecatalog/config"
	"corecatalog/coreimage"
)

// commandTimeout bounds one-shot commands
const commandTimeout = 2 * time.Minute

type globalFlags struct {
	dbPath    string
	tableFile string
	arch      string
	logLevel  string
}

// config applies the command line overrides on top of the defaults
func (g *globalFlags) config() (*config.Config, error) {
	b := config.NewConfigBuilder()
	if g.dbPath != "" {
		b.WithDBPath(g.dbPath)
	}
	if g.tableFile != "" {
		b.WithTableFile(g.tableFile)
	}
	if g.arch != "" {
		b.WithArch(g.arch)
	}

	cfg, err := b.Build()
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	return cfg, nil
}

func (g *globalFlags) container() (*app.Container, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	return app.NewContainerWithConfig(cfg)
}

// NewRootCommand builds the corecatalog command tree writing to out
func NewRootCommand(out io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "corecatalog",
		Short:         "Ubuntu Core image catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&g.dbPath, "db-path", "", "Directory of the database file")
	root.PersistentFlags().StringVar(&g.tableFile, "table-file", "", "YAML catalog replacing the built-in table")
	root.PersistentFlags().StringVar(&g.arch, "arch", "", "Architecture to serve")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newServeCommand(g))
	root.AddCommand(newImagesCommand(g))
	root.AddCommand(newLookupCommand(g))
	root.AddCommand(newClearCommand(g))

	return root
}

func newServeCommand(g *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP and refresh it on schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.config()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.HTTP.Port = port
			}

			container, err := app.NewContainerWithConfig(cfg)
			if err != nil {
				return err
			}
			return app.NewApplicationWithContainer(container).Run()
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "HTTP port")

	return cmd
}

func newImagesCommand(g *globalFlags) *cobra.Command {
	var remote, format string
	var all, cached bool

	cmd := &cobra.Command{
		Use:   "images",
		Short: "Refresh the catalog and list its images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := g.container()
			if err != nil {
				return err
			}
			defer container.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			if err := load(ctx, container, cached); err != nil {
				return err
			}

			images, err := container.Host.ListAll(remote, all)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), images)
			case "table":
				renderImages(cmd.OutOrStdout(), images)
				return nil
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVar(&remote, "remote", coreimage.DefaultRemote, "Remote to list")
	cmd.Flags().BoolVar(&all, "all", false, "Include images whose aliases are unsupported")
	cmd.Flags().BoolVar(&cached, "cached", false, "Use the stored manifests without refreshing")
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table or json)")

	return cmd
}

func newLookupCommand(g *globalFlags) *cobra.Command {
	var remote string
	var cached bool

	cmd := &cobra.Command{
		Use:   "lookup <release-or-alias>",
		Short: "Show the image for a release identifier or alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := g.container()
			if err != nil {
				return err
			}
			defer container.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			if err := load(ctx, container, cached); err != nil {
				return err
			}

			record, err := container.Host.Lookup(args[0], remote)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("no image matches %q", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
	cmd.Flags().StringVar(&remote, "remote", coreimage.DefaultRemote, "Remote to search")
	cmd.Flags().BoolVar(&cached, "cached", false, "Use the stored manifests without refreshing")

	return cmd
}

func newClearCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop the stored manifests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := g.container()
			if err != nil {
				return err
			}
			defer container.Close()

			container.Host.Clear()
			fmt.Fprintln(cmd.OutOrStdout(), "Stored manifests cleared")
			return nil
		},
	}
}

// load primes the host from the database and refreshes it unless cached
func load(ctx context.Context, container *app.Container, cached bool) error {
	if err := container.Host.Restore(ctx); err != nil {
		return err
	}
	if !cached {
		container.Host.UpdateManifests(ctx, true)
	}
	return nil
}

func renderImages(w io.Writer, images []coreimage.ImageRecord) {
	data := make([][]string, 0, len(images))
	for _, image := range images {
		data = append(data, []string{
			strings.Join(image.Aliases, ", "),
			image.Release,
			image.ReleaseTitle,
			image.Version,
			shortHash(image.ID),
			image.Location,
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"ALIASES", "RELEASE", "TITLE", "VERSION", "HASH", "LOCATION"})
	table.AppendBulk(data)
	table.Render()
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
