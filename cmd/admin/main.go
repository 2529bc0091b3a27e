package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tendant/portfolio-content/pkg/portfolio"
	"github.com/tendant/portfolio-content/pkg/portfolio/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the admin CLI. Every command reads the same
// environment as the server.
func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "portfolio-admin",
		Short: "Portfolio content maintenance",
		Long: `Portfolio content admin CLI

Runs maintenance against the database and blob store configured through
DATABASE_URL, DB_SCHEMA and STORAGE_URL (a .env file is honored).`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewGCCommand())
	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewPingCommand())
	rootCmd.AddCommand(NewListCommand())

	return rootCmd
}

// NewGCCommand removes blobs no record references
func NewGCCommand() *cobra.Command {
	var (
		dryRun      bool
		allowMemory bool
		grace       time.Duration
		useJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Delete unreferenced blobs older than the grace period",
		Long: `Delete unreferenced blobs older than the grace period.

References are read from DATABASE_URL. Without a postgres DATABASE_URL the
CLI would see an empty in-memory repository and treat every blob as an
orphan, so gc then only runs with --dry-run or --allow-memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.DatabaseType != "postgres" && !dryRun && !allowMemory {
				return errMemoryRepository
			}

			ctx := cmd.Context()
			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.Reconciler.Run(ctx, portfolio.ReconcileOptions{
				GracePeriod: grace,
				DryRun:      dryRun,
			})
			if err != nil {
				return err
			}
			return printReconcile(cmd.OutOrStdout(), result, dryRun, useJSON)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report orphans without deleting them")
	cmd.Flags().BoolVar(&allowMemory, "allow-memory", false, "delete even when DATABASE_URL is not postgres")
	cmd.Flags().DurationVar(&grace, "grace", portfolio.DefaultGracePeriod, "minimum age of a blob before it may be deleted")
	cmd.Flags().BoolVar(&useJSON, "json", false, "output as JSON")
	return cmd
}

// NewMigrateCommand applies the Postgres schema
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tracks and videos tables in DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPostgresConfig()
			if err != nil {
				return err
			}
			if err := config.MigratePostgres(cmd.Context(), cfg.DatabaseURL, cfg.DBSchema); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema %q is up to date\n", cfg.DBSchema)
			return nil
		},
	}
}

// NewPingCommand checks database connectivity
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the database connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPostgresConfig()
			if err != nil {
				return err
			}
			if err := config.PingPostgres(cmd.Context(), cfg.DatabaseURL, cfg.DBSchema); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database connection OK")
			return nil
		},
	}
}

// NewListCommand prints tracks or videos
func NewListCommand() *cobra.Command {
	var (
		published string
		featured  string
		useJSON   bool
	)

	cmd := &cobra.Command{
		Use:       "list [tracks|videos]",
		Short:     "List tracks or videos",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"tracks", "videos"},
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(published, featured)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := buildRuntime(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if args[0] == "tracks" {
				tracks, err := rt.Service.ListTracks(ctx, filter)
				if err != nil {
					return err
				}
				if useJSON {
					return writeJSON(out, tracks)
				}
				printTracks(out, tracks)
				return nil
			}

			videos, err := rt.Service.ListVideos(ctx, filter)
			if err != nil {
				return err
			}
			if useJSON {
				return writeJSON(out, videos)
			}
			printVideos(out, videos)
			return nil
		},
	}

	cmd.Flags().StringVar(&published, "published", "all", "filter by publication state: true, false or all")
	cmd.Flags().StringVar(&featured, "featured", "", "filter by feature flag: true or false")
	cmd.Flags().BoolVar(&useJSON, "json", false, "output as JSON")
	return cmd
}

// errMemoryRepository stops gc from deleting blobs it cannot see references for
var errMemoryRepository = errors.New("gc needs a postgres DATABASE_URL to find referenced blobs; use --dry-run or --allow-memory")

func loadConfig() (*config.ServerConfig, error) {
	cfg, err := config.Load(config.WithEnv(), config.WithMetrics(false))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func buildRuntime(ctx context.Context, cfg *config.ServerConfig) (*config.Runtime, error) {
	rt, err := cfg.BuildService(ctx, slog.Default(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build service: %w", err)
	}
	return rt, nil
}

func loadPostgresConfig() (*config.ServerConfig, error) {
	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.DatabaseType != "postgres" {
		return nil, fmt.Errorf("DATABASE_URL must point at postgres for this command")
	}
	return cfg, nil
}

func parseFilter(published, featured string) (portfolio.ListFilter, error) {
	p, err := portfolio.ParsePublishedFilter(published, portfolio.PublishedAll)
	if err != nil {
		return portfolio.ListFilter{}, err
	}
	f, err := portfolio.ParseFeaturedFilter(featured)
	if err != nil {
		return portfolio.ListFilter{}, err
	}
	return portfolio.ListFilter{Published: p, Featured: f}, nil
}

func printReconcile(out io.Writer, result *portfolio.ReconcileResult, dryRun, useJSON bool) error {
	if useJSON {
		return writeJSON(out, result)
	}

	fmt.Fprintf(out, "Scanned %s blobs: %s referenced, %s within grace period\n",
		humanize.Comma(int64(result.Scanned)),
		humanize.Comma(int64(result.Referenced)),
		humanize.Comma(int64(result.Recent)),
	)
	verb := "deleted"
	if dryRun {
		verb = "would delete"
	}
	for _, key := range result.Orphans {
		fmt.Fprintf(out, "  %s %s\n", verb, key)
	}
	if dryRun {
		fmt.Fprintf(out, "%s orphans found (dry run)\n", humanize.Comma(int64(len(result.Orphans))))
		return nil
	}
	fmt.Fprintf(out, "%s deleted, %s failed\n", humanize.Comma(int64(result.Deleted)), humanize.Comma(int64(result.Failed)))
	return nil
}

func printTracks(out io.Writer, tracks []*portfolio.Track) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUDIO\tPUBLISHED\tFEATURED\tUPDATED")
	for _, t := range tracks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\t%s\n",
			t.ID, t.Title, t.Audio.Origin, t.Published, t.Featured, humanize.Time(t.UpdatedAt))
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d track(s)\n", len(tracks))
}

func printVideos(out io.Writer, videos []*portfolio.Video) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tVIDEO ID\tFILE\tPUBLISHED\tFEATURED\tUPDATED")
	for _, v := range videos {
		file := "-"
		if v.VideoFile.IsLocal() {
			file = v.VideoFile.Ref
		}
		videoID := v.VideoID
		if videoID == "" {
			videoID = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%t\t%s\n",
			v.ID, v.Title, videoID, file, v.Published, v.Featured, humanize.Time(v.UpdatedAt))
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d video(s)\n", len(videos))
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
