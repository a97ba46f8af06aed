package plinder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// ErrAborted is returned when the user declines a confirmation prompt.
var ErrAborted = errors.New("plinder: aborted")

// NewCommand creates a Cobra command tree for dataset access.
// The returned command can be executed directly or added to a parent
// CLI's root command.
//
// Commands provided:
//   - plinder download [--force] [-y]
//   - plinder get <path>
//   - plinder path [<path>]
//   - plinder info
//   - plinder prune [-y]
//
// Global flags: --release, --iteration, --json, --quiet, --verbose
func NewCommand(cfg Config, opts ...Option) *cobra.Command {
	var (
		jsonOutput bool
		quiet      bool
		verbose    bool
		release    string
		iteration  string
	)

	// Client is created in PersistentPreRunE, after flag overrides.
	var cl Client

	cmd := &cobra.Command{
		Use:   "plinder",
		Short: "Access the PLINDER dataset",
		Long:  "Download and lazily access PLINDER protein-ligand dataset assets from a remote bucket.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			if release != "" {
				cfg.Release = release
			}
			if iteration != "" {
				cfg.Iteration = iteration
			}

			runOpts := opts
			if verbose {
				handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug})
				runOpts = append(runOpts, WithLogger(NewSlogLogger(slog.New(handler))))
			}

			var err error
			cl, err = New(cfg, runOpts...)
			if err != nil {
				return fmt.Errorf("failed to initialize client: %w", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&release, "release", "", "Dataset release (default from environment)")
	cmd.PersistentFlags().StringVar(&iteration, "iteration", "", "Pipeline iteration (default from environment)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	cmd.AddCommand(downloadCmd(&cl, &quiet))
	cmd.AddCommand(getCmd(&cl, &quiet))
	cmd.AddCommand(pathCmd(&cl))
	cmd.AddCommand(infoCmd(&cl, &jsonOutput))
	cmd.AddCommand(pruneCmd(&cl, &quiet))

	return cmd
}

func downloadCmd(cl *Client, quiet *bool) *cobra.Command {
	var (
		force bool
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the full dataset snapshot",
		Long:  "Mirror the remote release/iteration tree into the local mount, skipping files already present.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := (*cl).Config()

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Download release %s iteration %s to %s? [y/N]: ",
					cfg.Release, cfg.Iteration, cfg.Mount)
				if !confirmPrompt(cmd.InOrStdin()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return ErrAborted
				}
			}

			var opts []DownloadOption
			if force {
				opts = append(opts, WithForce())
			}
			if !*quiet {
				opts = append(opts, WithProgress(progressRenderer(cmd.OutOrStdout())))
			}

			stats, err := (*cl).Download(ctx, opts...)
			if !*quiet {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}

			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d files (%s), %d already present\n",
					stats.Fetched, formatSize(stats.Bytes), stats.Skipped)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Re-download files that already exist locally")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func getCmd(cl *Client, quiet *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Materialize a single asset",
		Long:  "Ensure one dataset asset exists locally, fetching it if necessary, and print its path.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := (*cl).Materialize(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), local)
			return nil
		},
	}
}

func pathCmd(cl *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "path [<path>]",
		Short: "Print the local path of an asset or the snapshot root",
		Long:  "Resolve an asset's candidate local path without fetching. With no argument, print the snapshot root.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), (*cl).Config().rootDir())
				return nil
			}
			local, err := (*cl).Local(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), local)
			return nil
		},
	}
}

func infoCmd(cl *Client, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := (*cl).Config()

			if *jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"mount":     cfg.Mount,
					"bucket":    cfg.Bucket,
					"release":   cfg.Release,
					"iteration": cfg.Iteration,
					"offline":   cfg.Offline,
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Mount:\t%s\n", cfg.Mount)
			fmt.Fprintf(tw, "Bucket:\t%s\n", cfg.Bucket)
			fmt.Fprintf(tw, "Release:\t%s\n", cfg.Release)
			fmt.Fprintf(tw, "Iteration:\t%s\n", cfg.Iteration)
			fmt.Fprintf(tw, "Offline:\t%v\n", cfg.Offline)
			return tw.Flush()
		},
	}
}

func pruneCmd(cl *Client, quiet *bool) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove leftover temporary files",
		Long:  "Remove temporary files abandoned by interrupted fetches. Materialized assets are never touched.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "Remove leftover temporary files? [y/N]: ")
				if !confirmPrompt(cmd.InOrStdin()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return ErrAborted
				}
			}

			removed, err := (*cl).Prune()
			if err != nil {
				return err
			}

			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d temporary files\n", removed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

// confirmPrompt reads from stdin and returns true only if the user
// types 'y' or 'yes'. Empty input or anything else defaults to no.
func confirmPrompt(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return response == "y" || response == "yes"
	}
	return false
}

// progressRenderer returns a progress callback that draws a single-line
// bar, overwriting it in place as the download advances.
func progressRenderer(w io.Writer) func(DownloadProgress) {
	var mu sync.Mutex
	start := time.Now()

	return func(p DownloadProgress) {
		mu.Lock()
		defer mu.Unlock()

		if p.Phase == PhaseList {
			fmt.Fprintf(w, "Listing remote files...\n")
			return
		}
		renderProgress(w, p, time.Since(start))
	}
}

// renderProgress draws the fetch-phase progress line.
// Format: Downloading [============>       ] 45% (123/270 files, 1.2 GB, elapsed: 30s)
func renderProgress(w io.Writer, p DownloadProgress, elapsed time.Duration) {
	var pct float64
	if p.ObjectsTotal > 0 {
		pct = float64(p.ObjectsCompleted) / float64(p.ObjectsTotal) * 100
	}

	const barWidth = 30
	filled := int(pct / 100 * float64(barWidth))
	if filled > barWidth {
		filled = barWidth
	}

	var bar string
	switch {
	case filled >= barWidth:
		bar = strings.Repeat("=", barWidth)
	case filled > 0:
		bar = strings.Repeat("=", filled) + ">" + strings.Repeat(" ", barWidth-filled-1)
	default:
		bar = ">" + strings.Repeat(" ", barWidth-1)
	}

	fmt.Fprintf(w, "\r\x1b[KDownloading [%s] %.0f%% (%d/%d files, %s, elapsed: %s)",
		bar, pct, p.ObjectsCompleted, p.ObjectsTotal,
		formatSize(p.BytesCompleted), formatDuration(elapsed))
}

// formatSize formats a byte count as B, KB, MB or GB.
func formatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatDuration formats a duration as short human-readable text.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	d = d.Round(time.Second)

	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	secs := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}
