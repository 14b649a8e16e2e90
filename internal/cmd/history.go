package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/foamcsv/internal/config"
	"github.com/harrison/foamcsv/internal/history"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded export runs",
		Long: `History lists the export runs recorded in a history database, most
recent first. With a run id it shows the individual field conversions of
that run instead.

The database path comes from --db, falling back to the history.db_path of
.foamcsv/config.yaml.

Examples:
  foamcsv history --db ./cavity_csv/history.db
  foamcsv history --db ./cavity_csv/history.db --limit 3
  foamcsv history --db ./cavity_csv/history.db 6f4c9a12-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: historyCommand,
	}

	cmd.Flags().String("db", "", "Path to the history database")
	cmd.Flags().Int("limit", 10, "Maximum number of runs to list")

	return cmd
}

// historyCommand implements the history command logic
func historyCommand(cmd *cobra.Command, args []string) error {
	dbPath, _ := cmd.Flags().GetString("db")
	limit, _ := cmd.Flags().GetInt("limit")

	if dbPath == "" {
		cfg, err := config.LoadConfigFromDir(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		dbPath = cfg.History.DBPath
	}
	if dbPath == "" {
		return fmt.Errorf("no history database: pass --db or set history.db_path in the config")
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer store.Close()

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		return printRunConversions(store, args[0], out)
	}

	runs, err := store.RecentRuns(limit)
	if err != nil {
		return fmt.Errorf("failed to query runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No recorded runs.")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(out, "%s  %s\n", run.StartedAt.Format(time.RFC3339), run.RunID)
		fmt.Fprintf(out, "  Case: %s\n", run.CaseDir)
		fmt.Fprintf(out, "  Output: %s\n", run.OutDir)
		fmt.Fprintf(out, "  Status: %s (%d converted, %d skipped, %d failed", run.Status, run.Converted, run.Skipped, run.Failed)
		if run.Anomalies > 0 {
			fmt.Fprintf(out, ", %d count anomalies", run.Anomalies)
		}
		fmt.Fprintf(out, ")\n")
	}
	return nil
}

// printRunConversions lists the per-field conversions of one run.
func printRunConversions(store *history.Store, runID string, out io.Writer) error {
	conversions, err := store.RunConversions(runID)
	if err != nil {
		return fmt.Errorf("failed to query conversions: %w", err)
	}
	if len(conversions) == 0 {
		fmt.Fprintf(out, "No conversions recorded for run %s.\n", runID)
		return nil
	}

	for _, c := range conversions {
		switch c.Status {
		case "converted":
			fmt.Fprintf(out, "%s/%s  [%s]  %d rows", c.TimeDir, c.Field, c.Arity, c.Rows)
			if c.CountAnomaly {
				fmt.Fprintf(out, "  (declared %d)", c.DeclaredCount)
			}
			fmt.Fprintf(out, "  %s\n", c.Duration.Round(time.Millisecond))
		case "skipped":
			fmt.Fprintf(out, "%s/%s  [%s]  skipped\n", c.TimeDir, c.Field, c.Arity)
		default:
			fmt.Fprintf(out, "%s/%s  [%s]  failed: %s\n", c.TimeDir, c.Field, c.Arity, c.Error)
		}
	}
	return nil
}
