package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/foamcsv/internal/config"
	"github.com/harrison/foamcsv/internal/exporter"
	"github.com/harrison/foamcsv/internal/foam"
	"github.com/harrison/foamcsv/internal/history"
	"github.com/harrison/foamcsv/internal/logger"
)

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <case-directory>",
		Short: "Export the field files of a case to CSV",
		Long: `Export walks the time directories of the given OpenFOAM case directory
and converts each configured field file to a CSV file.

CSVs are written under <case>_csv next to the case directory unless --out
or the configured out_dir says otherwise. A log.txt inside the output root
mirrors the console output.

Configuration is loaded from .foamcsv/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Export the default fields (U, k, nut, omega, p, phi)
  foamcsv export ./cavity

  # Export selected fields to a custom location
  foamcsv export --fields p,U --out /tmp/cavity_csv ./cavity

  # Other options
  foamcsv export --dry-run ./cavity          # List planned conversions only
  foamcsv export --max-concurrency 4 ./cavity
  foamcsv export --timeout 10m ./cavity
  foamcsv export --verbose ./cavity          # Show per-field debug output
  foamcsv export --no-history ./cavity       # Skip run-history recording
  foamcsv export --config custom.yaml ./cavity`,
		Args: cobra.ExactArgs(1),
		RunE: exportCommand,
	}

	// Add flags
	cmd.Flags().String("config", "", "Path to config file (default: .foamcsv/config.yaml)")
	cmd.Flags().StringSlice("fields", nil, "Comma-separated field names to export")
	cmd.Flags().String("out", "", "Output directory for CSV files")
	cmd.Flags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.Flags().Bool("verbose", false, "Shorthand for --log-level debug")
	cmd.Flags().Int("max-concurrency", -1, "Maximum concurrent field conversions per time directory (-1 = use config)")
	cmd.Flags().String("timeout", "", "Maximum run time (e.g. 30s, 10m)")
	cmd.Flags().Bool("dry-run", false, "List the planned conversions without writing anything")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")

	return cmd
}

// exportCommand implements the export command logic
func exportCommand(cmd *cobra.Command, args []string) error {
	// Load configuration from file
	configPath, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error

	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}

	// Get flag values
	fieldsFlag, _ := cmd.Flags().GetStringSlice("fields")
	outFlag, _ := cmd.Flags().GetString("out")
	logLevelFlag, _ := cmd.Flags().GetString("log-level")
	verboseFlag, _ := cmd.Flags().GetBool("verbose")
	maxConcurrencyFlag, _ := cmd.Flags().GetInt("max-concurrency")
	timeoutStr, _ := cmd.Flags().GetString("timeout")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	// Build flag pointers for merge (only non-default values)
	var outPtr *string
	if cmd.Flags().Changed("out") {
		outPtr = &outFlag
	}

	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		logLevelPtr = &logLevelFlag
	} else if verboseFlag {
		debug := "debug"
		logLevelPtr = &debug
	}

	var maxConcurrencyPtr *int
	if cmd.Flags().Changed("max-concurrency") {
		maxConcurrencyPtr = &maxConcurrencyFlag
	}

	var timeoutPtr *time.Duration
	if cmd.Flags().Changed("timeout") {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return fmt.Errorf("invalid timeout format %q: %w", timeoutStr, err)
		}
		timeoutPtr = &timeout
	}

	var historyPtr *bool
	if noHistory {
		disabled := false
		historyPtr = &disabled
	}

	// Merge CLI flags with config (flags take precedence)
	cfg.MergeWithFlags(fieldsFlag, outPtr, logLevelPtr, maxConcurrencyPtr, timeoutPtr, historyPtr)

	// Validate merged configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	caseDir := args[0]
	info, err := os.Stat(caseDir)
	if err != nil {
		return fmt.Errorf("failed to access case directory %s: %w", caseDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("case path is not a directory: %s", caseDir)
	}

	outRoot := exporter.OutputRoot(caseDir, cfg.OutDir)

	// Dry-run mode: list the planned conversions without touching the
	// output root.
	if dryRun {
		return dryRunExport(cmd, cfg, caseDir, outRoot)
	}

	if err := os.MkdirAll(outRoot, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	runID := uuid.New().String()

	consoleLogger := logger.NewConsoleLogger(cmd.OutOrStdout(), cfg.LogLevel)
	fileLogger, err := logger.NewFileLogger(outRoot, runID, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer fileLogger.Close()

	eventLogger := logger.NewMultiLogger(consoleLogger, fileLogger)

	// Open the run-history store unless disabled
	var store *history.Store
	if cfg.History.Enabled {
		dbPath := cfg.History.DBPath
		if dbPath == "" {
			dbPath = filepath.Join(outRoot, "history.db")
		}
		store, err = history.NewStore(dbPath)
		if err != nil {
			eventLogger.LogWarn(fmt.Sprintf("run history disabled: %v", err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	ctx := cmd.Context()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	_, err = exporter.New(cfg, eventLogger, store, runID).Run(ctx, caseDir)
	return err
}

// dryRunExport prints the time directories and the conversions an export
// would attempt, marking the field files that are missing.
func dryRunExport(cmd *cobra.Command, cfg *config.Config, caseDir, outRoot string) error {
	timeDirs, err := foam.ListTimeDirs(caseDir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Case: %s\n", caseDir)
	fmt.Fprintf(out, "Output folder: %s\n", outRoot)
	fmt.Fprintf(out, "Time directories: %d\n", len(timeDirs))
	fmt.Fprintf(out, "Fields: %v\n\n", cfg.Fields)

	planned := 0
	missing := 0
	for _, td := range timeDirs {
		fmt.Fprintf(out, "Time %s:\n", td.Name)
		for _, field := range cfg.Fields {
			arity := foam.ArityScalar
			if cfg.IsVectorField(field) {
				arity = foam.ArityVector
			}
			if _, err := os.Stat(filepath.Join(td.Path, field)); os.IsNotExist(err) {
				fmt.Fprintf(out, "  [%s] %s (missing, would skip)\n", arity, field)
				missing++
				continue
			}
			fmt.Fprintf(out, "  [%s] %s -> %s\n", arity, field, filepath.Join(outRoot, td.Name, field+".csv"))
			planned++
		}
	}

	fmt.Fprintf(out, "\nDry-run: %d conversion(s) planned, %d missing field file(s).\n", planned, missing)
	return nil
}
