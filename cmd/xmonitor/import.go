package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/paulbrigner/xmonitor/application/service"
	"github.com/paulbrigner/xmonitor/infrastructure/persistence"
	"github.com/paulbrigner/xmonitor/internal/config"
	"github.com/paulbrigner/xmonitor/internal/database"
	"github.com/paulbrigner/xmonitor/internal/log"
)

func importCmd() *cobra.Command {
	var (
		envFile       string
		inputDir      string
		databaseURL   string
		rejectLog     string
		source        string
		skipSnapshots bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import JSONL exports into PostgreSQL with idempotent upserts",
		Long: `Import the JSONL table files produced by "xmonitor export" into the
destination database. Every row is upserted by its table's natural key,
so re-running an import is safe. Rows that cannot be imported are written
to the reject log and counted, never aborting the run.

After the table imports, three metrics snapshots per post are derived
from the imported rows (initial_capture, latest_observed, refresh_24h).

The per-table summary is printed to stdout as JSON.

Environment variables:
  DATABASE_URL           Destination connection URL
  PGHOST, PGPORT, PGDATABASE, PGUSER, PGPASSWORD, PGSSLMODE
                         Destination parameters when DATABASE_URL is unset
  XMONITOR_EXPORT_DIR    Input directory (default: data/export)
  XMONITOR_REJECT_LOG    Reject log path (default: data/import_rejects.ndjson)
  XMONITOR_SOURCE_LABEL  Source label for derived snapshots (default: sqlite_migration)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), envFile, inputDir, databaseURL, rejectLog, source, skipSnapshots)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&inputDir, "input-dir", "", "Directory containing the JSONL exports")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "Destination connection URL (overrides DATABASE_URL)")
	cmd.Flags().StringVar(&rejectLog, "reject-log", "", "Path for rejected row logs")
	cmd.Flags().StringVar(&source, "source", "", "Source label recorded on derived metric snapshots")
	cmd.Flags().BoolVar(&skipSnapshots, "skip-derived-snapshots", false, "Skip deriving post_metrics_snapshots from imported posts")

	return cmd
}

func runImport(ctx context.Context, envFile, inputDir, databaseURL, rejectLog, source string, skipSnapshots bool) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if inputDir != "" {
		cfg = cfg.Apply(config.WithExportDir(inputDir))
	}
	if databaseURL != "" {
		cfg = cfg.Apply(config.WithDatabaseURL(databaseURL))
	}
	if rejectLog != "" {
		cfg = cfg.Apply(config.WithRejectLogPath(rejectLog))
	}
	if source != "" {
		cfg = cfg.Apply(config.WithSourceLabel(source))
	}
	if skipSnapshots {
		cfg = cfg.Apply(config.WithSkipSnapshots(true))
	}

	logger := log.Configure(cfg)
	ctx, _ = log.NewRunContext(ctx)
	logger = logger.WithContext(ctx)

	destURL, err := cfg.DestinationURL()
	if err != nil {
		return err
	}
	logger.Info("importing into destination",
		"destination", cfg.MaskedDestination(),
		"input_dir", cfg.ExportDir(),
		"reject_log", cfg.RejectLogPath())

	db, err := database.NewDatabase(ctx, destURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := persistence.AutoMigrate(ctx, db); err != nil {
		return err
	}

	summary, err := service.NewImporter(db, logger).Run(ctx, service.ImportRequest{
		InputDir:      cfg.ExportDir(),
		RejectLogPath: cfg.RejectLogPath(),
		Source:        cfg.SourceLabel(),
		SkipSnapshots: cfg.SkipSnapshots(),
	})
	if err != nil {
		return err
	}

	logger.Info("import complete", "reject_log", cfg.RejectLogPath())
	return printJSON(summary)
}
