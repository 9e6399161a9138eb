package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/paulbrigner/xmonitor/application/service"
	"github.com/paulbrigner/xmonitor/infrastructure/sqlitesource"
	"github.com/paulbrigner/xmonitor/internal/config"
	"github.com/paulbrigner/xmonitor/internal/log"
)

func exportCmd() *cobra.Command {
	var (
		envFile    string
		sqlitePath string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the legacy SQLite tables to JSONL files",
		Long: `Export every legacy collector table (tweets, reports, watch_accounts,
runs, tweet_embeddings) to one JSONL file per table, named after the
table. Rows are written verbatim; normalization happens at import time.

Environment variables:
  XMONITOR_SQLITE_PATH   Legacy SQLite database path (default: ~/.xmonitor/x_monitor.db)
  XMONITOR_EXPORT_DIR    Output directory (default: data/export)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), envFile, sqlitePath, outDir)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "Path to the legacy SQLite database")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Output directory for JSONL files")

	return cmd
}

func runExport(ctx context.Context, envFile, sqlitePath, outDir string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if sqlitePath != "" {
		cfg = cfg.Apply(config.WithSourceDBPath(sqlitePath))
	}
	if outDir != "" {
		cfg = cfg.Apply(config.WithExportDir(outDir))
	}

	logger := log.Configure(cfg)
	ctx, _ = log.NewRunContext(ctx)
	logger = logger.WithContext(ctx)
	logger.Info("exporting legacy database", "path", cfg.SourceDBPath(), "out_dir", cfg.ExportDir())

	source, err := sqlitesource.Open(ctx, cfg.SourceDBPath())
	if err != nil {
		return err
	}
	defer source.Close()

	results, err := service.NewExporter(source, logger).Run(ctx, cfg.ExportDir())
	if err != nil {
		return err
	}

	return printJSON(results)
}
