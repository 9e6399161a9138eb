package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulbrigner/xmonitor/infrastructure/sqlitesource"
	"github.com/paulbrigner/xmonitor/internal/jsonl"
	"github.com/paulbrigner/xmonitor/internal/log"
)

// Exporter dumps every legacy table to one JSONL file per table.
type Exporter struct {
	source *sqlitesource.Source
	logger *log.Logger
}

// NewExporter creates an exporter for the given legacy database.
func NewExporter(source *sqlitesource.Source, logger *log.Logger) *Exporter {
	return &Exporter{source: source, logger: logger}
}

// Run exports all legacy tables into outDir, creating it if needed, and
// returns per-table row counts keyed by legacy table name.
func (e *Exporter) Run(ctx context.Context, outDir string) (map[string]int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	results := make(map[string]int, len(sqlitesource.Tables))
	for _, table := range sqlitesource.Tables {
		outPath := filepath.Join(outDir, table+".jsonl")
		count, err := e.exportTable(ctx, table, outPath)
		if err != nil {
			return nil, err
		}
		results[table] = count
		e.logger.Info("table exported", "table", table, "rows", count, "path", outPath)
	}
	return results, nil
}

func (e *Exporter) exportTable(ctx context.Context, table, outPath string) (int, error) {
	rows, err := e.source.Rows(ctx, table)
	if err != nil {
		return 0, err
	}

	writer, err := jsonl.Create(outPath)
	if err != nil {
		return 0, err
	}
	defer writer.Close()

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return writer.Count(), fmt.Errorf("export %s: %w", table, err)
		}
	}
	if err := writer.Close(); err != nil {
		return writer.Count(), fmt.Errorf("export %s: %w", table, err)
	}
	return writer.Count(), nil
}
