package jsonl

import (
	"fmt"
	"os"
	"path/filepath"
)

// RejectEntry records one row that failed validation or write. Row carries
// the original decoded object, or the raw line text when the line itself
// was not valid JSON.
type RejectEntry struct {
	Table  string `json:"table"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Row    any    `json:"row"`
}

// RejectLog is an append-only JSONL record of rejected rows, overwritten
// at the start of every run. The importer never reads it back; it exists
// for manual inspection and replay.
type RejectLog struct {
	path   string
	writer *Writer
}

// OpenRejectLog creates (truncating) the reject log, creating parent
// directories as needed.
func OpenRejectLog(path string) (*RejectLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create reject log directory: %w", err)
		}
	}
	w, err := Create(path)
	if err != nil {
		return nil, fmt.Errorf("open reject log: %w", err)
	}
	return &RejectLog{path: path, writer: w}, nil
}

// Path returns the log file path.
func (l *RejectLog) Path() string {
	return l.path
}

// Log appends one reject entry.
func (l *RejectLog) Log(table string, index int, reason string, row any) error {
	return l.writer.Write(RejectEntry{
		Table:  table,
		Index:  index,
		Reason: reason,
		Row:    row,
	})
}

// Close flushes and closes the log.
func (l *RejectLog) Close() error {
	return l.writer.Close()
}
