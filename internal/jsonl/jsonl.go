// Package jsonl reads and writes line-delimited JSON files.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// maxLineBytes bounds a single JSONL line. Post bodies and embedding
// vectors fit comfortably below this.
const maxLineBytes = 16 * 1024 * 1024

// Line is one non-blank line of a JSONL file. Index is 1-based and counts
// every physical line, so reject-log entries point at the right place even
// when blank lines are interleaved. Err is set when the line is not a JSON
// object; Raw always carries the original text.
type Line struct {
	Index int
	Raw   string
	Row   map[string]any
	Err   error
}

// Reader iterates over the lines of a JSONL file.
type Reader struct {
	file    *os.File
	scanner *bufio.Scanner
	index   int
}

// Open opens a JSONL file for reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jsonl: %w", err)
	}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	return &Reader{file: f, scanner: scanner}, nil
}

// Next returns the next non-blank line. The second return value is false
// once the file is exhausted.
func (r *Reader) Next() (Line, bool) {
	for r.scanner.Scan() {
		r.index++
		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}

		line := Line{Index: r.index, Raw: text}
		var row map[string]any
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			line.Err = fmt.Errorf("decode line %d: %w", r.index, err)
		} else {
			line.Row = row
		}
		return line, true
	}
	return Line{}, false
}

// Err returns the first scan error, if any.
func (r *Reader) Err() error {
	return r.scanner.Err()
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Writer writes one JSON object per line.
type Writer struct {
	file   *os.File
	buf    *bufio.Writer
	enc    *json.Encoder
	count  int
	closed bool
}

// Create opens (truncating) a JSONL file for writing.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create jsonl: %w", err)
	}
	buf := bufio.NewWriter(f)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{file: f, buf: buf, enc: enc}, nil
}

// Write appends one row as a JSON line.
func (w *Writer) Write(row any) error {
	if err := w.enc.Encode(row); err != nil {
		return fmt.Errorf("encode jsonl row: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of rows written so far.
func (w *Writer) Count() int {
	return w.count
}

// Close flushes and closes the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("flush jsonl: %w", err)
	}
	return w.file.Close()
}
