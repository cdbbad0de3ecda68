// Package staging converts raw GlobAllomeTree exports into the canonical equation table.
//
// The pipeline has two steps. Stage reads a raw CSV or TSV export and writes it back
// comma-delimited without interpreting any values. Normalize maps a staged (or raw)
// table onto the 18-column canonical schema, filling unit defaults for DBH-based
// equations.
package staging

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/greencanopy/allometree/internal/errors"
)

// Table is an in-memory delimited table. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Column returns the cells of the named column, or nil if it does not exist.
func (t *Table) Column(name string) []string {
	i := t.columnIndex(name)
	if i < 0 {
		return nil
	}
	cells := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		cells[r] = row[i]
	}
	return cells
}

func (t *Table) columnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// DelimiterFor picks the field delimiter from the file extension:
// tab for .tsv and .tab, comma otherwise.
func DelimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return '\t'
	default:
		return ','
	}
}

// ReadTable reads the delimited table at path. A missing file is reported
// as a not-found error.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	f, err := os.Open(path) //nolint:gosec // G304: input path is supplied by the operator
	if err != nil {
		category := errors.CategoryFileIO
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
			err = fmt.Errorf("input file not found: %s", path)
		}
		return nil, errors.New(err).
			Component("staging").
			Category(category).
			Context("operation", "read_table").
			Build()
	}
	defer func() { _ = f.Close() }()

	t, err := readDelimited(ctx, f, DelimiterFor(path))
	if err != nil {
		return nil, errors.New(err).
			Component("staging").
			Category(errors.CategoryFileParsing).
			Context("operation", "read_table").
			Context("delimiter", string(DelimiterFor(path))).
			Build()
	}
	return t, nil
}

func readDelimited(ctx context.Context, r io.Reader, delim rune) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("table has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &Table{Columns: header}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		switch {
		case len(row) > len(header):
			return nil, fmt.Errorf("line %d has %d fields, header has %d", line, len(row), len(header))
		case len(row) < len(header):
			row = append(row, make([]string, len(header)-len(row))...)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteTable writes t comma-delimited to path, creating parent directories.
// The table is written to a temporary file in the same directory and renamed
// over path once complete.
func WriteTable(path string, t *Table) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return tableWriteError("create_output_dir", fmt.Errorf("failed to create output directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return tableWriteError("write_table", fmt.Errorf("failed to create temporary file: %w", err))
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	w := csv.NewWriter(tmp)
	err = w.Write(t.Columns)
	if err == nil {
		err = w.WriteAll(t.Rows)
	}
	if err == nil {
		err = tmp.Chmod(0o644)
	}
	if err != nil {
		_ = tmp.Close()
		return tableWriteError("write_table", fmt.Errorf("failed to write output file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return tableWriteError("write_table", fmt.Errorf("failed to close output file: %w", err))
	}

	if err := os.Rename(tmpName, path); err != nil {
		return tableWriteError("replace_output", fmt.Errorf("failed to move output into place: %w", err))
	}
	return nil
}

func tableWriteError(operation string, err error) error {
	return errors.New(err).
		Component("staging").
		Category(errors.CategoryFileIO).
		Context("operation", operation).
		Build()
}
