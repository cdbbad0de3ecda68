package allometry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/greencanopy/allometree/internal/errors"
)

// Canonical equation table column names
const (
	ColSpecies      = "species_name"
	ColRegion       = "region"
	ColComponent    = "component"
	ColEquationType = "equation_type"
	ColFormulaText  = "formula_text"
	ColWoodDensity  = "wood_density"
)

// requiredColumns must appear in the header of an equation table.
var requiredColumns = []string{ColSpecies, ColRegion, ColEquationType, ColFormulaText}

// ctxCheckInterval is how many rows are read between cancellation checks
const ctxCheckInterval = 1024

const utf8BOM = "\ufeff"

// ReadRecords parses a canonical equation table from r. Extra columns are ignored.
// A missing component column means every row is AGB; a missing wood_density column
// leaves densities empty. Short rows read their absent cells as empty.
func ReadRecords(ctx context.Context, r io.Reader) ([]EquationRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.Newf("equation table is empty").
				Component("allometry").
				Category(errors.CategoryFileParsing).
				Context("operation", "read_header").
				Build()
		}
		return nil, errors.New(fmt.Errorf("failed to read equation table header: %w", err)).
			Component("allometry").
			Category(errors.CategoryFileParsing).
			Context("operation", "read_header").
			Build()
	}

	cols := headerIndex(header)
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, errors.Newf("equation table is missing required column %q", name).
				Component("allometry").
				Category(errors.CategoryFileParsing).
				Context("operation", "read_header").
				Context("column", name).
				Build()
		}
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	_, hasComponent := cols[ColComponent]

	var records []EquationRecord
	for line := 2; ; line++ {
		if line%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.New(fmt.Errorf("failed to read equation table: %w", err)).
				Component("allometry").
				Category(errors.CategoryFileParsing).
				Context("operation", "read_row").
				Context("line", line).
				Build()
		}

		rec := EquationRecord{
			Species:      cell(row, ColSpecies),
			Region:       cell(row, ColRegion),
			Component:    cell(row, ColComponent),
			EquationType: cell(row, ColEquationType),
			FormulaText:  cell(row, ColFormulaText),
			WoodDensity:  cell(row, ColWoodDensity),
		}
		if !hasComponent {
			rec.Component = ComponentAGB
		}
		records = append(records, rec)
	}

	return records, nil
}

// LoadRecordsFile reads the canonical equation table at path.
func LoadRecordsFile(ctx context.Context, path string) ([]EquationRecord, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from settings or the command line
	if err != nil {
		category := errors.CategoryFileIO
		if os.IsNotExist(err) {
			category = errors.CategoryNotFound
		}
		return nil, errors.New(fmt.Errorf("failed to open equation table: %w", err)).
			Component("allometry").
			Category(category).
			Context("operation", "load_equations").
			Build()
	}
	defer func() { _ = f.Close() }()

	var size int64
	if info, statErr := f.Stat(); statErr == nil {
		size = info.Size()
	}

	records, err := ReadRecords(ctx, f)
	if err != nil {
		return nil, errors.New(err).
			Component("allometry").
			Category(errors.CategoryEquationLoad).
			FileContext(path, size).
			Build()
	}
	return records, nil
}

// headerIndex maps normalized header names to their column position.
// The first occurrence of a duplicated name wins.
func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}
