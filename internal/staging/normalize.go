package staging

import "strings"

// CanonicalColumns is the column order of a normalized equation table.
var CanonicalColumns = []string{
	"species_name",
	"region",
	"component",
	"equation_type",
	"predictor_vars",
	"formula_text",
	"biomass_units",
	"dbh_units",
	"dbh_min",
	"dbh_max",
	"height_units",
	"height_min",
	"height_max",
	"wood_density",
	"source_name",
	"source_citation",
	"source_url",
	"notes",
}

// copiedColumns are taken from the input when present; every other canonical
// column starts empty.
var copiedColumns = []string{
	"species_name",
	"region",
	"component",
	"equation_type",
	"formula_text",
	"wood_density",
}

// DefaultNote is written to rows whose notes column is empty.
const DefaultNote = "Imported from GlobAllomeTree (staged); pending enrichment"

// NormalizeTable maps t onto CanonicalColumns. Rows whose equation_type
// contains "DBH" get DBH predictor and kg/cm unit defaults.
func NormalizeTable(t *Table) *Table {
	out := &Table{
		Columns: append([]string(nil), CanonicalColumns...),
		Rows:    make([][]string, len(t.Rows)),
	}

	col := make(map[string]int, len(CanonicalColumns))
	for i, c := range CanonicalColumns {
		col[c] = i
	}

	src := make(map[string]int, len(copiedColumns))
	for _, c := range copiedColumns {
		if i := t.columnIndex(c); i >= 0 {
			src[c] = i
		}
	}

	for r, in := range t.Rows {
		row := make([]string, len(CanonicalColumns))
		for name, i := range src {
			row[col[name]] = in[i]
		}

		if strings.Contains(row[col["equation_type"]], "DBH") {
			row[col["predictor_vars"]] = "DBH"
			row[col["biomass_units"]] = "kg"
			row[col["dbh_units"]] = "cm"
		}
		if row[col["notes"]] == "" {
			row[col["notes"]] = DefaultNote
		}
		out.Rows[r] = row
	}
	return out
}
