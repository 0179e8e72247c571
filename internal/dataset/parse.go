// Package dataset reads and writes the tabular files exchanged between
// pipeline stages.
package dataset

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Column aliases accepted on read. Matching is case-insensitive.
var (
	regionCols    = []string{"planning_area", "region", "planning area"}
	subzoneCols   = []string{"subzone", "subzone_n"}
	latCols       = []string{"latitude", "lat"}
	lonCols       = []string{"longitude", "lon", "lng"}
	densityCols   = []string{"popdensity", "pop_density", "population_density", "density"}
	priceCols     = []string{"combined_price", "property_price", "price"}
	obsValueCols  = []string{"mean_price_per_sqm", "value", "price_per_sqm"}
	addressCols   = []string{"full_address", "address", "searchval"}
	projectCols   = []string{"project_name", "project"}
	estimateCols  = []string{"region", "subzone", "latitude", "longitude", "property_price", "price_decile", "income_bracket", "popDensity", "average_income"}
	pricedGridOut = []string{"latitude", "longitude", "popDensity", "planning_area", "subzone", "combined_price"}
)

// mapColumns builds a case-insensitive column name to index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		if _, dup := m[key]; !dup {
			m[key] = i
		}
	}
	return m
}

// findCol returns the index of the first alias present in the header.
func findCol(colIdx map[string]int, aliases ...string) (int, bool) {
	for _, a := range aliases {
		if idx, ok := colIdx[strings.ToLower(a)]; ok {
			return idx, true
		}
	}
	return -1, false
}

// requireCols resolves one column per alias group, failing on the first
// group with no match.
func requireCols(path string, colIdx map[string]int, groups ...[]string) ([]int, error) {
	out := make([]int, len(groups))
	for i, g := range groups {
		idx, ok := findCol(colIdx, g...)
		if !ok {
			return nil, eris.Errorf("dataset: %s: missing column %q", path, g[0])
		}
		out[i] = idx
	}
	return out, nil
}

// getCol returns the field at idx, or "" when the row is short.
func getCol(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseFloat64Or parses a string as a float64, returning def if parsing fails.
func parseFloat64Or(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// writeCSV writes a header and n rows produced by row to path, creating the
// parent directory.
func writeCSV(path string, header []string, n int, row func(i int) []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "dataset: create dir for %s", path)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}
	for i := range n {
		if err := w.Write(row(i)); err != nil {
			return eris.Wrapf(err, "dataset: write row %d", i)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "dataset: flush %s", path)
	}
	return f.Close()
}

var nan = math.NaN()
