package dataset

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bicep/income-sg/internal/fetcher"
	"github.com/bicep/income-sg/internal/model"
)

// ReadIncomeTable reads raw household counts per region from a .csv or
// .xlsx file. Every cell outside the identifier column is coerced to a
// number; anything that does not parse becomes 0.
func ReadIncomeTable(ctx context.Context, path string) (*model.IncomeTable, error) {
	header, rows, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	colIdx := mapColumns(header)
	idIdx, ok := findCol(colIdx, regionCols...)
	if !ok {
		return nil, eris.Errorf("dataset: %s: missing region identifier column", path)
	}

	t := &model.IncomeTable{}
	var valueIdx []int
	for i, h := range header {
		if i == idIdx {
			continue
		}
		t.Columns = append(t.Columns, canonicalIncomeColumn(h))
		valueIdx = append(valueIdx, i)
	}

	coerced := 0
	for _, rec := range rows {
		region := model.NormalizeRegion(getCol(rec, idIdx))
		if region == "" {
			continue
		}
		vals := make([]float64, len(valueIdx))
		for j, idx := range valueIdx {
			raw := getCol(rec, idx)
			v := parseFloat64Or(raw, 0)
			if v == 0 && raw != "" && raw != "0" {
				coerced++
			}
			vals[j] = v
		}
		t.Regions = append(t.Regions, region)
		t.Values = append(t.Values, vals)
	}

	zap.L().Debug("read income table",
		zap.String("path", path),
		zap.Int("regions", len(t.Regions)),
		zap.Int("columns", len(t.Columns)),
		zap.Int("coerced_cells", coerced),
	)
	return t, nil
}

func canonicalIncomeColumn(h string) string {
	h = strings.TrimSpace(h)
	switch {
	case strings.EqualFold(h, model.ColumnTotal):
		return model.ColumnTotal
	case strings.EqualFold(h, model.ColumnNoWorkingPerson):
		return model.ColumnNoWorkingPerson
	}
	return h
}

// ReadCumulativeTable reads a table written by WriteCumulativeTable.
func ReadCumulativeTable(ctx context.Context, path string) (*model.CumulativeTable, error) {
	header, rows, err := fetcher.ReadCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	colIdx := mapColumns(header)
	idIdx, ok := findCol(colIdx, regionCols...)
	if !ok {
		return nil, eris.Errorf("dataset: %s: missing region identifier column", path)
	}

	var brackets []string
	var idx []int
	for i, h := range header {
		if i == idIdx {
			continue
		}
		brackets = append(brackets, strings.TrimSpace(h))
		idx = append(idx, i)
	}
	if len(brackets) == 0 {
		return nil, eris.Errorf("dataset: %s: no bracket columns", path)
	}

	t := model.NewCumulativeTable(brackets)
	for n, rec := range rows {
		region := model.NormalizeRegion(getCol(rec, idIdx))
		cdf := make([]float64, len(idx))
		for j, i := range idx {
			v := parseFloat64Or(getCol(rec, i), nan)
			if !finite(v) {
				return nil, eris.Errorf("dataset: %s row %d: bad probability in column %q", path, n+2, brackets[j])
			}
			cdf[j] = v
		}
		if !t.Add(region, cdf) {
			zap.L().Warn("duplicate region in cumulative table ignored",
				zap.String("path", path), zap.String("region", region))
		}
	}
	return t, nil
}

// WriteCumulativeTable writes one row per region: planning_area then one
// column per bracket.
func WriteCumulativeTable(path string, t *model.CumulativeTable) error {
	header := append([]string{"planning_area"}, t.Brackets...)
	return writeCSV(path, header, len(t.Regions), func(i int) []string {
		region := t.Regions[i]
		row := make([]string, 0, len(header))
		row = append(row, region)
		for _, v := range t.Rows[region] {
			row = append(row, formatFloat(v))
		}
		return row
	})
}
