package dataset

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/bicep/income-sg/internal/fetcher"
	"github.com/bicep/income-sg/internal/model"
)

// WriteEstimates writes the estimated income table.
func WriteEstimates(path string, records []model.IncomeRecord) error {
	return writeCSV(path, estimateCols, len(records), func(i int) []string {
		r := records[i]
		return []string{
			r.Region,
			r.Subzone,
			formatFloat(r.Lat),
			formatFloat(r.Lon),
			formatFloat(r.Price),
			strconv.Itoa(r.Decile),
			r.Bracket,
			formatFloat(r.Density),
			formatFloat(r.Income),
		}
	})
}

// ReadEstimates reads a table written by WriteEstimates.
func ReadEstimates(ctx context.Context, path string) ([]model.IncomeRecord, error) {
	header, rows, err := fetcher.ReadCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	cols, err := requireCols(path, mapColumns(header),
		regionCols, subzoneCols, latCols, lonCols,
		[]string{"property_price"}, []string{"price_decile"}, []string{"income_bracket"},
		densityCols, []string{"average_income"})
	if err != nil {
		return nil, err
	}

	out := make([]model.IncomeRecord, 0, len(rows))
	for n, rec := range rows {
		decile, err := strconv.Atoi(getCol(rec, cols[5]))
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: %s row %d: price_decile", path, n+2)
		}
		out = append(out, model.IncomeRecord{
			Region:  getCol(rec, cols[0]),
			Subzone: getCol(rec, cols[1]),
			Lat:     parseFloat64Or(getCol(rec, cols[2]), nan),
			Lon:     parseFloat64Or(getCol(rec, cols[3]), nan),
			Price:   parseFloat64Or(getCol(rec, cols[4]), nan),
			Decile:  decile,
			Bracket: getCol(rec, cols[6]),
			Density: parseFloat64Or(getCol(rec, cols[7]), 0),
			Income:  parseFloat64Or(getCol(rec, cols[8]), nan),
		})
	}
	return out, nil
}
