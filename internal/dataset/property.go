package dataset

import (
	"context"

	"go.uber.org/zap"

	"github.com/bicep/income-sg/internal/fetcher"
	"github.com/bicep/income-sg/internal/model"
	"github.com/bicep/income-sg/internal/property"
)

// ReadResaleTransactions reads public housing resale records
// (block, street_name, resale_price, floor_area_sqm).
func ReadResaleTransactions(ctx context.Context, path string) ([]property.ResaleTransaction, error) {
	header, rows, err := fetcher.ReadCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	cols, err := requireCols(path, mapColumns(header),
		[]string{"block"}, []string{"street_name"}, []string{"resale_price"}, []string{"floor_area_sqm"})
	if err != nil {
		return nil, err
	}

	out := make([]property.ResaleTransaction, 0, len(rows))
	for _, rec := range rows {
		out = append(out, property.ResaleTransaction{
			Block:        getCol(rec, cols[0]),
			StreetName:   getCol(rec, cols[1]),
			ResalePrice:  parseFloat64Or(getCol(rec, cols[2]), nan),
			FloorAreaSqm: parseFloat64Or(getCol(rec, cols[3]), nan),
		})
	}
	return out, nil
}

// ReadAddressCoords reads pre-geocoded addresses keyed by
// property.NormalizeAddress. Rows without finite coordinates are ignored.
func ReadAddressCoords(ctx context.Context, path string) (map[string]property.Coord, error) {
	header, rows, err := fetcher.ReadCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	cols, err := requireCols(path, mapColumns(header), addressCols, latCols, lonCols)
	if err != nil {
		return nil, err
	}

	out := make(map[string]property.Coord, len(rows))
	for _, rec := range rows {
		lat := parseFloat64Or(getCol(rec, cols[1]), nan)
		lon := parseFloat64Or(getCol(rec, cols[2]), nan)
		if !finite(lat) || !finite(lon) {
			continue
		}
		key := property.NormalizeAddress(getCol(rec, cols[0]))
		if _, ok := out[key]; ok {
			continue
		}
		out[key] = property.Coord{Lat: lat, Lon: lon}
	}
	return out, nil
}

// ReadPrivateTransactions reads private sales with project coordinates
// (project_name, street, price, area, latitude, longitude).
func ReadPrivateTransactions(ctx context.Context, path string) ([]property.PrivateTransaction, error) {
	header, rows, err := fetcher.ReadCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	colIdx := mapColumns(header)
	cols, err := requireCols(path, colIdx,
		projectCols, []string{"price", "transaction_amount"}, []string{"area", "property_area"}, latCols, lonCols)
	if err != nil {
		return nil, err
	}
	streetIdx, _ := findCol(colIdx, "street", "street_name")

	out := make([]property.PrivateTransaction, 0, len(rows))
	for _, rec := range rows {
		out = append(out, property.PrivateTransaction{
			Project: getCol(rec, cols[0]),
			Street:  getCol(rec, streetIdx),
			Price:   parseFloat64Or(getCol(rec, cols[1]), nan),
			Area:    parseFloat64Or(getCol(rec, cols[2]), nan),
			Lat:     parseFloat64Or(getCol(rec, cols[3]), nan),
			Lon:     parseFloat64Or(getCol(rec, cols[4]), nan),
		})
	}
	return out, nil
}

// WritePriceSummaries writes per-location price statistics. Private
// summaries carry a leading project_name column.
func WritePriceSummaries(path string, s []property.PriceSummary, withProject bool) error {
	header := []string{"full_address", "median_price_per_sqm", "mean_price_per_sqm", "housing_type", "latitude", "longitude"}
	if withProject {
		header = append([]string{"project_name"}, header...)
	}
	return writeCSV(path, header, len(s), func(i int) []string {
		v := s[i]
		row := []string{
			v.Address,
			formatFloat(v.MedianPricePerSqm),
			formatFloat(v.MeanPricePerSqm),
			v.HousingType,
			formatFloat(v.Lat),
			formatFloat(v.Lon),
		}
		if withProject {
			row = append([]string{v.Project}, row...)
		}
		return row
	})
}

// ReadObservations reads latitude, longitude and mean_price_per_sqm from a
// price summary file. Missing or unparsable numbers become NaN so that
// interpolate.PrepareObservations can drop them.
func ReadObservations(ctx context.Context, path, source string) ([]model.PriceObservation, error) {
	header, rows, err := fetcher.ReadCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	colIdx := mapColumns(header)
	cols, err := requireCols(path, colIdx, latCols, lonCols, obsValueCols)
	if err != nil {
		return nil, err
	}
	if source == "" {
		if idx, ok := findCol(colIdx, "housing_type"); ok && len(rows) > 0 {
			source = getCol(rows[0], idx)
		}
	}

	out := make([]model.PriceObservation, 0, len(rows))
	for _, rec := range rows {
		out = append(out, model.PriceObservation{
			Lat:    parseFloat64Or(getCol(rec, cols[0]), nan),
			Lon:    parseFloat64Or(getCol(rec, cols[1]), nan),
			Value:  parseFloat64Or(getCol(rec, cols[2]), nan),
			Source: source,
		})
	}
	zap.L().Debug("read price observations", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}
