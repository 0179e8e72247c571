package dataset

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bicep/income-sg/internal/fetcher"
	"github.com/bicep/income-sg/internal/model"
)

// ReadDensityGrid reads the population density grid. Rows without finite
// coordinates are dropped; a missing density reads as 0.
func ReadDensityGrid(ctx context.Context, path string) ([]model.GridPoint, error) {
	header, rows, err := fetcher.ReadCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	cols, err := requireCols(path, mapColumns(header), latCols, lonCols, densityCols, regionCols, subzoneCols)
	if err != nil {
		return nil, err
	}

	out, dropped := readGrid(rows, cols)
	if dropped > 0 {
		zap.L().Warn("dropped grid rows without coordinates",
			zap.String("path", path), zap.Int("dropped", dropped))
	}
	return out, nil
}

func readGrid(rows [][]string, cols []int) ([]model.GridPoint, int) {
	out := make([]model.GridPoint, 0, len(rows))
	dropped := 0
	for _, rec := range rows {
		p := model.GridPoint{
			Lat:     parseFloat64Or(getCol(rec, cols[0]), nan),
			Lon:     parseFloat64Or(getCol(rec, cols[1]), nan),
			Density: parseFloat64Or(getCol(rec, cols[2]), 0),
			Region:  model.NormalizeRegion(getCol(rec, cols[3])),
			Subzone: getCol(rec, cols[4]),
		}
		if !finite(p.Lat) || !finite(p.Lon) {
			dropped++
			continue
		}
		out = append(out, p)
	}
	return out, dropped
}

// ReadPricedGrid reads a grid written by WritePricedGrid.
func ReadPricedGrid(ctx context.Context, path string) ([]model.PricedPoint, error) {
	header, rows, err := fetcher.ReadCSV(ctx, path)
	if err != nil {
		return nil, err
	}
	colIdx := mapColumns(header)
	cols, err := requireCols(path, colIdx, latCols, lonCols, densityCols, regionCols, subzoneCols, priceCols)
	if err != nil {
		return nil, err
	}

	out := make([]model.PricedPoint, 0, len(rows))
	for n, rec := range rows {
		price := parseFloat64Or(getCol(rec, cols[5]), nan)
		if !finite(price) {
			return nil, eris.Errorf("dataset: %s row %d: missing price", path, n+2)
		}
		grid, _ := readGrid([][]string{rec}, cols[:5])
		if len(grid) == 0 {
			continue
		}
		out = append(out, model.PricedPoint{GridPoint: grid[0], Price: price})
	}
	return out, nil
}

// WritePricedGrid writes the density grid with its interpolated price.
func WritePricedGrid(path string, points []model.PricedPoint) error {
	return writeCSV(path, pricedGridOut, len(points), func(i int) []string {
		p := points[i]
		return []string{
			formatFloat(p.Lat),
			formatFloat(p.Lon),
			formatFloat(p.Density),
			p.Region,
			p.Subzone,
			formatFloat(p.Price),
		}
	})
}
