package store

import (
	"fmt"

	"github.com/bicep/income-sg/internal/model"
)

// estimateColumns lists the record columns shared by both backends, in
// model.IncomeRecord field order.
const estimateColumns = `region, subzone, latitude, longitude, property_price, price_decile, income_bracket, pop_density, average_income`

var estimateCopyColumns = []string{
	"run_id", "seq", "region", "subzone", "latitude", "longitude", "property_price",
	"price_decile", "income_bracket", "pop_density", "average_income",
}

func estimateRow(runID string, seq int, r model.IncomeRecord) []any {
	return []any{
		runID, seq, r.Region, r.Subzone, r.Lat, r.Lon, r.Price,
		r.Decile, r.Bracket, r.Density, r.Income,
	}
}

func scanEstimate(row scannable) (model.IncomeRecord, error) {
	var r model.IncomeRecord
	err := row.Scan(&r.Region, &r.Subzone, &r.Lat, &r.Lon, &r.Price, &r.Decile, &r.Bracket, &r.Density, &r.Income)
	return r, err
}

// regionSummaryQuery aggregates a run's records per region. placeholder is
// the driver's bind marker for the run id.
func regionSummaryQuery(placeholder string) string {
	return fmt.Sprintf(`SELECT region, COUNT(*), AVG(property_price), AVG(average_income),
	MIN(average_income), MAX(average_income)
	FROM estimates WHERE run_id = %s GROUP BY region ORDER BY region`, placeholder)
}
