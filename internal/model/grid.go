package model

// PriceObservation is one scattered price-per-unit-area sample.
type PriceObservation struct {
	Lat    float64 `json:"latitude"`
	Lon    float64 `json:"longitude"`
	Value  float64 `json:"value"`
	Source string  `json:"source,omitempty"` // "public" or "private"
}

// GridPoint is one cell of the population density grid.
type GridPoint struct {
	Lat     float64 `json:"latitude"`
	Lon     float64 `json:"longitude"`
	Density float64 `json:"pop_density"`
	Region  string  `json:"region"`
	Subzone string  `json:"subzone"`
}

// PricedPoint is a grid point carrying its interpolated property price.
type PricedPoint struct {
	GridPoint
	Price float64 `json:"property_price"`
}

// IncomeRecord is one estimated-income output row.
type IncomeRecord struct {
	Region  string  `json:"region"`
	Subzone string  `json:"subzone"`
	Lat     float64 `json:"latitude"`
	Lon     float64 `json:"longitude"`
	Price   float64 `json:"property_price"`
	Decile  int     `json:"price_decile"`
	Bracket string  `json:"income_bracket"`
	Density float64 `json:"pop_density"`
	Income  float64 `json:"average_income"`
}
