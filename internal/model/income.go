package model

// Income table column names.
const (
	ColumnTotal           = "Total"
	ColumnNoWorkingPerson = "No_Working_Person"
	LowestBracket         = "0_1000"
)

// IncomeTable holds raw household counts per region. Columns keeps the
// source column order (identifier excluded); Values[i] aligns with Regions[i].
type IncomeTable struct {
	Regions []string
	Columns []string
	Values  [][]float64
}

// ColumnIndex returns the position of a column, or -1.
func (t *IncomeTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// CumulativeTable holds one discrete CDF over income brackets per region.
type CumulativeTable struct {
	Brackets []string
	Regions  []string // row order
	Rows     map[string][]float64
}

// NewCumulativeTable creates an empty table over the given brackets.
func NewCumulativeTable(brackets []string) *CumulativeTable {
	return &CumulativeTable{
		Brackets: brackets,
		Rows:     make(map[string][]float64),
	}
}

// Add appends a row. It reports false if the region already has one.
func (t *CumulativeTable) Add(region string, cdf []float64) bool {
	if _, ok := t.Rows[region]; ok {
		return false
	}
	t.Regions = append(t.Regions, region)
	t.Rows[region] = cdf
	return true
}

// Lookup returns the CDF for a normalized region name.
func (t *CumulativeTable) Lookup(region string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	row, ok := t.Rows[region]
	return row, ok
}
