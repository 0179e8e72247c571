package dataset

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/bicep/income-sg/internal/model"
	"github.com/bicep/income-sg/internal/property"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestReadIncomeTable_CSV(t *testing.T) {
	path := writeFile(t, "income.csv", `planning_Area,No_Working_Person,0_1000,1000_and_over,total
 Ang Mo Kio ,5,10,x,20
Bedok,,3,-,3
,1,1,1,1
`)

	tbl, err := ReadIncomeTable(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, []string{"ang mo kio", "bedok"}, tbl.Regions)
	assert.Equal(t, []string{"No_Working_Person", "0_1000", "1000_and_over", "Total"}, tbl.Columns)
	assert.Equal(t, [][]float64{{5, 10, 0, 20}, {0, 3, 0, 3}}, tbl.Values)
}

func TestReadIncomeTable_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, r := range [][]string{{"region", "0_1000", "Total"}, {"Others", "4", "8"}} {
		row := sheet.AddRow()
		for _, c := range r {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "income.xlsx")
	require.NoError(t, f.Save(path))

	tbl, err := ReadIncomeTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"others"}, tbl.Regions)
	assert.Equal(t, [][]float64{{4, 8}}, tbl.Values)
}

func TestReadIncomeTable_MissingIdentifier(t *testing.T) {
	path := writeFile(t, "income.csv", "town,Total\nbedok,3\n")
	_, err := ReadIncomeTable(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing region identifier column")
}

func TestCumulativeTable_WriteRead(t *testing.T) {
	tbl := model.NewCumulativeTable([]string{"0_1000", "1000_and_over"})
	tbl.Add("ang mo kio", []float64{0.25, 1})
	tbl.Add("others", []float64{0.5, 1})

	path := filepath.Join(t.TempDir(), "out", "cumulative_income.csv")
	require.NoError(t, WriteCumulativeTable(path, tbl))
	assert.Equal(t, []string{"planning_area,0_1000,1000_and_over", "ang mo kio,0.25,1", "others,0.5,1"}, readLines(t, path))

	got, err := ReadCumulativeTable(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, tbl, got)
}

func TestReadCumulativeTable_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "bad probability", content: "planning_area,0_1000\nbedok,abc\n", wantErr: "bad probability"},
		{name: "no brackets", content: "planning_area\nbedok\n", wantErr: "no bracket columns"},
		{name: "no identifier", content: "name,0_1000\nbedok,1\n", wantErr: "missing region identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCumulativeTable(context.Background(), writeFile(t, "c.csv", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadDensityGrid(t *testing.T) {
	path := writeFile(t, "population_density.csv", `latitude,longitude,popDensity,planning_area,subzone
1.30,103.80,120.5, Bedok ,BEDOK NORTH
,103.81,10,bedok,BEDOK NORTH
1.32,103.82,,Changi,CHANGI AIRPORT
`)

	pts, err := ReadDensityGrid(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, pts, 2)
	assert.Equal(t, model.GridPoint{Lat: 1.30, Lon: 103.80, Density: 120.5, Region: "bedok", Subzone: "BEDOK NORTH"}, pts[0])
	assert.Equal(t, 0.0, pts[1].Density)
	assert.Equal(t, "changi", pts[1].Region)
}

func TestReadDensityGrid_MissingColumn(t *testing.T) {
	path := writeFile(t, "grid.csv", "latitude,longitude,planning_area,subzone\n1,2,a,b\n")
	_, err := ReadDensityGrid(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "popdensity"`)
}

func TestPricedGrid_WriteRead(t *testing.T) {
	points := []model.PricedPoint{
		{GridPoint: model.GridPoint{Lat: 1.3, Lon: 103.8, Density: 10, Region: "bedok", Subzone: "BEDOK NORTH"}, Price: 5123.25},
	}
	path := filepath.Join(t.TempDir(), "interpolated_combined.csv")
	require.NoError(t, WritePricedGrid(path, points))

	lines := readLines(t, path)
	assert.Equal(t, "latitude,longitude,popDensity,planning_area,subzone,combined_price", lines[0])

	got, err := ReadPricedGrid(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, points, got)
}

func TestReadPricedGrid_MissingPrice(t *testing.T) {
	path := writeFile(t, "g.csv", "latitude,longitude,popDensity,planning_area,subzone,combined_price\n1,2,3,a,b,\n")
	_, err := ReadPricedGrid(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing price")
}

func TestEstimates_WriteRead(t *testing.T) {
	records := []model.IncomeRecord{
		{Region: "bedok", Subzone: "BEDOK NORTH", Lat: 1.3, Lon: 103.9, Price: 6000, Decile: 4, Bracket: "3000_3999", Density: 55, Income: 3500.5},
	}
	path := filepath.Join(t.TempDir(), "estimated_income.csv")
	require.NoError(t, WriteEstimates(path, records))

	lines := readLines(t, path)
	assert.Equal(t, "region,subzone,latitude,longitude,property_price,price_decile,income_bracket,popDensity,average_income", lines[0])
	assert.Equal(t, "bedok,BEDOK NORTH,1.3,103.9,6000,4,3000_3999,55,3500.5", lines[1])

	got, err := ReadEstimates(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestReadObservations(t *testing.T) {
	path := writeFile(t, "hdb_property_prices.csv", `full_address,median_price_per_sqm,mean_price_per_sqm,housing_type,latitude,longitude
1 AMK,5000,5100,public,1.37,103.85
2 AMK,5000,,public,1.38,103.86
`)

	obs, err := ReadObservations(context.Background(), path, "")
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, model.PriceObservation{Lat: 1.37, Lon: 103.85, Value: 5100, Source: "public"}, obs[0])
	assert.True(t, math.IsNaN(obs[1].Value))
}

func TestPropertyReaders(t *testing.T) {
	resalePath := writeFile(t, "hdb_resale.csv", "month,town,block,street_name,floor_area_sqm,resale_price\n2024-01,ANG MO KIO,101,ANG MO KIO AVE 3,60,300000\n")
	coordPath := writeFile(t, "hdb_addresses.csv", "full_address,latitude,longitude\n101 ang mo kio ave 3,1.37,103.85\nbad,,\n")
	privatePath := writeFile(t, "private.csv", "project,street,price,area,latitude,longitude\nPARC ESTA,SIMS AVE,1500000,100,1.32,103.88\n")

	tx, err := ReadResaleTransactions(context.Background(), resalePath)
	require.NoError(t, err)
	require.Len(t, tx, 1)
	assert.Equal(t, property.ResaleTransaction{Block: "101", StreetName: "ANG MO KIO AVE 3", ResalePrice: 300000, FloorAreaSqm: 60}, tx[0])

	coords, err := ReadAddressCoords(context.Background(), coordPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]property.Coord{"101 ANG MO KIO AVE 3": {Lat: 1.37, Lon: 103.85}}, coords)

	ptx, err := ReadPrivateTransactions(context.Background(), privatePath)
	require.NoError(t, err)
	require.Len(t, ptx, 1)
	assert.Equal(t, "SIMS AVE", ptx[0].Street)
	assert.Equal(t, 1500000.0, ptx[0].Price)

	_, err = ReadResaleTransactions(context.Background(), privatePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "block"`)
}

func TestWritePriceSummaries(t *testing.T) {
	s := []property.PriceSummary{{Project: "PARC ESTA", Address: "PARC ESTA", MedianPricePerSqm: 15000, MeanPricePerSqm: 15500, HousingType: "private", Lat: 1.32, Lon: 103.88}}

	path := filepath.Join(t.TempDir(), "private_property_prices.csv")
	require.NoError(t, WritePriceSummaries(path, s, true))
	assert.Equal(t, []string{
		"project_name,full_address,median_price_per_sqm,mean_price_per_sqm,housing_type,latitude,longitude",
		"PARC ESTA,PARC ESTA,15000,15500,private,1.32,103.88",
	}, readLines(t, path))

	obs, err := ReadObservations(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, []model.PriceObservation{s[0].Observation()}, obs)
}
