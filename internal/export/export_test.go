package export

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/bicep/income-sg/internal/model"
)

func TestEncodePoint(t *testing.T) {
	data, err := EncodePoint(103.85, 1.37)
	require.NoError(t, err)

	g, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	p, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, SRID, p.SRID())
	assert.Equal(t, 103.85, p.X())
	assert.Equal(t, 1.37, p.Y())
}

func TestWriteShapefile(t *testing.T) {
	records := []model.IncomeRecord{
		{Region: "bedok", Subzone: "BEDOK NORTH", Lat: 1.33, Lon: 103.93, Price: 5500.5, Decile: 3, Bracket: "3000_3999", Density: 120, Income: 3456.78},
		{Region: "tampines", Subzone: "TAMPINES EAST", Lat: 1.35, Lon: 103.95, Price: 6100, Decile: 9, Bracket: "20000_and_over", Density: 80, Income: 99000},
	}
	dir := filepath.Join(t.TempDir(), "gis")
	path := filepath.Join(dir, "estimates.shp")
	require.NoError(t, WriteShapefile(path, records))

	for _, name := range []string{"estimates.shp", "estimates.shx", "estimates.dbf"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	assert.NoFileExists(t, filepath.Join(dir, "estimatesdbf"))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	require.Len(t, r.Fields(), len(fields))

	fieldIdx := make(map[string]int)
	for i, f := range r.Fields() {
		fieldIdx[strings.TrimRight(f.String(), "\x00")] = i
	}
	attr := func(name string) string {
		return strings.TrimSpace(r.Attribute(fieldIdx[name]))
	}

	var n int
	for r.Next() {
		_, shape := r.Shape()
		p, ok := shape.(*shp.Point)
		require.True(t, ok)
		want := records[n]
		assert.InDelta(t, want.Lon, p.X, 1e-9)
		assert.InDelta(t, want.Lat, p.Y, 1e-9)
		assert.Equal(t, want.Region, attr("REGION"))
		assert.Equal(t, want.Subzone, attr("SUBZONE"))
		assert.Equal(t, want.Bracket, attr("BRACKET"))
		assert.Equal(t, strconv.Itoa(want.Decile), attr("DECILE"))
		income, err := strconv.ParseFloat(attr("INCOME"), 64)
		require.NoError(t, err)
		assert.InDelta(t, want.Income, income, 0.01)
		n++
	}
	assert.Equal(t, len(records), n)
}

func TestWriteShapefile_BadExtension(t *testing.T) {
	err := WriteShapefile(filepath.Join(t.TempDir(), "estimates.csv"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must end in .shp")
}

func TestWriteShapefile_Empty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.shp")
	require.NoError(t, WriteShapefile(path, nil))

	assert.FileExists(t, filepath.Join(dir, "empty.dbf"))
	assert.NoFileExists(t, filepath.Join(dir, "emptydbf"))

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	assert.Len(t, r.Fields(), len(fields))
	assert.False(t, r.Next())
}
