// Package export writes estimated income records to GIS formats.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// SRID of every exported geometry (WGS 84).
const SRID = 4326

// EncodePoint returns an EWKB point with SRID 4326. X is longitude.
func EncodePoint(lon, lat float64) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(SRID)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "export: encode point")
	}
	return data, nil
}
