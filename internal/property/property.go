// Package property aggregates raw housing transactions into per-location
// price-per-square-metre observations.
package property

import (
	"math"
	"sort"
	"strings"

	"github.com/bicep/income-sg/internal/model"
)

// Housing types.
const (
	HousingPublic  = "public"
	HousingPrivate = "private"
)

const landedMarker = "LANDED HOUSING DEVELOPMENT"

// ResaleTransaction is one public housing resale.
type ResaleTransaction struct {
	Block        string
	StreetName   string
	ResalePrice  float64
	FloorAreaSqm float64
}

// FullAddress is block and street joined by a space.
func (t ResaleTransaction) FullAddress() string {
	return t.Block + " " + t.StreetName
}

// PrivateTransaction is one private sale with its project location.
type PrivateTransaction struct {
	Project string
	Street  string
	Price   float64
	Area    float64
	Lat     float64
	Lon     float64
}

// Coord is a geocoded location.
type Coord struct {
	Lat float64
	Lon float64
}

// PriceSummary is the price statistics for one address or project.
type PriceSummary struct {
	Project           string
	Address           string
	MedianPricePerSqm float64
	MeanPricePerSqm   float64
	HousingType       string
	Lat               float64
	Lon               float64
}

// Observation converts the summary into an interpolation input using the
// mean price per square metre.
func (s PriceSummary) Observation() model.PriceObservation {
	return model.PriceObservation{
		Lat:    s.Lat,
		Lon:    s.Lon,
		Value:  s.MeanPricePerSqm,
		Source: s.HousingType,
	}
}

// AggregateResale groups resale transactions by full address and joins the
// address coordinates. It returns the summaries sorted by address and the
// number of addresses dropped for lack of coordinates.
func AggregateResale(tx []ResaleTransaction, coords map[string]Coord) ([]PriceSummary, int) {
	byAddr := make(map[string][]float64)
	for _, t := range tx {
		if !usable(t.ResalePrice, t.FloorAreaSqm) {
			continue
		}
		addr := t.FullAddress()
		byAddr[addr] = append(byAddr[addr], t.ResalePrice/t.FloorAreaSqm)
	}

	addrs := make([]string, 0, len(byAddr))
	for a := range byAddr {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)

	var out []PriceSummary
	dropped := 0
	for _, a := range addrs {
		c, ok := coords[NormalizeAddress(a)]
		if !ok {
			dropped++
			continue
		}
		vals := byAddr[a]
		out = append(out, PriceSummary{
			Address:           a,
			MedianPricePerSqm: Median(vals),
			MeanPricePerSqm:   Mean(vals),
			HousingType:       HousingPublic,
			Lat:               c.Lat,
			Lon:               c.Lon,
		})
	}
	return out, dropped
}

// AggregatePrivate groups private transactions by project. Landed housing
// projects are renamed "<project> in <street>" so that developments sharing
// the generic name stay apart. Projects without a usable transaction or
// without coordinates are dropped. Output keeps first-seen project order.
func AggregatePrivate(tx []PrivateTransaction) []PriceSummary {
	type group struct {
		name  string
		coord *Coord
		vals  []float64
	}
	var order []*group
	byName := make(map[string]*group)

	for _, t := range tx {
		name := ProjectName(t.Project, t.Street)
		g, ok := byName[name]
		if !ok {
			g = &group{name: name}
			byName[name] = g
			order = append(order, g)
		}
		if g.coord == nil && finite(t.Lat) && finite(t.Lon) {
			g.coord = &Coord{Lat: t.Lat, Lon: t.Lon}
		}
		if usable(t.Price, t.Area) {
			g.vals = append(g.vals, t.Price/t.Area)
		}
	}

	var out []PriceSummary
	for _, g := range order {
		if g.coord == nil || len(g.vals) == 0 {
			continue
		}
		out = append(out, PriceSummary{
			Project:           g.name,
			Address:           g.name,
			MedianPricePerSqm: Median(g.vals),
			MeanPricePerSqm:   Mean(g.vals),
			HousingType:       HousingPrivate,
			Lat:               g.coord.Lat,
			Lon:               g.coord.Lon,
		})
	}
	return out
}

// ProjectName applies the landed housing rename.
func ProjectName(project, street string) string {
	project = strings.TrimSpace(project)
	if project == "" {
		project = "Unknown"
	}
	if strings.Contains(strings.ToUpper(project), landedMarker) {
		street = strings.TrimSpace(street)
		if street == "" {
			street = "Unknown"
		}
		return project + " in " + street
	}
	return project
}

// Observations converts summaries to interpolation inputs.
func Observations(s []PriceSummary) []model.PriceObservation {
	out := make([]model.PriceObservation, len(s))
	for i, v := range s {
		out[i] = v.Observation()
	}
	return out
}

// NormalizeAddress is the key used to join addresses with geocoded
// coordinates: upper case with runs of whitespace collapsed.
func NormalizeAddress(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

func usable(price, area float64) bool {
	return finite(price) && finite(area) && price != 0 && area != 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
