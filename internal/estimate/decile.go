package estimate

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
)

// NumDeciles is the number of price bins.
const NumDeciles = 10

// Stratifier assigns prices to geometrically spaced bins spanning the
// observed price range. One stratifier covers the whole grid regardless of
// region.
type Stratifier struct {
	edges []float64
}

// NewStratifier computes NumDeciles+1 geometric edges from min to max price.
func NewStratifier(prices []float64) (*Stratifier, error) {
	if len(prices) == 0 {
		return nil, eris.New("estimate: no prices to stratify")
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range prices {
		if math.IsNaN(p) {
			continue
		}
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, eris.Errorf("estimate: price range [%g, %g] is not finite", lo, hi)
	}
	if lo <= 0 {
		return nil, eris.Errorf("estimate: minimum price %g must be positive for geometric bins", lo)
	}

	edges := floats.LogSpan(make([]float64, NumDeciles+1), lo, hi)
	edges[0], edges[NumDeciles] = lo, hi
	// LogSpan can overshoot by an ulp; keep edges non-decreasing inside
	// [lo, hi]. With lo == hi every edge equals lo, so that price lands in
	// the top bin.
	for i := 1; i < NumDeciles; i++ {
		edges[i] = math.Min(math.Max(edges[i], edges[i-1]), hi)
	}
	return &Stratifier{edges: edges}, nil
}

// Edges returns a copy of the bin edges.
func (s *Stratifier) Edges() []float64 {
	return append([]float64(nil), s.edges...)
}

// Decile returns the bin of p in 0..NumDeciles-1: the number of edges at or
// below p, minus one, clipped to the valid range.
func (s *Stratifier) Decile(p float64) int {
	n := sort.Search(len(s.edges), func(i int) bool { return s.edges[i] > p })
	return min(max(n-1, 0), NumDeciles-1)
}
