// Package interpolate estimates a price surface over the density grid by
// inverse distance weighting of scattered price observations.
//
// Distances are Euclidean in (latitude, longitude) degrees. This is a
// small-area approximation and is only meaningful for a city-sized study area.
package interpolate

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/bicep/income-sg/internal/model"
)

// Defaults for the interpolator.
const (
	DefaultNeighbors = 30
	DefaultPower     = 2.0
	DefaultEpsilon   = 1e-10
)

// Options configures an Interpolator.
type Options struct {
	Neighbors int     // k nearest observations per target
	Power     float64 // distance exponent
	Epsilon   float64 // added to d^power so an exact match stays finite
	Workers   int     // parallel query goroutines; <= 0 means GOMAXPROCS
}

// DefaultOptions returns k=30, power 2, epsilon 1e-10.
func DefaultOptions() Options {
	return Options{
		Neighbors: DefaultNeighbors,
		Power:     DefaultPower,
		Epsilon:   DefaultEpsilon,
	}
}

// Interpolator performs IDW interpolation.
type Interpolator struct {
	opts Options
}

// New creates an Interpolator. Non-positive neighbors, power or epsilon fall
// back to the defaults.
func New(opts Options) *Interpolator {
	if opts.Neighbors <= 0 {
		opts.Neighbors = DefaultNeighbors
	}
	if opts.Power <= 0 {
		opts.Power = DefaultPower
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Interpolator{opts: opts}
}

// Options returns the effective options.
func (ip *Interpolator) Options() Options { return ip.opts }

// Interpolate returns one value per target, in target order. The spatial
// index is built once per call. When fewer than k observations exist, all
// of them are used.
func (ip *Interpolator) Interpolate(ctx context.Context, obs []model.PriceObservation, targets []model.GridPoint) ([]float64, error) {
	if len(obs) == 0 {
		return nil, eris.New("interpolate: no price observations")
	}
	log := zap.L().With(zap.String("component", "interpolate"))

	pts := make(sites, len(obs))
	for i, o := range obs {
		pts[i] = &site{pos: [2]float64{o.Lat, o.Lon}, value: o.Value, order: i}
	}
	tree := kdtree.New(pts, false)

	out := make([]float64, len(targets))
	if len(targets) == 0 {
		return out, nil
	}

	workers := min(ip.opts.Workers, len(targets))
	chunk := (len(targets) + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(targets); start += chunk {
		end := min(start+chunk, len(targets))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)%1024 == 0 && gctx.Err() != nil {
					return eris.Wrap(gctx.Err(), "interpolate: cancelled")
				}
				q := &site{pos: [2]float64{targets[i].Lat, targets[i].Lon}}
				out[i] = ip.estimate(tree, q)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("interpolated grid",
		zap.Int("observations", len(obs)),
		zap.Int("targets", len(targets)),
		zap.Int("neighbors", ip.opts.Neighbors),
		zap.Int("workers", workers),
	)
	return out, nil
}

type neighbor struct {
	dist  float64
	value float64
	order int
}

func (ip *Interpolator) estimate(tree *kdtree.Tree, q *site) float64 {
	keep := kdtree.NewNKeeper(ip.opts.Neighbors)
	tree.NearestSet(keep, q)

	nn := make([]neighbor, 0, len(keep.Heap))
	for _, cd := range keep.Heap {
		if cd.Comparable == nil {
			continue
		}
		s := cd.Comparable.(*site)
		nn = append(nn, neighbor{dist: math.Sqrt(cd.Dist), value: s.value, order: s.order})
	}
	// Sum in a fixed order so results do not depend on heap layout.
	sort.Slice(nn, func(i, j int) bool {
		if nn[i].dist != nn[j].dist {
			return nn[i].dist < nn[j].dist
		}
		return nn[i].order < nn[j].order
	})

	var num, den float64
	for _, n := range nn {
		w := 1 / (math.Pow(n.dist, ip.opts.Power) + ip.opts.Epsilon)
		num += w * n.value
		den += w
	}
	return num / den
}

// PrepareObservations concatenates observation sources, dropping rows with a
// missing (NaN) or infinite coordinate or value.
func PrepareObservations(sources ...[]model.PriceObservation) []model.PriceObservation {
	var n int
	for _, s := range sources {
		n += len(s)
	}
	out := make([]model.PriceObservation, 0, n)
	for _, s := range sources {
		for _, o := range s {
			if !finite(o.Lat) || !finite(o.Lon) || !finite(o.Value) {
				continue
			}
			out = append(out, o)
		}
	}
	return out
}

// Apply pairs grid points with their interpolated prices.
func Apply(points []model.GridPoint, prices []float64) ([]model.PricedPoint, error) {
	if len(points) != len(prices) {
		return nil, eris.Errorf("interpolate: %d points but %d prices", len(points), len(prices))
	}
	out := make([]model.PricedPoint, len(points))
	for i, p := range points {
		out[i] = model.PricedPoint{GridPoint: p, Price: prices[i]}
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
