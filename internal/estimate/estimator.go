// Package estimate assigns an income bracket and a sampled income to every
// priced grid point, using price deciles and per-region cumulative income
// distributions.
package estimate

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bicep/income-sg/internal/model"
)

// Skip reasons reported in Result.Skipped.
const (
	SkipExcluded    = "excluded"
	SkipZeroDensity = "no_distribution_zero_density"
	SkipNoFallback  = "no_fallback"
)

// SkipCounts counts skipped grid points per reason.
type SkipCounts map[string]int

// Total sums all reasons.
func (s SkipCounts) Total() int {
	n := 0
	for _, v := range s {
		n += v
	}
	return n
}

// Result is the output of one estimation pass.
type Result struct {
	Records []model.IncomeRecord
	Skipped SkipCounts
	Edges   []float64
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithFallbackRegion overrides the region whose distribution is used for
// regions without one. Default "others".
func WithFallbackRegion(region string) Option {
	return func(e *Estimator) {
		if region != "" {
			e.fallback = model.NormalizeRegion(region)
		}
	}
}

// Estimator maps priced grid points to income records.
type Estimator struct {
	policy   *Policy
	sampler  Sampler
	fallback string
}

// NewEstimator creates an Estimator. The sampler is the only source of
// randomness.
func NewEstimator(policy *Policy, sampler Sampler, opts ...Option) *Estimator {
	e := &Estimator{
		policy:   policy,
		sampler:  sampler,
		fallback: model.FallbackRegion,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type regionGroup struct {
	name    string
	idx     []int
	density float64
}

// Estimate processes regions in order of first appearance and points within
// a region in grid order. Skipped points are counted, not returned as
// errors; a bracket label that matches no bound rule aborts with a
// *FormatError.
func (e *Estimator) Estimate(ctx context.Context, points []model.PricedPoint, cdf *model.CumulativeTable) (*Result, error) {
	if e.policy == nil || e.sampler == nil {
		return nil, eris.New("estimate: estimator needs a policy and a sampler")
	}
	if cdf == nil || len(cdf.Brackets) == 0 {
		return nil, eris.New("estimate: empty cumulative income table")
	}
	log := zap.L().With(zap.String("component", "estimate"))

	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	strat, err := NewStratifier(prices)
	if err != nil {
		return nil, err
	}

	groups := groupByRegion(points)
	res := &Result{
		Skipped: SkipCounts{},
		Edges:   strat.Edges(),
	}
	last := len(cdf.Brackets) - 1

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "estimate: cancelled")
		}

		probs, ok := cdf.Lookup(g.name)
		if !ok {
			if g.density == 0 {
				log.Info("skipping region with no income data and zero density",
					zap.String("region", g.name), zap.Int("points", len(g.idx)))
				res.Skipped[SkipZeroDensity] += len(g.idx)
				continue
			}
			probs, ok = cdf.Lookup(e.fallback)
			if !ok {
				log.Info("skipping region with no income data and no fallback distribution",
					zap.String("region", g.name), zap.String("fallback", e.fallback))
				res.Skipped[SkipNoFallback] += len(g.idx)
				continue
			}
			log.Info("no income data for region, using fallback distribution",
				zap.String("region", g.name), zap.String("fallback", e.fallback))
		}
		if len(probs) != len(cdf.Brackets) {
			return nil, eris.Errorf("estimate: region %q has %d probabilities for %d brackets", g.name, len(probs), len(cdf.Brackets))
		}

		for _, i := range g.idx {
			p := points[i]
			if p.Density < 1 || e.policy.IsExcluded(p.Subzone) {
				res.Skipped[SkipExcluded]++
				continue
			}

			decile := strat.Decile(p.Price)
			target := float64(decile+1) / NumDeciles
			bi := min(sort.SearchFloat64s(probs, target), last)
			label := cdf.Brackets[bi]

			b, err := e.policy.Bounds(label, decile)
			if err != nil {
				return nil, err
			}

			res.Records = append(res.Records, model.IncomeRecord{
				Region:  g.name,
				Subzone: p.Subzone,
				Lat:     p.Lat,
				Lon:     p.Lon,
				Price:   p.Price,
				Decile:  decile,
				Bracket: label,
				Density: p.Density,
				Income:  e.sampler.Uniform(b.Lower, b.Upper),
			})
		}
	}

	log.Info("estimated incomes",
		zap.Int("grid_points", len(points)),
		zap.Int("emitted", len(res.Records)),
		zap.Int("skipped", res.Skipped.Total()),
		zap.Int("regions", len(groups)),
	)
	return res, nil
}

func groupByRegion(points []model.PricedPoint) []*regionGroup {
	var order []*regionGroup
	byName := make(map[string]*regionGroup)
	for i, p := range points {
		name := model.NormalizeRegion(p.Region)
		g, ok := byName[name]
		if !ok {
			g = &regionGroup{name: name}
			byName[name] = g
			order = append(order, g)
		}
		g.idx = append(g.idx, i)
		g.density += p.Density
	}
	return order
}
