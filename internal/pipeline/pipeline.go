// Package pipeline runs the income estimation stages against configured
// input and output tables.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bicep/income-sg/internal/config"
	"github.com/bicep/income-sg/internal/dataset"
	"github.com/bicep/income-sg/internal/estimate"
	"github.com/bicep/income-sg/internal/income"
	"github.com/bicep/income-sg/internal/interpolate"
	"github.com/bicep/income-sg/internal/model"
	"github.com/bicep/income-sg/internal/property"
	"github.com/bicep/income-sg/internal/store"
)

// Runner executes pipeline stages. The store is optional; without one,
// estimation runs are not recorded.
type Runner struct {
	cfg   *config.Config
	store store.Store
	log   *zap.Logger
}

// New creates a Runner.
func New(cfg *config.Config, st store.Store) *Runner {
	return &Runner{
		cfg:   cfg,
		store: st,
		log:   zap.L().With(zap.String("component", "pipeline")),
	}
}

// PriceReport summarizes the price preparation stage.
type PriceReport struct {
	Public           int `json:"public"`
	Private          int `json:"private"`
	DroppedAddresses int `json:"dropped_addresses"`
}

// EstimateReport summarizes an estimation run.
type EstimateReport struct {
	RunID      string               `json:"run_id,omitempty"`
	Seed       uint64               `json:"seed"`
	GridPoints int                  `json:"grid_points"`
	Records    []model.IncomeRecord `json:"-"`
	Skipped    estimate.SkipCounts  `json:"skipped"`
	Edges      []float64            `json:"edges"`
}

// track logs a stage's start, duration and failure.
func (r *Runner) track(name string, fn func() error) error {
	r.log.Info("pipeline: stage starting", zap.String("stage", name))
	start := time.Now()
	err := fn()
	duration := time.Since(start).Milliseconds()
	if err != nil {
		r.log.Error("pipeline: stage failed",
			zap.String("stage", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
		return err
	}
	r.log.Info("pipeline: stage complete",
		zap.String("stage", name),
		zap.Int64("duration_ms", duration),
	)
	return nil
}

// Income reads the raw income table, builds the cumulative distribution and
// writes it to the configured output.
func (r *Runner) Income(ctx context.Context) (*model.CumulativeTable, error) {
	var cdf *model.CumulativeTable
	err := r.track(string(model.StageIncome), func() error {
		tbl, err := dataset.ReadIncomeTable(ctx, r.cfg.Input.Income)
		if err != nil {
			return eris.Wrap(err, "pipeline: read income table")
		}
		if cdf, err = income.Build(tbl); err != nil {
			return eris.Wrap(err, "pipeline: build cumulative income")
		}
		out := r.cfg.Output.Path(r.cfg.Output.Cumulative)
		if err := dataset.WriteCumulativeTable(out, cdf); err != nil {
			return eris.Wrap(err, "pipeline: write cumulative income")
		}
		r.log.Info("pipeline: cumulative income written",
			zap.String("path", out),
			zap.Int("regions", len(cdf.Regions)),
			zap.Int("brackets", len(cdf.Brackets)),
		)
		return nil
	})
	return cdf, err
}

// Prices aggregates public resale and private transactions into the
// per-address price tables consumed by Interpolate.
func (r *Runner) Prices(ctx context.Context) (*PriceReport, error) {
	report := &PriceReport{}
	err := r.track(string(model.StagePrices), func() error {
		tx, err := dataset.ReadResaleTransactions(ctx, r.cfg.Input.Resale)
		if err != nil {
			return eris.Wrap(err, "pipeline: read resale transactions")
		}
		coords, err := dataset.ReadAddressCoords(ctx, r.cfg.Input.ResaleCoords)
		if err != nil {
			return eris.Wrap(err, "pipeline: read address coordinates")
		}
		public, dropped := property.AggregateResale(tx, coords)
		if dropped > 0 {
			r.log.Warn("pipeline: resale addresses without coordinates dropped", zap.Int("dropped", dropped))
		}
		if err := dataset.WritePriceSummaries(r.cfg.Input.PublicPrices, public, false); err != nil {
			return eris.Wrap(err, "pipeline: write public prices")
		}

		ptx, err := dataset.ReadPrivateTransactions(ctx, r.cfg.Input.Private)
		if err != nil {
			return eris.Wrap(err, "pipeline: read private transactions")
		}
		private := property.AggregatePrivate(ptx)
		if err := dataset.WritePriceSummaries(r.cfg.Input.PrivatePrices, private, true); err != nil {
			return eris.Wrap(err, "pipeline: write private prices")
		}

		report.Public = len(public)
		report.Private = len(private)
		report.DroppedAddresses = dropped
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Interpolate estimates a property price at every density grid point from
// the public and private price tables.
func (r *Runner) Interpolate(ctx context.Context) ([]model.PricedPoint, error) {
	var priced []model.PricedPoint
	err := r.track(string(model.StageInterpolate), func() error {
		public, err := dataset.ReadObservations(ctx, r.cfg.Input.PublicPrices, "public")
		if err != nil {
			return eris.Wrap(err, "pipeline: read public prices")
		}
		private, err := dataset.ReadObservations(ctx, r.cfg.Input.PrivatePrices, "private")
		if err != nil {
			return eris.Wrap(err, "pipeline: read private prices")
		}
		obs := interpolate.PrepareObservations(public, private)

		grid, err := dataset.ReadDensityGrid(ctx, r.cfg.Input.Density)
		if err != nil {
			return eris.Wrap(err, "pipeline: read density grid")
		}

		ip := interpolate.New(interpolate.Options{
			Neighbors: r.cfg.Interpolate.Neighbors,
			Power:     r.cfg.Interpolate.Power,
			Epsilon:   r.cfg.Interpolate.Epsilon,
			Workers:   r.cfg.Interpolate.Workers,
		})
		prices, err := ip.Interpolate(ctx, obs, grid)
		if err != nil {
			return err
		}
		if priced, err = interpolate.Apply(grid, prices); err != nil {
			return err
		}

		out := r.cfg.Output.Path(r.cfg.Output.Interpolated)
		if err := dataset.WritePricedGrid(out, priced); err != nil {
			return eris.Wrap(err, "pipeline: write interpolated grid")
		}
		r.log.Info("pipeline: interpolated grid written",
			zap.String("path", out),
			zap.Int("observations", len(obs)),
			zap.Int("grid_points", len(priced)),
		)
		return nil
	})
	return priced, err
}

// Estimate assigns incomes to the interpolated grid written by a previous
// Interpolate, using the cumulative table written by a previous Income.
func (r *Runner) Estimate(ctx context.Context) (*EstimateReport, error) {
	points, err := dataset.ReadPricedGrid(ctx, r.cfg.Output.Path(r.cfg.Output.Interpolated))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read interpolated grid")
	}
	cdf, err := dataset.ReadCumulativeTable(ctx, r.cfg.Output.Path(r.cfg.Output.Cumulative))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read cumulative income")
	}
	return r.estimate(ctx, model.StageEstimate, points, cdf)
}

// All runs income, interpolation and estimation in sequence. Price
// preparation is separate: its outputs are inputs here.
func (r *Runner) All(ctx context.Context) (*EstimateReport, error) {
	cdf, err := r.Income(ctx)
	if err != nil {
		return nil, err
	}
	points, err := r.Interpolate(ctx)
	if err != nil {
		return nil, err
	}
	return r.estimate(ctx, model.StageAll, points, cdf)
}
