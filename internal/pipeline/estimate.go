package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bicep/income-sg/internal/dataset"
	"github.com/bicep/income-sg/internal/estimate"
	"github.com/bicep/income-sg/internal/export"
	"github.com/bicep/income-sg/internal/model"
)

// estimate runs the estimator and, when a store is configured, records the
// run. Any failure after the run is created marks it failed.
func (r *Runner) estimate(ctx context.Context, stage model.Stage, points []model.PricedPoint, cdf *model.CumulativeTable) (*EstimateReport, error) {
	policy, err := estimate.LoadPolicy(r.cfg.Estimate.PolicyFile)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load policy")
	}
	sampler := estimate.NewSampler(r.cfg.Estimate.Seed)
	report := &EstimateReport{Seed: sampler.Seed(), GridPoints: len(points)}
	log := r.log.With(zap.Uint64("seed", report.Seed))

	var run *model.Run
	if r.store != nil {
		if run, err = r.store.CreateRun(ctx, stage, report.Seed); err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		report.RunID = run.ID
		log = log.With(zap.String("run_id", run.ID))
	}

	start := time.Now()
	err = r.track(string(model.StageEstimate), func() error {
		est := estimate.NewEstimator(policy, sampler, estimate.WithFallbackRegion(r.cfg.Estimate.FallbackRegion))
		res, err := est.Estimate(ctx, points, cdf)
		if err != nil {
			return err
		}
		report.Records = res.Records
		report.Skipped = res.Skipped
		report.Edges = res.Edges

		out := r.cfg.Output.Path(r.cfg.Output.Estimated)
		if err := dataset.WriteEstimates(out, res.Records); err != nil {
			return eris.Wrap(err, "pipeline: write estimates")
		}
		if shp := r.cfg.Export.Shapefile; shp != "" {
			if err := export.WriteShapefile(r.cfg.Output.Path(shp), res.Records); err != nil {
				return eris.Wrap(err, "pipeline: export shapefile")
			}
		}
		if run != nil {
			if _, err := r.store.SaveEstimates(ctx, run.ID, res.Records); err != nil {
				return eris.Wrap(err, "pipeline: save estimates")
			}
		}
		log.Info("pipeline: estimates written",
			zap.String("path", out),
			zap.Int("emitted", len(res.Records)),
			zap.Int("skipped", res.Skipped.Total()),
		)
		return nil
	})

	if run == nil {
		if err != nil {
			return nil, err
		}
		return report, nil
	}

	// The run row must reflect the outcome even when ctx was cancelled.
	recCtx := context.WithoutCancel(ctx)
	if err != nil {
		if failErr := r.store.FailRun(recCtx, run.ID, err.Error()); failErr != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(failErr))
		}
		return nil, err
	}

	result := &model.RunResult{
		GridPoints: report.GridPoints,
		Emitted:    len(report.Records),
		Skipped:    report.Skipped,
		Edges:      report.Edges,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err := r.store.FinishRun(recCtx, run.ID, result); err != nil {
		return nil, eris.Wrap(err, "pipeline: finish run")
	}
	return report, nil
}
