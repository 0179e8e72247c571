package model

import "time"

// RunStatus represents the current state of an estimation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageIncome      Stage = "income"
	StagePrices      Stage = "prices"
	StageInterpolate Stage = "interpolate"
	StageEstimate    Stage = "estimate"
	StageAll         Stage = "all"
)

// Run represents a single estimation run.
type Run struct {
	ID        string     `json:"id"`
	Stage     Stage      `json:"stage"`
	Status    RunStatus  `json:"status"`
	Seed      uint64     `json:"seed"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult holds the final outcome of a run.
type RunResult struct {
	GridPoints int            `json:"grid_points"`
	Emitted    int            `json:"emitted"`
	Skipped    map[string]int `json:"skipped,omitempty"`
	Edges      []float64      `json:"edges,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// SkippedTotal sums skipped points over all reasons.
func (r *RunResult) SkippedTotal() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, v := range r.Skipped {
		n += v
	}
	return n
}

// RegionSummary aggregates the estimates emitted for one region in a run.
type RegionSummary struct {
	Region     string  `json:"region"`
	Records    int     `json:"records"`
	MeanPrice  float64 `json:"mean_price"`
	MeanIncome float64 `json:"mean_income"`
	MinIncome  float64 `json:"min_income"`
	MaxIncome  float64 `json:"max_income"`
}
