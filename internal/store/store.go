// Package store persists estimation runs and their emitted records.
package store

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/bicep/income-sg/internal/model"
)

// ErrNotFound is returned (wrapped) when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return eris.Is(err, ErrNotFound)
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Stage  model.Stage     `json:"stage,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// EstimateFilter pages through a run's records. Limit <= 0 returns all.
type EstimateFilter struct {
	Region string `json:"region,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for estimation runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, stage model.Stage, seed uint64) (*model.Run, error)
	FinishRun(ctx context.Context, runID string, result *model.RunResult) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Estimates
	SaveEstimates(ctx context.Context, runID string, records []model.IncomeRecord) (int64, error)
	ListEstimates(ctx context.Context, runID string, filter EstimateFilter) ([]model.IncomeRecord, error)
	RegionSummaries(ctx context.Context, runID string) ([]model.RegionSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

const defaultRunLimit = 100

// Seeds are stored as text: a uint64 does not fit a signed 64-bit column.
func formatSeed(seed uint64) string { return strconv.FormatUint(seed, 10) }

func parseSeed(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "store: parse seed %q", s)
	}
	return v, nil
}
