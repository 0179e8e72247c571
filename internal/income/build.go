// Package income turns raw household counts per region into cumulative
// income distributions over brackets.
package income

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/bicep/income-sg/internal/model"
)

// Build converts raw bracket counts into one CDF per region.
//
// The No_Working_Person count is folded into the lowest bracket, each row is
// divided by its Total and cumulated in column order, and the last bracket is
// forced to exactly 1.0. Rows whose Total is zero produce non-finite values;
// those are replaced by 1.0, so such a region always resolves to its lowest
// bracket.
func Build(t *model.IncomeTable) (*model.CumulativeTable, error) {
	if t == nil {
		return nil, eris.New("income: nil table")
	}
	log := zap.L().With(zap.String("component", "income"))

	totalIdx := t.ColumnIndex(model.ColumnTotal)
	if totalIdx < 0 {
		return nil, eris.Errorf("income: missing %q column", model.ColumnTotal)
	}
	nwpIdx := t.ColumnIndex(model.ColumnNoWorkingPerson)

	var brackets []string
	var bracketIdx []int
	for i, c := range t.Columns {
		if i == totalIdx || i == nwpIdx {
			continue
		}
		brackets = append(brackets, c)
		bracketIdx = append(bracketIdx, i)
	}
	if len(brackets) == 0 {
		return nil, eris.New("income: no bracket columns")
	}

	lowest := 0
	for i, b := range brackets {
		if b == model.LowestBracket {
			lowest = i
			break
		}
	}

	out := model.NewCumulativeTable(brackets)
	for r, region := range t.Regions {
		region = model.NormalizeRegion(region)
		row := t.Values[r]

		mass := make([]float64, len(brackets))
		for j, idx := range bracketIdx {
			mass[j] = cell(row, idx)
		}
		if nwpIdx >= 0 {
			mass[lowest] += cell(row, nwpIdx)
		}

		total := cell(row, totalIdx)
		for j := range mass {
			mass[j] /= total
		}

		cdf := floats.CumSum(make([]float64, len(mass)), mass)
		normalizeCDF(cdf)

		if !out.Add(region, cdf) {
			log.Warn("duplicate region row ignored", zap.String("region", region))
		}
	}

	log.Info("built cumulative income table",
		zap.Int("regions", len(out.Regions)),
		zap.Int("brackets", len(brackets)),
	)
	return out, nil
}

func cell(row []float64, idx int) float64 {
	if idx >= len(row) {
		return 0
	}
	return row[idx]
}

// normalizeCDF makes cdf non-decreasing within [0,1] with a last value of 1.
func normalizeCDF(cdf []float64) {
	prev := 0.0
	for i, v := range cdf {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			v = 1
		case v < 0:
			v = 0
		case v > 1:
			v = 1
		}
		if v < prev {
			v = prev
		}
		cdf[i] = v
		prev = v
	}
	cdf[len(cdf)-1] = 1.0
}
