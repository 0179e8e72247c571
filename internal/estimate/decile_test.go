package estimate

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStratifier_Edges(t *testing.T) {
	s, err := NewStratifier([]float64{1024, 1, 32})
	require.NoError(t, err)

	edges := s.Edges()
	require.Len(t, edges, NumDeciles+1)
	assert.Equal(t, 1.0, edges[0])
	assert.Equal(t, 1024.0, edges[NumDeciles])
	for i := 1; i < len(edges); i++ {
		// Geometric: each edge doubles the previous one.
		assert.InDelta(t, 2.0, edges[i]/edges[i-1], 1e-9)
	}

	edges[0] = -1
	assert.Equal(t, 1.0, s.Edges()[0], "Edges must return a copy")
}

func TestStratifier_Decile(t *testing.T) {
	s, err := NewStratifier([]float64{1, 1024})
	require.NoError(t, err)

	tests := []struct {
		price float64
		want  int
	}{
		{price: 1, want: 0},
		{price: 1.5, want: 0},
		{price: 3, want: 1},
		{price: 40, want: 5},
		{price: 600, want: 9},
		{price: 1024, want: 9},
		{price: 0.5, want: 0},
		{price: 5000, want: 9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Decile(tt.price), "price %g", tt.price)
	}
}

func TestStratifier_Monotonic(t *testing.T) {
	prices := []float64{3200, 4100, 5500, 5600, 7300, 9000, 12000, 15500, 21000, 8000, 4400, 3900}
	s, err := NewStratifier(prices)
	require.NoError(t, err)

	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	prev := -1
	for _, p := range sorted {
		d := s.Decile(p)
		assert.GreaterOrEqual(t, d, prev, "decile decreased at price %g", p)
		assert.GreaterOrEqual(t, d, 0)
		assert.Less(t, d, NumDeciles)
		prev = d
	}
}

func TestStratifier_SinglePrice(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		query  float64
		want   int
	}{
		{name: "equal 1000", prices: []float64{1000, 1000}, query: 1000, want: NumDeciles - 1},
		{name: "equal 5000", prices: []float64{5000, 5000}, query: 5000, want: NumDeciles - 1},
		{name: "equal 12345.678", prices: []float64{12345.678}, query: 12345.678, want: NumDeciles - 1},
		{name: "near equal at max", prices: []float64{5000, math.Nextafter(5000, math.Inf(1))}, query: math.Nextafter(5000, math.Inf(1)), want: NumDeciles - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStratifier(tt.prices)
			require.NoError(t, err)

			edges := s.Edges()
			require.Len(t, edges, NumDeciles+1)
			for i := 1; i < len(edges); i++ {
				assert.GreaterOrEqual(t, edges[i], edges[i-1], "edge %d", i)
			}
			assert.Equal(t, tt.want, s.Decile(tt.query))
		})
	}
}

func TestNewStratifier_Errors(t *testing.T) {
	tests := []struct {
		name    string
		prices  []float64
		wantErr string
	}{
		{name: "empty", prices: nil, wantErr: "no prices"},
		{name: "zero minimum", prices: []float64{0, 10}, wantErr: "must be positive"},
		{name: "negative minimum", prices: []float64{-5, 10}, wantErr: "must be positive"},
		{name: "all NaN", prices: []float64{math.NaN()}, wantErr: "not finite"},
		{name: "infinite maximum", prices: []float64{1, math.Inf(1)}, wantErr: "not finite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStratifier(tt.prices)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
