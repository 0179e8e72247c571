package estimate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := DefaultPolicy()
	require.NoError(t, err)
	return p
}

func TestDefaultPolicy(t *testing.T) {
	p := defaultPolicy(t)

	assert.Len(t, p.Exclusions, 25)
	assert.Equal(t, 3.0, p.AndOverMultiplier)
	assert.Equal(t, Bounds{Lower: 30000, Upper: 80000}, p.AndOverOverrides[7])
	assert.Equal(t, Bounds{Lower: 40000, Upper: 100000}, p.AndOverOverrides[8])
	assert.Equal(t, Bounds{Lower: 50000, Upper: 120000}, p.AndOverOverrides[9])
	assert.Equal(t, Bounds{Lower: 70000, Upper: 150000}, p.AndOverOverrides[10])
}

func TestPolicy_IsExcluded(t *testing.T) {
	p := defaultPolicy(t)

	for _, sz := range []string{"CHANGI AIRPORT", "changi airport", " Port ", "WESTERN WATER CATCHMENT", "north-eastern islands"} {
		assert.True(t, p.IsExcluded(sz), sz)
	}
	for _, sz := range []string{"TAMPINES EAST", "PORTSDOWN", "", "MARINA"} {
		assert.False(t, p.IsExcluded(sz), sz)
	}
}

func TestPolicy_Bounds(t *testing.T) {
	p := defaultPolicy(t)

	tests := []struct {
		name   string
		label  string
		decile int
		want   Bounds
	}{
		{name: "closed bracket", label: "30000_80000", decile: 3, want: Bounds{30000, 80000}},
		{name: "closed bracket ignores decile", label: "1000_1999", decile: 9, want: Bounds{1000, 1999}},
		{name: "and_over decile 9 override", label: "50000_and_over", decile: 9, want: Bounds{50000, 120000}},
		{name: "and_over decile 8 override", label: "20000_and_over", decile: 8, want: Bounds{40000, 100000}},
		{name: "and_over decile 7 override", label: "20000_and_over", decile: 7, want: Bounds{30000, 80000}},
		{name: "and_over decile 10 override", label: "20000_and_over", decile: 10, want: Bounds{70000, 150000}},
		{name: "and_over multiplier rule", label: "20000_and_over", decile: 4, want: Bounds{20000, 60000}},
		{name: "and_over case insensitive", label: "15000_AND_OVER", decile: 0, want: Bounds{15000, 45000}},
		{name: "override wins over bad prefix", label: "lots_and_over", decile: 9, want: Bounds{50000, 120000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Bounds(tt.label, tt.decile)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPolicy_BoundsFormatError(t *testing.T) {
	p := defaultPolicy(t)

	for _, label := range []string{"Total", "below1000", "a_b", "1000_", "1_2_3", "lots_and_over"} {
		t.Run(label, func(t *testing.T) {
			_, err := p.Bounds(label, 2)
			require.Error(t, err)
			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, label, fe.Label)
			assert.Contains(t, err.Error(), "unexpected income bracket format")
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	yml := `
exclusions: [PULAU TEKONG]
and_over_overrides:
  9: {lower: 60000, upper: 200000}
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.True(t, p.IsExcluded("pulau tekong"))
	assert.False(t, p.IsExcluded("CHANGI AIRPORT"))
	assert.Equal(t, 3.0, p.AndOverMultiplier)

	b, err := p.Bounds("50000_and_over", 9)
	require.NoError(t, err)
	assert.Equal(t, Bounds{60000, 200000}, b)

	b, err = p.Bounds("50000_and_over", 7)
	require.NoError(t, err)
	assert.Equal(t, Bounds{50000, 150000}, b)
}

func TestLoadPolicy_Empty(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Len(t, p.Exclusions, 25)
}

func TestLoadPolicy_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "bad yaml", yaml: "exclusions: [unclosed", wantErr: "parse policy"},
		{name: "multiplier below one", yaml: "and_over_multiplier: 0.5", wantErr: "at least 1"},
		{name: "inverted override", yaml: "and_over_overrides:\n  7: {lower: 9, upper: 1}", wantErr: "invalid override"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadPolicy("/nonexistent/policy.yaml")
	require.Error(t, err)
}
