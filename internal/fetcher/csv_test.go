package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) ([][]string, error) {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	for err := range errCh {
		if err != nil {
			return rows, err
		}
	}
	return rows, nil
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestStreamCSV_Basic(t *testing.T) {
	input := "latitude,longitude,value\n1.30,103.8,5000\n1.31,103.9,6000\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"latitude", "longitude", "value"}, rows[0])
	assert.Equal(t, []string{"1.31", "103.9", "6000"}, rows[2])
}

func TestStreamCSV_WithHeader(t *testing.T) {
	input := "planning_Area , Total\n bedok ,20\n"
	headerCh := make(chan []string, 1)

	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"bedok", "20"}, rows[0])
	assert.Equal(t, []string{"planning_Area", "Total"}, <-headerCh)
}

func TestStreamCSV_VariableFields(t *testing.T) {
	input := "a,b,c\n1,2\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows, err := collectRows(t, rowCh, errCh)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1], 2)
}

func TestStreamCSV_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	for range 10000 {
		sb.WriteString("a,b,c\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rowCh, errCh := StreamCSV(ctx, strings.NewReader(sb.String()), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestStreamCSV_MalformedQuote(t *testing.T) {
	input := "a,b\n\"unterminated,1\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	_, err := collectRows(t, rowCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "csv: read row")
}

func TestReadCSV(t *testing.T) {
	path := writeFile(t, "prices.csv", []byte("\xEF\xBB\xBFfull_address,mean_price_per_sqm\n1 ang mo kio ave 1, 5200.5\n"))

	header, rows, err := ReadCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"full_address", "mean_price_per_sqm"}, header)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1 ang mo kio ave 1", "5200.5"}, rows[0])
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.csv") },
			wantErr: "fetcher: read",
		},
		{
			name:    "empty file",
			path:    func(t *testing.T) string { return writeFile(t, "empty.csv", nil) },
			wantErr: "has no header row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadCSV(context.Background(), tt.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
