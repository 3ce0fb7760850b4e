package datasource

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pesticide-analytics/internal/models"
)

func TestCSVSourceLoadsFixture(t *testing.T) {
	src := &CSVSource{Path: "testdata/pesticides.csv"}

	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, models.Observation{
		Country: "South Africa", Year: 2019, PesticideType: "Herbicides", Tonnes: 12000.5, KgPerHa: 1.9,
	}, rows[0])
	assert.Equal(t, "Pesticides (total)", rows[5].PesticideType)
	assert.Equal(t, 0.6, rows[5].KgPerHa)
}

func TestCSVSourceMissingFile(t *testing.T) {
	_, err := (&CSVSource{Path: "testdata/absent.csv"}).Load(context.Background())
	assert.Error(t, err)
}

func TestDecodeCSVStrictStopsAtFirstInvalidRow(t *testing.T) {
	_, err := (&CSVSource{Path: "testdata/bad_row.csv"}).Load(context.Background())
	require.Error(t, err)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Tonnes", verr.Field)
	assert.Contains(t, err.Error(), "row 2")
}

func TestDecodeCSVLenientReportsRejectedRows(t *testing.T) {
	var rejected []int
	src := &CSVSource{
		Path:     "testdata/bad_row.csv",
		OnReject: func(row int, _ error) { rejected = append(rejected, row) },
	}

	rows, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, []int{2, 3}, rejected)
}

func TestDecodeCSVHeaders(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		rows    int
	}{
		{
			name:  "reordered columns with extras and BOM",
			input: "\ufeffYear,Area,Country,Tonnes,Kg_per_ha,Pesticide_Type\n2020,x,Zambia,1,0.1,Herbicides\n",
			rows:  1,
		},
		{
			name:    "missing column",
			input:   "Country,Year,Tonnes,Kg_per_ha\nZambia,2020,1,0.1\n",
			wantErr: "Pesticide_Type",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrEmptyDataset.Error(),
		},
		{
			name:  "header only",
			input: "Country,Year,Pesticide_Type,Tonnes,Kg_per_ha\n",
			rows:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := DecodeCSV(context.Background(), strings.NewReader(tt.input), nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, rows, tt.rows)
		})
	}
}
