package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pesticide-analytics/internal/models"
)

func TestFilter(t *testing.T) {
	rows := regionFixture()
	all := []string{"Herbicides", "Fungicides", models.TotalPesticideType}

	tests := []struct {
		name      string
		countries []string
		types     []string
		lo, hi    int
		wantLen   int
	}{
		{"everything", []string{"South Africa", "Zambia"}, all, 1990, 2023, len(rows)},
		{"single country", []string{"Zambia"}, all, 1990, 2023, 5},
		{"single type", []string{"South Africa", "Zambia"}, []string{"Herbicides"}, 1990, 2023, 4},
		{"inclusive bounds", []string{"South Africa", "Zambia"}, all, 2020, 2021, 5},
		{"single year", []string{"South Africa", "Zambia"}, all, 2019, 2019, 6},
		{"unknown country", []string{"Namibia"}, all, 1990, 2023, 0},
		{"no countries", nil, all, 1990, 2023, 0},
		{"no types", []string{"Zambia"}, []string{}, 1990, 2023, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := selection(t, tt.countries, tt.types, tt.lo, tt.hi)
			got := Filter(rows, sel)

			assert.Len(t, got, tt.wantLen)
			assert.NotNil(t, got)
			for _, o := range got {
				assert.Contains(t, tt.countries, o.Country)
				assert.Contains(t, tt.types, o.PesticideType)
				assert.GreaterOrEqual(t, o.Year, tt.lo)
				assert.LessOrEqual(t, o.Year, tt.hi)
			}
		})
	}
}

func TestFilterDoesNotModifyInput(t *testing.T) {
	rows := regionFixture()
	before := append([]models.Observation(nil), rows...)

	got := Filter(rows, selection(t, []string{"Zambia"}, []string{"Herbicides"}, 1990, 2023))
	got[0].KgPerHa = 99

	assert.Equal(t, before, rows)
}

func TestDatasetOptions(t *testing.T) {
	rows := regionFixture()

	assert.Equal(t, []string{"South Africa", "Zambia"}, Countries(rows))
	assert.Equal(t, []string{"Herbicides", "Fungicides", models.TotalPesticideType}, PesticideTypes(rows))

	lo, hi, ok := YearBounds(rows)
	assert.True(t, ok)
	assert.Equal(t, 2019, lo)
	assert.Equal(t, 2021, hi)

	_, _, ok = YearBounds(nil)
	assert.False(t, ok)
}
