package analytics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"pesticide-analytics/internal/models"
)

func obs(country string, year int, pesticideType string, tonnes, kgPerHa float64) models.Observation {
	return models.Observation{
		Country:       country,
		Year:          year,
		PesticideType: pesticideType,
		Tonnes:        tonnes,
		KgPerHa:       kgPerHa,
	}
}

func selection(t *testing.T, countries, types []string, lo, hi int) models.Selection {
	t.Helper()
	sel, err := models.NewSelection(countries, types, lo, hi)
	require.NoError(t, err)
	return sel
}

// regionFixture is a small slice of the regional dataset: two countries,
// three years, two pesticide types plus the total row.
func regionFixture() []models.Observation {
	total := models.TotalPesticideType
	return []models.Observation{
		obs("South Africa", 2019, "Herbicides", 100, 2.0),
		obs("South Africa", 2019, "Fungicides", 50, 1.0),
		obs("South Africa", 2019, total, 150, 3.0),
		obs("South Africa", 2020, "Herbicides", 120, 2.5),
		obs("South Africa", 2020, "Fungicides", 60, 1.5),
		obs("South Africa", 2020, total, 180, 4.0),
		obs("Zambia", 2019, "Herbicides", 10, 0.2),
		obs("Zambia", 2019, "Fungicides", 30, 0.4),
		obs("Zambia", 2019, total, 40, 0.6),
		obs("Zambia", 2021, "Herbicides", 20, 0.3),
		obs("Zambia", 2021, total, 20, 0.3),
	}
}
