package analytics

import (
	"cmp"
	"slices"

	"pesticide-analytics/internal/models"
)

// CountryValue is a per-country mean intensity
type CountryValue struct {
	Country string  `json:"country"`
	KgPerHa float64 `json:"kg_per_ha"`
}

// Overview compares each country's long-run mean with its latest year
type Overview struct {
	AllYears   []CountryValue `json:"all_years"`
	LatestYear int            `json:"latest_year"`
	Latest     []CountryValue `json:"latest"`
}

// ComputeOverview averages Kg_per_ha per country over all rows, and again
// over the rows of latestYear only. Both lists are sorted ascending by value;
// Latest is empty when no row falls in latestYear.
func ComputeOverview(rows []models.Observation, latestYear int) Overview {
	latestRows := make([]models.Observation, 0)
	for _, o := range rows {
		if o.Year == latestYear {
			latestRows = append(latestRows, o)
		}
	}
	return Overview{
		AllYears:   countryMeans(rows),
		LatestYear: latestYear,
		Latest:     countryMeans(latestRows),
	}
}

// countryMeans averages Kg_per_ha per country, ascending by value with ties
// broken by name
func countryMeans(rows []models.Observation) []CountryValue {
	means := meanBy(rows,
		func(o models.Observation) string { return o.Country },
		func(o models.Observation) float64 { return o.KgPerHa },
	)
	out := make([]CountryValue, 0, len(means))
	for country, v := range means {
		out = append(out, CountryValue{Country: country, KgPerHa: v})
	}
	slices.SortFunc(out, func(a, b CountryValue) int {
		if c := cmp.Compare(a.KgPerHa, b.KgPerHa); c != 0 {
			return c
		}
		return cmp.Compare(a.Country, b.Country)
	})
	return out
}
