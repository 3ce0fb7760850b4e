package analytics

import (
	"pesticide-analytics/internal/models"
)

// YearValue is the mean application intensity for one year
type YearValue struct {
	Year    int     `json:"year"`
	KgPerHa float64 `json:"kg_per_ha"`
}

// RegionalTrend is the per-year mean Kg_per_ha across all rows
type RegionalTrend struct {
	Points []YearValue `json:"points"`
}

// CountrySeries is one country's per-year intensity
type CountrySeries struct {
	Country string      `json:"country"`
	Points  []YearValue `json:"points"`
}

// CountryComparison holds one series per country, countries sorted by name
type CountryComparison struct {
	Series []CountrySeries `json:"series"`
}

// ComputeRegionalTrend averages Kg_per_ha per year over every row, ignoring
// country and pesticide type. Years with more rows weigh more.
func ComputeRegionalTrend(rows []models.Observation) RegionalTrend {
	return RegionalTrend{Points: yearlyMeans(rows)}
}

// ComputeCountryComparison averages Kg_per_ha per (country, year)
func ComputeCountryComparison(rows []models.Observation) CountryComparison {
	byCountry := map[string][]models.Observation{}
	for _, o := range rows {
		byCountry[o.Country] = append(byCountry[o.Country], o)
	}

	series := make([]CountrySeries, 0, len(byCountry))
	for _, country := range sortedKeys(byCountry) {
		series = append(series, CountrySeries{
			Country: country,
			Points:  yearlyMeans(byCountry[country]),
		})
	}
	return CountryComparison{Series: series}
}

func yearlyMeans(rows []models.Observation) []YearValue {
	means := meanBy(rows,
		func(o models.Observation) int { return o.Year },
		func(o models.Observation) float64 { return o.KgPerHa },
	)
	points := make([]YearValue, 0, len(means))
	for _, year := range sortedKeys(means) {
		points = append(points, YearValue{Year: year, KgPerHa: means[year]})
	}
	return points
}
