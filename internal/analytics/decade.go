package analytics

import (
	"pesticide-analytics/internal/models"
)

// DecadeOther labels years outside the covered range
const DecadeOther = "Other"

// DecadeOf maps a year onto its fixed decade bucket
func DecadeOf(year int) string {
	switch {
	case year >= 1990 && year <= 1999:
		return "1990s"
	case year >= 2000 && year <= 2009:
		return "2000s"
	case year >= 2010 && year <= 2019:
		return "2010s"
	case year >= 2020 && year <= 2023:
		return "2020s"
	default:
		return DecadeOther
	}
}

// DecadeValue is the mean intensity of one decade bucket
type DecadeValue struct {
	Decade     string  `json:"decade"`
	AvgKgPerHa float64 `json:"avg_kg_per_ha"`
}

// DecadeSummary holds the bucket means and the change between the first and
// last bucket. From and To are empty when fewer than two buckets exist;
// PercentChange is nil in that case and when the first bucket's mean is zero.
type DecadeSummary struct {
	Decades       []DecadeValue `json:"decades"`
	From          string        `json:"from,omitempty"`
	To            string        `json:"to,omitempty"`
	PercentChange *float64      `json:"percent_change"`
}

// ComputeDecades averages Kg_per_ha per decade bucket. Buckets are ordered by
// label, which puts "Other" last.
func ComputeDecades(rows []models.Observation) DecadeSummary {
	means := meanBy(rows,
		func(o models.Observation) string { return DecadeOf(o.Year) },
		func(o models.Observation) float64 { return o.KgPerHa },
	)

	summary := DecadeSummary{Decades: make([]DecadeValue, 0, len(means))}
	for _, decade := range sortedKeys(means) {
		summary.Decades = append(summary.Decades, DecadeValue{Decade: decade, AvgKgPerHa: means[decade]})
	}

	if len(summary.Decades) > 1 {
		first := summary.Decades[0]
		last := summary.Decades[len(summary.Decades)-1]
		summary.From = first.Decade
		summary.To = last.Decade
		summary.PercentChange = percentChange(first.AvgKgPerHa, last.AvgKgPerHa)
	}
	return summary
}
