package analytics

import (
	"slices"

	"pesticide-analytics/internal/models"
)

// OutlierSummary reports IQR fencing over Kg_per_ha and the Tonnes vs
// Kg_per_ha correlation
type OutlierSummary struct {
	Q1         float64              `json:"q1"`
	Q3         float64              `json:"q3"`
	IQR        float64              `json:"iqr"`
	LowerFence float64              `json:"lower_fence"`
	UpperFence float64              `json:"upper_fence"`
	Outliers   []models.Observation `json:"outliers"`
	Count      int                  `json:"count"`
	SampleSize int                  `json:"sample_size"`
	// Correlation is nil with fewer than two rows or a constant column.
	Correlation *float64 `json:"correlation"`
}

// IsOutlier reports whether v lies strictly outside the fences
func (s OutlierSummary) IsOutlier(v float64) bool {
	return v < s.LowerFence || v > s.UpperFence
}

// ComputeOutliers fences Kg_per_ha at Q1-k*IQR and Q3+k*IQR, k being
// opts.IQRMultiplier, after dropping the total type. The correlation uses
// every remaining row, outliers included.
func ComputeOutliers(rows []models.Observation, opts Options) OutlierSummary {
	opts = opts.withDefaults()
	data := ExcludeType(rows, opts.TotalType)

	summary := OutlierSummary{
		Outliers:   []models.Observation{},
		SampleSize: len(data),
	}
	if len(data) == 0 {
		return summary
	}

	tonnes := make([]float64, len(data))
	intensity := make([]float64, len(data))
	for i, o := range data {
		tonnes[i] = o.Tonnes
		intensity[i] = o.KgPerHa
	}

	sorted := slices.Clone(intensity)
	slices.Sort(sorted)
	summary.Q1 = quantile(sorted, 0.25)
	summary.Q3 = quantile(sorted, 0.75)
	summary.IQR = summary.Q3 - summary.Q1
	summary.LowerFence = summary.Q1 - opts.IQRMultiplier*summary.IQR
	summary.UpperFence = summary.Q3 + opts.IQRMultiplier*summary.IQR

	for _, o := range data {
		if summary.IsOutlier(o.KgPerHa) {
			summary.Outliers = append(summary.Outliers, o)
		}
	}
	summary.Count = len(summary.Outliers)
	summary.Correlation = pearson(tonnes, intensity)

	return summary
}
