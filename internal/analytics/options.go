package analytics

import "pesticide-analytics/internal/models"

// Options tunes the aggregations that depend on dataset conventions
type Options struct {
	// TotalType is the synthetic pesticide type excluded from per-type views.
	TotalType string
	// RecentYears is the width of the trailing window in the leadership view.
	RecentYears int
	// IQRMultiplier scales the interquartile range when placing outlier fences.
	IQRMultiplier float64
}

// DefaultOptions matches the conventions of the published dataset
func DefaultOptions() Options {
	return Options{
		TotalType:     models.TotalPesticideType,
		RecentYears:   5,
		IQRMultiplier: 1.5,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.TotalType == "" {
		o.TotalType = d.TotalType
	}
	if o.RecentYears <= 0 {
		o.RecentYears = d.RecentYears
	}
	if o.IQRMultiplier <= 0 {
		o.IQRMultiplier = d.IQRMultiplier
	}
	return o
}
