package analytics

import (
	"cmp"
	"slices"

	"pesticide-analytics/internal/models"
)

// SeriesTag names the origin of a comparison point
type SeriesTag string

const (
	SeriesFocusCountry    SeriesTag = "FocusCountry"
	SeriesRegionalAverage SeriesTag = "RegionalAverage"
)

// ComparisonPoint is one point of the focus-vs-region chart
type ComparisonPoint struct {
	Series  SeriesTag `json:"series"`
	Year    int       `json:"year"`
	KgPerHa float64   `json:"kg_per_ha"`
}

// YearChange is the percentage change from the previous year.
// ChangePct is nil when the previous year's value is zero.
type YearChange struct {
	Year      int      `json:"year"`
	ChangePct *float64 `json:"change_pct"`
}

// TonnesPoint is the quantity used in one year
type TonnesPoint struct {
	Year   int     `json:"year"`
	Tonnes float64 `json:"tonnes"`
}

// TypeSeries is the yearly tonnage of one pesticide type
type TypeSeries struct {
	PesticideType string        `json:"pesticide_type"`
	Points        []TonnesPoint `json:"points"`
}

// Leadership gathers four independent projections centred on one country
type Leadership struct {
	FocusCountry string            `json:"focus_country"`
	Comparison   []ComparisonPoint `json:"comparison"`
	YearOverYear []YearChange      `json:"year_over_year"`
	TypeTonnes   []TypeSeries      `json:"type_tonnes"`
	RecentFrom   int               `json:"recent_from"`
	RecentTo     int               `json:"recent_to"`
	Recent       []CountryValue    `json:"recent"`
}

// ComputeLeadership compares focusCountry with the region. yearMax is the
// upper bound of the selected range and anchors the trailing window.
func ComputeLeadership(rows []models.Observation, focusCountry string, yearMax int, opts Options) Leadership {
	opts = opts.withDefaults()

	focusRows := make([]models.Observation, 0)
	for _, o := range rows {
		if o.Country == focusCountry {
			focusRows = append(focusRows, o)
		}
	}
	focusYearly := yearlyMeans(focusRows)

	recentFrom := yearMax - (opts.RecentYears - 1)
	recentRows := make([]models.Observation, 0)
	for _, o := range rows {
		if o.Year >= recentFrom {
			recentRows = append(recentRows, o)
		}
	}

	return Leadership{
		FocusCountry: focusCountry,
		Comparison:   comparisonSeries(focusYearly, yearlyMeans(rows)),
		YearOverYear: yearOverYear(focusYearly),
		TypeTonnes:   typeTonnes(ExcludeType(focusRows, opts.TotalType)),
		RecentFrom:   recentFrom,
		RecentTo:     yearMax,
		Recent:       countryMeans(recentRows),
	}
}

func comparisonSeries(focus, regional []YearValue) []ComparisonPoint {
	out := make([]ComparisonPoint, 0, len(focus)+len(regional))
	for _, p := range focus {
		out = append(out, ComparisonPoint{Series: SeriesFocusCountry, Year: p.Year, KgPerHa: p.KgPerHa})
	}
	for _, p := range regional {
		out = append(out, ComparisonPoint{Series: SeriesRegionalAverage, Year: p.Year, KgPerHa: p.KgPerHa})
	}
	return out
}

// yearOverYear expects points sorted by year; the first point has no
// predecessor and is dropped
func yearOverYear(points []YearValue) []YearChange {
	if len(points) < 2 {
		return []YearChange{}
	}
	out := make([]YearChange, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		out = append(out, YearChange{
			Year:      points[i].Year,
			ChangePct: percentChange(points[i-1].KgPerHa, points[i].KgPerHa),
		})
	}
	return out
}

func typeTonnes(rows []models.Observation) []TypeSeries {
	type key struct {
		pesticideType string
		year          int
	}
	means := meanBy(rows,
		func(o models.Observation) key { return key{o.PesticideType, o.Year} },
		func(o models.Observation) float64 { return o.Tonnes },
	)

	byType := map[string][]TonnesPoint{}
	for k, v := range means {
		byType[k.pesticideType] = append(byType[k.pesticideType], TonnesPoint{Year: k.year, Tonnes: v})
	}

	out := make([]TypeSeries, 0, len(byType))
	for _, t := range sortedKeys(byType) {
		points := byType[t]
		slices.SortFunc(points, func(a, b TonnesPoint) int { return cmp.Compare(a.Year, b.Year) })
		out = append(out, TypeSeries{PesticideType: t, Points: points})
	}
	return out
}
