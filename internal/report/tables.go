// Package report renders computed views for offline use: terminal tables,
// an xlsx workbook and PNG charts.
package report

import (
	"fmt"
	"strconv"

	"pesticide-analytics/internal/analytics"
	"pesticide-analytics/internal/models"
)

// Table is a titled grid. Cells hold string, int, float64 or *float64; a nil
// *float64 is a value that could not be computed.
type Table struct {
	Title  string
	Header []string
	Rows   [][]interface{}
}

// Tables flattens a view result into one or more tables.
func Tables(res analytics.Result) ([]Table, error) {
	switch r := res.(type) {
	case analytics.RegionalTrend:
		return []Table{yearValueTable("Mean Kg/ha by year", r.Points)}, nil

	case analytics.Overview:
		return []Table{
			countryValueTable("Mean Kg/ha, all selected years", r.AllYears),
			countryValueTable(fmt.Sprintf("Mean Kg/ha, %d", r.LatestYear), r.Latest),
		}, nil

	case analytics.DecadeSummary:
		buckets := Table{Title: "Mean Kg/ha by decade", Header: []string{"Decade", "Kg/ha"}}
		for _, d := range r.Decades {
			buckets.Rows = append(buckets.Rows, []interface{}{d.Decade, d.AvgKgPerHa})
		}
		tables := []Table{buckets}
		if r.From != "" {
			tables = append(tables, Table{
				Title:  "Change between first and last decade",
				Header: []string{"From", "To", "Change %"},
				Rows:   [][]interface{}{{r.From, r.To, r.PercentChange}},
			})
		}
		return tables, nil

	case analytics.Leadership:
		return leadershipTables(r), nil

	case analytics.CountryComparison:
		t := Table{Title: "Kg/ha by country and year", Header: []string{"Country", "Year", "Kg/ha"}}
		for _, s := range r.Series {
			for _, p := range s.Points {
				t.Rows = append(t.Rows, []interface{}{s.Country, p.Year, p.KgPerHa})
			}
		}
		return []Table{t}, nil

	case analytics.Composition:
		return []Table{
			matrixTable("Mean tonnes by country and type", r.Absolute),
			matrixTable("Share of tonnes by country (%)", r.Percent),
			shareTable(fmt.Sprintf("%s composition (tonnes)", r.FocusCountry), r.Focus),
			shareTable("Regional composition (mean tonnes)", r.Global),
		}, nil

	case analytics.OutlierSummary:
		summary := Table{
			Title:  "Kg/ha interquartile fences",
			Header: []string{"Statistic", "Value"},
			Rows: [][]interface{}{
				{"Q1", r.Q1},
				{"Q3", r.Q3},
				{"IQR", r.IQR},
				{"Lower fence", r.LowerFence},
				{"Upper fence", r.UpperFence},
				{"Outliers", r.Count},
				{"Sample size", r.SampleSize},
				{"Pearson r (Tonnes, Kg/ha)", r.Correlation},
			},
		}
		return []Table{summary, observationTable("Outlier rows", r.Outliers)}, nil

	default:
		return nil, fmt.Errorf("no table layout for %T", res)
	}
}

func yearValueTable(title string, points []analytics.YearValue) Table {
	t := Table{Title: title, Header: []string{"Year", "Kg/ha"}}
	for _, p := range points {
		t.Rows = append(t.Rows, []interface{}{p.Year, p.KgPerHa})
	}
	return t
}

func countryValueTable(title string, values []analytics.CountryValue) Table {
	t := Table{Title: title, Header: []string{"Country", "Kg/ha"}}
	for _, v := range values {
		t.Rows = append(t.Rows, []interface{}{v.Country, v.KgPerHa})
	}
	return t
}

func shareTable(title string, shares []analytics.TypeShare) Table {
	t := Table{Title: title, Header: []string{"Pesticide type", "Tonnes"}}
	for _, s := range shares {
		t.Rows = append(t.Rows, []interface{}{s.PesticideType, s.Tonnes})
	}
	return t
}

func matrixTable(title string, m analytics.Matrix) Table {
	t := Table{Title: title, Header: append([]string{"Country"}, m.Types...)}
	for i, country := range m.Countries {
		row := make([]interface{}, 0, len(m.Types)+1)
		row = append(row, country)
		for _, v := range m.Values[i] {
			row = append(row, v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func observationTable(title string, rows []models.Observation) Table {
	t := Table{Title: title, Header: []string{"Country", "Year", "Pesticide type", "Tonnes", "Kg/ha"}}
	for _, o := range rows {
		t.Rows = append(t.Rows, []interface{}{o.Country, o.Year, o.PesticideType, o.Tonnes, o.KgPerHa})
	}
	return t
}

func leadershipTables(r analytics.Leadership) []Table {
	// Pivot the tagged comparison series into one row per year.
	type pair struct{ focus, region *float64 }
	var years []int
	byYear := map[int]*pair{}
	for _, p := range r.Comparison {
		cell, ok := byYear[p.Year]
		if !ok {
			cell = &pair{}
			byYear[p.Year] = cell
			years = append(years, p.Year)
		}
		v := p.KgPerHa
		if p.Series == analytics.SeriesFocusCountry {
			cell.focus = &v
		} else {
			cell.region = &v
		}
	}

	comparison := Table{
		Title:  fmt.Sprintf("%s vs regional average (Kg/ha)", r.FocusCountry),
		Header: []string{"Year", r.FocusCountry, "Regional average"},
	}
	for _, y := range years {
		comparison.Rows = append(comparison.Rows, []interface{}{y, byYear[y].focus, byYear[y].region})
	}

	yoy := Table{Title: fmt.Sprintf("%s year-over-year change", r.FocusCountry), Header: []string{"Year", "Change %"}}
	for _, c := range r.YearOverYear {
		yoy.Rows = append(yoy.Rows, []interface{}{c.Year, c.ChangePct})
	}

	types := Table{Title: fmt.Sprintf("%s tonnes by pesticide type", r.FocusCountry), Header: []string{"Pesticide type", "Year", "Tonnes"}}
	for _, s := range r.TypeTonnes {
		for _, p := range s.Points {
			types.Rows = append(types.Rows, []interface{}{s.PesticideType, p.Year, p.Tonnes})
		}
	}

	recent := countryValueTable(fmt.Sprintf("Mean Kg/ha, %d-%d", r.RecentFrom, r.RecentTo), r.Recent)

	return []Table{comparison, yoy, types, recent}
}

// FormatCell renders a cell for text output.
func FormatCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case int:
		return strconv.Itoa(c)
	case float64:
		return strconv.FormatFloat(c, 'f', 2, 64)
	case *float64:
		if c == nil {
			return "n/a"
		}
		return strconv.FormatFloat(*c, 'f', 2, 64)
	default:
		return fmt.Sprint(c)
	}
}
