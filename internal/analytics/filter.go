package analytics

import (
	"slices"

	"pesticide-analytics/internal/models"
)

// Filter returns the rows matching every predicate of the selection, in
// input order. An empty country or type set selects nothing.
func Filter(rows []models.Observation, sel models.Selection) []models.Observation {
	out := []models.Observation{}
	if sel.IsEmpty() {
		return out
	}

	countries := toSet(sel.Countries())
	types := toSet(sel.Types())

	for _, o := range rows {
		if o.Year < sel.YearMin || o.Year > sel.YearMax {
			continue
		}
		if _, ok := countries[o.Country]; !ok {
			continue
		}
		if _, ok := types[o.PesticideType]; !ok {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ExcludeType drops every row of the given pesticide type
func ExcludeType(rows []models.Observation, pesticideType string) []models.Observation {
	out := make([]models.Observation, 0, len(rows))
	for _, o := range rows {
		if o.PesticideType != pesticideType {
			out = append(out, o)
		}
	}
	return out
}

// Countries lists the distinct countries in rows, sorted
func Countries(rows []models.Observation) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, o := range rows {
		if _, ok := seen[o.Country]; ok {
			continue
		}
		seen[o.Country] = struct{}{}
		out = append(out, o.Country)
	}
	slices.Sort(out)
	return out
}

// PesticideTypes lists the distinct pesticide types in first-appearance order
func PesticideTypes(rows []models.Observation) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, o := range rows {
		if _, ok := seen[o.PesticideType]; ok {
			continue
		}
		seen[o.PesticideType] = struct{}{}
		out = append(out, o.PesticideType)
	}
	return out
}

// YearBounds returns the smallest and largest year in rows.
// ok is false when rows is empty.
func YearBounds(rows []models.Observation) (lo, hi int, ok bool) {
	if len(rows) == 0 {
		return 0, 0, false
	}
	lo, hi = rows[0].Year, rows[0].Year
	for _, o := range rows[1:] {
		lo = min(lo, o.Year)
		hi = max(hi, o.Year)
	}
	return lo, hi, true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
