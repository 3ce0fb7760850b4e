package models

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNoData signals that the current selection matches no observations.
// It is an expected state, not a failure.
var ErrNoData = errors.New("no data available for the selected filters")

// Selection is the user's filter state. Construct it with NewSelection;
// the value is not modified afterwards.
type Selection struct {
	countries []string
	types     []string
	YearMin   int
	YearMax   int
}

// NewSelection copies its inputs so later changes to the caller's slices
// do not leak into the selection
func NewSelection(countries, types []string, yearMin, yearMax int) (Selection, error) {
	if yearMin > yearMax {
		return Selection{}, &ValidationError{
			Field:   "year_range",
			Value:   fmt.Sprintf("%d-%d", yearMin, yearMax),
			Message: "year_min must not exceed year_max",
		}
	}
	return Selection{
		countries: slices.Clone(countries),
		types:     slices.Clone(types),
		YearMin:   yearMin,
		YearMax:   yearMax,
	}, nil
}

// Countries returns a copy of the selected countries
func (s Selection) Countries() []string {
	return slices.Clone(s.countries)
}

// Types returns a copy of the selected pesticide types
func (s Selection) Types() []string {
	return slices.Clone(s.types)
}

// IsEmpty reports whether the selection can never match a row
func (s Selection) IsEmpty() bool {
	return len(s.countries) == 0 || len(s.types) == 0
}

// HasCountry reports whether country is part of the selection
func (s Selection) HasCountry(country string) bool {
	return slices.Contains(s.countries, country)
}

// Session carries everything needed to compute one view
type Session struct {
	View         View
	Selection    Selection
	FocusCountry string
}
