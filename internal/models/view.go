package models

import (
	"errors"
	"fmt"
)

// View identifies one of the dashboard's chart views.
// The declaration order is the navigation order.
type View int

const (
	ViewRegionalTrends View = iota
	ViewOverview
	ViewByDecade
	ViewLeadership
	ViewCountryComparison
	ViewBreakdown
	ViewOutliers

	viewCount
)

// ErrUnknownView is returned when a view identifier cannot be resolved
var ErrUnknownView = errors.New("unknown view")

type viewInfo struct {
	slug      string
	title     string
	shortName string
}

var viewTable = [viewCount]viewInfo{
	ViewRegionalTrends:    {"regional-trends", "Regional Trends", "Regional Trends"},
	ViewOverview:          {"overview", "Overview: Average vs Latest Year", "Overview"},
	ViewByDecade:          {"by-decade", "Average Pesticide Use by Decade", "By Decade"},
	ViewLeadership:        {"leadership", "Focus Country Regional Leadership", "Leadership"},
	ViewCountryComparison: {"country-comparison", "Country Comparison", "Country Comparison"},
	ViewBreakdown:         {"breakdown", "Pesticides Breakdown", "Pesticides"},
	ViewOutliers:          {"outliers", "Tonnes vs Kg/ha with Outliers", "Outliers"},
}

// AllViews returns every view in navigation order
func AllViews() []View {
	views := make([]View, 0, viewCount)
	for v := View(0); v < viewCount; v++ {
		views = append(views, v)
	}
	return views
}

// Valid reports whether v is one of the declared views
func (v View) Valid() bool {
	return v >= 0 && v < viewCount
}

// Slug is the URL-safe identifier of the view
func (v View) Slug() string {
	if !v.Valid() {
		return fmt.Sprintf("view(%d)", int(v))
	}
	return viewTable[v].slug
}

func (v View) String() string {
	return v.Slug()
}

// Title is the heading shown above the view
func (v View) Title() string {
	if !v.Valid() {
		return ""
	}
	return viewTable[v].title
}

// ShortName is the label used on navigation buttons
func (v View) ShortName() string {
	if !v.Valid() {
		return ""
	}
	return viewTable[v].shortName
}

// Next returns the following view, wrapping to the first one
func (v View) Next() View {
	if !v.Valid() {
		return ViewRegionalTrends
	}
	return (v + 1) % viewCount
}

// Prev returns the preceding view, wrapping to the last one
func (v View) Prev() View {
	if !v.Valid() {
		return ViewRegionalTrends
	}
	return (v + viewCount - 1) % viewCount
}

// ParseView resolves a slug to a view
func ParseView(slug string) (View, error) {
	for v := View(0); v < viewCount; v++ {
		if viewTable[v].slug == slug {
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownView, slug)
}

// MarshalText encodes the view as its slug
func (v View) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownView, int(v))
	}
	return []byte(v.Slug()), nil
}

// UnmarshalText decodes a view from its slug
func (v *View) UnmarshalText(text []byte) error {
	parsed, err := ParseView(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
