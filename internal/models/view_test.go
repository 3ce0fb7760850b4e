package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewNavigationWraps(t *testing.T) {
	views := AllViews()
	require.Len(t, views, 7)

	assert.Equal(t, ViewOutliers, ViewRegionalTrends.Prev())
	assert.Equal(t, ViewRegionalTrends, ViewOutliers.Next())

	for i, v := range views {
		assert.Equal(t, views[(i+1)%len(views)], v.Next(), "next of %s", v)
		assert.Equal(t, views[(i+len(views)-1)%len(views)], v.Prev(), "prev of %s", v)
	}
}

func TestParseViewRoundTrip(t *testing.T) {
	for _, v := range AllViews() {
		parsed, err := ParseView(v.Slug())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
		assert.NotEmpty(t, v.Title())
		assert.NotEmpty(t, v.ShortName())
	}

	_, err := ParseView("pie-charts")
	assert.True(t, errors.Is(err, ErrUnknownView))
}

func TestViewTextEncoding(t *testing.T) {
	text, err := ViewBreakdown.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "breakdown", string(text))

	var v View
	require.NoError(t, v.UnmarshalText([]byte("by-decade")))
	assert.Equal(t, ViewByDecade, v)

	_, err = View(42).MarshalText()
	assert.Error(t, err)
	assert.False(t, View(-1).Valid())
}

func TestNewSelectionCopiesInput(t *testing.T) {
	countries := []string{"Zambia", "Malawi"}
	sel, err := NewSelection(countries, []string{"Herbicides"}, 1990, 2000)
	require.NoError(t, err)

	countries[0] = "Angola"
	assert.Equal(t, []string{"Zambia", "Malawi"}, sel.Countries())
	assert.True(t, sel.HasCountry("Zambia"))
	assert.False(t, sel.IsEmpty())

	_, err = NewSelection(countries, nil, 2001, 2000)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	cleared, err := NewSelection(countries, nil, 1990, 2023)
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())
}
