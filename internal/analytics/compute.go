package analytics

import (
	"fmt"

	"pesticide-analytics/internal/models"
)

// Result is implemented by the output type of every view
type Result interface {
	View() models.View
}

func (RegionalTrend) View() models.View     { return models.ViewRegionalTrends }
func (Overview) View() models.View          { return models.ViewOverview }
func (DecadeSummary) View() models.View     { return models.ViewByDecade }
func (Leadership) View() models.View        { return models.ViewLeadership }
func (CountryComparison) View() models.View { return models.ViewCountryComparison }
func (Composition) View() models.View       { return models.ViewBreakdown }
func (OutlierSummary) View() models.View    { return models.ViewOutliers }

// Compute filters dataset with the session's selection and runs the
// aggregation of the session's view. It returns models.ErrNoData when the
// selection matches nothing.
func Compute(dataset []models.Observation, session models.Session, opts Options) (Result, error) {
	rows := Filter(dataset, session.Selection)
	if len(rows) == 0 {
		return nil, models.ErrNoData
	}
	return ComputeFiltered(rows, session, opts)
}

// ComputeFiltered runs the session's view over rows that are already filtered
func ComputeFiltered(rows []models.Observation, session models.Session, opts Options) (Result, error) {
	focus := session.FocusCountry
	if focus == "" {
		focus = models.DefaultFocusCountry
	}
	yearMax := session.Selection.YearMax

	switch session.View {
	case models.ViewRegionalTrends:
		return ComputeRegionalTrend(rows), nil
	case models.ViewOverview:
		return ComputeOverview(rows, yearMax), nil
	case models.ViewByDecade:
		return ComputeDecades(rows), nil
	case models.ViewLeadership:
		return ComputeLeadership(rows, focus, yearMax, opts), nil
	case models.ViewCountryComparison:
		return ComputeCountryComparison(rows), nil
	case models.ViewBreakdown:
		return ComputeComposition(rows, focus, opts), nil
	case models.ViewOutliers:
		return ComputeOutliers(rows, opts), nil
	default:
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownView, int(session.View))
	}
}
