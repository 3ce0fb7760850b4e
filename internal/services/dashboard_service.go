package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pesticide-analytics/internal/analytics"
	"pesticide-analytics/internal/datasource"
	"pesticide-analytics/internal/models"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

// ViewInfo describes one dashboard section and its neighbours.
type ViewInfo struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	ShortName string `json:"short_name"`
	Prev      string `json:"prev"`
	Next      string `json:"next"`
}

// FilterOptions lists the values a client may select and the defaults used
// when a filter is not supplied.
type FilterOptions struct {
	Countries      []string   `json:"countries"`
	PesticideTypes []string   `json:"pesticide_types"`
	YearMin        int        `json:"year_min"`
	YearMax        int        `json:"year_max"`
	FocusCountry   string     `json:"focus_country"`
	Views          []ViewInfo `json:"views"`
}

// DefaultPageLimit is the page size used when none is requested.
const DefaultPageLimit = 100

// ObservationPage is one page of filtered rows.
type ObservationPage struct {
	Items []models.Observation `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// DashboardService answers view requests against an immutable dataset.
// It holds no per-request state and is safe for concurrent use.
type DashboardService struct {
	dataset []models.Observation
	opts    analytics.Options
	focus   string
	options FilterOptions
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDashboardService takes ownership of dataset; callers must not modify it afterwards.
func NewDashboardService(dataset []models.Observation, opts analytics.Options, focusCountry string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*DashboardService, error) {
	lo, hi, ok := analytics.YearBounds(dataset)
	if !ok {
		return nil, datasource.ErrEmptyDataset
	}
	if focusCountry == "" {
		focusCountry = models.DefaultFocusCountry
	}

	return &DashboardService{
		dataset: dataset,
		opts:    opts,
		focus:   focusCountry,
		options: FilterOptions{
			Countries:      analytics.Countries(dataset),
			PesticideTypes: analytics.PesticideTypes(dataset),
			YearMin:        lo,
			YearMax:        hi,
			FocusCountry:   focusCountry,
			Views:          Views(),
		},
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// Views describes every view in navigation order.
func Views() []ViewInfo {
	all := models.AllViews()
	out := make([]ViewInfo, len(all))
	for i, v := range all {
		out[i] = DescribeView(v)
	}
	return out
}

// DescribeView returns the navigation metadata of v.
func DescribeView(v models.View) ViewInfo {
	return ViewInfo{
		Slug:      v.Slug(),
		Title:     v.Title(),
		ShortName: v.ShortName(),
		Prev:      v.Prev().Slug(),
		Next:      v.Next().Slug(),
	}
}

// Options returns a copy of the filter options.
func (s *DashboardService) Options() FilterOptions {
	o := s.options
	o.Countries = append([]string(nil), o.Countries...)
	o.PesticideTypes = append([]string(nil), o.PesticideTypes...)
	o.Views = append([]ViewInfo(nil), o.Views...)
	return o
}

// DefaultSelection selects every country, every type and the full year range.
func (s *DashboardService) DefaultSelection() models.Selection {
	sel, _ := models.NewSelection(s.options.Countries, s.options.PesticideTypes, s.options.YearMin, s.options.YearMax)
	return sel
}

// DefaultSession opens view with the default selection and focus country.
func (s *DashboardService) DefaultSession(view models.View) models.Session {
	return models.Session{View: view, Selection: s.DefaultSelection(), FocusCountry: s.focus}
}

// Render computes the session's view. An empty selection yields
// models.ErrNoData without running any aggregation.
func (s *DashboardService) Render(ctx context.Context, session models.Session) (analytics.Result, error) {
	if !session.View.Valid() {
		return nil, fmt.Errorf("%w: %d", models.ErrUnknownView, int(session.View))
	}
	if session.FocusCountry == "" {
		session.FocusCountry = s.focus
	}

	start := time.Now()
	rows := analytics.Filter(s.dataset, session.Selection)

	if len(rows) == 0 {
		s.metrics.RecordView(session.View.Slug(), 0, time.Since(start))
		s.logger.Debug(ctx, "[VIEW_NO_DATA] Selection matched no observations", logging.Fields{
			"view":      session.View.Slug(),
			"countries": len(session.Selection.Countries()),
			"types":     len(session.Selection.Types()),
			"year_min":  session.Selection.YearMin,
			"year_max":  session.Selection.YearMax,
		})
		return nil, models.ErrNoData
	}

	result, err := analytics.ComputeFiltered(rows, session, s.opts)
	if err != nil {
		return nil, err
	}

	duration := time.Since(start)
	s.metrics.RecordView(session.View.Slug(), len(rows), duration)
	s.logger.Info(ctx, "[VIEW_COMPUTED] View computed", logging.Fields{
		"view":          session.View.Slug(),
		"filtered_rows": len(rows),
		"focus_country": session.FocusCountry,
		"duration_ms":   duration.Milliseconds(),
	})

	return result, nil
}

// RenderAll computes every view for one selection. Views share the filter result, so either all succeed or all report no data.
func (s *DashboardService) RenderAll(ctx context.Context, sel models.Selection, focusCountry string) ([]analytics.Result, error) {
	results := make([]analytics.Result, 0, len(models.AllViews()))
	for _, v := range models.AllViews() {
		res, err := s.Render(ctx, models.Session{View: v, Selection: sel, FocusCountry: focusCountry})
		if err != nil {
			if errors.Is(err, models.ErrNoData) {
				return nil, err
			}
			return nil, fmt.Errorf("render %s: %w", v.Slug(), err)
		}
		results = append(results, res)
	}
	return results, nil
}

// Observations returns one page of the rows matching sel. Pages are 1-based.
func (s *DashboardService) Observations(ctx context.Context, sel models.Selection, page, limit int) ObservationPage {
	page = max(page, 1)
	if limit < 1 {
		limit = DefaultPageLimit
	}
	rows := analytics.Filter(s.dataset, sel)

	out := ObservationPage{Items: []models.Observation{}, Total: len(rows), Page: page, Limit: limit}
	offset := (page - 1) * limit
	if offset < len(rows) {
		out.Items = rows[offset:min(offset+limit, len(rows))]
	}

	s.logger.Debug(ctx, "[OBSERVATIONS_PAGE] Observations listed", logging.Fields{
		"total":    out.Total,
		"page":     page,
		"limit":    limit,
		"returned": len(out.Items),
	})
	return out
}
