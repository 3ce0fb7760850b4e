package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"pesticide-analytics/internal/analytics"
	"pesticide-analytics/internal/models"
	"pesticide-analytics/internal/services"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

// MaxPageLimit caps the page size of /api/observations.
const MaxPageLimit = 1000

// DashboardHandler handles dashboard API endpoints
type DashboardHandler struct {
	dashboard *services.DashboardService
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	dashboard *services.DashboardService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// SelectionEcho reports the filter a response was computed with
type SelectionEcho struct {
	Countries      []string `json:"countries"`
	PesticideTypes []string `json:"pesticide_types"`
	YearMin        int      `json:"year_min"`
	YearMax        int      `json:"year_max"`
	FocusCountry   string   `json:"focus_country"`
}

// ViewResponse wraps a computed view. Status is "ok" with a Result, or
// "no_data" when the selection matched nothing.
type ViewResponse struct {
	Status    string            `json:"status"`
	View      services.ViewInfo `json:"view"`
	Selection SelectionEcho     `json:"selection"`
	Message   string            `json:"message,omitempty"`
	Result    analytics.Result  `json:"result,omitempty"`
}

// GetOptions handles GET /api/options
func (h *DashboardHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, h.dashboard.Options(), http.StatusOK)
}

// ListViews handles GET /api/views
func (h *DashboardHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, services.Views(), http.StatusOK)
}

// GetView handles GET /api/views/{view}
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const endpoint = "/api/views/{view}"

	view, err := models.ParseView(mux.Vars(r)["view"])
	if err != nil {
		h.metrics.RecordAPIError("unknown_view", endpoint)
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	session, err := h.parseSession(r.URL.Query(), view)
	if err != nil {
		h.metrics.RecordAPIError("bad_request", endpoint)
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	response := ViewResponse{
		Status:    "ok",
		View:      services.DescribeView(view),
		Selection: echo(session),
	}

	result, err := h.dashboard.Render(ctx, session)
	switch {
	case errors.Is(err, models.ErrNoData):
		response.Status = "no_data"
		response.Message = err.Error()
	case err != nil:
		h.logger.Error(ctx, "[API_GET_VIEW_ERROR] Failed to compute view", logging.Fields{
			"view": view.Slug(),
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, "failed to compute view", http.StatusInternalServerError)
		return
	default:
		response.Result = result
	}

	h.sendJSON(w, response, http.StatusOK)
}

// GetObservations handles GET /api/observations
func (h *DashboardHandler) GetObservations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	session, err := h.parseSession(query, models.ViewRegionalTrends)
	if err != nil {
		h.metrics.RecordAPIError("bad_request", "/api/observations")
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Default pagination
	page := 1
	limit := services.DefaultPageLimit

	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(query.Get("limit")); err == nil && l > 0 && l <= MaxPageLimit {
		limit = l
	}

	result := h.dashboard.Observations(r.Context(), session.Selection, page, limit)

	h.sendJSON(w, PaginatedResponse{
		Data:       result.Items,
		Total:      result.Total,
		Page:       result.Page,
		Limit:      result.Limit,
		TotalPages: (result.Total + result.Limit - 1) / result.Limit,
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	opts := h.dashboard.Options()

	status := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"countries": len(opts.Countries),
		"year_min":  opts.YearMin,
		"year_max":  opts.YearMax,
	}

	h.logger.Debug(r.Context(), "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parseSession builds a session from query parameters. An absent list
// parameter selects every value; a present but empty one clears it.
func (h *DashboardHandler) parseSession(query url.Values, view models.View) (models.Session, error) {
	session := h.dashboard.DefaultSession(view)
	def := session.Selection

	countries := listParam(query, "countries", def.Countries())
	types := listParam(query, "types", def.Types())

	yearMin, err := intParam(query, "year_min", def.YearMin)
	if err != nil {
		return models.Session{}, err
	}
	yearMax, err := intParam(query, "year_max", def.YearMax)
	if err != nil {
		return models.Session{}, err
	}

	sel, err := models.NewSelection(countries, types, yearMin, yearMax)
	if err != nil {
		return models.Session{}, err
	}
	session.Selection = sel

	if focus := strings.TrimSpace(query.Get("focus")); focus != "" {
		session.FocusCountry = focus
	}
	return session, nil
}

func listParam(query url.Values, key string, fallback []string) []string {
	raw, ok := query[key]
	if !ok {
		return fallback
	}

	out := []string{}
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(query url.Values, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(query.Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q, expected integer", key, raw)
	}
	return v, nil
}

func echo(s models.Session) SelectionEcho {
	return SelectionEcho{
		Countries:      s.Selection.Countries(),
		PesticideTypes: s.Selection.Types(),
		YearMin:        s.Selection.YearMin,
		YearMax:        s.Selection.YearMax,
		FocusCountry:   s.FocusCountry,
	}
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn(context.Background(), "[API_ENCODE_ERROR] Failed to write response", logging.Fields{
			"error": err.Error(),
		})
	}
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all dashboard API routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/options", h.GetOptions).Methods("GET")
	router.HandleFunc("/api/views", h.ListViews).Methods("GET")
	router.HandleFunc("/api/views/{view}", h.GetView).Methods("GET")
	router.HandleFunc("/api/observations", h.GetObservations).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
}
