package handlers

import (
	"encoding/json"
	"net/http"

	"pesticide-analytics/internal/models"
)

type object = map[string]interface{}

func queryParam(name, description string, schema object) object {
	return object{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

func jsonResponse(description string, schema object) object {
	return object{
		"description": description,
		"content": object{
			"application/json": object{"schema": schema},
		},
	}
}

var (
	selectionParams = []object{
		queryParam("countries", "Comma-separated countries. Absent selects all; empty clears the selection", object{"type": "string"}),
		queryParam("types", "Comma-separated pesticide types. Absent selects all; empty clears the selection", object{"type": "string"}),
		queryParam("year_min", "First year, inclusive (default: dataset minimum)", object{"type": "integer"}),
		queryParam("year_max", "Last year, inclusive (default: dataset maximum)", object{"type": "integer"}),
	}

	observationSchema = object{
		"type": "object",
		"properties": object{
			"country":        object{"type": "string"},
			"year":           object{"type": "integer"},
			"pesticide_type": object{"type": "string"},
			"tonnes":         object{"type": "number"},
			"kg_per_ha":      object{"type": "number"},
		},
	}

	viewInfoSchema = object{
		"type": "object",
		"properties": object{
			"slug":       object{"type": "string"},
			"title":      object{"type": "string"},
			"short_name": object{"type": "string"},
			"prev":       object{"type": "string"},
			"next":       object{"type": "string"},
		},
	}

	errorSchema = object{
		"type": "object",
		"properties": object{
			"error":   object{"type": "string"},
			"message": object{"type": "string"},
			"code":    object{"type": "integer"},
		},
	}
)

func viewSlugs() []string {
	views := models.AllViews()
	slugs := make([]string, len(views))
	for i, v := range views {
		slugs[i] = v.Slug()
	}
	return slugs
}

// openAPIDocument describes the dashboard API as OpenAPI 3.0
func openAPIDocument() object {
	viewParams := append([]object{
		{
			"name":     "view",
			"in":       "path",
			"required": true,
			"schema":   object{"type": "string", "enum": viewSlugs()},
		},
		queryParam("focus", "Focus country for the leadership and breakdown views", object{"type": "string", "default": models.DefaultFocusCountry}),
	}, selectionParams...)

	observationParams := append([]object{
		queryParam("page", "Page number (default: 1)", object{"type": "integer", "default": 1}),
		queryParam("limit", "Records per page (default: 100, max: 1000)", object{"type": "integer", "default": 100}),
	}, selectionParams...)

	return object{
		"openapi": "3.0.0",
		"info": object{
			"title":       "Pesticide Use Analytics API",
			"description": "Chart-ready aggregations of pesticide use across Southern Africa, 1990-2023",
			"version":     "1.0.0",
		},
		"servers": []object{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": object{
			"/api/options": object{
				"get": object{
					"summary":     "Filter options",
					"description": "Available countries, pesticide types, year bounds and views",
					"responses": object{
						"200": jsonResponse("Filter options", object{"type": "object"}),
					},
				},
			},
			"/api/views": object{
				"get": object{
					"summary": "List views in navigation order",
					"responses": object{
						"200": jsonResponse("Views", object{"type": "array", "items": viewInfoSchema}),
					},
				},
			},
			"/api/views/{view}": object{
				"get": object{
					"summary":     "Compute a view",
					"description": "Filters the dataset and returns the view's aggregation. An empty selection returns status no_data.",
					"parameters":  viewParams,
					"responses": object{
						"200": jsonResponse("View result or no_data", object{
							"type": "object",
							"properties": object{
								"status":    object{"type": "string", "enum": []string{"ok", "no_data"}},
								"view":      viewInfoSchema,
								"selection": object{"type": "object"},
								"message":   object{"type": "string"},
								"result":    object{"type": "object", "nullable": true},
							},
						}),
						"400": jsonResponse("Unknown view or invalid parameters", errorSchema),
					},
				},
			},
			"/api/observations": object{
				"get": object{
					"summary":     "List filtered observations",
					"description": "Rows matching the selection with pagination",
					"parameters":  observationParams,
					"responses": object{
						"200": jsonResponse("Successful response", object{
							"type": "object",
							"properties": object{
								"data":        object{"type": "array", "items": observationSchema},
								"total":       object{"type": "integer"},
								"page":        object{"type": "integer"},
								"limit":       object{"type": "integer"},
								"total_pages": object{"type": "integer"},
							},
						}),
						"400": jsonResponse("Invalid parameters", errorSchema),
					},
				},
			},
			"/health": object{
				"get": object{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": object{
						"200": jsonResponse("API is healthy", object{
							"type":       "object",
							"properties": object{"status": object{"type": "string"}},
						}),
					},
				},
			},
			"/metrics": object{
				"get": object{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": object{
						"200": object{
							"description": "Prometheus metrics in text format",
							"content": object{
								"text/plain": object{"schema": object{"type": "string"}},
							},
						},
					},
				},
			},
		},
	}
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openAPIDocument())
}
