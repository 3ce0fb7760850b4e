package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// TotalPesticideType is the synthetic category that aggregates every other
// pesticide type for a (Country, Year) pair.
const TotalPesticideType = "Pesticides (total)"

// DefaultFocusCountry is the country singled out by the leadership view.
const DefaultFocusCountry = "South Africa"

// Observation is one row of the pesticide-use dataset.
// Rows are loaded once and never mutated.
type Observation struct {
	Country       string  `json:"country" db:"country"`
	Year          int     `json:"year" db:"year"`
	PesticideType string  `json:"pesticide_type" db:"pesticide_type"`
	Tonnes        float64 `json:"tonnes" db:"tonnes"`
	KgPerHa       float64 `json:"kg_per_ha" db:"kg_per_ha"`
}

// Validate checks the row-level invariants of an observation.
func (o Observation) Validate() error {
	if strings.TrimSpace(o.Country) == "" {
		return &ValidationError{Field: "Country", Value: o.Country, Message: "country must not be empty"}
	}
	if strings.TrimSpace(o.PesticideType) == "" {
		return &ValidationError{Field: "Pesticide_Type", Value: o.PesticideType, Message: "pesticide type must not be empty"}
	}
	if math.IsNaN(o.Tonnes) || math.IsInf(o.Tonnes, 0) || o.Tonnes < 0 {
		return &ValidationError{
			Field:   "Tonnes",
			Value:   strconv.FormatFloat(o.Tonnes, 'f', -1, 64),
			Message: "tonnes must be a finite non-negative number",
		}
	}
	if math.IsNaN(o.KgPerHa) || math.IsInf(o.KgPerHa, 0) || o.KgPerHa < 0 {
		return &ValidationError{
			Field:   "Kg_per_ha",
			Value:   strconv.FormatFloat(o.KgPerHa, 'f', -1, 64),
			Message: "kg_per_ha must be a finite non-negative number",
		}
	}
	return nil
}

// IsTotal reports whether the row belongs to the synthetic total category.
func (o Observation) IsTotal(totalType string) bool {
	return o.PesticideType == totalType
}

// Columns is the canonical header of the dataset, in file order.
var Columns = []string{"Country", "Year", "Pesticide_Type", "Tonnes", "Kg_per_ha"}

// RawObservationRecord represents a single untyped row from a text source
// Used by the CSV and S3 loaders before conversion
type RawObservationRecord struct {
	Country       string
	Year          string
	PesticideType string
	Tonnes        string
	KgPerHa       string
}

// ToObservation parses and validates the raw text fields
func (r *RawObservationRecord) ToObservation() (*Observation, error) {
	year, err := strconv.Atoi(strings.TrimSpace(r.Year))
	if err != nil {
		return nil, &ValidationError{
			Field:   "Year",
			Value:   r.Year,
			Message: "invalid year, expected integer",
		}
	}

	tonnes, err := parseQuantity(r.Tonnes)
	if err != nil {
		return nil, &ValidationError{
			Field:   "Tonnes",
			Value:   r.Tonnes,
			Message: fmt.Sprintf("invalid tonnes: %v", err),
		}
	}

	kgPerHa, err := parseQuantity(r.KgPerHa)
	if err != nil {
		return nil, &ValidationError{
			Field:   "Kg_per_ha",
			Value:   r.KgPerHa,
			Message: fmt.Sprintf("invalid kg_per_ha: %v", err),
		}
	}

	obs := &Observation{
		Country:       strings.TrimSpace(r.Country),
		Year:          year,
		PesticideType: strings.TrimSpace(r.PesticideType),
		Tonnes:        tonnes,
		KgPerHa:       kgPerHa,
	}

	if err := obs.Validate(); err != nil {
		return nil, err
	}

	return obs, nil
}

func parseQuantity(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
