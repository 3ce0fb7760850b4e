package analytics

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"pesticide-analytics/internal/models"
)

// Matrix is a dense Country x PesticideType table. Values[i][j] belongs to
// Countries[i] and Types[j].
type Matrix struct {
	Countries []string    `json:"countries"`
	Types     []string    `json:"types"`
	Values    [][]float64 `json:"values"`
}

// Row returns a copy of the country's row
func (m Matrix) Row(country string) ([]float64, bool) {
	i := slices.Index(m.Countries, country)
	if i < 0 {
		return nil, false
	}
	return slices.Clone(m.Values[i]), true
}

// TypeShare is the quantity attributed to one pesticide type
type TypeShare struct {
	PesticideType string  `json:"pesticide_type"`
	Tonnes        float64 `json:"tonnes"`
}

// Composition describes how usage splits across pesticide types
type Composition struct {
	Absolute     Matrix      `json:"absolute"`
	Percent      Matrix      `json:"percent"`
	FocusCountry string      `json:"focus_country"`
	Focus        []TypeShare `json:"focus"`
	Global       []TypeShare `json:"global"`
}

// ComputeComposition pivots mean Tonnes per (country, type) into a matrix,
// leaving out the total type. Missing combinations are zero. Rows whose sum
// is zero normalise to zero rather than NaN.
func ComputeComposition(rows []models.Observation, focusCountry string, opts Options) Composition {
	opts = opts.withDefaults()
	abs := pivotTonnes(ExcludeType(rows, opts.TotalType))

	comp := Composition{
		Absolute:     abs,
		Percent:      normaliseRows(abs),
		FocusCountry: focusCountry,
		Focus:        []TypeShare{},
		Global:       make([]TypeShare, 0, len(abs.Types)),
	}

	if row, ok := abs.Row(focusCountry); ok {
		for j, t := range abs.Types {
			comp.Focus = append(comp.Focus, TypeShare{PesticideType: t, Tonnes: row[j]})
		}
	}

	column := make([]float64, len(abs.Countries))
	for j, t := range abs.Types {
		for i := range abs.Countries {
			column[i] = abs.Values[i][j]
		}
		comp.Global = append(comp.Global, TypeShare{PesticideType: t, Tonnes: stat.Mean(column, nil)})
	}

	return comp
}

func pivotTonnes(rows []models.Observation) Matrix {
	type cell struct {
		country, pesticideType string
	}
	means := meanBy(rows,
		func(o models.Observation) cell { return cell{o.Country, o.PesticideType} },
		func(o models.Observation) float64 { return o.Tonnes },
	)

	m := Matrix{
		Countries: Countries(rows),
		Types:     PesticideTypes(rows),
	}
	slices.Sort(m.Types)

	m.Values = make([][]float64, len(m.Countries))
	for i, c := range m.Countries {
		m.Values[i] = make([]float64, len(m.Types))
		for j, t := range m.Types {
			m.Values[i][j] = means[cell{c, t}]
		}
	}
	return m
}

func normaliseRows(m Matrix) Matrix {
	out := Matrix{
		Countries: slices.Clone(m.Countries),
		Types:     slices.Clone(m.Types),
		Values:    make([][]float64, len(m.Values)),
	}
	for i, row := range m.Values {
		pct := make([]float64, len(row))
		if total := floats.Sum(row); total != 0 {
			for j, v := range row {
				pct[j] = v / total * 100
			}
		}
		out.Values[i] = pct
	}
	return out
}
