package report

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"pesticide-analytics/internal/analytics"
)

var barColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// WriteCharts saves one PNG per result into dir and returns the paths written.
func WriteCharts(dir string, results []analytics.Result) ([]string, error) {
	paths := make([]string, 0, len(results))
	for _, res := range results {
		p, err := Chart(res)
		if err != nil {
			return paths, fmt.Errorf("chart %s: %w", res.View().Slug(), err)
		}

		path := filepath.Join(dir, res.View().Slug()+".png")
		if err := p.Save(12*vg.Inch, 6*vg.Inch, path); err != nil {
			return paths, fmt.Errorf("saving %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Chart draws the primary chart of a view.
func Chart(res analytics.Result) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = res.View().Title()
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Add(plotter.NewGrid())

	var err error
	switch r := res.(type) {
	case analytics.RegionalTrend:
		p.X.Label.Text = "Year"
		p.Y.Label.Text = "Kg/ha"
		err = addLine(p, "", 0, yearXYs(r.Points))

	case analytics.Overview:
		p.Y.Label.Text = "Mean Kg/ha"
		labels := make([]string, len(r.AllYears))
		values := make(plotter.Values, len(r.AllYears))
		for i, v := range r.AllYears {
			labels[i], values[i] = v.Country, v.KgPerHa
		}
		err = addBars(p, labels, values)

	case analytics.DecadeSummary:
		p.Y.Label.Text = "Mean Kg/ha"
		labels := make([]string, len(r.Decades))
		values := make(plotter.Values, len(r.Decades))
		for i, d := range r.Decades {
			labels[i], values[i] = d.Decade, d.AvgKgPerHa
		}
		err = addBars(p, labels, values)

	case analytics.Leadership:
		p.X.Label.Text = "Year"
		p.Y.Label.Text = "Kg/ha"
		var focus, region plotter.XYs
		for _, c := range r.Comparison {
			xy := plotter.XY{X: float64(c.Year), Y: c.KgPerHa}
			if c.Series == analytics.SeriesFocusCountry {
				focus = append(focus, xy)
			} else {
				region = append(region, xy)
			}
		}
		err = errors.Join(
			addLine(p, r.FocusCountry, 0, focus),
			addLine(p, "Regional average", 1, region),
		)

	case analytics.CountryComparison:
		p.X.Label.Text = "Year"
		p.Y.Label.Text = "Kg/ha"
		for i, s := range r.Series {
			if err = addLine(p, s.Country, i, yearXYs(s.Points)); err != nil {
				break
			}
		}

	case analytics.Composition:
		p.Y.Label.Text = "Mean tonnes per country"
		labels := make([]string, len(r.Global))
		values := make(plotter.Values, len(r.Global))
		for i, s := range r.Global {
			labels[i], values[i] = s.PesticideType, s.Tonnes
		}
		err = addBars(p, labels, values)

	case analytics.OutlierSummary:
		p.X.Label.Text = "Tonnes"
		p.Y.Label.Text = "Kg/ha"
		err = addOutliers(p, r)

	default:
		return nil, fmt.Errorf("no chart for %T", res)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func yearXYs(points []analytics.YearValue) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i] = plotter.XY{X: float64(pt.Year), Y: pt.KgPerHa}
	}
	return xys
}

// addLine skips empty series; plotter rejects them.
func addLine(p *plot.Plot, name string, idx int, xys plotter.XYs) error {
	if len(xys) == 0 {
		return nil
	}
	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(idx)
	line.Width = vg.Points(2)
	points.GlyphStyle.Color = plotutil.Color(idx)
	points.GlyphStyle.Shape = plotutil.Shape(idx)
	p.Add(line, points)
	if name != "" {
		p.Legend.Add(name, line, points)
	}
	return nil
}

func addBars(p *plot.Plot, labels []string, values plotter.Values) error {
	if len(values) == 0 {
		return nil
	}
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	p.NominalX(labels...)
	if len(labels) > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.YAlign = draw.YCenter
		p.X.Tick.Label.XAlign = draw.XRight
	}
	return nil
}

func addOutliers(p *plot.Plot, r analytics.OutlierSummary) error {
	maxX := 1.0
	if len(r.Outliers) > 0 {
		xys := make(plotter.XYs, len(r.Outliers))
		labels := make([]string, len(r.Outliers))
		for i, o := range r.Outliers {
			xys[i] = plotter.XY{X: o.Tonnes, Y: o.KgPerHa}
			labels[i] = o.Country + " " + strconv.Itoa(o.Year)
			maxX = math.Max(maxX, o.Tonnes)
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add("Outliers", scatter)

		names, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
		if err != nil {
			return err
		}
		p.Add(names)
	}

	p.X.Min, p.X.Max = 0, maxX*1.05
	p.Y.Min = math.Min(p.Y.Min, r.LowerFence)
	p.Y.Max = math.Max(p.Y.Max, r.UpperFence)
	for _, fence := range []float64{r.LowerFence, r.UpperFence} {
		y := fence
		f := plotter.NewFunction(func(float64) float64 { return y })
		f.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
		f.Color = color.Gray{Y: 100}
		p.Add(f)
	}
	p.Legend.Add(fmt.Sprintf("Fences %.2f / %.2f", r.LowerFence, r.UpperFence))
	return nil
}
