package report

import (
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"cutting_stock_cg/src/cutstock"
)

// Convergence records the master objective and the lower bound it implies
// at every iteration and renders both as an HTML line chart.
type Convergence struct {
	cutstock.NopObserver
	title       string
	objectives  []float64
	reducedCost []float64
	lowerBounds []float64
}

func NewConvergence(title string) *Convergence {
	return &Convergence{title: title}
}

func (c *Convergence) MasterSolved(_ int, _ *cutstock.PatternPool, sol *cutstock.MasterSolution) {
	c.objectives = append(c.objectives, sol.Objective)
}

func (c *Convergence) PatternPriced(_ int, sol *cutstock.PricingSolution, _ bool) {
	c.reducedCost = append(c.reducedCost, sol.ReducedCost)
	// Farley's bound: obj / (1 - rc) <= full LP optimum.
	obj := c.objectives[len(c.objectives)-1]
	c.lowerBounds = append(c.lowerBounds, obj/(1-math.Min(sol.ReducedCost, 0)))
}

func (c *Convergence) Iterations() int {
	return len(c.objectives)
}

func (c *Convergence) chart() *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.title}),
		charts.WithTitleOpts(opts.Title{
			Title:    c.title,
			Subtitle: "restricted master objective per iteration",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "boards"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{}),
	)

	xs := make([]string, len(c.objectives))
	for k := range xs {
		xs[k] = strconv.Itoa(k + 1)
	}
	line.SetXAxis(xs).
		AddSeries("LP objective", lineData(c.objectives)).
		AddSeries("Farley bound", lineData(c.lowerBounds))
	return line
}

func lineData(values []float64) []opts.LineData {
	data := make([]opts.LineData, len(values))
	for k, v := range values {
		data[k] = opts.LineData{Value: v}
	}
	return data
}

func (c *Convergence) Render(w io.Writer) error {
	return c.chart().Render(w)
}
