// Package render draws the result charts and converts page copy to HTML.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	"renovate/internal/pipeline"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	ScatterTitle    = "Actual vs Predicted Building Renovation Percent"
	ImportanceLabel = "Importance (%)"

	chartWidth  = 800
	chartHeight = 600

	// bar names get at least this much room and at most half the chart
	minLabelGutter = 160
	maxLabelGutter = chartWidth / 2
)

// ImportanceTitle names the importance chart for the k best features.
func ImportanceTitle(k int) string {
	return fmt.Sprintf("Top %d Feature Importance", k)
}

var (
	pointColor = drawing.ColorFromHex("1f77b4")
	barColor   = drawing.ColorFromHex("87ceeb")
)

// ScatterPNG plots predicted against actual values with a red dashed
// reference line from (lo, lo) to (hi, hi).
func ScatterPNG(actual, predicted []float64, lo, hi float64) ([]byte, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("render: %d actual values but %d predictions", len(actual), len(predicted))
	}
	if len(actual) == 0 {
		return nil, errors.New("render: nothing to plot")
	}

	axisLo, axisHi := lo, hi
	for i := range actual {
		axisLo = math.Min(axisLo, math.Min(actual[i], predicted[i]))
		axisHi = math.Max(axisHi, math.Max(actual[i], predicted[i]))
	}
	axisLo, axisHi = widen(axisLo, axisHi)

	ch := chart.Chart{
		Title:  ScatterTitle,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:  "Actual Values",
			Range: &chart.ContinuousRange{Min: axisLo, Max: axisHi},
		},
		YAxis: chart.YAxis{
			Name:  "Predicted Values",
			Range: &chart.ContinuousRange{Min: axisLo, Max: axisHi},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Predictions",
				XValues: actual,
				YValues: predicted,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    pointColor,
				},
			},
			chart.ContinuousSeries{
				Name:    "Ideal",
				XValues: []float64{lo, hi},
				YValues: []float64{lo, hi},
				Style: chart.Style{
					StrokeColor:     drawing.ColorRed,
					StrokeWidth:     2,
					StrokeDashArray: []float64{6, 4},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render scatter: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportanceBarPNG draws one horizontal bar per feature on a 0-100% scale,
// in the given order from top to bottom, titled for the top k features.
func ImportanceBarPNG(top []pipeline.FeatureImportance, k int) ([]byte, error) {
	if len(top) == 0 {
		return nil, errors.New("render: no feature importances")
	}

	names := make([]string, len(top))
	bars := make([]chart.StackedBar, len(top))
	for i, f := range top {
		names[i] = f.Name
		pct := math.Max(0, math.Min(100, f.Percent))
		bars[i] = chart.StackedBar{
			Name: f.Name,
			Values: []chart.Value{
				{
					Label: fmt.Sprintf("%s %.1f", ImportanceLabel, pct),
					Value: pct,
					Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
				},
				{
					Value: 100 - pct,
					Style: chart.Style{FillColor: drawing.ColorTransparent, StrokeColor: drawing.ColorTransparent},
				},
			},
		}
	}

	gutter, err := labelGutter(names)
	if err != nil {
		return nil, fmt.Errorf("render importance: %w", err)
	}

	ch := chart.StackedBarChart{
		Title:        ImportanceTitle(k),
		Width:        chartWidth,
		Height:       100 + 90*len(bars),
		IsHorizontal: true,
		BarSpacing:   30,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: gutter, Right: 20, Bottom: 20},
		},
		// word wrapping a single long word emits an empty first line,
		// which go-chart measures with a negative height
		YAxis: chart.Style{TextWrap: chart.TextWrapRune},
		Bars:  bars,
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render importance: %w", err)
	}
	return buf.Bytes(), nil
}

// labelGutter measures the widest bar name in the axis font and returns the
// left padding that keeps it on one line.
func labelGutter(names []string) (int, error) {
	font, err := chart.GetDefaultFont()
	if err != nil {
		return 0, err
	}
	r, err := chart.PNG(chartWidth, chartHeight)
	if err != nil {
		return 0, err
	}
	r.SetDPI(chart.DefaultDPI)
	r.SetFont(font)
	r.SetFontSize(chart.DefaultAxisFontSize)

	widest := 0
	for _, name := range names {
		if w := r.MeasureText(name).Width(); w > widest {
			widest = w
		}
	}

	gutter := widest + 4*chart.DefaultYAxisMargin
	if gutter < minLabelGutter {
		gutter = minLabelGutter
	}
	if gutter > maxLabelGutter {
		gutter = maxLabelGutter
	}
	return gutter, nil
}

// DataURI encodes PNG bytes for an <img src> attribute.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

func widen(lo, hi float64) (float64, float64) {
	if hi <= lo {
		return lo - 1, lo + 1
	}
	pad := (hi - lo) * 0.05
	return lo - pad, hi + pad
}
