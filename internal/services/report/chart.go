package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/fintrack/internal/models"
)

// RenderValueChart renders a PNG bar chart of current value per valued
// holding. Returns raw PNG bytes.
func RenderValueChart(a *models.Analysis) ([]byte, error) {
	var bars []chart.Value
	maxValue := 0.0
	for _, d := range a.Details {
		if !d.Valid() || d.CurrentValue <= 0 {
			continue
		}
		color := drawing.ColorFromHex("16a34a") // green-600
		if d.GainLoss < 0 {
			color = drawing.ColorFromHex("dc2626") // red-600
		}
		if d.CurrentValue > maxValue {
			maxValue = d.CurrentValue
		}
		bars = append(bars, chart.Value{
			Label: truncateLabel(d.Identifier, 18),
			Value: d.CurrentValue,
			Style: chart.Style{
				FillColor:   color,
				StrokeColor: color,
			},
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no valued holdings to chart")
	}

	graph := chart.BarChart{
		Title:  "Current Value by Holding",
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		BarWidth: 40,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("₹%.0fk", f/1000)
				}
				return ""
			},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func truncateLabel(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
