package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/finlet-app/finlet/internal/models"
)

const valueHistoryLimit = 500

// RenderValueChart renders the recorded portfolio value history as a PNG
// line chart.
func (s *Service) RenderValueChart(ctx context.Context, width, height int) ([]byte, error) {
	user := s.session.User()
	if user == nil {
		return nil, fmt.Errorf("not signed in")
	}

	points, err := s.store.GetValueHistory(ctx, user.ID, valueHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load value history: %w", err)
	}

	return renderValueChart(points, width, height)
}

// renderValueChart draws a single Account Value series. Needs at least two
// samples; the first refresh after install has nothing to draw.
func renderValueChart(points []models.ValuePoint, width, height int) ([]byte, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(points))
	}
	if width <= 0 {
		width = 900
	}
	if height <= 0 {
		height = 400
	}

	xValues := make([]time.Time, len(points))
	yValues := make([]float64, len(points))
	for i, p := range points {
		xValues[i] = p.Time
		yValues[i] = p.Value
	}

	series := chart.TimeSeries{
		Name: "Account Value",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("16a34a"), // green-600
			StrokeWidth: 2.5,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  "Account Value",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 2")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
