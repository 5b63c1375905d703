// Package charts renders PNG charts of a feature frame with gonum/plot.
package charts

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/HatiCode/climacast/pkg/models"
)

// Default image size.
const (
	Width  = 8 * vg.Inch
	Height = 4 * vg.Inch
)

var (
	lineColor  = color.RGBA{R: 0x21, G: 0x96, B: 0xf3, A: 0xff}
	pointColor = color.RGBA{R: 0x2e, G: 0x7d, B: 0x32, A: 0xff}
	trendColor = color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
)

// Timeline draws column against the frame's key, e.g. anomaly by year.
func Timeline(w io.Writer, frame models.FeatureFrame, column, title string) error {
	pts, err := points(frame, frame.Key, column)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = frame.Key
	p.Y.Label.Text = column

	line, markers, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	line.Color = lineColor
	line.Width = vg.Points(2)
	markers.Shape = draw.CircleGlyph{}
	markers.Color = lineColor
	p.Add(plotter.NewGrid(), line, markers)

	return render(w, p)
}

// Correlation draws y against x as a scatter with its least-squares line.
func Correlation(w io.Writer, frame models.FeatureFrame, x, y, title string) error {
	pts, err := points(frame, x, y)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("correlation: %w", err)
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(3)
	p.Add(plotter.NewGrid(), scatter)

	if len(pts) >= 2 {
		alpha, beta := Trend(pts)
		trend := plotter.NewFunction(func(v float64) float64 { return alpha + beta*v })
		trend.Color = trendColor
		trend.Width = vg.Points(1.5)
		trend.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(trend)
		p.Legend.Add(fmt.Sprintf("trend: y = %.4f + %.4f x", alpha, beta), trend)
		p.Legend.Top = true
		p.Legend.Left = true
	}

	return render(w, p)
}

// Trend returns the intercept and slope of the least-squares fit through pts.
func Trend(pts plotter.XYs) (alpha, beta float64) {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i] = pt.X, pt.Y
	}
	return stat.LinearRegression(xs, ys, nil, false)
}

func points(frame models.FeatureFrame, x, y string) (plotter.XYs, error) {
	if frame.Len() == 0 {
		return nil, fmt.Errorf("no rows to plot")
	}
	xs, err := frame.Column(x)
	if err != nil {
		return nil, err
	}
	ys, err := frame.Column(y)
	if err != nil {
		return nil, err
	}
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X, pts[i].Y = xs[i], ys[i]
	}
	return pts, nil
}

func render(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}
