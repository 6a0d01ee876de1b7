package debug

import (
	"fmt"
	"io"
	"math"

	"loadflow/control"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// 图片尺寸
var (
	PlotWidth  = 16 * vg.Centimeter
	PlotHeight = 10 * vg.Centimeter
)

// ResidualPlot 残差历史(对数坐标)
func ResidualPlot(rec *Record) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "牛顿迭代残差"
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "max |F| (A)"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	pts := make(plotter.XYs, len(rec.Residual))
	for i, r := range rec.Residual {
		pts[i].X = float64(rec.Iteration[i])
		pts[i].Y = math.Max(r, 1e-12)
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("残差曲线: %w", err)
	}
	p.Add(line, points, plotter.NewGrid())
	return p, nil
}

// ControlPlot 柔性负荷在一组线电压下的有功与无功
func ControlPlot(fp *control.FlexibleParameter, voltages []float64, power complex128) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "柔性负荷控制曲线"
	p.X.Label.Text = "U (V)"
	p.Y.Label.Text = "S (VA)"

	powers := fp.ComputePowers(voltages, power)
	ptsP := make(plotter.XYs, len(voltages))
	ptsQ := make(plotter.XYs, len(voltages))
	for i, u := range voltages {
		ptsP[i].X, ptsP[i].Y = u, real(powers[i])
		ptsQ[i].X, ptsQ[i].Y = u, imag(powers[i])
	}
	lineP, err := plotter.NewLine(ptsP)
	if err != nil {
		return nil, fmt.Errorf("有功曲线: %w", err)
	}
	lineQ, err := plotter.NewLine(ptsQ)
	if err != nil {
		return nil, fmt.Errorf("无功曲线: %w", err)
	}
	lineQ.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(lineP, lineQ, plotter.NewGrid())
	p.Legend.Add("P", lineP)
	p.Legend.Add("Q", lineQ)
	return p, nil
}

// WritePNG 输出 PNG 图片
func WritePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(PlotWidth, PlotHeight, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
