package debug

import (
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Charts 收敛曲线网页报告
type Charts struct {
	Record
}

// newLine 统一样式的折线图
func newLine(title, subtitle string, logScale bool) *charts.Line {
	line := charts.NewLine()
	yAxis := opts.YAxis{Scale: opts.Bool(true)}
	if logScale {
		yAxis.Type = "log"
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(yAxis),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(true),
	)
	return line
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	lineR := newLine("残差曲线", "最大节点电流失配随迭代变化", true)
	lineR.SetXAxis(c.Iteration)
	itemsR := make([]opts.LineData, len(c.Residual))
	for i, r := range c.Residual {
		// 对数坐标不能显示零
		itemsR[i] = opts.LineData{Value: math.Max(r, 1e-12)}
	}
	lineR.AddSeries("residual", itemsR)

	lineD := newLine("阻尼因子", "阻尼因子随迭代变化", false)
	lineD.SetXAxis(c.Iteration)
	itemsD := make([]opts.LineData, len(c.Damping))
	for i, d := range c.Damping {
		itemsD[i] = opts.LineData{Value: d}
	}
	lineD.AddSeries("damping", itemsD)

	lineV := newLine("节点电位", "未知节点电位幅值随迭代变化", false)
	lineV.SetXAxis(c.Iteration)
	for n, name := range c.Nodes {
		items := make([]opts.LineData, len(c.Potential))
		for i, pot := range c.Potential {
			items[i] = opts.LineData{Value: pot[n]}
		}
		lineV.AddSeries(name, items)
	}

	page := components.NewPage()
	page.AddCharts(
		lineR,
		lineD,
		lineV,
	)
	return page.Render(w)
}
