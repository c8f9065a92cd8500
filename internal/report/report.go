// Package report renders an HTML summary of a tessellation grid: per-level
// triangle and vertex counts, and the sphere-coverage closure error of
// each level.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/geogrid/internal/tess"
)

// Write renders the report for g as a standalone HTML page.
func Write(g *tess.Grid, w io.Writer) error {
	page := components.NewPage()
	page.PageTitle = "Tessellation grid report"

	for id := 0; id < g.TessCount(); id++ {
		name, err := g.TessName(id)
		if err != nil {
			return err
		}
		levels, err := g.Levels(tess.ByID(id))
		if err != nil {
			return err
		}

		var (
			axis      []string
			triCounts []opts.BarData
			vtxCounts []opts.BarData
			areaErr   []opts.LineData
		)
		for lv := 0; lv < levels; lv++ {
			first, last, err := g.TriangleRange(tess.ByID(id), lv)
			if err != nil {
				return err
			}
			verts, err := g.VertexIndices(tess.ByID(id), lv)
			if err != nil {
				return err
			}
			area, err := g.LevelArea(tess.ByID(id), lv)
			if err != nil {
				return err
			}

			axis = append(axis, fmt.Sprintf("level %d", lv))
			triCounts = append(triCounts, opts.BarData{Value: last - first})
			vtxCounts = append(vtxCounts, opts.BarData{Value: len(verts)})
			areaErr = append(areaErr, opts.LineData{Value: math.Abs(area - 4*math.Pi)})
		}

		counts := charts.NewBar()
		counts.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    fmt.Sprintf("%s: elements per level", name),
				Subtitle: fmt.Sprintf("tessellation %d", id),
			}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		)
		counts.SetXAxis(axis).
			AddSeries("triangles", triCounts).
			AddSeries("vertices", vtxCounts)

		closure := charts.NewLine()
		closure.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{
				Title:    fmt.Sprintf("%s: sphere coverage closure error", name),
				Subtitle: "abs(level area - 4*pi), should be at numeric noise level",
			}),
		)
		closure.SetXAxis(axis).AddSeries("closure error", areaErr)

		page.AddCharts(counts, closure)
	}

	return page.Render(w)
}
