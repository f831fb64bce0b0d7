// Package report renders analysis output for people: a terminal summary,
// CSV exports, and a self-contained HTML report with inline SVG charts.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/filinglens/pkg/models"
	"github.com/seenimoa/filinglens/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator — Pure Go, Zero Dependencies
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 360)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 80)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       360,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   80,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// ════════════════════════════════════════════════════════════════════
// Revenue Trend Chart
// ════════════════════════════════════════════════════════════════════

// TrendChart draws a revenue (or any money-scale) series as a line with
// point markers, and extends it with a dashed segment to the one-step
// forecast when one is present. Periods are assumed sorted oldest first,
// which is how trend series arrive.
func TrendChart(series []models.SeriesPoint, forecast float64, strategy string, cfg ChartConfig) string {
	if len(series) == 0 {
		return emptySVG(cfg, "No trend data")
	}

	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Revenue Trend"
	}

	hasForecast := forecast > 0
	n := len(series)
	slots := n
	if hasForecast {
		slots++
	}

	px, py, pw, ph := cfg.plotArea()

	// Value range over history plus the forecast point.
	minVal, maxVal := series[0].Value, series[0].Value
	for _, p := range series {
		minVal = math.Min(minVal, p.Value)
		maxVal = math.Max(maxVal, p.Value)
	}
	if hasForecast {
		minVal = math.Min(minVal, forecast)
		maxVal = math.Max(maxVal, forecast)
	}
	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = math.Abs(maxVal)
		if vRange < 0.001 {
			vRange = 1
		}
	}
	minVal -= vRange * 0.08
	maxVal += vRange * 0.08
	vRange = maxVal - minVal

	xAt := func(i int) float64 {
		if slots == 1 {
			return float64(px) + float64(pw)/2
		}
		return float64(px) + float64(i)*float64(pw)/float64(slots-1)
	}
	yAt := func(v float64) float64 {
		ratio := (v - minVal) / vRange
		return float64(py+ph) - ratio*float64(ph)
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Y-axis grid lines and labels.
	gridLines := 5
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/float64(gridLines)
		y := py + ph - int(float64(ph)*float64(i)/float64(gridLines))
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%s</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, utils.FormatAbbrev(val)))
	}

	// History line.
	lineColor := "#2563eb"
	var pathParts []string
	for i, p := range series {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, xAt(i), yAt(p.Value)))
	}
	if len(pathParts) > 1 {
		sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
			strings.Join(pathParts, " "), lineColor))
	}

	// Point markers.
	for i, p := range series {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3.5" fill="%s"/>`,
			xAt(i), yAt(p.Value), lineColor))
	}

	// Forecast extension: dashed segment to a hollow marker.
	if hasForecast {
		fcColor := "#ea580c"
		lastX, lastY := xAt(n-1), yAt(series[n-1].Value)
		fx, fy := xAt(n), yAt(forecast)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2" stroke-dasharray="6,4"/>`,
			lastX, lastY, fx, fy, fcColor))
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="4" fill="%s" stroke="%s" stroke-width="2"/>`,
			fx, fy, cfg.BgColor, fcColor))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			fx, fy-10, cfg.FontSize, fcColor, utils.FormatAbbrev(forecast)))

		// Legend for the forecast strategy.
		ly := py + 10
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2" stroke-dasharray="6,4"/>`,
			px+10, ly, px+30, ly, fcColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">forecast (%s)</text>`,
			px+35, ly+4, cfg.TextColor, escapeXML(strategy)))
	}

	// X-axis period labels, thinned so they never overlap.
	interval := 1
	if slots > 8 {
		interval = (slots + 7) / 8
	}
	for i := 0; i < n; i += interval {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			xAt(i), py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(series[i].Period)))
	}
	if hasForecast {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">next</text>`,
			xAt(n), py+ph+18, cfg.FontSize-1, cfg.TextColor))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Growth Bar Chart
// ════════════════════════════════════════════════════════════════════

// GrowthBarChart draws period-over-period growth percentages as vertical
// bars, green above zero and red below.
func GrowthBarChart(growth []models.GrowthPoint, cfg ChartConfig) string {
	if len(growth) == 0 {
		return emptySVG(cfg, "No growth data")
	}

	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = "Growth %"
	}

	px, py, pw, ph := cfg.plotArea()

	minVal, maxVal := 0.0, 0.0
	for _, g := range growth {
		minVal = math.Min(minVal, g.Pct)
		maxVal = math.Max(maxVal, g.Pct)
	}
	vRange := maxVal - minVal
	if vRange < 0.001 {
		vRange = 1
	}
	minVal -= vRange * 0.1
	maxVal += vRange * 0.1
	vRange = maxVal - minVal

	yAt := func(v float64) float64 {
		ratio := (v - minVal) / vRange
		return float64(py+ph) - ratio*float64(ph)
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	gridLines := 5
	for i := 0; i <= gridLines; i++ {
		val := minVal + vRange*float64(i)/float64(gridLines)
		y := py + ph - int(float64(ph)*float64(i)/float64(gridLines))
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-dasharray="3,3"/>`,
			px, y, px+pw, y, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%.1f%%</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, val))
	}

	// Zero baseline.
	zeroY := yAt(0)
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-width="1"/>`,
		px, zeroY, px+pw, zeroY, cfg.TextColor))

	n := len(growth)
	slotW := float64(pw) / float64(n)
	barW := slotW * 0.6
	if barW > 40 {
		barW = 40
	}

	for i, g := range growth {
		cx := float64(px) + slotW*float64(i) + slotW/2
		top := yAt(math.Max(g.Pct, 0))
		barH := math.Abs(yAt(g.Pct) - zeroY)
		color := "#16a34a"
		if g.Pct < 0 {
			color = "#dc2626"
		}
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" opacity="0.85"/>`,
			cx-barW/2, top, barW, barH, color))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			cx, py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(g.Period)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
