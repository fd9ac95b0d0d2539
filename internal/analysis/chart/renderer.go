package chart

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ityard/stocklens/internal/models"
)

// ErrRender reports that a chart could not be produced, most often because
// the inputs were not aligned.
var ErrRender = errors.New("chart render failed")

// Chart artifact names. One run produces at most one artifact per name, so
// renders are idempotent: a second run overwrites the same files.
const (
	ChartPriceOverview = "price_overview"
	ChartMomentum      = "momentum"
	ChartRatioTrends   = "ratio_trends"
)

// Renderer writes chart artifacts under dir/<symbol>/. Chart IDs are fixed
// per artifact name so identical inputs produce identical files.
type Renderer struct {
	dir string
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// RenderAll produces the price overview and momentum charts, plus the ratio
// trends chart when ratio history is present. The price series and the
// indicator set must be aligned bar for bar.
func (r *Renderer) RenderAll(series *models.PriceSeries, indicators *models.IndicatorSet, ratios []models.RatioSet) ([]models.ChartRef, error) {
	if series == nil || indicators == nil {
		return nil, fmt.Errorf("%w: missing price series or indicator set", ErrRender)
	}
	if series.Symbol != indicators.Symbol {
		return nil, fmt.Errorf("%w: price series for %q, indicators for %q", ErrRender, series.Symbol, indicators.Symbol)
	}
	if series.Len() != indicators.Length {
		return nil, fmt.Errorf("%w: %d bars but indicator length %d", ErrRender, series.Len(), indicators.Length)
	}
	for name, is := range indicators.Series {
		if len(is) != indicators.Length {
			return nil, fmt.Errorf("%w: series %s has %d points, want %d", ErrRender, name, len(is), indicators.Length)
		}
	}

	outDir := filepath.Join(r.dir, series.Symbol)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	labels := axisLabels(series)

	refs := make([]models.ChartRef, 0, 3)
	ref, err := r.writeChart(series.Symbol, ChartPriceOverview, priceOverview(series, indicators, labels))
	if err != nil {
		return nil, err
	}
	refs = append(refs, ref)

	ref, err = r.writeChart(series.Symbol, ChartMomentum, momentum(series.Symbol, indicators, labels))
	if err != nil {
		return nil, err
	}
	refs = append(refs, ref)

	if len(ratios) > 0 {
		ref, err = r.writeChart(series.Symbol, ChartRatioTrends, ratioTrends(series.Symbol, ratios))
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}

	log.Printf("chart: rendered %d artifacts for %s under %s", len(refs), series.Symbol, outDir)
	return refs, nil
}

type renderable interface {
	Render(w io.Writer) error
}

func (r *Renderer) writeChart(symbol, name string, c renderable) (models.ChartRef, error) {
	path := filepath.Join(r.dir, symbol, name+".html")
	f, err := os.Create(path)
	if err != nil {
		return models.ChartRef{}, fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer f.Close()
	if err := c.Render(f); err != nil {
		return models.ChartRef{}, fmt.Errorf("%w: render %s: %v", ErrRender, name, err)
	}
	return models.ChartRef{Symbol: symbol, Name: name, Path: path}, nil
}

func axisLabels(series *models.PriceSeries) []string {
	labels := make([]string, series.Len())
	for i, bar := range series.Bars {
		labels[i] = bar.Timestamp.Format("2006-01-02")
	}
	return labels
}

// lineData maps an indicator series to chart points, leaving nulls where the
// lookback window is not yet met so echarts draws a gap instead of a zero.
func lineData(series models.IndicatorSeries) []opts.LineData {
	data := make([]opts.LineData, len(series))
	for i, p := range series {
		if p.Valid {
			data[i] = opts.LineData{Value: p.Value}
		} else {
			data[i] = opts.LineData{Value: nil}
		}
	}
	return data
}

func newLine(chartID, title string, labels []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: chartID, Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)
	line.SetXAxis(labels)
	return line
}

func priceOverview(series *models.PriceSeries, indicators *models.IndicatorSet, labels []string) renderable {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{ChartID: ChartPriceOverview, Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: series.Symbol + " price"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	klineData := make([]opts.KlineData, series.Len())
	for i, bar := range series.Bars {
		klineData[i] = opts.KlineData{Value: [4]float64{bar.Open, bar.Close, bar.Low, bar.High}}
	}
	kline.SetXAxis(labels).AddSeries("price", klineData)

	overlay := charts.NewLine()
	overlay.SetXAxis(labels)
	for _, name := range overlayNames(indicators) {
		overlay.AddSeries(name, lineData(indicators.Series[name]))
	}
	kline.Overlap(overlay)
	return kline
}

// overlayNames picks the series drawn on the price panel, in a fixed order.
func overlayNames(indicators *models.IndicatorSet) []string {
	var smas []string
	for name := range indicators.Series {
		var w int
		if _, err := fmt.Sscanf(name, "sma_%d", &w); err == nil {
			smas = append(smas, name)
		}
	}
	sort.Strings(smas)

	names := smas
	for _, name := range []string{models.IndicatorBollingerUpper, models.IndicatorBollingerMid, models.IndicatorBollingerLower} {
		if _, ok := indicators.Series[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func momentum(symbol string, indicators *models.IndicatorSet, labels []string) renderable {
	line := newLine(ChartMomentum, symbol+" momentum", labels)
	names := make([]string, 0, len(indicators.Series))
	for name := range indicators.Series {
		switch {
		case name == models.IndicatorMACD, name == models.IndicatorMACDSignal, name == models.IndicatorMACDHist:
			names = append(names, name)
		default:
			var w int
			if _, err := fmt.Sscanf(name, "rsi_%d", &w); err == nil {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	for _, name := range names {
		line.AddSeries(name, lineData(indicators.Series[name]))
	}
	return line
}

func ratioTrends(symbol string, ratios []models.RatioSet) renderable {
	periods := make([]string, len(ratios))
	nameSet := make(map[string]bool)
	for i, rs := range ratios {
		periods[i] = rs.Period
		for name := range rs.Values {
			nameSet[name] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)

	line := newLine(ChartRatioTrends, symbol+" ratio trends", periods)
	for _, name := range names {
		data := make([]opts.LineData, len(ratios))
		for i, rs := range ratios {
			if v, ok := rs.Get(name); ok {
				data[i] = opts.LineData{Value: v}
			} else {
				data[i] = opts.LineData{Value: nil}
			}
		}
		line.AddSeries(name, data)
	}
	return line
}
