package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/ityard/stocklens/internal/models"
)

// ErrInconsistentInput reports that the pieces handed to the assembler do
// not describe the same analysis run.
var ErrInconsistentInput = errors.New("inconsistent report inputs")

// Assemble seals the outputs of one run into an AnalysisReport. Every input
// must carry the same symbol; ratios and charts may be empty but not the
// indicator set or the recommendation. Inputs are copied so later mutation
// by the caller cannot reach the sealed report.
func Assemble(indicators *models.IndicatorSet, ratios []models.RatioSet, rec *models.Recommendation, charts []models.ChartRef) (*models.AnalysisReport, error) {
	if indicators == nil {
		return nil, fmt.Errorf("%w: indicator set is nil", ErrInconsistentInput)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: recommendation is nil", ErrInconsistentInput)
	}
	symbol := indicators.Symbol
	if symbol == "" {
		return nil, fmt.Errorf("%w: indicator set has no symbol", ErrInconsistentInput)
	}
	if rec.Symbol != symbol {
		return nil, fmt.Errorf("%w: recommendation is for %q, indicators for %q", ErrInconsistentInput, rec.Symbol, symbol)
	}
	for _, rs := range ratios {
		if rs.Symbol != symbol {
			return nil, fmt.Errorf("%w: ratio set for %q, indicators for %q", ErrInconsistentInput, rs.Symbol, symbol)
		}
	}
	for _, ref := range charts {
		if ref.Symbol != symbol {
			return nil, fmt.Errorf("%w: chart %q is for %q, indicators for %q", ErrInconsistentInput, ref.Name, ref.Symbol, symbol)
		}
		if ref.Path == "" {
			return nil, fmt.Errorf("%w: chart %q has no path", ErrInconsistentInput, ref.Name)
		}
	}

	recCopy := *rec
	return &models.AnalysisReport{
		Symbol:         symbol,
		GeneratedAt:    time.Now().UTC(),
		Indicators:     copyIndicators(indicators),
		Ratios:         copyRatios(ratios),
		Recommendation: &recCopy,
		Charts:         append([]models.ChartRef(nil), charts...),
	}, nil
}

func copyIndicators(set *models.IndicatorSet) *models.IndicatorSet {
	out := &models.IndicatorSet{
		Symbol: set.Symbol,
		Length: set.Length,
		Series: make(map[string]models.IndicatorSeries, len(set.Series)),
	}
	for name, series := range set.Series {
		out.Series[name] = append(models.IndicatorSeries(nil), series...)
	}
	return out
}

func copyRatios(ratios []models.RatioSet) []models.RatioSet {
	out := make([]models.RatioSet, len(ratios))
	for i, rs := range ratios {
		values := make(map[string]float64, len(rs.Values))
		for k, v := range rs.Values {
			values[k] = v
		}
		out[i] = models.RatioSet{Symbol: rs.Symbol, Period: rs.Period, Values: values}
	}
	return out
}
