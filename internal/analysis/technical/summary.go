package technical

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ityard/stocklens/internal/models"
)

// Status words used for the per-indicator readings at the latest bar.
const (
	StatusNeutral     = "neutral"
	StatusGoldenCross = "golden_cross"
	StatusDeadCross   = "dead_cross"
	StatusOverbought  = "overbought"
	StatusOversold    = "oversold"
	StatusRising      = "rising"
	StatusFalling     = "falling"
)

// Summary condenses an indicator set to its latest readings and statuses.
// It feeds report text and scoring prompts; the full aligned series stay in
// the IndicatorSet.
type Summary struct {
	Symbol             string             `json:"symbol"`
	CurrentPrice       float64            `json:"current_price"`
	PriceChange        float64            `json:"price_change"`
	PriceChangePercent float64            `json:"price_change_percent"`
	Latest             map[string]float64 `json:"latest"`
	Statuses           map[string]string  `json:"statuses"`
}

// Summarize reads the latest defined value of every indicator and derives
// the classic statuses: MA golden/dead cross, RSI overbought/oversold,
// MACD rising/falling from the histogram sign, Bollinger band position.
func Summarize(set *models.IndicatorSet, overbought, oversold float64) Summary {
	s := Summary{
		Symbol:   set.Symbol,
		Latest:   make(map[string]float64),
		Statuses: make(map[string]string),
	}

	for name, series := range set.Series {
		if v, ok := series.Last(); ok {
			s.Latest[name] = v
		}
	}

	closeSeries := set.Series[models.IndicatorClose]
	if last, ok := closeSeries.Last(); ok {
		s.CurrentPrice = last
		if prev, ok := closeSeries.At(set.Length - 2); ok && prev != 0 {
			s.PriceChange = last - prev
			s.PriceChangePercent = (last - prev) / prev * 100
		}
	}

	if short, long, ok := smaPair(set); ok {
		shortV, sok := set.Last(models.SMAName(short))
		longV, lok := set.Last(models.SMAName(long))
		switch {
		case !sok || !lok:
			s.Statuses["ma"] = StatusNeutral
		case shortV > longV:
			s.Statuses["ma"] = StatusGoldenCross
		case shortV < longV:
			s.Statuses["ma"] = StatusDeadCross
		default:
			s.Statuses["ma"] = StatusNeutral
		}
	}

	if name, ok := rsiSeriesName(set); ok {
		if v, ok := set.Last(name); ok {
			switch {
			case v >= overbought:
				s.Statuses["rsi"] = StatusOverbought
			case v <= oversold:
				s.Statuses["rsi"] = StatusOversold
			default:
				s.Statuses["rsi"] = StatusNeutral
			}
		}
	}

	if hist, ok := set.Last(models.IndicatorMACDHist); ok {
		switch {
		case hist > 0:
			s.Statuses["macd"] = StatusRising
		case hist < 0:
			s.Statuses["macd"] = StatusFalling
		default:
			s.Statuses["macd"] = StatusNeutral
		}
	}

	upper, uok := set.Last(models.IndicatorBollingerUpper)
	lower, lok := set.Last(models.IndicatorBollingerLower)
	if uok && lok && s.CurrentPrice != 0 {
		switch {
		case s.CurrentPrice > upper:
			s.Statuses["bollinger"] = StatusOverbought
		case s.CurrentPrice < lower:
			s.Statuses["bollinger"] = StatusOversold
		default:
			s.Statuses["bollinger"] = StatusNeutral
		}
	}

	return s
}

// String renders the summary as prompt-friendly lines.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s price %.2f (%+.2f, %+.2f%%)\n", s.Symbol, s.CurrentPrice, s.PriceChange, s.PriceChangePercent)

	names := make([]string, 0, len(s.Latest))
	for name := range s.Latest {
		if name == models.IndicatorClose {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %.4f\n", name, s.Latest[name])
	}

	statuses := make([]string, 0, len(s.Statuses))
	for name := range s.Statuses {
		statuses = append(statuses, name)
	}
	sort.Strings(statuses)
	for _, name := range statuses {
		fmt.Fprintf(&b, "%s status: %s\n", name, s.Statuses[name])
	}
	return b.String()
}

// smaPair picks the two shortest SMA windows present, conventionally the
// 5/20 crossover pair.
func smaPair(set *models.IndicatorSet) (short, long int, ok bool) {
	var windows []int
	for name := range set.Series {
		var w int
		if _, err := fmt.Sscanf(name, "sma_%d", &w); err == nil && w > 0 {
			windows = append(windows, w)
		}
	}
	if len(windows) < 2 {
		return 0, 0, false
	}
	sort.Ints(windows)
	return windows[0], windows[1], true
}

// rsiSeriesName finds the RSI series regardless of the configured window.
func rsiSeriesName(set *models.IndicatorSet) (string, bool) {
	for name := range set.Series {
		if rest, found := strings.CutPrefix(name, "rsi_"); found {
			if _, err := strconv.Atoi(rest); err == nil {
				return name, true
			}
		}
	}
	return "", false
}
