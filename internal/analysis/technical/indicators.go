package technical

import (
	"errors"
	"fmt"
	"math"

	"github.com/ityard/stocklens/internal/models"
)

var (
	// ErrInsufficientData is returned when the price series is shorter than
	// a requested lookback window.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidConfig is returned when a requested window is non-positive
	// or otherwise unusable.
	ErrInvalidConfig = errors.New("invalid indicator config")
)

// Config enumerates which indicators to compute and their window parameters.
type Config struct {
	SMAWindows      []int
	RSIWindow       int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerWindow int
	BollingerStdDev float64
}

// DefaultConfig mirrors the conventional daily-chart parameters: SMA 5/20/60,
// RSI 14, MACD 12/26/9, Bollinger 20 at 2 standard deviations.
func DefaultConfig() Config {
	return Config{
		SMAWindows:      []int{5, 20, 60},
		RSIWindow:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerWindow: 20,
		BollingerStdDev: 2.0,
	}
}

func (c Config) validate() error {
	for _, w := range c.SMAWindows {
		if w <= 0 {
			return fmt.Errorf("%w: sma window %d", ErrInvalidConfig, w)
		}
	}
	for name, w := range map[string]int{
		"rsi":         c.RSIWindow,
		"macd fast":   c.MACDFast,
		"macd slow":   c.MACDSlow,
		"macd signal": c.MACDSignal,
		"bollinger":   c.BollingerWindow,
	} {
		if w <= 0 {
			return fmt.Errorf("%w: %s window %d", ErrInvalidConfig, name, w)
		}
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("%w: macd fast window %d must be shorter than slow window %d",
			ErrInvalidConfig, c.MACDFast, c.MACDSlow)
	}
	if c.BollingerStdDev <= 0 {
		return fmt.Errorf("%w: bollinger stddev multiplier %.2f", ErrInvalidConfig, c.BollingerStdDev)
	}
	return nil
}

// maxLookback is the longest warmup any configured indicator needs before it
// produces a defined value.
func (c Config) maxLookback() int {
	max := c.BollingerWindow
	for _, w := range c.SMAWindows {
		if w > max {
			max = w
		}
	}
	if c.RSIWindow+1 > max {
		max = c.RSIWindow + 1
	}
	if c.MACDSlow+c.MACDSignal-1 > max {
		max = c.MACDSlow + c.MACDSignal - 1
	}
	return max
}

// Compute derives the configured indicator set from a price series. It is a
// pure function: the series is never modified and repeated calls yield
// identical results. Every output series has exactly series.Len() entries,
// with invalid leading points while each indicator's window warms up.
func Compute(series *models.PriceSeries, cfg Config) (*models.IndicatorSet, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if series.Len() < cfg.maxLookback() {
		return nil, fmt.Errorf("%w: series %s has %d bars, need at least %d",
			ErrInsufficientData, series.Symbol, series.Len(), cfg.maxLookback())
	}

	closes := series.Closes()
	set := &models.IndicatorSet{
		Symbol: series.Symbol,
		Length: len(closes),
		Series: make(map[string]models.IndicatorSeries),
	}

	// The close column rides along so downstream consumers can relate price
	// to bands and averages without carrying the source series around.
	closeSeries := make(models.IndicatorSeries, len(closes))
	for i, c := range closes {
		closeSeries[i] = models.IndicatorPoint{Value: c, Valid: true}
	}
	set.Series[models.IndicatorClose] = closeSeries

	for _, w := range cfg.SMAWindows {
		set.Series[models.SMAName(w)] = sma(closes, w)
	}

	set.Series[models.RSIName(cfg.RSIWindow)] = rsi(closes, cfg.RSIWindow)

	macdLine, signalLine, hist := macd(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	set.Series[models.IndicatorMACD] = macdLine
	set.Series[models.IndicatorMACDSignal] = signalLine
	set.Series[models.IndicatorMACDHist] = hist

	mid, upper, lower := bollinger(closes, cfg.BollingerWindow, cfg.BollingerStdDev)
	set.Series[models.IndicatorBollingerMid] = mid
	set.Series[models.IndicatorBollingerUpper] = upper
	set.Series[models.IndicatorBollingerLower] = lower

	return set, nil
}

// sma computes the arithmetic mean over a trailing window. The first
// window-1 entries are undefined.
func sma(closes []float64, window int) models.IndicatorSeries {
	out := make(models.IndicatorSeries, len(closes))
	var sum float64
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = models.IndicatorPoint{Value: sum / float64(window), Valid: true}
		}
	}
	return out
}

// ema computes an exponential moving average with smoothing 2/(window+1),
// seeded with the simple average of the first window values.
func ema(closes []float64, window int) models.IndicatorSeries {
	out := make(models.IndicatorSeries, len(closes))
	if len(closes) < window {
		return out
	}
	multiplier := 2.0 / (float64(window) + 1.0)

	var sum float64
	for i := 0; i < window; i++ {
		sum += closes[i]
	}
	value := sum / float64(window)
	out[window-1] = models.IndicatorPoint{Value: value, Valid: true}

	for i := window; i < len(closes); i++ {
		value = closes[i]*multiplier + value*(1-multiplier)
		out[i] = models.IndicatorPoint{Value: value, Valid: true}
	}
	return out
}

// rsi maps the ratio of average gain to average loss over a trailing window
// of close-to-close moves onto 0-100. A window with no movement at all
// resolves to the neutral 50 rather than dividing by zero; all gains with no
// losses saturates at 100, the reverse at 0. Defined from index window on,
// since the first move needs two closes.
func rsi(closes []float64, window int) models.IndicatorSeries {
	out := make(models.IndicatorSeries, len(closes))
	if len(closes) < window+1 {
		return out
	}

	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum += -change
		}
		if i > window {
			old := closes[i-window] - closes[i-window-1]
			if old > 0 {
				gainSum -= old
			} else {
				lossSum -= -old
			}
		}
		if i < window {
			continue
		}

		avgGain := gainSum / float64(window)
		avgLoss := lossSum / float64(window)

		var value float64
		switch {
		case avgGain == 0 && avgLoss == 0:
			value = 50
		case avgLoss == 0:
			value = 100
		default:
			rs := avgGain / avgLoss
			value = 100 - (100 / (1 + rs))
		}
		out[i] = models.IndicatorPoint{Value: value, Valid: true}
	}
	return out
}

// macd computes the fast/slow EMA difference, its EMA signal line and the
// histogram. The macd line is defined from the slow window on; the signal
// line needs a further signal-window warmup over defined macd values.
func macd(closes []float64, fast, slow, signal int) (macdLine, signalLine, hist models.IndicatorSeries) {
	n := len(closes)
	macdLine = make(models.IndicatorSeries, n)
	signalLine = make(models.IndicatorSeries, n)
	hist = make(models.IndicatorSeries, n)

	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)
	for i := 0; i < n; i++ {
		f, fok := fastEMA.At(i)
		s, sok := slowEMA.At(i)
		if fok && sok {
			macdLine[i] = models.IndicatorPoint{Value: f - s, Valid: true}
		}
	}

	// Signal: EMA of the defined macd region, re-anchored at its offset.
	offset := slow - 1
	if offset >= n {
		return macdLine, signalLine, hist
	}
	defined := make([]float64, 0, n-offset)
	for i := offset; i < n; i++ {
		v, ok := macdLine.At(i)
		if !ok {
			break
		}
		defined = append(defined, v)
	}
	for i, p := range ema(defined, signal) {
		if p.Valid {
			signalLine[offset+i] = p
		}
	}

	for i := 0; i < n; i++ {
		m, mok := macdLine.At(i)
		s, sok := signalLine.At(i)
		if mok && sok {
			hist[i] = models.IndicatorPoint{Value: m - s, Valid: true}
		}
	}
	return macdLine, signalLine, hist
}

// bollinger computes the moving average band guarded by multiplier times the
// trailing population standard deviation.
func bollinger(closes []float64, window int, multiplier float64) (mid, upper, lower models.IndicatorSeries) {
	n := len(closes)
	mid = sma(closes, window)
	upper = make(models.IndicatorSeries, n)
	lower = make(models.IndicatorSeries, n)

	for i := window - 1; i < n; i++ {
		mean, _ := mid.At(i)
		var variance float64
		for j := i - window + 1; j <= i; j++ {
			diff := closes[j] - mean
			variance += diff * diff
		}
		variance /= float64(window)
		stddev := math.Sqrt(variance)

		upper[i] = models.IndicatorPoint{Value: mean + multiplier*stddev, Valid: true}
		lower[i] = models.IndicatorPoint{Value: mean - multiplier*stddev, Valid: true}
	}
	return mid, upper, lower
}
