package models

import (
	"fmt"
	"time"
)

// Bar is a single OHLCV trading period.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// PriceSeries is an ordered OHLCV series for one symbol. Timestamps are
// strictly increasing; the series is not mutated after construction.
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// NewPriceSeries validates bar ordering and returns an immutable series.
func NewPriceSeries(symbol string, bars []Bar) (*PriceSeries, error) {
	if symbol == "" {
		return nil, fmt.Errorf("price series requires a symbol")
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return nil, fmt.Errorf("price series for %s not strictly increasing at index %d (%s then %s)",
				symbol, i, bars[i-1].Timestamp.Format("2006-01-02"), bars[i].Timestamp.Format("2006-01-02"))
		}
	}
	copied := make([]Bar, len(bars))
	copy(copied, bars)
	return &PriceSeries{Symbol: symbol, Bars: copied}, nil
}

func (s *PriceSeries) Len() int {
	return len(s.Bars)
}

// Closes returns the close column in series order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// IndicatorPoint is one indicator reading. Valid is false where the lookback
// window is not yet met; Value must not be read when Valid is false.
type IndicatorPoint struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// IndicatorSeries is aligned to its source PriceSeries: same length, same
// index domain, leading invalid points while the window warms up.
type IndicatorSeries []IndicatorPoint

// Last returns the final reading, false when the series is empty or the
// final point is still inside the warmup window.
func (s IndicatorSeries) Last() (float64, bool) {
	if len(s) == 0 || !s[len(s)-1].Valid {
		return 0, false
	}
	return s[len(s)-1].Value, true
}

// At returns the reading at index i, false when undefined.
func (s IndicatorSeries) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) || !s[i].Valid {
		return 0, false
	}
	return s[i].Value, true
}

// IndicatorSet maps indicator names to aligned series for one symbol.
// Every series has exactly Length entries.
type IndicatorSet struct {
	Symbol string                     `json:"symbol"`
	Length int                        `json:"length"`
	Series map[string]IndicatorSeries `json:"series"`
}

// Last returns the final defined value of the named indicator.
func (set *IndicatorSet) Last(name string) (float64, bool) {
	s, ok := set.Series[name]
	if !ok {
		return 0, false
	}
	return s.Last()
}

// Names of the indicator series a default configuration produces. SMA and
// RSI names are derived from their windows (sma_5, sma_20, rsi_14, ...).
const (
	IndicatorClose          = "close"
	IndicatorMACD           = "macd"
	IndicatorMACDSignal     = "macd_signal"
	IndicatorMACDHist       = "macd_hist"
	IndicatorBollingerMid   = "bollinger_middle"
	IndicatorBollingerUpper = "bollinger_upper"
	IndicatorBollingerLower = "bollinger_lower"
)

// SMAName returns the series name for a simple moving average window.
func SMAName(window int) string {
	return fmt.Sprintf("sma_%d", window)
}

// RSIName returns the series name for an RSI window.
func RSIName(window int) string {
	return fmt.Sprintf("rsi_%d", window)
}
