package dataflows

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ityard/stocklens/internal/models"
)

// MarketData is one raw daily bar as fetched from a provider. Prices stay
// decimal until the bar is handed to the analysis layer.
type MarketData struct {
	Symbol    string          `json:"symbol"`
	Date      time.Time       `json:"date"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	AdjClose  decimal.Decimal `json:"adj_close"`
	Volume    int64           `json:"volume"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// ToPriceSeries sorts raw bars by date, drops duplicate days and converts
// to the validated series the engines consume.
func ToPriceSeries(symbol string, data []*MarketData) (*models.PriceSeries, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no market data for %s", symbol)
	}

	sorted := make([]*MarketData, len(data))
	copy(sorted, data)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	bars := make([]models.Bar, 0, len(sorted))
	var lastDay string
	for _, md := range sorted {
		day := md.Date.Format("2006-01-02")
		if day == lastDay {
			continue
		}
		lastDay = day

		open, _ := md.Open.Float64()
		high, _ := md.High.Float64()
		low, _ := md.Low.Float64()
		close, _ := md.Close.Float64()
		bars = append(bars, models.Bar{
			Timestamp: md.Date,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    md.Volume,
		})
	}

	return models.NewPriceSeries(symbol, bars)
}
