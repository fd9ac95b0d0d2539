package dataflows

import (
	"context"
	"errors"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"

	"github.com/ityard/stocklens/internal/config"
	"github.com/ityard/stocklens/internal/models"
)

// LongportClient fetches candlesticks from the Longport OpenAPI, used for
// HK/CN listed symbols that Yahoo covers poorly.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

func NewLongportClient(cfg *config.Config) (*LongportClient, error) {
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, err
	}
	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}
	return &LongportClient{quoteCtx: quoteContext}, nil
}

func (lpc *LongportClient) Close() {
	if lpc.quoteCtx != nil {
		lpc.quoteCtx.Close()
	}
}

// GetDailyHistory fetches the last count daily candlesticks as a validated
// price series.
func (lpc *LongportClient) GetDailyHistory(ctx context.Context, symbol string, count int) (*models.PriceSeries, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	sticks, err := lpc.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, int32(count), quote.AdjustTypeNo)
	if err != nil {
		return nil, err
	}

	data := make([]*MarketData, 0, len(sticks))
	for _, stick := range sticks {
		data = append(data, &MarketData{
			Symbol:    symbol,
			Date:      time.Unix(stick.Timestamp, 0),
			Open:      *stick.Open,
			High:      *stick.High,
			Low:       *stick.Low,
			Close:     *stick.Close,
			AdjClose:  *stick.Close,
			Volume:    stick.Volume,
			FetchedAt: time.Now(),
		})
	}
	return ToPriceSeries(symbol, data)
}
