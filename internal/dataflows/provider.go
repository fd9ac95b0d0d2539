package dataflows

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ityard/stocklens/internal/config"
	"github.com/ityard/stocklens/internal/models"
)

// MarketProvider hands out validated price series, picking the venue by
// symbol suffix and keeping a short-lived in-memory cache in front of the
// providers' own file caches.
type MarketProvider struct {
	yahoo    *YahooFinanceClient
	longport *LongportClient

	mu     sync.RWMutex
	series map[string]*cachedSeries
	ttl    time.Duration
}

type cachedSeries struct {
	series    *models.PriceSeries
	fetchedAt time.Time
}

func NewMarketProvider(cfg *config.Config) *MarketProvider {
	p := &MarketProvider{
		yahoo:  NewYahooFinanceClient(cfg),
		series: make(map[string]*cachedSeries),
		ttl:    5 * time.Minute,
	}

	// Longport is optional; without credentials everything routes to Yahoo.
	if lp, err := NewLongportClient(cfg); err == nil {
		p.longport = lp
	} else {
		log.Printf("dataflows: longport disabled: %v", err)
	}
	return p
}

// GetDailyHistory returns at most `days` daily bars for the symbol.
func (p *MarketProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*models.PriceSeries, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)
	key := fmt.Sprintf("%s-%d", symbol, days)

	p.mu.RLock()
	if cached, ok := p.series[key]; ok && time.Since(cached.fetchedAt) <= p.ttl {
		p.mu.RUnlock()
		return cached.series, nil
	}
	p.mu.RUnlock()

	series, err := p.fetch(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.series[key] = &cachedSeries{series: series, fetchedAt: time.Now()}
	p.mu.Unlock()
	return series, nil
}

func (p *MarketProvider) fetch(ctx context.Context, symbol string, days int) (*models.PriceSeries, error) {
	if p.longport != nil && isAsiaListed(symbol) {
		series, err := p.longport.GetDailyHistory(ctx, symbol, days)
		if err == nil {
			return series, nil
		}
		log.Printf("dataflows: longport fetch for %s failed, falling back to yahoo: %v", symbol, err)
	}
	return p.yahoo.GetDailyHistory(symbol, days)
}

// ClearCache drops the in-memory layer; file caches are ttl-governed.
func (p *MarketProvider) ClearCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.series = make(map[string]*cachedSeries)
}

func (p *MarketProvider) Close() {
	if p.longport != nil {
		p.longport.Close()
	}
}

func isAsiaListed(symbol string) bool {
	for _, suffix := range []string{".HK", ".SH", ".SZ"} {
		if strings.HasSuffix(symbol, suffix) {
			return true
		}
	}
	return false
}
