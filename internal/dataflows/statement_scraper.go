package dataflows

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/ityard/stocklens/internal/config"
	"github.com/ityard/stocklens/internal/models"
)

// StatementScraperClient scrapes statement snapshots from an HTML financial
// summary page. It is the fallback when no DART key is configured; the page
// URL comes from config so tests can point it at a fixture server.
type StatementScraperClient struct {
	client  *resty.Client
	cache   *CacheManager
	pageURL string
}

func NewStatementScraperClient(cfg *config.Config) *StatementScraperClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "statement_scraper")

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; stocklens/1.0)")

	return &StatementScraperClient{
		client:  client,
		cache:   NewCacheManager(cacheDir, 12*time.Hour, cfg.CacheEnabled),
		pageURL: cfg.FundamentalURL,
	}
}

// GetStatements scrapes the summary table for a symbol. The expected layout
// is one table row per line item: a header cell naming the item and one data
// cell per period, with a header row listing the period labels.
func (sc *StatementScraperClient) GetStatements(symbol string) ([]models.StatementSnapshot, error) {
	if sc.pageURL == "" {
		return nil, fmt.Errorf("fundamental page URL not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached []models.StatementSnapshot
	if sc.cache.Get("scraper", "statements", symbol, &cached) {
		return cached, nil
	}

	// Only the fetch retries; a page that parses badly will parse badly
	// again on the next attempt too.
	var body string
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := sc.client.R().SetQueryParam("symbol", symbol).Get(sc.pageURL)
		if err != nil {
			return fmt.Errorf("fetch financial summary for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("HTTP error %d when fetching financial summary", resp.StatusCode())
		}
		body = resp.String()
		return nil
	})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse financial summary HTML: %w", err)
	}
	result, err := parseStatementTable(doc, symbol)
	if err != nil {
		return nil, err
	}

	sc.cache.Set("scraper", "statements", symbol, result)
	return result, nil
}

func parseStatementTable(doc *goquery.Document, symbol string) ([]models.StatementSnapshot, error) {
	table := doc.Find("table.financial-summary").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no financial summary table for %s", symbol)
	}

	var periods []string
	table.Find("thead th").Each(func(i int, cell *goquery.Selection) {
		if i == 0 {
			return
		}
		periods = append(periods, strings.TrimSpace(cell.Text()))
	})
	if len(periods) == 0 {
		return nil, fmt.Errorf("financial summary table for %s has no period columns", symbol)
	}

	snapshots := make([]models.StatementSnapshot, len(periods))
	for i, period := range periods {
		snapshots[i] = models.StatementSnapshot{
			Symbol: symbol,
			Period: period,
			Items:  make(map[string]float64),
		}
	}

	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.TrimSpace(row.Find("th").First().Text())
		name, ok := accountNames[label]
		if !ok {
			name, ok = englishLineNames[strings.ToLower(label)]
		}
		if !ok {
			return
		}
		row.Find("td").Each(func(i int, cell *goquery.Selection) {
			if i >= len(snapshots) {
				return
			}
			if v, err := parseAmount(cell.Text()); err == nil {
				snapshots[i].Items[name] = v
			}
		})
	})

	// Drop period columns that held no parsable values.
	result := snapshots[:0]
	for _, snapshot := range snapshots {
		if len(snapshot.Items) > 0 {
			result = append(result, snapshot)
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("financial summary table for %s has no recognizable line items", symbol)
	}
	return result, nil
}

var englishLineNames = map[string]string{
	"revenue":             models.LineRevenue,
	"operating income":    models.LineOperatingIncome,
	"net income":          models.LineNetIncome,
	"total assets":        models.LineAssets,
	"total liabilities":   models.LineLiabilities,
	"total equity":        models.LineEquity,
	"current assets":      models.LineCurrentAssets,
	"current liabilities": models.LineCurrentLiabilities,
}
