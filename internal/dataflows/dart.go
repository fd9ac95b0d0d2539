package dataflows

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ityard/stocklens/internal/config"
	"github.com/ityard/stocklens/internal/models"
)

// DartClient fetches financial statements from the DART open API (the
// Korean regulator's filing system).
type DartClient struct {
	client *resty.Client
	cache  *CacheManager
	apiKey string
}

func NewDartClient(cfg *config.Config) *DartClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "dart")

	client := resty.New()
	client.SetBaseURL(cfg.DartBaseURL)
	client.SetTimeout(30 * time.Second)

	return &DartClient{
		client: client,
		cache:  NewCacheManager(cacheDir, 24*time.Hour, cfg.CacheEnabled),
		apiKey: cfg.DartAPIKey,
	}
}

// Report codes for the annual and quarterly filings.
const (
	ReportAnnual = "11011"
	ReportHalf   = "11012"
	ReportQ1     = "11013"
	ReportQ3     = "11014"
)

type dartAccount struct {
	AccountName  string `json:"account_nm"`
	FsDiv        string `json:"fs_div"`
	CurrentValue string `json:"thstrm_amount"`
}

type dartResponse struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	List    []dartAccount `json:"list"`
}

// accountNames maps DART account names to statement line items. Filings
// label accounts in Korean regardless of the request language.
var accountNames = map[string]string{
	"매출액":   models.LineRevenue,
	"영업이익":  models.LineOperatingIncome,
	"당기순이익": models.LineNetIncome,
	"자산총계":  models.LineAssets,
	"부채총계":  models.LineLiabilities,
	"자본총계":  models.LineEquity,
	"유동자산":  models.LineCurrentAssets,
	"유동부채":  models.LineCurrentLiabilities,
}

// GetStatements fetches annual statement snapshots for the given fiscal
// years, oldest first. Years with no filing are skipped.
func (dc *DartClient) GetStatements(symbol, corpCode string, years []int) ([]models.StatementSnapshot, error) {
	if dc.apiKey == "" {
		return nil, fmt.Errorf("DART API key not configured")
	}
	if corpCode == "" {
		return nil, fmt.Errorf("corp code required for %s", symbol)
	}

	sorted := append([]int(nil), years...)
	sort.Ints(sorted)

	history := make([]models.StatementSnapshot, 0, len(sorted))
	for _, year := range sorted {
		snapshot, err := dc.getAnnualStatement(symbol, corpCode, year)
		if err != nil {
			return nil, err
		}
		if snapshot != nil {
			history = append(history, *snapshot)
		}
	}
	return history, nil
}

func (dc *DartClient) getAnnualStatement(symbol, corpCode string, year int) (*models.StatementSnapshot, error) {
	cacheKey := map[string]interface{}{"corp": corpCode, "year": year, "report": ReportAnnual}
	var cached models.StatementSnapshot
	if dc.cache.Get("dart", "statement", cacheKey, &cached) {
		return &cached, nil
	}

	var parsed dartResponse
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := dc.client.R().
			SetQueryParams(map[string]string{
				"crtfc_key":  dc.apiKey,
				"corp_code":  corpCode,
				"bsns_year":  strconv.Itoa(year),
				"reprt_code": ReportAnnual,
			}).
			Get("/fnlttSinglAcnt.json")
		if err != nil {
			return fmt.Errorf("fetch statements for %s (%d): %w", symbol, year, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("DART API error %d: %s", resp.StatusCode(), resp.String())
		}
		return json.Unmarshal(resp.Body(), &parsed)
	})
	if err != nil {
		return nil, err
	}

	// 013 is "no data" for the requested period.
	if parsed.Status == "013" {
		return nil, nil
	}
	if parsed.Status != "000" {
		return nil, fmt.Errorf("DART API status %s: %s", parsed.Status, parsed.Message)
	}

	snapshot := &models.StatementSnapshot{
		Symbol: symbol,
		Period: fmt.Sprintf("%dFY", year),
		Items:  make(map[string]float64),
	}
	fill(snapshot.Items, parsed.List, "CFS")
	if len(snapshot.Items) == 0 {
		// No consolidated statement filed; fall back to the standalone one.
		fill(snapshot.Items, parsed.List, "OFS")
	}
	if len(snapshot.Items) == 0 {
		return nil, nil
	}

	dc.cache.Set("dart", "statement", cacheKey, snapshot)
	return snapshot, nil
}

func fill(items map[string]float64, accounts []dartAccount, fsDiv string) {
	for _, account := range accounts {
		if account.FsDiv != fsDiv {
			continue
		}
		name, ok := accountNames[strings.TrimSpace(account.AccountName)]
		if !ok {
			continue
		}
		if v, err := parseAmount(account.CurrentValue); err == nil {
			items[name] = v
		}
	}
}

// parseAmount handles the comma-grouped integers DART reports amounts as.
func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, fmt.Errorf("empty amount")
	}
	return strconv.ParseFloat(s, 64)
}
