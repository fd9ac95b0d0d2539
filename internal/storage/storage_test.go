package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ityard/stocklens/internal/models"
)

func sampleReport(symbol string, generatedAt time.Time) *models.AnalysisReport {
	return &models.AnalysisReport{
		Symbol:      symbol,
		GeneratedAt: generatedAt,
		Indicators: &models.IndicatorSet{
			Symbol: symbol,
			Length: 2,
			Series: map[string]models.IndicatorSeries{
				models.IndicatorClose: {{Value: 100, Valid: true}, {Value: 101, Valid: true}},
				models.SMAName(5):     {{Valid: false}, {Valid: false}},
			},
		},
		Ratios: []models.RatioSet{
			{Symbol: symbol, Period: "2023FY", Values: map[string]float64{models.RatioROE: 0.09, models.RatioDebt: 0.4}},
			{Symbol: symbol, Period: "2024FY", Values: map[string]float64{models.RatioROE: 0.11}},
		},
		Recommendation: &models.Recommendation{
			Symbol:    symbol,
			Label:     models.ActionBuy,
			Score:     0.42,
			Rationale: "steady margins with improving momentum",
			Backend:   "rule",
		},
		Charts: []models.ChartRef{{Symbol: symbol, Name: "price_overview", Path: "results/price_overview.html"}},
	}
}

func TestStoreSaveListGet(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "stocklens.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	idA, err := store.SaveReport(ctx, sampleReport("AAPL", base))
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if _, err := store.SaveReport(ctx, sampleReport("AAPL", base.Add(time.Hour))); err != nil {
		t.Fatalf("SaveReport second run: %v", err)
	}
	if _, err := store.SaveReport(ctx, sampleReport("MSFT", base)); err != nil {
		t.Fatalf("SaveReport other symbol: %v", err)
	}

	runs, err := store.ListRuns(ctx, "AAPL", 10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs for AAPL, want 2", len(runs))
	}
	if runs[0].GeneratedAt < runs[1].GeneratedAt {
		t.Error("runs not ordered newest first")
	}

	all, err := store.ListRuns(ctx, "", 10)
	if err != nil {
		t.Fatalf("ListRuns all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("got %d runs total, want 3", len(all))
	}

	loaded, err := store.GetReport(ctx, idA)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if loaded.Recommendation.Label != models.ActionBuy {
		t.Errorf("label = %v, want BUY", loaded.Recommendation.Label)
	}
	if len(loaded.Ratios) != 2 {
		t.Errorf("got %d ratio sets, want 2", len(loaded.Ratios))
	}

	if _, err := store.GetReport(ctx, "missing"); err == nil {
		t.Error("expected error for unknown run id")
	}
}

func TestRenderMarkdown(t *testing.T) {
	report := sampleReport("AAPL", time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC))
	doc := RenderMarkdown(report)

	for _, want := range []string{
		"# AAPL Analysis Report",
		"## Recommendation: BUY",
		"steady margins with improving momentum",
		"| close | 101.0000 |",
		"| 2024FY |",
		"n/a",
		"[price_overview](results/price_overview.html)",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	// sma_5 has no defined value in the fixture and must not be listed
	if strings.Contains(doc, "| sma_5 |") {
		t.Error("markdown lists an indicator with no defined value")
	}
}

func TestSaveReportMarkdown(t *testing.T) {
	dir := t.TempDir()
	report := sampleReport("AAPL", time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC))

	path, err := SaveReportMarkdown(dir, report)
	if err != nil {
		t.Fatalf("SaveReportMarkdown: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "AAPL") {
		t.Errorf("path = %q, want under %s/AAPL", path, dir)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rendered report: %v", err)
	}
	if !strings.Contains(string(data), "## Recommendation: BUY") {
		t.Error("rendered file missing the recommendation section")
	}
}
