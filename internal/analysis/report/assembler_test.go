package report

import (
	"errors"
	"testing"

	"github.com/ityard/stocklens/internal/models"
)

func testIndicators(symbol string) *models.IndicatorSet {
	return &models.IndicatorSet{
		Symbol: symbol,
		Length: 3,
		Series: map[string]models.IndicatorSeries{
			models.IndicatorClose: {
				{Value: 100, Valid: true},
				{Value: 101, Valid: true},
				{Value: 102, Valid: true},
			},
		},
	}
}

func testRatios(symbol string) []models.RatioSet {
	return []models.RatioSet{{
		Symbol: symbol,
		Period: "2024Q4",
		Values: map[string]float64{models.RatioROE: 0.1},
	}}
}

func testRecommendation(symbol string) *models.Recommendation {
	return &models.Recommendation{Symbol: symbol, Label: models.ActionHold, Backend: "rule"}
}

func TestAssemble(t *testing.T) {
	charts := []models.ChartRef{{Symbol: "AAPL", Name: "price_overview", Path: "results/AAPL/price_overview.html"}}

	rep, err := Assemble(testIndicators("AAPL"), testRatios("AAPL"), testRecommendation("AAPL"), charts)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if rep.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want AAPL", rep.Symbol)
	}
	if rep.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
	if len(rep.Ratios) != 1 || len(rep.Charts) != 1 {
		t.Errorf("ratios/charts = %d/%d, want 1/1", len(rep.Ratios), len(rep.Charts))
	}
}

func TestAssembleCopiesInputs(t *testing.T) {
	indicators := testIndicators("AAPL")
	ratios := testRatios("AAPL")
	rec := testRecommendation("AAPL")

	rep, err := Assemble(indicators, ratios, rec, nil)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	indicators.Series[models.IndicatorClose][0] = models.IndicatorPoint{}
	ratios[0].Values[models.RatioROE] = -1
	rec.Label = models.ActionSell

	if got := rep.Indicators.Series[models.IndicatorClose][0]; !got.Valid || got.Value != 100 {
		t.Errorf("sealed indicator point mutated: %+v", got)
	}
	if v, _ := rep.Ratios[0].Get(models.RatioROE); v != 0.1 {
		t.Errorf("sealed ratio mutated: %v", v)
	}
	if rep.Recommendation.Label != models.ActionHold {
		t.Errorf("sealed recommendation mutated: %v", rep.Recommendation.Label)
	}
}

func TestAssembleInconsistentInputs(t *testing.T) {
	cases := []struct {
		name       string
		indicators *models.IndicatorSet
		ratios     []models.RatioSet
		rec        *models.Recommendation
		charts     []models.ChartRef
	}{
		{"nil indicators", nil, nil, testRecommendation("AAPL"), nil},
		{"nil recommendation", testIndicators("AAPL"), nil, nil, nil},
		{"symbol mismatch in recommendation", testIndicators("AAPL"), nil, testRecommendation("MSFT"), nil},
		{"symbol mismatch in ratios", testIndicators("AAPL"), testRatios("MSFT"), testRecommendation("AAPL"), nil},
		{"symbol mismatch in charts", testIndicators("AAPL"), nil, testRecommendation("AAPL"),
			[]models.ChartRef{{Symbol: "MSFT", Name: "price_overview", Path: "x.html"}}},
		{"chart without path", testIndicators("AAPL"), nil, testRecommendation("AAPL"),
			[]models.ChartRef{{Symbol: "AAPL", Name: "price_overview"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Assemble(tc.indicators, tc.ratios, tc.rec, tc.charts); !errors.Is(err, ErrInconsistentInput) {
				t.Errorf("err = %v, want ErrInconsistentInput", err)
			}
		})
	}
}
