package synthesis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ityard/stocklens/internal/models"
)

type stubBackend struct {
	scored Scored
	err    error
	delay  time.Duration
}

func (s *stubBackend) Name() string { return "stub" }

func (s *stubBackend) Score(_ context.Context, _ FeatureSet) (Scored, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.scored, s.err
}

func flatSeries(length int, v float64) models.IndicatorSeries {
	pts := make(models.IndicatorSeries, length)
	for i := range pts {
		pts[i] = models.IndicatorPoint{Value: v, Valid: true}
	}
	return pts
}

// indicatorFixture builds a set whose latest readings produce the wanted
// statuses directly, without running the math over a price series.
func indicatorFixture(close, smaShort, smaLong, rsi, macdHist, bollUpper, bollLower float64) *models.IndicatorSet {
	const n = 40
	return &models.IndicatorSet{
		Symbol: "TEST",
		Length: n,
		Series: map[string]models.IndicatorSeries{
			models.IndicatorClose:          flatSeries(n, close),
			models.SMAName(5):              flatSeries(n, smaShort),
			models.SMAName(20):             flatSeries(n, smaLong),
			"rsi_14":                       flatSeries(n, rsi),
			models.IndicatorMACDHist:       flatSeries(n, macdHist),
			models.IndicatorBollingerUpper: flatSeries(n, bollUpper),
			models.IndicatorBollingerLower: flatSeries(n, bollLower),
		},
	}
}

func bullishIndicators() *models.IndicatorSet {
	// golden cross and positive histogram, RSI and bands neutral: +0.5
	return indicatorFixture(110, 108, 100, 55, 0.5, 120, 90)
}

func stronglyBearishIndicators() *models.IndicatorSet {
	// dead cross, overbought RSI, negative histogram, close above the
	// upper band: every technical signal at -1
	return indicatorFixture(125, 95, 100, 75, -0.5, 120, 90)
}

func ratioFixture(debt, operatingMargin, roe float64) []models.RatioSet {
	return []models.RatioSet{{
		Symbol: "TEST",
		Period: "2024Q4",
		Values: map[string]float64{
			models.RatioDebt:            debt,
			models.RatioOperatingMargin: operatingMargin,
			models.RatioROE:             roe,
		},
	}}
}

func goodRatios() []models.RatioSet  { return ratioFixture(0.30, 0.15, 0.12) }
func riskRatios() []models.RatioSet  { return ratioFixture(0.90, 0.01, 0.01) }
func mixedRatios() []models.RatioSet { return ratioFixture(0.30, 0.01, 0.12) }

func TestExtractComposites(t *testing.T) {
	fs := Extract(bullishIndicators(), goodRatios(), DefaultConfig())

	if fs.Symbol != "TEST" {
		t.Errorf("symbol = %q, want TEST", fs.Symbol)
	}
	if fs.Technical != 0.5 {
		t.Errorf("technical composite = %v, want 0.5", fs.Technical)
	}
	if fs.Fundamental != 1 {
		t.Errorf("fundamental composite = %v, want 1", fs.Fundamental)
	}
}

func TestSynthesizeAgreement(t *testing.T) {
	backend := &stubBackend{scored: Scored{Label: models.ActionBuy, Rationale: "strong setup"}}
	engine := NewEngine(backend, DefaultConfig(), time.Second)

	rec, err := engine.Synthesize(context.Background(), bullishIndicators(), goodRatios())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if rec.Label != models.ActionBuy {
		t.Errorf("label = %v, want BUY", rec.Label)
	}
	if rec.Backend != "stub" {
		t.Errorf("backend = %q, want stub", rec.Backend)
	}
	if rec.Score != 0.75 {
		t.Errorf("score = %v, want 0.75", rec.Score)
	}
	if rec.TechnicalWeight != 0.5 || rec.FundamentalWeight != 1 {
		t.Errorf("weights = %v/%v, want 0.5/1", rec.TechnicalWeight, rec.FundamentalWeight)
	}
}

func TestConflictWithoutDominanceHolds(t *testing.T) {
	// technical fully bearish, fundamentals fully healthy: neither side
	// dominates, so the backend's BUY is overridden to HOLD
	backend := &stubBackend{scored: Scored{Label: models.ActionBuy, Rationale: "backend says buy"}}
	engine := NewEngine(backend, DefaultConfig(), time.Second)

	rec, err := engine.Synthesize(context.Background(), stronglyBearishIndicators(), goodRatios())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if rec.Label != models.ActionHold {
		t.Errorf("label = %v, want HOLD on conflict", rec.Label)
	}
	if !strings.Contains(rec.Rationale, "disagree") {
		t.Errorf("rationale %q should mention the disagreement", rec.Rationale)
	}
}

func TestConflictWithDominanceKeepsBackendLabel(t *testing.T) {
	// technical at -1 against a +1/3 fundamental composite: the technical
	// side dominates by more than the threshold, so the label stands
	backend := &stubBackend{scored: Scored{Label: models.ActionSell, Rationale: "momentum broken"}}
	engine := NewEngine(backend, DefaultConfig(), time.Second)

	rec, err := engine.Synthesize(context.Background(), stronglyBearishIndicators(), mixedRatios())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if rec.Label != models.ActionSell {
		t.Errorf("label = %v, want SELL under dominance", rec.Label)
	}
}

func TestSynthesizeBackendTimeout(t *testing.T) {
	backend := &stubBackend{
		scored: Scored{Label: models.ActionBuy},
		delay:  200 * time.Millisecond,
	}
	engine := NewEngine(backend, DefaultConfig(), 20*time.Millisecond)

	rec, err := engine.Synthesize(context.Background(), bullishIndicators(), goodRatios())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	if rec != nil {
		t.Errorf("recommendation = %+v, want nil on timeout", rec)
	}
}

func TestSynthesizeBackendError(t *testing.T) {
	backend := &stubBackend{err: errors.New("connection refused")}
	engine := NewEngine(backend, DefaultConfig(), time.Second)

	_, err := engine.Synthesize(context.Background(), bullishIndicators(), goodRatios())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestSynthesizeRejectsUnknownLabel(t *testing.T) {
	backend := &stubBackend{scored: Scored{Label: "MAYBE"}}
	engine := NewEngine(backend, DefaultConfig(), time.Second)

	_, err := engine.Synthesize(context.Background(), bullishIndicators(), goodRatios())
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestRuleBackendThresholds(t *testing.T) {
	backend := &RuleBackend{}
	ctx := context.Background()

	buy, err := backend.Score(ctx, Extract(bullishIndicators(), goodRatios(), DefaultConfig()))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if buy.Label != models.ActionBuy {
		t.Errorf("bullish label = %v, want BUY", buy.Label)
	}

	sell, err := backend.Score(ctx, Extract(stronglyBearishIndicators(), riskRatios(), DefaultConfig()))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if sell.Label != models.ActionSell {
		t.Errorf("bearish label = %v, want SELL", sell.Label)
	}

	hold, err := backend.Score(ctx, Extract(stronglyBearishIndicators(), goodRatios(), DefaultConfig()))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if hold.Label != models.ActionHold {
		t.Errorf("balanced label = %v, want HOLD", hold.Label)
	}
}

func TestParseVerdict(t *testing.T) {
	scored, err := parseVerdict("BUY\nearnings momentum with cheap valuation")
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if scored.Label != models.ActionBuy {
		t.Errorf("label = %v, want BUY", scored.Label)
	}
	if scored.Rationale != "earnings momentum with cheap valuation" {
		t.Errorf("rationale = %q", scored.Rationale)
	}

	scored, err = parseVerdict("**SELL**\novervalued")
	if err != nil {
		t.Fatalf("parseVerdict with markdown: %v", err)
	}
	if scored.Label != models.ActionSell {
		t.Errorf("label = %v, want SELL", scored.Label)
	}

	if _, err := parseVerdict("I would lean towards buying."); err == nil {
		t.Error("expected error for answer without a leading verdict")
	}
	if _, err := parseVerdict(""); err == nil {
		t.Error("expected error for empty answer")
	}
}
