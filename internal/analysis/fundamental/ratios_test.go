package fundamental

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ityard/stocklens/internal/models"
)

func snapshot(period string, items map[string]float64) models.StatementSnapshot {
	return models.StatementSnapshot{Symbol: "005930.KS", Period: period, Items: items}
}

func baseItems() map[string]float64 {
	return map[string]float64{
		models.LineNetIncome:       100,
		models.LineEquity:          1000,
		models.LineAssets:          2000,
		models.LineLiabilities:     800,
		models.LineOperatingIncome: 150,
		models.LineRevenue:         1000,
	}
}

func TestComputeRatios(t *testing.T) {
	sets, err := Compute([]models.StatementSnapshot{snapshot("2023", baseItems())})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("got %d ratio sets, want 1", len(sets))
	}

	want := map[string]float64{
		models.RatioROE:             0.10,
		models.RatioROA:             0.05,
		models.RatioDebt:            0.40,
		models.RatioOperatingMargin: 0.15,
		models.RatioNetMargin:       0.10,
	}
	for name, w := range want {
		got, ok := sets[0].Get(name)
		if !ok {
			t.Fatalf("%s absent, want %v", name, w)
		}
		if math.Abs(got-w) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, w)
		}
	}

	// No current_assets/current_liabilities in the snapshot.
	if _, ok := sets[0].Get(models.RatioCurrent); ok {
		t.Error("current_ratio present without current line items")
	}
}

func TestZeroEquityLeavesROEAbsent(t *testing.T) {
	items := baseItems()
	items[models.LineEquity] = 0

	sets, err := Compute([]models.StatementSnapshot{snapshot("2023", items)})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if _, ok := sets[0].Get(models.RatioROE); ok {
		t.Fatal("roe present with zero equity, want absent")
	}
	// The other ratios are unaffected.
	if got, ok := sets[0].Get(models.RatioROA); !ok || math.Abs(got-0.05) > 1e-9 {
		t.Errorf("roa = %v (%v), want 0.05", got, ok)
	}
	if got, ok := sets[0].Get(models.RatioDebt); !ok || math.Abs(got-0.40) > 1e-9 {
		t.Errorf("debt_ratio = %v (%v), want 0.40", got, ok)
	}
	if got, ok := sets[0].Get(models.RatioOperatingMargin); !ok || math.Abs(got-0.15) > 1e-9 {
		t.Errorf("operating_margin = %v (%v), want 0.15", got, ok)
	}
}

func TestNegativeDenominatorLeavesRatioAbsent(t *testing.T) {
	items := baseItems()
	items[models.LineEquity] = -500

	sets, err := Compute([]models.StatementSnapshot{snapshot("2023", items)})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if _, ok := sets[0].Get(models.RatioROE); ok {
		t.Fatal("roe present with negative equity, want absent")
	}
}

func TestZeroNumeratorIsPresent(t *testing.T) {
	items := baseItems()
	items[models.LineNetIncome] = 0

	sets, err := Compute([]models.StatementSnapshot{snapshot("2023", items)})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	got, ok := sets[0].Get(models.RatioROE)
	if !ok || got != 0 {
		t.Fatalf("roe = %v (%v), want present zero for zero net income", got, ok)
	}
}

func TestMissingFieldError(t *testing.T) {
	items := baseItems()
	delete(items, models.LineEquity)

	_, err := Compute([]models.StatementSnapshot{snapshot("2023", items)})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("got %v, want ErrMissingField", err)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	history := []models.StatementSnapshot{
		snapshot("2022", baseItems()),
		snapshot("2023", baseItems()),
	}

	first, err := Compute(history)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	second, err := Compute(history)
	if err != nil {
		t.Fatalf("Compute (second): %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated computation over the same history diverged")
	}
}

func TestGrowth(t *testing.T) {
	prev := baseItems()
	curr := baseItems()
	curr[models.LineRevenue] = 1100
	curr[models.LineNetIncome] = 90
	curr[models.LineOperatingIncome] = 150

	sets := Growth([]models.StatementSnapshot{snapshot("2022", prev), snapshot("2023", curr)})
	if len(sets) != 1 {
		t.Fatalf("got %d growth sets, want 1", len(sets))
	}

	if got, ok := sets[0].Values[GrowthRevenue]; !ok || math.Abs(got-0.10) > 1e-9 {
		t.Errorf("revenue growth = %v (%v), want 0.10", got, ok)
	}
	if got, ok := sets[0].Values[GrowthNetIncome]; !ok || math.Abs(got-(-0.10)) > 1e-9 {
		t.Errorf("net income growth = %v (%v), want -0.10", got, ok)
	}
	if got, ok := sets[0].Values[GrowthOperatingIncome]; !ok || got != 0 {
		t.Errorf("operating income growth = %v (%v), want 0", got, ok)
	}
}

func TestGrowthZeroBaseAbsent(t *testing.T) {
	prev := baseItems()
	prev[models.LineNetIncome] = 0

	sets := Growth([]models.StatementSnapshot{snapshot("2022", prev), snapshot("2023", baseItems())})
	if _, ok := sets[0].Values[GrowthNetIncome]; ok {
		t.Fatal("net income growth present with zero base, want absent")
	}
}

func TestAssessHealth(t *testing.T) {
	sets, err := Compute([]models.StatementSnapshot{snapshot("2023", baseItems())})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	health := AssessHealth(sets[0])
	if health.Grades[models.RatioDebt] != GradeGood {
		t.Errorf("debt grade = %s, want good", health.Grades[models.RatioDebt])
	}
	if health.Grades[models.RatioOperatingMargin] != GradeGood {
		t.Errorf("operating margin grade = %s, want good", health.Grades[models.RatioOperatingMargin])
	}
	if health.Overall != GradeGood {
		t.Errorf("overall = %s, want good", health.Overall)
	}
}

func TestAssessHealthRollUp(t *testing.T) {
	set := models.RatioSet{
		Symbol: "005930.KS",
		Period: "2023",
		Values: map[string]float64{
			models.RatioDebt:            0.9,  // risk
			models.RatioOperatingMargin: 0.02, // risk
			models.RatioROE:             0.2,  // good
		},
	}
	health := AssessHealth(set)
	if health.Overall != GradeRisk {
		t.Fatalf("overall = %s, want risk with two risk grades", health.Overall)
	}

	set.Values[models.RatioOperatingMargin] = 0.08 // caution
	health = AssessHealth(set)
	if health.Overall != GradeCaution {
		t.Fatalf("overall = %s, want caution with one risk grade", health.Overall)
	}
}

func TestAssessHealthUnknownExcluded(t *testing.T) {
	set := models.RatioSet{
		Symbol: "005930.KS",
		Period: "2023",
		Values: map[string]float64{
			models.RatioDebt: 0.3, // good; roe and operating margin absent
		},
	}
	health := AssessHealth(set)
	if health.Grades[models.RatioROE] != GradeUnknown {
		t.Errorf("roe grade = %s, want unknown", health.Grades[models.RatioROE])
	}
	if health.Overall != GradeGood {
		t.Errorf("overall = %s, want good when unknowns are excluded", health.Overall)
	}
}
