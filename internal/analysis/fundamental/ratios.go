package fundamental

import (
	"errors"
	"fmt"

	"github.com/ityard/stocklens/internal/models"
)

// ErrMissingField is returned when a required line item is entirely absent
// from a snapshot's schema. A zero-valued item is present and valid.
var ErrMissingField = errors.New("missing statement field")

// requiredItems must exist in every snapshot. The current_* items are
// optional and only unlock the current ratio when both are present.
var requiredItems = []string{
	models.LineRevenue,
	models.LineOperatingIncome,
	models.LineNetIncome,
	models.LineAssets,
	models.LineLiabilities,
	models.LineEquity,
}

// Compute derives one RatioSet per snapshot, preserving period order. A
// ratio whose denominator is zero, missing or negative is left absent rather
// than recorded as zero or raised as an error; absence means "not
// computable" and nothing else. The computation holds no state: identical
// input always yields identical output.
func Compute(history []models.StatementSnapshot) ([]models.RatioSet, error) {
	sets := make([]models.RatioSet, 0, len(history))
	for _, snap := range history {
		set, err := computeOne(snap)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, nil
}

func computeOne(snap models.StatementSnapshot) (models.RatioSet, error) {
	for _, name := range requiredItems {
		if _, ok := snap.Item(name); !ok {
			return models.RatioSet{}, fmt.Errorf("%w: %s period %s lacks %q",
				ErrMissingField, snap.Symbol, snap.Period, name)
		}
	}

	set := models.RatioSet{
		Symbol: snap.Symbol,
		Period: snap.Period,
		Values: make(map[string]float64),
	}

	netIncome, _ := snap.Item(models.LineNetIncome)
	revenue, _ := snap.Item(models.LineRevenue)
	operatingIncome, _ := snap.Item(models.LineOperatingIncome)
	equity, _ := snap.Item(models.LineEquity)
	assets, _ := snap.Item(models.LineAssets)
	liabilities, _ := snap.Item(models.LineLiabilities)

	putRatio(set.Values, models.RatioROE, netIncome, equity)
	putRatio(set.Values, models.RatioROA, netIncome, assets)
	putRatio(set.Values, models.RatioDebt, liabilities, assets)
	putRatio(set.Values, models.RatioOperatingMargin, operatingIncome, revenue)
	putRatio(set.Values, models.RatioNetMargin, netIncome, revenue)

	currentAssets, aok := snap.Item(models.LineCurrentAssets)
	currentLiabilities, lok := snap.Item(models.LineCurrentLiabilities)
	if aok && lok {
		putRatio(set.Values, models.RatioCurrent, currentAssets, currentLiabilities)
	}

	return set, nil
}

// putRatio records numerator/denominator only when the denominator is a
// sensible positive amount for these balance-sheet and income ratios.
func putRatio(values map[string]float64, name string, numerator, denominator float64) {
	if denominator <= 0 {
		return
	}
	values[name] = numerator / denominator
}
