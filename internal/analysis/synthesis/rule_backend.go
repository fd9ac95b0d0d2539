package synthesis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/ityard/stocklens/internal/models"
)

// RuleBackend scores deterministically from the composites. It is the
// default backend and keeps the pipeline usable without any API key.
type RuleBackend struct {
	// BuyThreshold and SellThreshold bound the neutral zone for the
	// combined composite. Zero values fall back to ±0.2.
	BuyThreshold  float64
	SellThreshold float64
}

func (b *RuleBackend) Name() string { return "rule" }

func (b *RuleBackend) Score(_ context.Context, features FeatureSet) (Scored, error) {
	buy := b.BuyThreshold
	if buy == 0 {
		buy = 0.2
	}
	sell := b.SellThreshold
	if sell == 0 {
		sell = -0.2
	}

	combined := (features.Technical + features.Fundamental) / 2

	label := models.ActionHold
	switch {
	case combined >= buy:
		label = models.ActionBuy
	case combined <= sell:
		label = models.ActionSell
	}

	var drivers []string
	for _, f := range features.Features {
		if f.Signal != 0 {
			direction := "bullish"
			if f.Signal < 0 {
				direction = "bearish"
			}
			drivers = append(drivers, fmt.Sprintf("%s %s (%s)", direction, f.Name, f.Detail))
		}
	}
	rationale := fmt.Sprintf("combined score %+.2f (technical %+.2f, fundamental %+.2f)",
		combined, features.Technical, features.Fundamental)
	if len(drivers) > 0 {
		rationale += "; drivers: " + strings.Join(drivers, ", ")
	}

	return Scored{
		Label:      label,
		Rationale:  rationale,
		Confidence: math.Min(1, math.Abs(combined)+0.5),
	}, nil
}
