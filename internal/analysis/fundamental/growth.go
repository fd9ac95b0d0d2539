package fundamental

import "github.com/ityard/stocklens/internal/models"

// Growth rate names.
const (
	GrowthRevenue         = "revenue_growth"
	GrowthOperatingIncome = "operating_income_growth"
	GrowthNetIncome       = "net_income_growth"
)

// GrowthSet holds period-over-period growth rates for one reporting period,
// expressed as fractions (0.10 = 10%). Same absence policy as ratios: a rate
// whose prior-period base is zero, negative or missing is absent.
type GrowthSet struct {
	Symbol string             `json:"symbol"`
	Period string             `json:"period"`
	Values map[string]float64 `json:"values"`
}

var growthItems = map[string]string{
	GrowthRevenue:         models.LineRevenue,
	GrowthOperatingIncome: models.LineOperatingIncome,
	GrowthNetIncome:       models.LineNetIncome,
}

// Growth derives period-over-period growth across a snapshot history. The
// first period has no base and produces no entry.
func Growth(history []models.StatementSnapshot) []GrowthSet {
	sets := make([]GrowthSet, 0, len(history))
	for i := 1; i < len(history); i++ {
		prev, curr := history[i-1], history[i]
		set := GrowthSet{
			Symbol: curr.Symbol,
			Period: curr.Period,
			Values: make(map[string]float64),
		}
		for name, item := range growthItems {
			base, bok := prev.Item(item)
			value, vok := curr.Item(item)
			if !bok || !vok || base <= 0 {
				continue
			}
			set.Values[name] = value/base - 1
		}
		sets = append(sets, set)
	}
	return sets
}
