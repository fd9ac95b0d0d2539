package models

import "time"

// Action is the recommendation label.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// Recommendation is the synthesized outcome for one symbol. Score is the
// combined signal in [-1, 1]; TechnicalWeight and FundamentalWeight are the
// composite magnitudes each engine contributed. Immutable once produced.
type Recommendation struct {
	Symbol            string  `json:"symbol"`
	Label             Action  `json:"label"`
	Score             float64 `json:"score"`
	Rationale         string  `json:"rationale"`
	TechnicalWeight   float64 `json:"technical_weight"`
	FundamentalWeight float64 `json:"fundamental_weight"`
	Backend           string  `json:"backend"`
}

// ChartRef points at a rendered chart artifact on disk. Reports carry
// references, never raw bytes.
type ChartRef struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Path   string `json:"path"`
}

// AnalysisReport is the terminal object of one analysis run. It is sealed by
// the report assembler and never mutated afterwards.
type AnalysisReport struct {
	Symbol         string          `json:"symbol"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Indicators     *IndicatorSet   `json:"indicators"`
	Ratios         []RatioSet      `json:"ratios"`
	Recommendation *Recommendation `json:"recommendation"`
	Charts         []ChartRef      `json:"charts"`
}
