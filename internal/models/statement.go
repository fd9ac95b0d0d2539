package models

// Statement line item keys. Revenue through operating income are required by
// the ratio engine; the current_* items are optional extras.
const (
	LineRevenue            = "revenue"
	LineOperatingIncome    = "operating_income"
	LineNetIncome          = "net_income"
	LineAssets             = "assets"
	LineLiabilities        = "liabilities"
	LineEquity             = "equity"
	LineCurrentAssets      = "current_assets"
	LineCurrentLiabilities = "current_liabilities"
)

// StatementSnapshot holds one reporting period's financial statement line
// items for a symbol. A zero-valued item is present; a missing key is not.
type StatementSnapshot struct {
	Symbol string             `json:"symbol"`
	Period string             `json:"period"`
	Items  map[string]float64 `json:"items"`
}

// Item returns a line item value and whether the item exists in the snapshot.
func (s StatementSnapshot) Item(name string) (float64, bool) {
	v, ok := s.Items[name]
	return v, ok
}

// Ratio names produced by the ratio engine.
const (
	RatioROE             = "roe"
	RatioROA             = "roa"
	RatioDebt            = "debt_ratio"
	RatioOperatingMargin = "operating_margin"
	RatioNetMargin       = "net_margin"
	RatioCurrent         = "current_ratio"
)

// RatioSet holds the derived ratios for one reporting period. A ratio whose
// denominator was zero, missing or nonsensical is absent from Values, never
// zero: callers must treat absence as "not computable".
type RatioSet struct {
	Symbol string             `json:"symbol"`
	Period string             `json:"period"`
	Values map[string]float64 `json:"values"`
}

// Get returns a ratio value and whether it was computable for this period.
func (r RatioSet) Get(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}
