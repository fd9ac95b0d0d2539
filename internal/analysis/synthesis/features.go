package synthesis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ityard/stocklens/internal/analysis/fundamental"
	"github.com/ityard/stocklens/internal/analysis/technical"
	"github.com/ityard/stocklens/internal/models"
)

// Config holds the signal-extraction thresholds. They are deliberately
// configuration, not constants: the cutoffs are conventions, not laws.
type Config struct {
	RSIOverbought      float64
	RSIOversold        float64
	DominanceThreshold float64
}

func DefaultConfig() Config {
	return Config{
		RSIOverbought:      70,
		RSIOversold:        30,
		DominanceThreshold: 0.6,
	}
}

// Source tags which engine a feature came from.
type Source string

const (
	SourceTechnical   Source = "technical"
	SourceFundamental Source = "fundamental"
)

// Feature is one normalized reading: Signal is in [-1, 1], positive meaning
// bullish.
type Feature struct {
	Name   string  `json:"name"`
	Source Source  `json:"source"`
	Signal float64 `json:"signal"`
	Detail string  `json:"detail"`
}

// FeatureSet is the bounded input handed to a scoring backend. Technical and
// Fundamental are the per-source composites (mean of that source's signals).
type FeatureSet struct {
	Symbol      string    `json:"symbol"`
	Features    []Feature `json:"features"`
	Technical   float64   `json:"technical"`
	Fundamental float64   `json:"fundamental"`
}

// Extract normalizes indicator statuses and ratio grades into signed
// signals. The scoring backend sees only this bounded set, never the raw
// series, which keeps backends swappable and prompts small.
func Extract(indicators *models.IndicatorSet, ratios []models.RatioSet, cfg Config) FeatureSet {
	fs := FeatureSet{Symbol: indicators.Symbol}

	summary := technical.Summarize(indicators, cfg.RSIOverbought, cfg.RSIOversold)
	fs.Features = append(fs.Features, technicalFeatures(summary)...)

	if len(ratios) > 0 {
		latest := ratios[len(ratios)-1]
		fs.Features = append(fs.Features, fundamentalFeatures(latest)...)
	}

	fs.Technical = composite(fs.Features, SourceTechnical)
	fs.Fundamental = composite(fs.Features, SourceFundamental)
	return fs
}

func technicalFeatures(summary technical.Summary) []Feature {
	var features []Feature

	add := func(name, status string, signal float64) {
		features = append(features, Feature{
			Name:   name,
			Source: SourceTechnical,
			Signal: signal,
			Detail: status,
		})
	}

	if status, ok := summary.Statuses["ma"]; ok {
		switch status {
		case technical.StatusGoldenCross:
			add("ma_cross", status, 1)
		case technical.StatusDeadCross:
			add("ma_cross", status, -1)
		default:
			add("ma_cross", status, 0)
		}
	}
	if status, ok := summary.Statuses["rsi"]; ok {
		switch status {
		case technical.StatusOversold:
			add("rsi", status, 1)
		case technical.StatusOverbought:
			add("rsi", status, -1)
		default:
			add("rsi", status, 0)
		}
	}
	if status, ok := summary.Statuses["macd"]; ok {
		switch status {
		case technical.StatusRising:
			add("macd", status, 1)
		case technical.StatusFalling:
			add("macd", status, -1)
		default:
			add("macd", status, 0)
		}
	}
	if status, ok := summary.Statuses["bollinger"]; ok {
		switch status {
		case technical.StatusOversold:
			add("bollinger", status, 1)
		case technical.StatusOverbought:
			add("bollinger", status, -1)
		default:
			add("bollinger", status, 0)
		}
	}

	return features
}

func fundamentalFeatures(latest models.RatioSet) []Feature {
	health := fundamental.AssessHealth(latest)

	names := make([]string, 0, len(health.Grades))
	for name := range health.Grades {
		names = append(names, name)
	}
	sort.Strings(names)

	var features []Feature
	for _, name := range names {
		grade := health.Grades[name]
		if grade == fundamental.GradeUnknown {
			continue
		}
		var signal float64
		switch grade {
		case fundamental.GradeGood:
			signal = 1
		case fundamental.GradeRisk:
			signal = -1
		}
		detail := string(grade)
		if v, ok := latest.Get(name); ok {
			detail = fmt.Sprintf("%.4f (%s)", v, grade)
		}
		features = append(features, Feature{
			Name:   name,
			Source: SourceFundamental,
			Signal: signal,
			Detail: detail,
		})
	}
	return features
}

func composite(features []Feature, source Source) float64 {
	var sum float64
	var n int
	for _, f := range features {
		if f.Source == source {
			sum += f.Signal
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// String renders the feature set as prompt-friendly lines.
func (fs FeatureSet) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "symbol: %s\n", fs.Symbol)
	for _, f := range fs.Features {
		fmt.Fprintf(&b, "%s/%s: signal %+.2f, %s\n", f.Source, f.Name, f.Signal, f.Detail)
	}
	fmt.Fprintf(&b, "technical composite: %+.2f\n", fs.Technical)
	fmt.Fprintf(&b, "fundamental composite: %+.2f\n", fs.Fundamental)
	return b.String()
}
