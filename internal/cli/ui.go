package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ityard/stocklens/internal/analysis/fundamental"
	"github.com/ityard/stocklens/internal/config"
	"github.com/ityard/stocklens/internal/models"
	"github.com/ityard/stocklens/internal/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	buyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	sellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	holdStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B"))

	reportBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)
)

func DisplayBanner() {
	fmt.Println(titleStyle.Render("stocklens " + version))
}

func labelStyle(action models.Action) lipgloss.Style {
	switch action {
	case models.ActionBuy:
		return buyStyle
	case models.ActionSell:
		return sellStyle
	default:
		return holdStyle
	}
}

// RenderReport renders a sealed report for the terminal.
func RenderReport(report *models.AnalysisReport) string {
	var b strings.Builder

	rec := report.Recommendation
	fmt.Fprintf(&b, "%s  %s\n\n",
		sectionStyle.Render(report.Symbol),
		labelStyle(rec.Label).Render(string(rec.Label)))
	fmt.Fprintf(&b, "Score %+.2f via %s backend (technical %.2f / fundamental %.2f)\n\n",
		rec.Score, rec.Backend, rec.TechnicalWeight, rec.FundamentalWeight)
	if rec.Rationale != "" {
		b.WriteString(rec.Rationale)
		b.WriteString("\n\n")
	}

	if report.Indicators != nil {
		b.WriteString(sectionStyle.Render("Technical") + "\n")
		names := make([]string, 0, len(report.Indicators.Series))
		for name := range report.Indicators.Series {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if v, ok := report.Indicators.Last(name); ok {
				fmt.Fprintf(&b, "  %-16s %12.4f\n", name, v)
			}
		}
		b.WriteString("\n")
	}

	if len(report.Ratios) > 0 {
		latest := report.Ratios[len(report.Ratios)-1]
		health := fundamental.AssessHealth(latest)

		fmt.Fprintf(&b, "%s (%s, overall %s)\n", sectionStyle.Render("Fundamental"), latest.Period, health.Overall)
		names := make([]string, 0, len(latest.Values))
		for name := range latest.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v, _ := latest.Get(name)
			fmt.Fprintf(&b, "  %-16s %12.4f  %s\n", name, v, health.Grades[name])
		}
		b.WriteString("\n")
	}

	if len(report.Charts) > 0 {
		b.WriteString(sectionStyle.Render("Charts") + "\n")
		for _, ref := range report.Charts {
			fmt.Fprintf(&b, "  %-16s %s\n", ref.Name, ref.Path)
		}
		b.WriteString("\n")
	}

	return reportBoxStyle.Render(b.String()) + "\n"
}

// RenderGrowth renders period-over-period growth rates under the report.
func RenderGrowth(sets []fundamental.GrowthSet) string {
	if len(sets) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render("Growth") + "\n")
	for _, set := range sets {
		fmt.Fprintf(&b, "  %s:", set.Period)
		names := make([]string, 0, len(set.Values))
		for name := range set.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		if len(names) == 0 {
			b.WriteString(" n/a")
		}
		for _, name := range names {
			fmt.Fprintf(&b, " %s %+.1f%%", strings.TrimSuffix(name, "_growth"), set.Values[name]*100)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderRunHistory renders persisted runs as a table.
func RenderRunHistory(runs []storage.RunRecord) string {
	if len(runs) == 0 {
		return infoStyle.Render("No persisted runs.") + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-6s %7s %-10s %s\n", "SYMBOL", "LABEL", "SCORE", "BACKEND", "GENERATED")
	for _, run := range runs {
		fmt.Fprintf(&b, "%-10s %s %7.2f %-10s %s\n",
			run.Symbol,
			labelStyle(models.Action(run.Label)).Render(fmt.Sprintf("%-6s", run.Label)),
			run.Score, run.Backend, run.GeneratedAt)
	}
	return b.String()
}

// RenderConfig shows the effective configuration, with secrets masked.
func RenderConfig(cfg *config.Config) string {
	mask := func(s string) string {
		if s == "" {
			return "(unset)"
		}
		return "****"
	}

	var b strings.Builder
	b.WriteString(sectionStyle.Render("Configuration") + "\n")
	fmt.Fprintf(&b, "  results dir:        %s\n", cfg.ResultsDir)
	fmt.Fprintf(&b, "  data dir:           %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "  scoring backend:    %s\n", cfg.ScoringBackend)
	fmt.Fprintf(&b, "  backend timeout:    %s\n", cfg.BackendTimeout)
	fmt.Fprintf(&b, "  openai key:         %s\n", mask(cfg.OpenAIAPIKey))
	fmt.Fprintf(&b, "  deepseek key:       %s\n", mask(cfg.DeepSeekAPIKey))
	fmt.Fprintf(&b, "  dart key:           %s\n", mask(cfg.DartAPIKey))
	fmt.Fprintf(&b, "  longport key:       %s\n", mask(cfg.LongportAppKey))
	fmt.Fprintf(&b, "  sma windows:        %v\n", cfg.SMAWindows)
	fmt.Fprintf(&b, "  rsi window:         %d (cutoffs %.0f/%.0f)\n", cfg.RSIWindow, cfg.RSIOverbought, cfg.RSIOversold)
	fmt.Fprintf(&b, "  macd:               %d/%d/%d\n", cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	fmt.Fprintf(&b, "  bollinger:          %d @ %.1f stddev\n", cfg.BollingerWindow, cfg.BollingerStdDev)
	fmt.Fprintf(&b, "  cache enabled:      %v\n", cfg.CacheEnabled)
	return b.String()
}
