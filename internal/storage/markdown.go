package storage

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ityard/stocklens/internal/analysis/fundamental"
	"github.com/ityard/stocklens/internal/models"
)

// WriteMarkdown persists rendered content under dir/fileName.
func WriteMarkdown(dir, fileName, content string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write file %s: %w", path, err)
	}
	log.Printf("written to: %s", path)
	return nil
}

// SaveReportMarkdown renders a report to markdown under resultsDir/<symbol>/
// and returns the file path.
func SaveReportMarkdown(resultsDir string, report *models.AnalysisReport) (string, error) {
	if report == nil {
		return "", fmt.Errorf("report is required")
	}

	dir := filepath.Join(resultsDir, report.Symbol)
	fileName := fmt.Sprintf("analysis_%s.md", report.GeneratedAt.Format("20060102_150405"))
	if err := WriteMarkdown(dir, fileName, RenderMarkdown(report)); err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// RenderMarkdown produces the human-readable report document.
func RenderMarkdown(report *models.AnalysisReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s Analysis Report\n\n", report.Symbol)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	if rec := report.Recommendation; rec != nil {
		fmt.Fprintf(&b, "## Recommendation: %s\n\n", rec.Label)
		fmt.Fprintf(&b, "- Score: %+.2f\n", rec.Score)
		fmt.Fprintf(&b, "- Technical weight: %.2f, fundamental weight: %.2f\n", rec.TechnicalWeight, rec.FundamentalWeight)
		fmt.Fprintf(&b, "- Backend: %s\n\n", rec.Backend)
		if rec.Rationale != "" {
			fmt.Fprintf(&b, "%s\n\n", rec.Rationale)
		}
	}

	if report.Indicators != nil {
		b.WriteString("## Technical Snapshot\n\n")
		b.WriteString("| Indicator | Latest |\n|---|---|\n")
		names := make([]string, 0, len(report.Indicators.Series))
		for name := range report.Indicators.Series {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if v, ok := report.Indicators.Last(name); ok {
				fmt.Fprintf(&b, "| %s | %.4f |\n", name, v)
			}
		}
		b.WriteString("\n")
	}

	if len(report.Ratios) > 0 {
		b.WriteString("## Financial Ratios\n\n")
		ratioNames := collectRatioNames(report.Ratios)

		b.WriteString("| Period |")
		for _, name := range ratioNames {
			fmt.Fprintf(&b, " %s |", name)
		}
		b.WriteString("\n|---|")
		for range ratioNames {
			b.WriteString("---|")
		}
		b.WriteString("\n")

		for _, rs := range report.Ratios {
			fmt.Fprintf(&b, "| %s |", rs.Period)
			for _, name := range ratioNames {
				if v, ok := rs.Get(name); ok {
					fmt.Fprintf(&b, " %.4f |", v)
				} else {
					b.WriteString(" n/a |")
				}
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")

		health := fundamental.AssessHealth(report.Ratios[len(report.Ratios)-1])
		fmt.Fprintf(&b, "Overall financial health: **%s**\n\n", health.Overall)
	}

	if len(report.Charts) > 0 {
		b.WriteString("## Charts\n\n")
		for _, ref := range report.Charts {
			fmt.Fprintf(&b, "- [%s](%s)\n", ref.Name, ref.Path)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func collectRatioNames(ratios []models.RatioSet) []string {
	nameSet := make(map[string]bool)
	for _, rs := range ratios {
		for name := range rs.Values {
			nameSet[name] = true
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
