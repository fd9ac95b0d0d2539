package cli

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ityard/stocklens/internal/analysis"
	"github.com/ityard/stocklens/internal/analysis/chart"
	"github.com/ityard/stocklens/internal/analysis/fundamental"
	"github.com/ityard/stocklens/internal/analysis/synthesis"
	"github.com/ityard/stocklens/internal/config"
	"github.com/ityard/stocklens/internal/dataflows"
	"github.com/ityard/stocklens/internal/debug"
	"github.com/ityard/stocklens/internal/models"
	"github.com/ityard/stocklens/internal/storage"
)

const version = "0.3.0"

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cfg := config.LoadFromEnv()

	rootCmd := &cobra.Command{
		Use:   "stocklens",
		Short: "stocklens - stock analysis and synthesis pipeline",
		Long: `stocklens runs a full analysis pipeline for a stock symbol: technical
indicators over daily OHLCV, financial ratios over statement filings, a
synthesized recommendation, charts and a markdown report.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debugFlag, _ := cmd.Flags().GetBool("debug"); debugFlag {
				cfg.Debug = true
			}
			return cfg.EnsureDirectories()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol, err := PromptForTicker()
			if err != nil {
				return err
			}
			days, err := PromptForLookbackDays()
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cfg, symbol, analyzeOptions{days: days, charts: true, save: true})
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

type analyzeOptions struct {
	days     int
	charts   bool
	save     bool
	corpCode string
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run the analysis pipeline for a stock symbol",
		Long: `Run the full analysis pipeline for a ticker symbol.
Example: stocklens analyze AAPL --days 250`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cfg, args[0], opts)
		},
	}

	cmd.Flags().IntVar(&opts.days, "days", 250, "Calendar days of price history to analyze")
	cmd.Flags().BoolVar(&opts.charts, "charts", true, "Render chart artifacts")
	cmd.Flags().BoolVar(&opts.save, "save", true, "Persist the report to markdown and sqlite")
	cmd.Flags().StringVar(&opts.corpCode, "corp-code", "", "DART corp code for statement filings")

	return cmd
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [SYMBOL]",
		Short: "List persisted analysis runs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := ""
			if len(args) == 1 {
				symbol = dataflows.NormalizeSymbol(args[0])
			}

			store, err := storage.Open(filepath.Join(cfg.DataDir, "stocklens.db"))
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), symbol, limit)
			if err != nil {
				return err
			}
			fmt.Print(RenderRunHistory(runs))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(RenderConfig(cfg))
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := config.NewManager(config.WithInitialConfig(cfg))
			if err != nil {
				return err
			}
			fmt.Println(infoStyle.Render("Config file at " + manager.Path()))
			return nil
		},
	})

	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stocklens v%s\n", version)
		},
	}
}

func runAnalyze(ctx context.Context, cfg *config.Config, symbol string, opts analyzeOptions) error {
	if err := dataflows.ValidateSymbol(symbol); err != nil {
		return err
	}
	symbol = dataflows.NormalizeSymbol(symbol)
	if opts.days <= 0 {
		opts.days = 250
	}

	DisplayBanner()
	fmt.Println(infoStyle.Render(fmt.Sprintf("Analyzing %s over the last %d days...", symbol, opts.days)))

	debugger := debug.NewEinoDebugger(cfg)
	if err := debugger.Initialize(); err != nil {
		log.Printf("cli: eino debug unavailable: %v", err)
	}

	backend, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}

	provider := dataflows.NewMarketProvider(cfg)
	defer provider.Close()

	series, err := provider.GetDailyHistory(ctx, symbol, opts.days)
	if err != nil {
		return fmt.Errorf("fetch price history for %s: %w", symbol, err)
	}

	history := fetchStatements(cfg, symbol, opts.corpCode)

	var renderer *chart.Renderer
	if opts.charts {
		renderer = chart.NewRenderer(cfg.ResultsDir)
	}

	pipeline := analysis.NewPipeline(cfg, backend, renderer)
	report, err := pipeline.Run(ctx, analysis.Request{
		Symbol:  symbol,
		Series:  series,
		History: history,
	})
	if err != nil {
		return err
	}

	fmt.Print(RenderReport(report))
	if len(history) > 1 {
		fmt.Print(RenderGrowth(fundamental.Growth(history)))
	}

	if opts.save {
		if path, err := storage.SaveReportMarkdown(cfg.ResultsDir, report); err != nil {
			log.Printf("cli: save markdown: %v", err)
		} else {
			fmt.Println(infoStyle.Render("Report written to " + path))
		}

		store, err := storage.Open(filepath.Join(cfg.DataDir, "stocklens.db"))
		if err != nil {
			log.Printf("cli: open run store: %v", err)
		} else {
			defer store.Close()
			if id, err := store.SaveReport(ctx, report); err != nil {
				log.Printf("cli: persist run: %v", err)
			} else if cfg.Debug {
				log.Printf("cli: persisted run %s", id)
			}
		}
	}

	return nil
}

// buildBackend picks the scoring backend from config: the deterministic
// rule backend by default, an LLM backend when configured with a key.
func buildBackend(ctx context.Context, cfg *config.Config) (synthesis.Backend, error) {
	switch cfg.ScoringBackend {
	case "", "rule":
		return &synthesis.RuleBackend{}, nil
	case "openai", "deepseek":
		return synthesis.NewLLMBackend(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown scoring backend %q (want rule, openai or deepseek)", cfg.ScoringBackend)
	}
}

// fetchStatements tries DART first, then the HTML scraper. An empty history
// is not an error: the pipeline degrades to technical-only synthesis.
func fetchStatements(cfg *config.Config, symbol, corpCode string) []models.StatementSnapshot {
	if cfg.DartAPIKey != "" && corpCode != "" {
		dart := dataflows.NewDartClient(cfg)
		years := recentFiscalYears(3)
		history, err := dart.GetStatements(symbol, corpCode, years)
		if err == nil && len(history) > 0 {
			return history
		}
		if err != nil {
			log.Printf("cli: DART statements for %s: %v", symbol, err)
		}
	}

	if cfg.FundamentalURL != "" {
		scraper := dataflows.NewStatementScraperClient(cfg)
		history, err := scraper.GetStatements(symbol)
		if err == nil {
			return history
		}
		log.Printf("cli: scraped statements for %s: %v", symbol, err)
	}

	log.Printf("cli: no statement source for %s, running technical-only", symbol)
	return nil
}

func recentFiscalYears(n int) []int {
	// The current year's annual filing does not exist yet.
	current := time.Now().Year()
	years := make([]int, 0, n)
	for y := current - n; y < current; y++ {
		years = append(years, y)
	}
	return years
}
