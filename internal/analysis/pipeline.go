package analysis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ityard/stocklens/internal/analysis/chart"
	"github.com/ityard/stocklens/internal/analysis/fundamental"
	"github.com/ityard/stocklens/internal/analysis/report"
	"github.com/ityard/stocklens/internal/analysis/synthesis"
	"github.com/ityard/stocklens/internal/analysis/technical"
	"github.com/ityard/stocklens/internal/config"
	"github.com/ityard/stocklens/internal/models"
)

// Request is one analysis run: a validated price series and the statement
// history for the same symbol. History may be empty; charts are optional.
type Request struct {
	Symbol  string
	Series  *models.PriceSeries
	History []models.StatementSnapshot
}

// Pipeline wires the engines together: indicators and ratios run
// concurrently, then scoring and chart rendering run concurrently, then the
// assembler seals the report.
type Pipeline struct {
	technical technical.Config
	synthesis *synthesis.Engine
	renderer  *chart.Renderer
}

// NewPipeline builds a pipeline from config. A nil renderer disables chart
// artifacts; reports then carry no chart references.
func NewPipeline(cfg *config.Config, backend synthesis.Backend, renderer *chart.Renderer) *Pipeline {
	return &Pipeline{
		technical: technicalConfig(cfg),
		synthesis: synthesis.NewEngine(backend, synthesisConfig(cfg), cfg.BackendTimeout),
		renderer:  renderer,
	}
}

func technicalConfig(cfg *config.Config) technical.Config {
	return technical.Config{
		SMAWindows:      cfg.SMAWindows,
		RSIWindow:       cfg.RSIWindow,
		MACDFast:        cfg.MACDFast,
		MACDSlow:        cfg.MACDSlow,
		MACDSignal:      cfg.MACDSignal,
		BollingerWindow: cfg.BollingerWindow,
		BollingerStdDev: cfg.BollingerStdDev,
	}
}

func synthesisConfig(cfg *config.Config) synthesis.Config {
	return synthesis.Config{
		RSIOverbought:      cfg.RSIOverbought,
		RSIOversold:        cfg.RSIOversold,
		DominanceThreshold: cfg.DominanceThreshold,
	}
}

// Run executes one analysis end to end. Engine failures abort the run; a
// run never produces a partial report.
func (p *Pipeline) Run(ctx context.Context, req Request) (*models.AnalysisReport, error) {
	if req.Series == nil {
		return nil, fmt.Errorf("pipeline: request for %s has no price series", req.Symbol)
	}
	if req.Symbol != "" && req.Series.Symbol != req.Symbol {
		return nil, fmt.Errorf("pipeline: request symbol %s but series for %s", req.Symbol, req.Series.Symbol)
	}
	symbol := req.Series.Symbol
	started := time.Now()

	// Stage one: the two engines read disjoint inputs.
	var (
		wg         sync.WaitGroup
		indicators *models.IndicatorSet
		indErr     error
		ratios     []models.RatioSet
		ratioErr   error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		indicators, indErr = technical.Compute(req.Series, p.technical)
	}()
	go func() {
		defer wg.Done()
		if len(req.History) > 0 {
			ratios, ratioErr = fundamental.Compute(req.History)
		}
	}()
	wg.Wait()
	if indErr != nil {
		return nil, fmt.Errorf("pipeline: indicators for %s: %w", symbol, indErr)
	}
	if ratioErr != nil {
		return nil, fmt.Errorf("pipeline: ratios for %s: %w", symbol, ratioErr)
	}

	// Stage two: scoring and rendering only read the stage-one outputs, so
	// they can overlap. The backend call dominates the wall clock here.
	var (
		rec      *models.Recommendation
		recErr   error
		charts   []models.ChartRef
		chartErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		rec, recErr = p.synthesis.Synthesize(ctx, indicators, ratios)
	}()
	go func() {
		defer wg.Done()
		if p.renderer != nil {
			charts, chartErr = p.renderer.RenderAll(req.Series, indicators, ratios)
		}
	}()
	wg.Wait()
	if recErr != nil {
		return nil, fmt.Errorf("pipeline: synthesis for %s: %w", symbol, recErr)
	}
	if chartErr != nil {
		return nil, fmt.Errorf("pipeline: charts for %s: %w", symbol, chartErr)
	}

	rep, err := report.Assemble(indicators, ratios, rec, charts)
	if err != nil {
		return nil, fmt.Errorf("pipeline: assemble for %s: %w", symbol, err)
	}

	log.Printf("pipeline: %s analyzed in %s (%s via %s backend)", symbol, time.Since(started).Round(time.Millisecond), rec.Label, rec.Backend)
	return rep, nil
}
