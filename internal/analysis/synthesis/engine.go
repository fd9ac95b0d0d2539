package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/ityard/stocklens/internal/models"
)

// ErrBackendUnavailable reports that the scoring backend did not deliver a
// usable result in time. No recommendation is produced in that case.
var ErrBackendUnavailable = errors.New("scoring backend unavailable")

// Scored is a backend's verdict over a feature set.
type Scored struct {
	Label      models.Action
	Rationale  string
	Confidence float64
}

// Backend scores a bounded feature set. Implementations must treat the
// feature set as read-only.
type Backend interface {
	Name() string
	Score(ctx context.Context, features FeatureSet) (Scored, error)
}

// Engine runs feature extraction, delegates scoring to a backend with a
// deadline, and applies the conflict rule on the result.
type Engine struct {
	backend Backend
	cfg     Config
	timeout time.Duration
}

func NewEngine(backend Backend, cfg Config, timeout time.Duration) *Engine {
	return &Engine{backend: backend, cfg: cfg, timeout: timeout}
}

type scoreResult struct {
	scored Scored
	err    error
}

// Synthesize produces a recommendation for the symbol, or
// ErrBackendUnavailable when the backend times out or fails.
func (e *Engine) Synthesize(ctx context.Context, indicators *models.IndicatorSet, ratios []models.RatioSet) (*models.Recommendation, error) {
	if indicators == nil {
		return nil, fmt.Errorf("synthesize: indicator set is nil")
	}

	features := Extract(indicators, ratios, e.cfg)

	sctx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	// The backend may not honor the context, so run it on its own
	// goroutine and race it against the deadline.
	ch := make(chan scoreResult, 1)
	go func() {
		scored, err := e.backend.Score(sctx, features)
		ch <- scoreResult{scored: scored, err: err}
	}()

	var scored Scored
	select {
	case <-sctx.Done():
		log.Printf("synthesis: backend %s did not answer: %v", e.backend.Name(), sctx.Err())
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, sctx.Err())
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, res.err)
		}
		scored = res.scored
	}

	switch scored.Label {
	case models.ActionBuy, models.ActionHold, models.ActionSell:
	default:
		return nil, fmt.Errorf("%w: backend %s returned label %q", ErrBackendUnavailable, e.backend.Name(), scored.Label)
	}

	label := scored.Label
	rationale := scored.Rationale
	if conflicted, winner := e.resolveConflict(features); conflicted {
		if winner == "" {
			label = models.ActionHold
			rationale = fmt.Sprintf("technical (%+.2f) and fundamental (%+.2f) signals disagree without a dominant side; holding. %s",
				features.Technical, features.Fundamental, rationale)
		}
	}

	return &models.Recommendation{
		Symbol:            features.Symbol,
		Label:             label,
		Score:             (features.Technical + features.Fundamental) / 2,
		Rationale:         rationale,
		TechnicalWeight:   math.Abs(features.Technical),
		FundamentalWeight: math.Abs(features.Fundamental),
		Backend:           e.backend.Name(),
	}, nil
}

// resolveConflict reports whether the two composites point in opposite
// directions, and which source dominates if its magnitude exceeds the
// other's by at least the configured threshold.
func (e *Engine) resolveConflict(features FeatureSet) (conflicted bool, winner Source) {
	if features.Technical == 0 || features.Fundamental == 0 {
		return false, ""
	}
	if (features.Technical > 0) == (features.Fundamental > 0) {
		return false, ""
	}
	diff := math.Abs(features.Technical) - math.Abs(features.Fundamental)
	switch {
	case diff >= e.cfg.DominanceThreshold:
		return true, SourceTechnical
	case -diff >= e.cfg.DominanceThreshold:
		return true, SourceFundamental
	default:
		return true, ""
	}
}
