package extract

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/ai"
	"github.com/baxromumarov/job-autopilot/internal/browser"
	"github.com/baxromumarov/job-autopilot/internal/observability"
)

// Pipeline runs the enhanced extractor and hands off to the heuristic one
// when the enhanced stage errors or cannot produce a record.
type Pipeline struct {
	Enhanced *AIExtractor
	Fallback HeuristicExtractor
}

func NewPipeline(enhanced *AIExtractor) *Pipeline {
	return &Pipeline{Enhanced: enhanced}
}

func (p *Pipeline) Extract(ctx context.Context, d *browser.Detail, now time.Time) Result {
	if d == nil {
		return p.Fallback.Extract(d, now)
	}
	if p.Enhanced != nil {
		res, err := p.Enhanced.Extract(ctx, d, now)
		switch {
		case err == nil && res.OK():
			return res
		case err != nil:
			if !errors.Is(err, ai.ErrUnavailable) {
				observability.IncError(observability.ErrorAI, "extract")
			}
			slog.Debug("enhanced extraction unavailable, using heuristics", "url", d.URL, "error", err)
		default:
			slog.Debug("enhanced extraction failed, using heuristics", "url", d.URL, "field", res.Failure.Field)
		}
		observability.IncAIFallback()
	}

	res := p.Fallback.Extract(d, now)
	if !res.OK() {
		observability.IncExtractionFailure(res.Failure.Field)
	}
	return res
}
