package extract

import (
	"context"
	"time"

	"github.com/baxromumarov/job-autopilot/internal/ai"
	"github.com/baxromumarov/job-autopilot/internal/browser"
	"github.com/baxromumarov/job-autopilot/internal/observability"
)

// AIExtractor asks a language model for the raw field strings and then
// parses them like the heuristic stage does.
type AIExtractor struct {
	Client ai.Client
}

func (e AIExtractor) Extract(ctx context.Context, d *browser.Detail, now time.Time) (Result, error) {
	if e.Client == nil {
		return Result{}, ai.ErrUnavailable
	}
	observability.IncAICall()
	fields, err := e.Client.ExtractListing(ctx, ai.ListingText{
		URL:   d.URL,
		Title: d.Title,
		Text:  d.Text,
	})
	if err != nil {
		return Result{}, err
	}

	raw := rawFields{
		Reference:      d.Reference,
		Title:          fields.Title,
		Employer:       fields.Employer,
		Location:       fields.Location,
		Salary:         fields.Salary,
		ClosingDate:    fields.ClosingDate,
		Band:           fields.Band,
		ContractType:   fields.ContractType,
		WorkingPattern: fields.WorkingPattern,
		Essential:      fields.Essential,
		Desirable:      fields.Desirable,
	}
	if raw.Reference == "" {
		raw.Reference = fields.Reference
	}
	if raw.Title == "" {
		raw.Title = d.Title
	}
	if len(raw.Essential) == 0 {
		raw.Essential = d.Essential
	}
	if len(raw.Desirable) == 0 {
		raw.Desirable = d.Desirable
	}
	return build(raw, d, now, StageEnhanced), nil
}
