package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

// ErrUnavailable is returned by clients that have no model behind them.
var ErrUnavailable = errors.New("ai provider unavailable")

// Client reads the raw field strings of a job listing out of free page text.
// It never interprets them; parsing stays with the deterministic extractor.
type Client interface {
	ExtractListing(ctx context.Context, page ListingText) (ListingFields, error)
}

// NewClient returns a client for provider. Supported providers: "gemini"
// (chosen automatically when apiKey is set) and "none".
func NewClient(provider, apiKey, model string) Client {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		if apiKey != "" {
			provider = "gemini"
		} else {
			provider = "none"
		}
	}

	switch provider {
	case "gemini":
		if apiKey == "" {
			slog.Warn("ai provider gemini selected without GEMINI_API_KEY, heuristic extraction only")
			return DisabledClient{}
		}
		slog.Info("ai extraction enabled", "provider", "gemini", "model", model)
		c := NewGeminiClient(apiKey)
		if model != "" {
			c.WithModel(model)
		}
		return c
	default:
		slog.Info("ai extraction disabled, heuristic extraction only")
		return DisabledClient{}
	}
}

// ListingText is what the model sees of one detail page.
type ListingText struct {
	URL   string
	Title string
	Text  string
}

// ListingFields holds verbatim snippets for each field, empty when absent.
type ListingFields struct {
	Reference      string   `json:"reference"`
	Title          string   `json:"title"`
	Employer       string   `json:"employer"`
	Location       string   `json:"location"`
	Salary         string   `json:"salary"`
	ClosingDate    string   `json:"closing_date"`
	Band           string   `json:"band"`
	ContractType   string   `json:"contract_type"`
	WorkingPattern string   `json:"working_pattern"`
	Essential      []string `json:"essential"`
	Desirable      []string `json:"desirable"`
}

// DisabledClient always reports ErrUnavailable.
type DisabledClient struct{}

func (DisabledClient) ExtractListing(ctx context.Context, page ListingText) (ListingFields, error) {
	return ListingFields{}, ErrUnavailable
}
