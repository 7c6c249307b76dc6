package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel  = "gemini-2.0-flash"
)

// GeminiClient implements the Client interface using Google's Gemini API.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiClient creates a new Gemini AI client.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		baseURL: geminiBaseURL,
		apiKey:  apiKey,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL points the client at another endpoint root.
func (g *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	g.baseURL = strings.TrimSuffix(baseURL, "/")
	return g
}

// WithModel allows changing the model (e.g., "gemini-1.5-pro")
func (g *GeminiClient) WithModel(model string) *GeminiClient {
	g.model = model
	return g
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (g *GeminiClient) callAPI(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: prompt},
				},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0.1, // Low temperature for consistent JSON output
			MaxOutputTokens:  1024,
			ResponseMIMEType: "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if geminiResp.Error != nil {
		return "", fmt.Errorf("Gemini API error: %s (code: %d)", geminiResp.Error.Message, geminiResp.Error.Code)
	}

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("Gemini API status %d", resp.StatusCode)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

// ExtractListing asks Gemini to copy each field of a job listing verbatim.
func (g *GeminiClient) ExtractListing(ctx context.Context, page ListingText) (ListingFields, error) {
	prompt := fmt.Sprintf(`You are a precise job listing field extractor.

Copy each field exactly as written on the page. Do not reformat dates or
amounts and do not guess. Use an empty string or empty list when a field
is not on the page.

Return JSON only with this exact structure:
{
  "reference": "listing reference number",
  "title": "job title",
  "employer": "hiring organisation",
  "location": "town or city",
  "salary": "salary text",
  "closing_date": "closing date text",
  "band": "grade or pay band",
  "contract_type": "contract type",
  "working_pattern": "working pattern",
  "essential": ["essential criterion"],
  "desirable": ["desirable criterion"]
}

URL: %s
Title: %s
Page text:
%s`, page.URL, page.Title, truncateText(page.Text, 6000))

	response, err := g.callAPI(ctx, prompt)
	if err != nil {
		return ListingFields{}, err
	}

	var result ListingFields
	if err := json.Unmarshal([]byte(cleanJSON(response)), &result); err != nil {
		return ListingFields{}, fmt.Errorf("failed to parse listing fields: %w (response: %s)", err, truncateText(response, 200))
	}

	return result, nil
}

// truncateText limits text to maxLen characters
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen] + "..."
}

// cleanJSON removes markdown code blocks if present
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
