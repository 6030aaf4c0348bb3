// Package describe generates market descriptions from titles via the Gemini
// REST API. Callers treat it as best-effort; the lifecycle layer substitutes
// a fixed fallback when generation fails.
package describe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultModel = "gemini-2.5-flash"

// prompt is the instruction template sent with each title.
const prompt = `You are a financial analyst for a prediction market platform.
Write a concise, professional, and precise description (max 80 words) for a prediction market with the title: %q.

The description should:
1. Explain the context briefly.
2. Clearly define the resolution criteria (what explicitly causes the market to resolve to YES vs NO).
3. Be neutral and institutional in tone.

Do not include any intro text like "Here is the description". Just output the description text.`

// Generator is the REST client for the Gemini generateContent API.
type Generator struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGenerator creates a Gemini description generator.
//
// baseURL is the API root, e.g. "https://generativelanguage.googleapis.com".
func NewGenerator(baseURL, apiKey string) *Generator {
	return &Generator{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   defaultModel,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate returns a description for the given market title.
func (g *Generator) Generate(ctx context.Context, title string) (string, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(prompt, title)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("describe: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("describe: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("describe: generate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("describe: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("describe: generate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("describe: decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("describe: empty response")
	}

	text := strings.TrimSpace(out.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("describe: empty description")
	}
	return text, nil
}
