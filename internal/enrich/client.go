package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kindling-app/kindling/internal/config"
)

// Client calls the enrichment API over HTTP. Every call carries a bounded
// timeout so a slow upstream degrades into the caller's fallback instead of
// hanging the user request.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// FromConfig resolves the capability once: with no API key configured it
// returns the explicit Unavailable variant.
func FromConfig(cfg *config.Config) Enricher {
	if cfg.Enrich.APIKey == "" {
		return Unavailable{}
	}
	return &Client{
		apiKey:  cfg.Enrich.APIKey,
		baseURL: cfg.Enrich.BaseURL,
		http:    &http.Client{Timeout: cfg.Enrich.Timeout},
	}
}

func (c *Client) Available() bool { return true }

// post sends a JSON request and decodes the JSON response into out.
func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) ParseQuery(ctx context.Context, text string) (*ParsedQuery, error) {
	var out ParsedQuery
	if err := c.post(ctx, "/v1/query/parse", map[string]string{"text": text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Narrate(ctx context.Context, seeker, candidate ProfileSummary, score int) (*Narrative, error) {
	in := map[string]any{"seeker": seeker, "candidate": candidate, "score": score}
	var out Narrative
	if err := c.post(ctx, "/v1/match/narrate", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) QuickReason(ctx context.Context, seeker, candidate ProfileSummary, score int) (string, error) {
	in := map[string]any{"seeker": seeker, "candidate": candidate, "score": score}
	var out struct {
		Reason string `json:"reason"`
	}
	if err := c.post(ctx, "/v1/match/reason", in, &out); err != nil {
		return "", err
	}
	return out.Reason, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var out struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := c.post(ctx, "/v1/embeddings", map[string]string{"input": text}, &out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

func (c *Client) AnalyzePersonality(ctx context.Context, answers []string) (string, error) {
	var out struct {
		Summary string `json:"summary"`
	}
	if err := c.post(ctx, "/v1/personality", map[string]any{"answers": answers}, &out); err != nil {
		return "", err
	}
	return out.Summary, nil
}

func (c *Client) CheckSelfieAge(ctx context.Context, imageURL string) (int, error) {
	var out struct {
		Age int `json:"age"`
	}
	if err := c.post(ctx, "/v1/selfie/age", map[string]string{"image_url": imageURL}, &out); err != nil {
		return 0, err
	}
	return out.Age, nil
}

// Narration fallback used by the match engine when even QuickReason fails.
const GenericMatchReason = "You two might really hit it off."

// BestReason runs the two-tier narrative fallback and always returns a
// non-empty narrative within the given deadline.
func BestReason(ctx context.Context, e Enricher, seeker, candidate ProfileSummary, score int, timeout time.Duration) Narrative {
	if e == nil || !e.Available() {
		return Narrative{Summary: GenericMatchReason}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if n, err := e.Narrate(ctx, seeker, candidate, score); err == nil && n != nil && n.Summary != "" {
		return *n
	}
	if reason, err := e.QuickReason(ctx, seeker, candidate, score); err == nil && reason != "" {
		return Narrative{Summary: reason}
	}
	return Narrative{Summary: GenericMatchReason}
}
