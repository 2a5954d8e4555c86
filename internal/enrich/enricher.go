// Package enrich abstracts the external natural-language service the match
// engine leans on for query parsing, narrative generation and persona
// embeddings. Every method is independently fallible; callers own the
// fallback. The capability is resolved once from config (API key presence)
// rather than re-derived per call site.
package enrich

import (
	"context"
	"errors"

	"github.com/kindling-app/kindling/internal/scoring"
)

// ErrUnavailable is returned by every method of the Unavailable enricher and
// by the client when the upstream cannot be reached in time.
var ErrUnavailable = errors.New("enrichment service unavailable")

// ParsedQuery is the structured filter set inferred from a free-text search
// query. Nil fields were not inferred.
type ParsedQuery struct {
	AgeMin           *int
	AgeMax           *int
	HeightMinCm      *int
	City             *string
	RelationshipGoal *string

	Prefs *scoring.AIPreferences
}

// ProfileSummary is the compact profile view handed to the narrative
// generator.
type ProfileSummary struct {
	Name      string
	Age       int
	Bio       string
	Interests []string
	Traits    []string
}

// Narrative is the rich match explanation for one on-grid candidate.
type Narrative struct {
	Summary    string
	Highlights []string
	Openers    []string
}

// Enricher is the persona-enrichment capability.
type Enricher interface {
	// Available reports whether the capability is configured at all.
	// When false, callers skip straight to their deterministic path.
	Available() bool

	ParseQuery(ctx context.Context, text string) (*ParsedQuery, error)
	Narrate(ctx context.Context, seeker, candidate ProfileSummary, score int) (*Narrative, error)
	// QuickReason is the cheaper second-tier reason generator used when
	// Narrate fails.
	QuickReason(ctx context.Context, seeker, candidate ProfileSummary, score int) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
	AnalyzePersonality(ctx context.Context, answers []string) (string, error)
	CheckSelfieAge(ctx context.Context, imageURL string) (int, error)
}

// Unavailable is the explicit no-capability variant.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }

func (Unavailable) ParseQuery(context.Context, string) (*ParsedQuery, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Narrate(context.Context, ProfileSummary, ProfileSummary, int) (*Narrative, error) {
	return nil, ErrUnavailable
}

func (Unavailable) QuickReason(context.Context, ProfileSummary, ProfileSummary, int) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrUnavailable
}

func (Unavailable) AnalyzePersonality(context.Context, []string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) CheckSelfieAge(context.Context, string) (int, error) {
	return 0, ErrUnavailable
}
