package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kindling-app/kindling/internal/scoring"
)

func boolPtr(b bool) *bool { return &b }

// TestScoreDeterministic ensures the same input always produces the same
// percentage.
func TestScoreDeterministic(t *testing.T) {
	in := scoring.Input{
		Query:              "loves hiking and photography",
		SeekerInterests:    []string{"hiking", "coffee"},
		SeekerTraits:       []string{"kind"},
		CandidateInterests: []string{"hiking", "travel"},
		CandidateTraits:    []string{"kind", "funny"},
	}
	first := scoring.Score(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scoring.Score(in))
	}
}

// TestScoreBaseline checks that a candidate with zero signal lands on the
// documented baseline instead of collapsing to the floor.
func TestScoreBaseline(t *testing.T) {
	// no seeker data at all: baselines 20+20+10 over 100 active weight
	assert.Equal(t, 50, scoring.Score(scoring.Input{}))
}

func TestScoreFullOverlap(t *testing.T) {
	in := scoring.Input{
		SeekerInterests:    []string{"hiking", "coffee"},
		SeekerTraits:       []string{"kind", "funny"},
		CandidateInterests: []string{"Hiking", "Coffee"},
		CandidateTraits:    []string{"KIND", "funny"},
	}
	// 40 + 40 + keyword baseline 10 over 100
	assert.Equal(t, 90, scoring.Score(in))
}

func TestScoreKeywordMatch(t *testing.T) {
	in := scoring.Input{
		Query:              "hiking",
		CandidateInterests: []string{"hiking"},
	}
	// interest/trait baselines 20+20 plus a full keyword hit 20
	assert.Equal(t, 60, scoring.Score(in))
}

// TestScoreShortTokensIgnored checks that tokens of three characters or
// fewer never count as keywords.
func TestScoreShortTokensIgnored(t *testing.T) {
	withQuery := scoring.Score(scoring.Input{Query: "fun gym a b"})
	assert.Equal(t, scoring.Score(scoring.Input{}), withQuery)
}

func TestScoreEmbeddingSimilarity(t *testing.T) {
	base := scoring.Input{
		SeekerInterests:    []string{"hiking"},
		SeekerTraits:       []string{"kind"},
		CandidateInterests: []string{"hiking"},
		CandidateTraits:    []string{"kind"},
	}

	identical := base
	identical.SeekerEmbedding = []float32{1, 0, 2}
	identical.CandidateEmbedding = []float32{1, 0, 2}
	// (40+40+10+15) / 115
	assert.Equal(t, 91, scoring.Score(identical))

	// negative similarity contributes nothing but still widens the denominator
	opposed := base
	opposed.SeekerEmbedding = []float32{1, 0}
	opposed.CandidateEmbedding = []float32{-1, 0}
	assert.Equal(t, 78, scoring.Score(opposed))

	// one-sided vectors keep the term out entirely
	oneSided := base
	oneSided.SeekerEmbedding = []float32{1, 0}
	assert.Equal(t, 90, scoring.Score(oneSided))
}

func TestScoreAIPreferenceBonuses(t *testing.T) {
	in := scoring.Input{
		Prefs: &scoring.AIPreferences{
			InterestOverlap: boolPtr(true),
			TraitOverlap:    boolPtr(true),
			ValuesOverlap:   boolPtr(true),
			Lifestyle:       []string{"active"},
		},
	}
	// baselines 50 plus all bonuses 15, over 115
	assert.Equal(t, 57, scoring.Score(in))

	// nil pointers keep the weights out of the denominator
	assert.Equal(t, 50, scoring.Score(scoring.Input{Prefs: &scoring.AIPreferences{}}))
}

// TestScoreBounds exercises both clamps.
func TestScoreBounds(t *testing.T) {
	// everything misses: floor at 1
	low := scoring.Score(scoring.Input{
		Query:              "zzzz",
		SeekerInterests:    []string{"chess"},
		SeekerTraits:       []string{"quiet"},
		CandidateInterests: []string{"rugby"},
		CandidateTraits:    []string{"loud"},
	})
	assert.Equal(t, 1, low)

	// everything hits: capped at 99, never 100
	high := scoring.Score(scoring.Input{
		Query:              "hiking",
		SeekerInterests:    []string{"hiking"},
		SeekerTraits:       []string{"kind"},
		CandidateInterests: []string{"hiking"},
		CandidateTraits:    []string{"kind"},
		SeekerEmbedding:    []float32{1, 2},
		CandidateEmbedding: []float32{1, 2},
		Prefs: &scoring.AIPreferences{
			InterestOverlap: boolPtr(true),
			TraitOverlap:    boolPtr(true),
			ValuesOverlap:   boolPtr(true),
			Lifestyle:       []string{"active"},
		},
	})
	assert.Equal(t, 99, high)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, scoring.Cosine([]float32{1, 2}, []float32{1, 2}), 1e-9)
	assert.InDelta(t, -1.0, scoring.Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, scoring.Cosine([]float32{1, 2}, []float32{1}))
	assert.Zero(t, scoring.Cosine(nil, nil))
	assert.Zero(t, scoring.Cosine([]float32{0, 0}, []float32{1, 1}))
}
