// Package scoring implements the pure candidate-compatibility score. It
// blends interest/trait overlap, free-text keyword matches, AI-inferred
// preference bonuses and persona-embedding similarity into a single 1-99
// percentage. No I/O: absence of any input degrades to a documented
// baseline instead of failing or zeroing the candidate out.
package scoring

import (
	"math"
	"strings"
)

// Category weights. Interests, traits and keywords are always active; the
// AI bonus and the embedding term only enter the denominator when their
// inputs are present.
const (
	weightInterests = 40
	weightTraits    = 40
	weightKeywords  = 20
	weightEmbedding = 15

	bonusInterestOverlap = 5
	bonusTraitOverlap    = 5
	bonusValuesOverlap   = 3
	bonusLifestyle       = 2

	// baseline credit when the seeker supplied no data for a category,
	// so zero-signal candidates do not collapse to 0%
	baselineInterests = 20
	baselineTraits    = 20
	baselineKeywords  = 10

	minKeywordLen = 3
	maxScore      = 99
)

// AIPreferences carries the yes/no overlap judgements the external query
// parser inferred from the seeker's free text. Nil pointers mean the signal
// was not inferred and its weight stays out of the denominator.
type AIPreferences struct {
	InterestOverlap *bool
	TraitOverlap    *bool
	ValuesOverlap   *bool
	Lifestyle       []string
}

// Input is everything Score looks at.
type Input struct {
	Query string
	Prefs *AIPreferences

	SeekerInterests []string
	SeekerTraits    []string

	CandidateInterests []string
	CandidateTraits    []string

	SeekerEmbedding    []float32
	CandidateEmbedding []float32
}

// Score computes the blended compatibility percentage. Deterministic for
// identical inputs; always in [1, 99].
func Score(in Input) int {
	var sum, active float64

	// interest overlap
	active += weightInterests
	if len(in.SeekerInterests) == 0 {
		sum += baselineInterests
	} else {
		sum += weightInterests * overlapFraction(in.SeekerInterests, in.CandidateInterests)
	}

	// personality-trait overlap
	active += weightTraits
	if len(in.SeekerTraits) == 0 {
		sum += baselineTraits
	} else {
		sum += weightTraits * overlapFraction(in.SeekerTraits, in.CandidateTraits)
	}

	// free-text keyword match against the candidate's combined text
	active += weightKeywords
	tokens := queryTokens(in.Query)
	if len(tokens) == 0 {
		sum += baselineKeywords
	} else {
		haystack := strings.ToLower(strings.Join(append(append([]string{},
			in.CandidateInterests...), in.CandidateTraits...), " "))
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				hits++
			}
		}
		sum += weightKeywords * float64(hits) / float64(len(tokens))
	}

	// AI-inferred preference bonuses, additive per present signal
	if p := in.Prefs; p != nil {
		if p.InterestOverlap != nil {
			active += bonusInterestOverlap
			if *p.InterestOverlap {
				sum += bonusInterestOverlap
			}
		}
		if p.TraitOverlap != nil {
			active += bonusTraitOverlap
			if *p.TraitOverlap {
				sum += bonusTraitOverlap
			}
		}
		if p.ValuesOverlap != nil {
			active += bonusValuesOverlap
			if *p.ValuesOverlap {
				sum += bonusValuesOverlap
			}
		}
		if len(p.Lifestyle) > 0 {
			active += bonusLifestyle
			sum += bonusLifestyle
		}
	}

	// persona-embedding similarity, only when both vectors exist;
	// negative similarity contributes nothing
	if len(in.SeekerEmbedding) > 0 && len(in.CandidateEmbedding) > 0 {
		active += weightEmbedding
		if cos := Cosine(in.SeekerEmbedding, in.CandidateEmbedding); cos > 0 {
			sum += weightEmbedding * cos
		}
	}

	if active == 0 {
		return 1
	}

	score := int(math.Round(sum / active * 100))
	if score > maxScore {
		score = maxScore
	}
	if score < 1 {
		score = 1
	}
	return score
}

// overlapFraction is the fraction of the seeker's items found in the
// candidate's, case-insensitive.
func overlapFraction(seeker, candidate []string) float64 {
	if len(seeker) == 0 {
		return 0
	}
	set := make(map[string]bool, len(candidate))
	for _, c := range candidate {
		set[strings.ToLower(strings.TrimSpace(c))] = true
	}
	matched := 0
	for _, s := range seeker {
		if set[strings.ToLower(strings.TrimSpace(s))] {
			matched++
		}
	}
	return float64(matched) / float64(len(seeker))
}

// queryTokens splits the free-text query on whitespace and keeps lowercase
// tokens longer than minKeywordLen characters.
func queryTokens(query string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len(tok) > minKeywordLen {
			out = append(out, tok)
		}
	}
	return out
}

// Cosine returns the cosine similarity of two vectors, 0 when lengths
// differ or either vector has no magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
