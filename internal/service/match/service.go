// Package match is the search/candidate-ranking engine. It builds the
// candidate set, scores it with the pure scorer, ranks boosted profiles
// first, splits the result into the curated on-grid feed and the randomized
// off-grid feed, and layers optional AI enrichment with deterministic
// fallbacks on top. Scoring and ranking never require an external call.
package match

import (
	"context"
	"encoding/json"
	"math/rand"
	"sort"
	"time"

	"github.com/kindling-app/kindling/internal/app"
	"github.com/kindling-app/kindling/internal/apperr"
	"github.com/kindling-app/kindling/internal/db"
	"github.com/kindling-app/kindling/internal/enrich"
	"github.com/kindling-app/kindling/internal/geo"
	"github.com/kindling-app/kindling/internal/repository"
	"github.com/kindling-app/kindling/internal/scoring"
	"github.com/kindling-app/kindling/internal/service/credits"
	"github.com/kindling-app/kindling/internal/service/limits"
)

const enrichTimeout = 6 * time.Second

// Filters are the structured candidate constraints. Explicit values always
// win over AI-inferred ones.
type Filters struct {
	AgeMin           *int     `json:"age_min,omitempty"`
	AgeMax           *int     `json:"age_max,omitempty"`
	HeightMinCm      *int     `json:"height_min_cm,omitempty"`
	HeightMaxCm      *int     `json:"height_max_cm,omitempty"`
	City             *string  `json:"city,omitempty"`
	Smoker           *bool    `json:"smoker,omitempty"`
	Drinker          *bool    `json:"drinker,omitempty"`
	RelationshipGoal *string  `json:"relationship_goal,omitempty"`
	MaxDistanceKm    *float64 `json:"max_distance_km,omitempty"`
}

// Request is one search invocation.
type Request struct {
	Query         string
	Filters       Filters
	ExcludeIDs    []uint64
	IsOnGrid      *bool
	Limit         *int
	ChargeCredits bool
}

// Candidate is one scored search result.
type Candidate struct {
	UserID          uint64
	Name            string
	Age             int
	City            string
	MatchPercentage int
	DistanceKm      *float64
	Boosted         bool
	MatchReason     string
	Highlights      []string
	Openers         []string
}

// Result is the partitioned search outcome.
type Result struct {
	OnGrid  []Candidate
	OffGrid []Candidate
	// CreditBalance is set when the search was charged.
	CreditBalance *int64
}

// Service is the match engine.
type Service struct {
	appCtx  *app.AppContext
	credits *credits.Service
	tracker *limits.Tracker

	// shuffle is swappable so partition tests stay deterministic.
	shuffle func(n int, swap func(i, j int))
}

func NewService(appCtx *app.AppContext, creditSvc *credits.Service, tracker *limits.Tracker) *Service {
	return &Service{
		appCtx:  appCtx,
		credits: creditSvc,
		tracker: tracker,
		shuffle: rand.Shuffle,
	}
}

// Search runs the full pipeline of §candidate retrieval → scoring → ranking
// → partition → narrative enrichment → credit charge → history.
func (s *Service) Search(ctx context.Context, userID uint64, req Request) (*Result, error) {
	users := repository.NewUserRepository(s.appCtx.DB)
	seeker, err := users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}
	seekerProfile, _ := repository.NewProfileRepository(s.appCtx.DB).FindByUserID(ctx, userID)

	// optional query-parser enrichment; explicit filters always win
	var prefs *scoring.AIPreferences
	if req.Query != "" && s.appCtx.Enricher.Available() {
		pctx, cancel := context.WithTimeout(ctx, enrichTimeout)
		parsed, err := s.appCtx.Enricher.ParseQuery(pctx, req.Query)
		cancel()
		if err != nil {
			s.appCtx.Logger.Debug("query parse unavailable, using explicit filters only", "err", err)
		} else if parsed != nil {
			mergeFilters(&req.Filters, parsed)
			prefs = parsed.Prefs
		}
	}

	candidates, err := s.collectCandidates(ctx, seeker, seekerProfile, prefs, req)
	if err != nil {
		return nil, err
	}

	// boosted profiles rank ahead of everyone, ties broken by score
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Boosted != candidates[j].Boosted {
			return candidates[i].Boosted
		}
		return candidates[i].MatchPercentage > candidates[j].MatchPercentage
	})

	quota := s.appCtx.Policy.QuotaFor(seeker.Gender)
	result := s.partition(candidates, req, quota.OnGridLikes, quota.OffGridLikes)

	// every on-grid result carries a non-empty match reason, whatever the
	// state of the enrichment service
	s.attachNarratives(ctx, seeker, seekerProfile, result.OnGrid)

	// AI-search charge: only when explicitly requested, for a real query,
	// on an explicit on-grid request that returned something
	if req.ChargeCredits && req.Query != "" && req.IsOnGrid != nil && *req.IsOnGrid && len(result.OnGrid) > 0 {
		balance, err := s.credits.Consume(ctx, userID, s.appCtx.Policy.AISearchCost, "ai_search",
			map[string]any{"query": req.Query})
		if err != nil {
			// discard results rather than partially bill
			return nil, err
		}
		result.CreditBalance = &balance
	}

	s.recordHistory(ctx, userID, req)

	return result, nil
}

// OffGridRefresh replays the seeker's last recorded search as an off-grid
// only request.
func (s *Service) OffGridRefresh(ctx context.Context, userID uint64) (*Result, error) {
	req := Request{}
	if last, err := repository.NewSearchHistoryRepository(s.appCtx.DB).Latest(ctx, userID); err == nil {
		req.Query = last.Query
		if last.Filters != "" {
			_ = json.Unmarshal([]byte(last.Filters), &req.Filters)
		}
	}
	off := false
	req.IsOnGrid = &off
	req.ChargeCredits = false
	return s.Search(ctx, userID, req)
}

// collectCandidates builds, filters and scores the candidate set.
func (s *Service) collectCandidates(ctx context.Context, seeker *db.User, seekerProfile *db.PersonaProfile, prefs *scoring.AIPreferences, req Request) ([]Candidate, error) {
	now := s.tracker.Now().UTC()

	excluded := append([]uint64{seeker.ID}, req.ExcludeIDs...)
	liked, err := repository.NewLikeRepository(s.appCtx.DB).LikedIDs(ctx, seeker.ID)
	if err != nil {
		return nil, err
	}
	excluded = append(excluded, liked...)
	blocked, err := repository.NewBlockRepository(s.appCtx.DB).BlockedIDs(ctx, seeker.ID)
	if err != nil {
		return nil, err
	}
	excluded = append(excluded, blocked...)

	query := s.appCtx.DB.WithContext(ctx).Model(&db.User{}).
		Where("id NOT IN ?", excluded).
		Where("is_banned = ?", false).
		Where("is_incognito = ?", false).
		Where("cooldown_until IS NULL OR cooldown_until <= ?", now).
		Where("interested_in IN ?", []string{seeker.Gender, "both"})
	if seeker.InterestedIn != "both" {
		query = query.Where("gender = ?", seeker.InterestedIn)
	}

	var rows []db.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]uint64, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	profiles, err := repository.NewProfileRepository(s.appCtx.DB).FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	maxDistance := s.appCtx.Policy.MaxDistanceKm
	if req.Filters.MaxDistanceKm != nil {
		maxDistance = *req.Filters.MaxDistanceKm
	}

	var seekerInterests, seekerTraits []string
	var seekerVec []float32
	if seekerProfile != nil {
		seekerInterests = seekerProfile.InterestList()
		seekerTraits = seekerProfile.TraitList()
		seekerVec = seekerProfile.Vector()
	}

	out := make([]Candidate, 0, len(rows))
	for i := range rows {
		cand := &rows[i]
		profile := profiles[cand.ID]

		if !passesFilters(cand, profile, req.Filters, now) {
			continue
		}

		// distance cutoff excludes, it never merely down-ranks
		var distance *float64
		if seeker.Latitude != nil && seeker.Longitude != nil && cand.Latitude != nil && cand.Longitude != nil {
			d := geo.DistanceKm(*seeker.Latitude, *seeker.Longitude, *cand.Latitude, *cand.Longitude)
			if maxDistance > 0 && d > maxDistance {
				continue
			}
			distance = &d
		}

		in := scoring.Input{
			Query:           req.Query,
			Prefs:           prefs,
			SeekerInterests: seekerInterests,
			SeekerTraits:    seekerTraits,
			SeekerEmbedding: seekerVec,
		}
		if profile != nil {
			in.CandidateInterests = profile.InterestList()
			in.CandidateTraits = profile.TraitList()
			in.CandidateEmbedding = profile.Vector()
		}

		out = append(out, Candidate{
			UserID:          cand.ID,
			Name:            cand.Name,
			Age:             cand.Age(now),
			City:            cand.City,
			MatchPercentage: scoring.Score(in),
			DistanceKm:      distance,
			Boosted:         cand.BoostActive(now),
		})
	}
	return out, nil
}

// partition slices the ranked list into the curated on-grid feed and the
// randomized off-grid exploration feed.
func (s *Service) partition(ranked []Candidate, req Request, onGridQuota, offGridQuota int) *Result {
	onLimit := onGridQuota
	offLimit := offGridQuota
	if req.Limit != nil && *req.Limit > 0 {
		onLimit = *req.Limit
		offLimit = *req.Limit
	}

	result := &Result{}
	switch {
	case req.IsOnGrid != nil && *req.IsOnGrid:
		result.OnGrid = firstN(ranked, onLimit)
	case req.IsOnGrid != nil && !*req.IsOnGrid:
		rest := append([]Candidate(nil), ranked...)
		s.shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		result.OffGrid = firstN(rest, offLimit)
	default:
		result.OnGrid = firstN(ranked, onLimit)
		rest := append([]Candidate(nil), ranked[len(result.OnGrid):]...)
		s.shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		result.OffGrid = firstN(rest, offLimit)
	}
	return result
}

// attachNarratives fills match_reason for each on-grid candidate through
// the two-tier fallback; failures degrade, they never abort the search.
func (s *Service) attachNarratives(ctx context.Context, seeker *db.User, seekerProfile *db.PersonaProfile, onGrid []Candidate) {
	now := s.tracker.Now().UTC()
	seekerSummary := enrich.ProfileSummary{Name: seeker.Name, Age: seeker.Age(now)}
	if seekerProfile != nil {
		seekerSummary.Bio = seekerProfile.Bio
		seekerSummary.Interests = seekerProfile.InterestList()
		seekerSummary.Traits = seekerProfile.TraitList()
	}

	profiles, _ := repository.NewProfileRepository(s.appCtx.DB).FindByUserIDs(ctx, candidateIDs(onGrid))
	for i := range onGrid {
		candSummary := enrich.ProfileSummary{Name: onGrid[i].Name, Age: onGrid[i].Age}
		if p := profiles[onGrid[i].UserID]; p != nil {
			candSummary.Bio = p.Bio
			candSummary.Interests = p.InterestList()
			candSummary.Traits = p.TraitList()
		}
		narrative := enrich.BestReason(ctx, s.appCtx.Enricher, seekerSummary, candSummary, onGrid[i].MatchPercentage, enrichTimeout)
		onGrid[i].MatchReason = narrative.Summary
		onGrid[i].Highlights = narrative.Highlights
		onGrid[i].Openers = narrative.Openers
	}
}

func (s *Service) recordHistory(ctx context.Context, userID uint64, req Request) {
	filters, _ := json.Marshal(req.Filters)
	if err := repository.NewSearchHistoryRepository(s.appCtx.DB).Append(ctx, &db.SearchHistory{
		UserID:  userID,
		Query:   req.Query,
		Filters: string(filters),
	}); err != nil {
		s.appCtx.Logger.Warn("search history append failed", "user", userID, "err", err)
	}
}

// mergeFilters copies inferred fields into unset filter slots only.
func mergeFilters(f *Filters, parsed *enrich.ParsedQuery) {
	if f.AgeMin == nil && parsed.AgeMin != nil {
		f.AgeMin = parsed.AgeMin
	}
	if f.AgeMax == nil && parsed.AgeMax != nil {
		f.AgeMax = parsed.AgeMax
	}
	if f.HeightMinCm == nil && parsed.HeightMinCm != nil {
		f.HeightMinCm = parsed.HeightMinCm
	}
	if f.City == nil && parsed.City != nil {
		f.City = parsed.City
	}
	if f.RelationshipGoal == nil && parsed.RelationshipGoal != nil {
		f.RelationshipGoal = parsed.RelationshipGoal
	}
}

func passesFilters(cand *db.User, profile *db.PersonaProfile, f Filters, now time.Time) bool {
	age := cand.Age(now)
	if f.AgeMin != nil && age < *f.AgeMin {
		return false
	}
	if f.AgeMax != nil && age > *f.AgeMax {
		return false
	}
	if f.City != nil && *f.City != "" && cand.City != *f.City {
		return false
	}
	if f.HeightMinCm != nil && (profile == nil || profile.HeightCm == nil || *profile.HeightCm < *f.HeightMinCm) {
		return false
	}
	if f.HeightMaxCm != nil && (profile == nil || profile.HeightCm == nil || *profile.HeightCm > *f.HeightMaxCm) {
		return false
	}
	if f.Smoker != nil && (profile == nil || profile.Smoker == nil || *profile.Smoker != *f.Smoker) {
		return false
	}
	if f.Drinker != nil && (profile == nil || profile.Drinker == nil || *profile.Drinker != *f.Drinker) {
		return false
	}
	if f.RelationshipGoal != nil && *f.RelationshipGoal != "" &&
		(profile == nil || profile.RelationshipGoal != *f.RelationshipGoal) {
		return false
	}
	return true
}

func firstN(items []Candidate, n int) []Candidate {
	if len(items) > n {
		items = items[:n]
	}
	return append([]Candidate(nil), items...)
}

func candidateIDs(items []Candidate) []uint64 {
	ids := make([]uint64, len(items))
	for i := range items {
		ids[i] = items[i].UserID
	}
	return ids
}
