package db

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// User table. Credit balance and cooldown/boost fields are mutated by the
// like engine and the ledger; everything else by the account subsystem.
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Name         string `gorm:"size:64;not null"`
	Phone        string `gorm:"size:32;index"`

	Gender       string `gorm:"size:16;not null"`
	InterestedIn string `gorm:"size:16;not null"` // male, female, both
	DateOfBirth  time.Time
	City         string `gorm:"size:64"`
	Latitude     *float64
	Longitude    *float64

	IsVerified  bool `gorm:"default:false"`
	IsPremium   bool `gorm:"default:false"`
	IsBanned    bool `gorm:"default:false"`
	IsAdmin     bool `gorm:"default:false"`
	IsIncognito bool `gorm:"default:false"`

	CreditBalance   int64 `gorm:"not null;default:0"`
	CooldownEnabled bool  `gorm:"default:false"`
	CooldownUntil   *time.Time
	BoostExpiresAt  *time.Time

	LastLoginAt time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// Age computes the user's age at the given instant.
func (u *User) Age(now time.Time) int {
	years := now.Year() - u.DateOfBirth.Year()
	anniversary := u.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// InCooldown reports whether the user is inside an active cooldown window.
func (u *User) InCooldown(now time.Time) bool {
	return u.CooldownUntil != nil && u.CooldownUntil.After(now)
}

// BoostActive reports whether the user's boost privilege is live.
func (u *User) BoostActive(now time.Time) bool {
	return u.BoostExpiresAt != nil && u.BoostExpiresAt.After(now)
}

// PersonaProfile holds the free-text and structured preference fields used
// as scoring input. One per user, upserted on profile completion; the
// embedding is regenerated on every completion call.
type PersonaProfile struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"uniqueIndex;not null"`

	Bio              string `gorm:"type:text"`
	Interests        string `gorm:"type:text"` // JSON string array
	Traits           string `gorm:"type:text"` // JSON string array
	RelationshipGoal string `gorm:"size:32"`
	HeightCm         *int
	Smoker           *bool
	Drinker          *bool

	PersonalitySummary string `gorm:"type:text"`
	Embedding          string `gorm:"type:text"` // JSON float array, may be empty

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (p *PersonaProfile) InterestList() []string { return DecodeList(p.Interests) }
func (p *PersonaProfile) TraitList() []string    { return DecodeList(p.Traits) }
func (p *PersonaProfile) Vector() []float32      { return DecodeVector(p.Embedding) }

// ActivityLimits is the per-user rolling-window counter row. Counts only
// move up within a window and reset to zero together when the window lapses.
// Created lazily on the first quota-relevant action.
type ActivityLimits struct {
	UserID               uint64 `gorm:"primaryKey"`
	OnGridLikesCount     int    `gorm:"not null;default:0"`
	OffGridLikesCount    int    `gorm:"not null;default:0"`
	MessagesStartedCount int    `gorm:"not null;default:0"`
	LastResetAt          time.Time
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

// Like is a directional like. Composite PK guarantees at most one row per
// ordered (liker, liked) pair; the compliment path upserts onto it.
//
// Index idx_liked_created(liked_id, created_at DESC, liker_id) backs the
// "who liked me" inbox with cursor pagination.
type Like struct {
	LikerID uint64 `gorm:"primaryKey"`
	LikedID uint64 `gorm:"primaryKey;index:idx_liked_created,priority:1"`

	IsOnGrid     bool   `gorm:"not null"`
	IsSuperlike  bool   `gorm:"not null;default:false"`
	IsCompliment bool   `gorm:"not null;default:false"`
	Compliment   string `gorm:"size:512"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_liked_created,priority:2,sort:desc"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Match stores the unordered pair as (min, max) so the unique index makes
// concurrent reciprocal-like races collapse onto one row.
type Match struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	User1ID       uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	User2ID       uint64    `gorm:"not null;uniqueIndex:idx_match_pair,priority:2"`
	MatchedAt     time.Time `gorm:"autoCreateTime"`
	LastMessageAt *time.Time
}

// Other returns the participant that is not userID, or 0 when userID is not
// part of the match.
func (m *Match) Other(userID uint64) uint64 {
	switch userID {
	case m.User1ID:
		return m.User2ID
	case m.User2ID:
		return m.User1ID
	}
	return 0
}

// Block is directional; a block in either direction severs the pair.
type Block struct {
	BlockerID uint64    `gorm:"primaryKey"`
	BlockedID uint64    `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Message belongs to a match.
type Message struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	MatchID   uint64    `gorm:"not null;index:idx_match_created,priority:1"`
	SenderID  uint64    `gorm:"not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_match_created,priority:2,sort:desc"`
}

// CreditTransaction is the append-only ledger log. Rows are never updated.
type CreditTransaction struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	Amount    int64     `gorm:"not null"`
	Direction string    `gorm:"size:8;not null"` // credit, debit
	Reason    string    `gorm:"size:64;not null"`
	Metadata  string    `gorm:"type:text"`
	Reference string    `gorm:"size:36"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

const (
	DirectionCredit = "credit"
	DirectionDebit  = "debit"
)

// SearchHistory keeps the raw query+filters of each search so off-grid
// refresh can replay the last one.
type SearchHistory struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    uint64    `gorm:"not null;index"`
	Query     string    `gorm:"type:text"`
	Filters   string    `gorm:"type:text"` // JSON
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// --- JSON column helpers ---

// EncodeList serializes a string slice for a text column. Nil and empty
// slices collapse to the empty string.
func EncodeList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	b, err := json.Marshal(items)
	if err != nil {
		return ""
	}
	return string(b)
}

// DecodeList parses a text column written by EncodeList. It also tolerates
// legacy comma-separated values.
func DecodeList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var out []string
		if err := json.Unmarshal([]byte(s), &out); err == nil {
			return out
		}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EncodeVector serializes a persona embedding for a text column.
func EncodeVector(v []float32) string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// DecodeVector parses a text column written by EncodeVector. Any parse
// failure yields an empty vector, which simply zeroes the similarity term.
func DecodeVector(s string) []float32 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var out []float32
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}
	return out
}
