package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a JSON-encoded string array column (top_models).
type StringList []string

// Value implements driver.Valuer for GORM.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for GORM.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

// Submission is the canonical persisted entity: one row per user, created
// once and never updated. Tokens is the primary ranking metric, stored as
// numeric(38,0) so Postgres orders it exactly; in Go it is carried as a
// decimal string and never passes through a float.
type Submission struct {
	ID              string     `gorm:"type:uuid;primarykey" json:"id"`
	UserID          string     `gorm:"uniqueIndex;not null" json:"user_id"`
	Name            string     `gorm:"not null" json:"name"`
	Email           *string    `json:"email,omitempty"`
	Tokens          string     `gorm:"type:numeric(38,0);not null;index" json:"tokens"`
	Agents          *int64     `json:"agents"`
	Tabs            *int64     `json:"tabs"`
	Streak          *int64     `json:"streak"`
	UsagePercentile *string    `json:"usage_percentile"`
	TopModels       StringList `gorm:"type:jsonb" json:"top_models"`
	JoinedDaysAgo   *int64     `json:"joined_days_ago"`
	ScreenshotURL   *string    `json:"screenshot_url,omitempty"`
	SocialLink      *string    `json:"social_link"`
	SocialHandle    *string    `json:"social_handle"`
	SocialProvider  *string    `json:"social_provider"`
	CreatedAt       time.Time  `json:"created_at"`
}

// TableName specifies the table name for GORM
func (Submission) TableName() string {
	return "submissions"
}

// LeaderboardEntry is a single ranked row of the public listing.
type LeaderboardEntry struct {
	Rank            int        `json:"rank"`
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Tokens          string     `json:"tokens"`
	Agents          *int64     `json:"agents"`
	Tabs            *int64     `json:"tabs"`
	Streak          *int64     `json:"streak"`
	UsagePercentile *string    `json:"usage_percentile"`
	TopModels       StringList `json:"top_models"`
	JoinedDaysAgo   *int64     `json:"joined_days_ago"`
	SocialLink      *string    `json:"social_link"`
	SocialHandle    *string    `json:"social_handle"`
	SocialProvider  *string    `json:"social_provider"`
	CreatedAt       time.Time  `json:"created_at"`
}

// BuildEntries converts submissions already sorted by tokens descending into
// ranked entries using tie-aware (1224) ranking: equal token counts share a
// rank, and the rank after a tie group skips by the group size. This equals
// 1 + count(strictly greater) for every row. Timestamps are normalized to
// UTC so a listing serializes identically whether it was read straight from
// the database or round-tripped through the cache.
func BuildEntries(subs []Submission) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(subs))

	currentRank := 1
	sameRankCount := 0
	var previousTokens string

	for i, sub := range subs {
		if i == 0 {
			previousTokens = sub.Tokens
			sameRankCount = 1
		} else if sub.Tokens == previousTokens {
			sameRankCount++
		} else {
			currentRank += sameRankCount
			previousTokens = sub.Tokens
			sameRankCount = 1
		}

		entries = append(entries, LeaderboardEntry{
			Rank:            currentRank,
			ID:              sub.ID,
			Name:            sub.Name,
			Tokens:          sub.Tokens,
			Agents:          sub.Agents,
			Tabs:            sub.Tabs,
			Streak:          sub.Streak,
			UsagePercentile: sub.UsagePercentile,
			TopModels:       sub.TopModels,
			JoinedDaysAgo:   sub.JoinedDaysAgo,
			SocialLink:      sub.SocialLink,
			SocialHandle:    sub.SocialHandle,
			SocialProvider:  sub.SocialProvider,
			CreatedAt:       sub.CreatedAt.UTC(),
		})
	}

	return entries
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	Success   bool          `json:"success"`
	Rank      int           `json:"rank"`
	ID        string        `json:"id"`
	Extracted ExtractedEcho `json:"extracted"`
}

// ExtractedEcho echoes the raw values the vision model reported, so the
// client can show what was read from the screenshot.
type ExtractedEcho struct {
	Tokens          string   `json:"tokens"`
	Agents          string   `json:"agents,omitempty"`
	Tabs            string   `json:"tabs,omitempty"`
	Streak          string   `json:"streak,omitempty"`
	UsagePercentile string   `json:"usage_percentile,omitempty"`
	TopModels       []string `json:"top_models,omitempty"`
}

// RankResponse is the per-user rank lookup payload.
type RankResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Rank       int    `json:"rank"`
	Total      int    `json:"total"`
	Tokens     string `json:"tokens"`
	Percentile string `json:"percentile"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
