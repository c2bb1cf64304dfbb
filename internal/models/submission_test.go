package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEntriesNormalizesCreatedAtToUTC(t *testing.T) {
	east := time.FixedZone("UTC+5", 5*3600)
	subs := []Submission{
		{ID: "a", Name: "Dev A", Tokens: "200", CreatedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, east)},
		{ID: "b", Name: "Dev B", Tokens: "100", CreatedAt: time.Now()},
	}

	entries := BuildEntries(subs)
	require.Len(t, entries, 2)

	for i, e := range entries {
		assert.Equal(t, time.UTC, e.CreatedAt.Location())
		assert.True(t, e.CreatedAt.Equal(subs[i].CreatedAt), "instant must be preserved")
	}
}

// A listing must serialize and deserialize without changing, regardless of
// the server's local time zone; otherwise a read served from the cache
// differs from the read that populated it.
func TestBuildEntriesSurviveJSONRoundTrip(t *testing.T) {
	west := time.FixedZone("UTC-7", -7*3600)
	subs := []Submission{
		{ID: "a", Name: "Dev A", Tokens: "6600000000", CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, west)},
		{ID: "b", Name: "Dev B", Tokens: "17000", CreatedAt: time.Date(2026, 3, 4, 6, 0, 0, 0, time.Local)},
	}

	entries := BuildEntries(subs)

	payload, err := json.Marshal(entries)
	require.NoError(t, err)

	var decoded []LeaderboardEntry
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, entries, decoded)
}
