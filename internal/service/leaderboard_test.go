package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
)

func TestListOrdersByTokensDescending(t *testing.T) {
	svc := NewLeaderboardService(seedStore("100", "6600000000", "17000"), nil)

	entries, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "6600000000", entries[0].Tokens)
	assert.Equal(t, "17000", entries[1].Tokens)
	assert.Equal(t, "100", entries[2].Tokens)
	assert.Equal(t, []int{1, 2, 3}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank})
}

func TestListTiesShareRank(t *testing.T) {
	// Rank = 1 + count(strictly greater): both 50s share rank 2 and the
	// rank after the tie group skips to 4.
	svc := NewLeaderboardService(seedStore("100", "50", "50", "10"), nil)

	entries, err := svc.List(context.Background())
	require.NoError(t, err)

	ranks := make([]int, len(entries))
	for i, e := range entries {
		ranks[i] = e.Rank
	}
	assert.Equal(t, []int{1, 2, 2, 4}, ranks)

	// Ties keep insertion order.
	assert.Equal(t, "Dev B", entries[1].Name)
	assert.Equal(t, "Dev C", entries[2].Name)
}

func TestListIsStableAcrossReads(t *testing.T) {
	svc := NewLeaderboardService(seedStore("300", "200", "200", "100"), &fakeCache{})

	first, err := svc.List(context.Background())
	require.NoError(t, err)
	second, err := svc.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestListPopulatesAndServesCache(t *testing.T) {
	cache := &fakeCache{}
	store := seedStore("300", "100")
	svc := NewLeaderboardService(store, cache)

	_, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.NotEmpty(t, cache.payload)

	// A mutation the cache has not seen yet is invisible until refresh:
	// the second read is served from the cached payload.
	store.subs = store.subs[:1]
	entries, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRankOf(t *testing.T) {
	svc := NewLeaderboardService(seedStore("6600000000", "2500000", "17000"), nil)

	res, err := svc.RankOf(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rank)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, "2500000", res.Tokens)
}

func TestRankOfUnknownID(t *testing.T) {
	svc := NewLeaderboardService(seedStore("100"), nil)

	_, err := svc.RankOf(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeRecordNotFound, apperrors.CodeOf(err))
}

func TestWindow(t *testing.T) {
	svc := NewLeaderboardService(seedStore("900", "800", "700", "600", "500", "400", "300", "200", "100"), nil)

	target, neighbors, total, err := svc.Window(context.Background(), "e", 3)
	require.NoError(t, err)
	assert.Equal(t, 9, total)
	assert.Equal(t, 5, target.Rank)
	require.Len(t, neighbors, 7)
	assert.Equal(t, 2, neighbors[0].Rank)
	assert.Equal(t, 8, neighbors[6].Rank)
}

func TestWindowClampsAtEdges(t *testing.T) {
	svc := NewLeaderboardService(seedStore("900", "800", "700"), nil)

	target, neighbors, _, err := svc.Window(context.Background(), "a", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, target.Rank)
	assert.Len(t, neighbors, 3)
}

func TestPercentileLabel(t *testing.T) {
	tests := []struct {
		rank  int
		total int
		want  string
	}{
		{1, 10000, "Top 1%"},
		{1, 3, "Top 1%"}, // rank 1 is always Top 1%
		{50, 10000, "Top 1%"},
		{400, 10000, "Top 5%"},
		{900, 10000, "Top 10%"},
		{2400, 10000, "Top 25%"},
		{5000, 10000, "Top 50%"},
		{7500, 10000, "Top 75%"},
		{10000, 10000, "Top 100%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, PercentileLabel(tt.rank, tt.total), "rank %d of %d", tt.rank, tt.total)
	}
}
