package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	"github.com/dropoutsanta/cursorleaderboard/pkg/errors"
	"github.com/dropoutsanta/cursorleaderboard/pkg/logger"
)

// SubmissionStore is the persistence surface the services depend on.
type SubmissionStore interface {
	Create(ctx context.Context, sub *models.Submission) error
	ExistsForUser(ctx context.Context, userID string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	ListByTokens(ctx context.Context) ([]models.Submission, error)
	CountGreaterThan(ctx context.Context, tokens string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// ListingCache is the read cache for the ranked listing. Both methods may
// fail without affecting correctness; the store is the source of truth.
type ListingCache interface {
	GetListing(ctx context.Context) ([]byte, error)
	SetListing(ctx context.Context, payload []byte) error
}

// LeaderboardService is the read path: the full ranked listing plus
// per-submission rank lookups. Rank is always derived, never stored.
type LeaderboardService struct {
	repo  SubmissionStore
	cache ListingCache
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(repo SubmissionStore, cache ListingCache) *LeaderboardService {
	return &LeaderboardService{
		repo:  repo,
		cache: cache,
	}
}

// List returns every submission ranked by tokens descending. Ties share a
// rank; order within a tie follows insertion order. Served from the cache
// when warm.
func (s *LeaderboardService) List(ctx context.Context) ([]models.LeaderboardEntry, error) {
	if s.cache != nil {
		if payload, err := s.cache.GetListing(ctx); err == nil && payload != nil {
			var entries []models.LeaderboardEntry
			if err := json.Unmarshal(payload, &entries); err == nil {
				return entries, nil
			}
			logger.Warn("discarding undecodable leaderboard cache payload")
		}
	}

	subs, err := s.repo.ListByTokens(ctx)
	if err != nil {
		return nil, errors.New(errors.CodeListUnavailable, "Failed to fetch leaderboard", err)
	}

	entries := models.BuildEntries(subs)

	if s.cache != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.cache.SetListing(ctx, payload); err != nil {
				logger.Warnf("failed to populate leaderboard cache: %v", err)
			}
		}
	}

	return entries, nil
}

// RankOf returns the 1-based rank and percentile label for one submission.
func (s *LeaderboardService) RankOf(ctx context.Context, id string) (*models.RankResponse, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.ID == id {
			return &models.RankResponse{
				ID:         e.ID,
				Name:       e.Name,
				Rank:       e.Rank,
				Total:      len(entries),
				Tokens:     e.Tokens,
				Percentile: PercentileLabel(e.Rank, len(entries)),
			}, nil
		}
	}

	return nil, errors.New(errors.CodeRecordNotFound, "User not found", nil)
}

// Window returns the entry for id together with up to radius neighbors on
// each side, for the share-card rendering.
func (s *LeaderboardService) Window(ctx context.Context, id string, radius int) (*models.LeaderboardEntry, []models.LeaderboardEntry, int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, nil, 0, err
	}

	idx := -1
	for i, e := range entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, 0, errors.New(errors.CodeRecordNotFound, "User not found", nil)
	}

	start := idx - radius
	if start < 0 {
		start = 0
	}
	end := idx + radius + 1
	if end > len(entries) {
		end = len(entries)
	}

	target := entries[idx]
	return &target, entries[start:end], len(entries), nil
}

// PercentileLabel buckets a rank for presentation. Rank 1 is always
// "Top 1%"; below the named thresholds the literal rounded percentile is
// shown.
func PercentileLabel(rank, total int) string {
	if total <= 0 || rank <= 0 {
		return ""
	}

	percentile := float64(rank) / float64(total) * 100
	switch {
	case rank == 1 || percentile <= 1:
		return "Top 1%"
	case percentile <= 5:
		return "Top 5%"
	case percentile <= 10:
		return "Top 10%"
	case percentile <= 25:
		return "Top 25%"
	case percentile <= 50:
		return "Top 50%"
	}
	return fmt.Sprintf("Top %d%%", int(math.Round(percentile)))
}
