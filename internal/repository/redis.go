package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// CacheKey holds the serialized ranked listing.
	CacheKey = "leaderboard:cache"

	// VersionKey tracks the leaderboard version for change detection; it is
	// bumped on every listing replacement so readers can tell when the board
	// changed.
	VersionKey = "leaderboard:version"

	// CacheTTL caps staleness even if every invalidation is missed.
	CacheTTL = 5 * time.Minute
)

// LeaderboardCache is a Redis read cache for the ranked listing. The
// database stays the source of truth; a cold or stale cache only costs a
// Postgres scan.
type LeaderboardCache struct {
	client *redis.Client
}

// NewLeaderboardCache creates a new leaderboard cache
func NewLeaderboardCache(client *redis.Client) *LeaderboardCache {
	return &LeaderboardCache{
		client: client,
	}
}

// GetListing returns the cached listing payload, or (nil, nil) on a miss.
func (c *LeaderboardCache) GetListing(ctx context.Context) ([]byte, error) {
	payload, err := c.client.Get(ctx, CacheKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

// SetListing stores a freshly built listing payload and bumps the version
// counter in the same pipeline.
func (c *LeaderboardCache) SetListing(ctx context.Context, payload []byte) error {
	pipe := c.client.Pipeline()
	pipe.Set(ctx, CacheKey, payload, CacheTTL)
	pipe.Incr(ctx, VersionKey)
	_, err := pipe.Exec(ctx)
	return err
}

// GetVersion returns the current leaderboard version (0 if never bumped).
func (c *LeaderboardCache) GetVersion(ctx context.Context) (int64, error) {
	version, err := c.client.Get(ctx, VersionKey).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return version, nil
}

// Ping checks if Redis is reachable
func (c *LeaderboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}
