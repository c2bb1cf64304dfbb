package service

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	"github.com/dropoutsanta/cursorleaderboard/internal/repository"
)

// fakeStore is an in-memory SubmissionStore ordered like the real one:
// tokens descending, insertion order within ties.
type fakeStore struct {
	subs      []models.Submission
	createErr error
}

func tokensCmp(a, b string) int {
	ai, _ := new(big.Int).SetString(a, 10)
	bi, _ := new(big.Int).SetString(b, 10)
	return ai.Cmp(bi)
}

func (f *fakeStore) Create(_ context.Context, sub *models.Submission) error {
	if f.createErr != nil {
		return f.createErr
	}
	sub.CreatedAt = time.Now()
	f.subs = append(f.subs, *sub)
	return nil
}

func (f *fakeStore) ExistsForUser(_ context.Context, userID string) (bool, error) {
	for _, s := range f.subs {
		if s.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*models.Submission, error) {
	for _, s := range f.subs {
		if s.ID == id {
			sub := s
			return &sub, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) ListByTokens(_ context.Context) ([]models.Submission, error) {
	sorted := make([]models.Submission, len(f.subs))
	copy(sorted, f.subs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return tokensCmp(sorted[i].Tokens, sorted[j].Tokens) > 0
	})
	return sorted, nil
}

func (f *fakeStore) CountGreaterThan(_ context.Context, tokens string) (int64, error) {
	var count int64
	for _, s := range f.subs {
		if tokensCmp(s.Tokens, tokens) > 0 {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Count(_ context.Context) (int64, error) {
	return int64(len(f.subs)), nil
}

// fakeCache records listing payloads in memory.
type fakeCache struct {
	payload []byte
	sets    int
}

func (f *fakeCache) GetListing(context.Context) ([]byte, error) {
	return f.payload, nil
}

func (f *fakeCache) SetListing(_ context.Context, payload []byte) error {
	f.payload = payload
	f.sets++
	return nil
}

// fakeExtractor returns a canned inference response.
type fakeExtractor struct {
	content string
	err     error
}

func (f *fakeExtractor) ExtractStats(context.Context, []byte, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

// fakeScreenshotStore returns a canned URL.
type fakeScreenshotStore struct {
	url     string
	err     error
	uploads int
}

func (f *fakeScreenshotStore) Upload(context.Context, []byte, string, string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads++
	return f.url, nil
}

func seedStore(tokens ...string) *fakeStore {
	f := &fakeStore{}
	base := time.Now().Add(-time.Hour)
	for i, t := range tokens {
		f.subs = append(f.subs, models.Submission{
			ID:        string(rune('a' + i)),
			UserID:    "user-" + string(rune('a'+i)),
			Name:      "Dev " + string(rune('A'+i)),
			Tokens:    t,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return f
}
