package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dropoutsanta/cursorleaderboard/internal/auth"
	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
)

const fencedResponse = "```json\n{\"tokens\":\"6.60B\",\"agents\":\"17K\",\"streak\":\"56d\",\"usage_percentile\":\"Top 5%\",\"top_models\":[\"claude-4.5-sonnet\",\"gpt-5\"]}\n```"

func githubPrincipal() *auth.Principal {
	return &auth.Principal{
		ID:       "user-1",
		Email:    "dev@example.com",
		Handle:   "octocat",
		Provider: "github",
	}
}

func newPipeline(store *fakeStore) (*SubmissionService, *fakeScreenshotStore) {
	shots := &fakeScreenshotStore{url: "https://cdn.example.com/shot.png"}
	svc := NewSubmissionService(store, shots, &fakeExtractor{content: fencedResponse}, nil)
	return svc, shots
}

func TestSubmitHappyPath(t *testing.T) {
	store := seedStore("9000000000", "1000000")
	svc, shots := newPipeline(store)

	res, err := svc.Submit(context.Background(), githubPrincipal(), "Octo Cat", []byte("png-bytes"), "wrapped.png", "image/png")
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.NotEmpty(t, res.ID)
	// 6.60B sits below the existing 9B: one strictly greater -> rank 2.
	assert.Equal(t, 2, res.Rank)
	assert.Equal(t, "6.60B", res.Extracted.Tokens)
	assert.Equal(t, 1, shots.uploads)

	sub, err := store.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "6600000000", sub.Tokens)
	require.NotNil(t, sub.Agents)
	assert.Equal(t, int64(17000), *sub.Agents)
	require.NotNil(t, sub.Streak)
	assert.Equal(t, int64(56), *sub.Streak)
	assert.Nil(t, sub.Tabs)
	require.NotNil(t, sub.SocialLink)
	assert.Equal(t, "https://github.com/octocat", *sub.SocialLink)
	require.NotNil(t, sub.ScreenshotURL)
	assert.Equal(t, "https://cdn.example.com/shot.png", *sub.ScreenshotURL)
}

func TestSubmitTopOfBoardRanksFirst(t *testing.T) {
	svc, _ := newPipeline(seedStore("100", "50"))

	res, err := svc.Submit(context.Background(), githubPrincipal(), "Octo Cat", []byte("img"), "s.png", "image/png")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rank)
}

func TestSubmitRejectsMissingInput(t *testing.T) {
	svc, _ := newPipeline(seedStore())

	_, err := svc.Submit(context.Background(), githubPrincipal(), "", []byte("img"), "s.png", "image/png")
	assert.Equal(t, apperrors.CodeMissingInput, apperrors.CodeOf(err))

	_, err = svc.Submit(context.Background(), githubPrincipal(), "Octo", nil, "s.png", "image/png")
	assert.Equal(t, apperrors.CodeMissingInput, apperrors.CodeOf(err))
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	store := seedStore()
	svc, _ := newPipeline(store)

	_, err := svc.Submit(context.Background(), githubPrincipal(), "Octo", []byte("img"), "s.png", "image/png")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), githubPrincipal(), "Octo", []byte("img"), "s.png", "image/png")
	assert.Equal(t, apperrors.CodeDuplicateSubmission, apperrors.CodeOf(err))
}

func TestSubmitConcurrentDuplicateSurfacesConflict(t *testing.T) {
	// The pre-check passed but the unique index rejected the insert: the
	// conflict must come back as a duplicate, never as two records.
	store := seedStore()
	store.createErr = gorm.ErrDuplicatedKey
	svc, _ := newPipeline(store)

	_, err := svc.Submit(context.Background(), githubPrincipal(), "Octo", []byte("img"), "s.png", "image/png")
	assert.Equal(t, apperrors.CodeDuplicateSubmission, apperrors.CodeOf(err))
	assert.Empty(t, store.subs)
}

func TestSubmitExtractionFailureAborts(t *testing.T) {
	store := seedStore()
	shots := &fakeScreenshotStore{url: "https://cdn.example.com/x.png"}
	svc := NewSubmissionService(store, shots,
		&fakeExtractor{err: apperrors.New(apperrors.CodeExtractionUnavailable, "Failed to extract stats from image", nil)}, nil)

	_, err := svc.Submit(context.Background(), githubPrincipal(), "Octo", []byte("img"), "s.png", "image/png")
	assert.Equal(t, apperrors.CodeExtractionUnavailable, apperrors.CodeOf(err))
	assert.Zero(t, shots.uploads)
	assert.Empty(t, store.subs)
}

func TestSubmitUnparseableResponseAborts(t *testing.T) {
	store := seedStore()
	svc := NewSubmissionService(store, &fakeScreenshotStore{},
		&fakeExtractor{content: "sorry, no JSON here"}, nil)

	_, err := svc.Submit(context.Background(), githubPrincipal(), "Octo", []byte("img"), "s.png", "image/png")
	assert.Equal(t, apperrors.CodeExtractionUnparseable, apperrors.CodeOf(err))
	assert.Empty(t, store.subs)
}

func TestSubmitStorageFailureLeavesNoRecord(t *testing.T) {
	store := seedStore()
	shots := &fakeScreenshotStore{err: apperrors.New(apperrors.CodeStorageWriteFailed, "Failed to upload screenshot", nil)}
	svc := NewSubmissionService(store, shots, &fakeExtractor{content: fencedResponse}, nil)

	_, err := svc.Submit(context.Background(), githubPrincipal(), "Octo", []byte("img"), "s.png", "image/png")
	assert.Equal(t, apperrors.CodeStorageWriteFailed, apperrors.CodeOf(err))
	assert.Empty(t, store.subs)
}

func TestSubmitWithoutRecognizedProviderOmitsLink(t *testing.T) {
	store := seedStore()
	svc, _ := newPipeline(store)

	p := &auth.Principal{ID: "user-9", Handle: "someone", Provider: "discord"}
	res, err := svc.Submit(context.Background(), p, "Someone", []byte("img"), "s.png", "image/png")
	require.NoError(t, err)

	sub, err := store.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Nil(t, sub.SocialLink)
	require.NotNil(t, sub.SocialHandle)
	assert.Equal(t, "someone", *sub.SocialHandle)
}
