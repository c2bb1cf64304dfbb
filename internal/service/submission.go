package service

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dropoutsanta/cursorleaderboard/internal/auth"
	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	"github.com/dropoutsanta/cursorleaderboard/internal/stats"
	"github.com/dropoutsanta/cursorleaderboard/internal/storage"
	"github.com/dropoutsanta/cursorleaderboard/internal/vision"
	"github.com/dropoutsanta/cursorleaderboard/internal/worker"
	"github.com/dropoutsanta/cursorleaderboard/pkg/errors"
	"github.com/dropoutsanta/cursorleaderboard/pkg/logger"
)

// RefreshQueue accepts async cache-refresh tasks; backpressure errors are
// tolerated.
type RefreshQueue interface {
	Submit(task worker.RefreshTask) error
}

// SubmissionService orchestrates the submission pipeline: extract, validate,
// store the image, persist the record, derive the rank. Every failure aborts
// the remaining steps; no partial record is ever persisted and nothing is
// retried within one call.
type SubmissionService struct {
	repo      SubmissionStore
	store     storage.ScreenshotStore
	extractor vision.Extractor
	queue     RefreshQueue
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(repo SubmissionStore, store storage.ScreenshotStore, extractor vision.Extractor, queue RefreshQueue) *SubmissionService {
	return &SubmissionService{
		repo:      repo,
		store:     store,
		extractor: extractor,
		queue:     queue,
	}
}

// Submit runs the whole pipeline for one authenticated principal and
// returns the new record's id, its rank at insert time, and the raw
// extracted values for the client to display.
func (s *SubmissionService) Submit(ctx context.Context, principal *auth.Principal, name string, image []byte, filename, mimeType string) (*models.SubmitResponse, error) {
	if principal == nil || principal.ID == "" {
		return nil, errors.New(errors.CodeUnauthenticated, "Unauthorized", nil)
	}
	if name == "" || len(image) == 0 {
		return nil, errors.New(errors.CodeMissingInput, "Missing required fields", nil)
	}

	// Pre-check is a UX nicety; the unique index on user_id is the guard.
	exists, err := s.repo.ExistsForUser(ctx, principal.ID)
	if err != nil {
		return nil, errors.New(errors.CodeRecordInsertFailed, "Failed to save submission", err)
	}
	if exists {
		return nil, errors.New(errors.CodeDuplicateSubmission, "You have already submitted your stats", nil)
	}

	content, err := s.extractor.ExtractStats(ctx, image, mimeType)
	if err != nil {
		return nil, err
	}

	ext, err := stats.ParseExtraction(content)
	if err != nil {
		logger.Errorf("unparseable vision response for user %s: %q", principal.ID, content)
		return nil, err
	}

	screenshotURL, err := s.store.Upload(ctx, image, filename, mimeType)
	if err != nil {
		// Abort before the insert: no record may exist without its image.
		return nil, err
	}

	sub := s.buildRecord(principal, name, screenshotURL, ext)
	if err := s.repo.Create(ctx, sub); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent submission by the same
			// user; the constraint held, so report it as a duplicate.
			return nil, errors.New(errors.CodeDuplicateSubmission, "You have already submitted your stats", err)
		}
		return nil, errors.New(errors.CodeRecordInsertFailed, "Failed to save submission", err)
	}

	greater, err := s.repo.CountGreaterThan(ctx, sub.Tokens)
	if err != nil {
		// The record is in; degrade the rank rather than failing the call.
		logger.Errorf("rank count failed for submission %s: %v", sub.ID, err)
		greater = 0
	}
	rank := int(greater) + 1

	if s.queue != nil {
		// Best effort; the periodic refresher covers dropped tasks.
		_ = s.queue.Submit(worker.RefreshTask{SubmissionID: sub.ID, Reason: "new submission"})
	}

	return &models.SubmitResponse{
		Success: true,
		Rank:    rank,
		ID:      sub.ID,
		Extracted: models.ExtractedEcho{
			Tokens:          ext.RawTokens,
			Agents:          ext.RawAgents,
			Tabs:            ext.RawTabs,
			Streak:          ext.RawStreak,
			UsagePercentile: ext.RawUsagePercentile,
			TopModels:       ext.TopModels,
		},
	}, nil
}

// buildRecord maps the normalized extraction and the principal's provenance
// metadata onto a new submission row.
func (s *SubmissionService) buildRecord(principal *auth.Principal, name, screenshotURL string, ext *stats.Extraction) *models.Submission {
	sub := &models.Submission{
		ID:            uuid.NewString(),
		UserID:        principal.ID,
		Name:          name,
		Tokens:        ext.Tokens.String(),
		Agents:        ext.Agents,
		Tabs:          ext.Tabs,
		Streak:        ext.Streak,
		JoinedDaysAgo: ext.JoinedDaysAgo,
		TopModels:     ext.TopModels,
		ScreenshotURL: strPtr(screenshotURL),
	}

	if principal.Email != "" {
		sub.Email = strPtr(principal.Email)
	}
	if ext.UsagePercentile != "" {
		sub.UsagePercentile = strPtr(ext.UsagePercentile)
	}
	if principal.Handle != "" {
		sub.SocialHandle = strPtr(principal.Handle)
	}
	if principal.Provider != "" {
		sub.SocialProvider = strPtr(principal.Provider)
	}
	if link := auth.SocialLink(principal.Provider, principal.Handle); link != "" {
		sub.SocialLink = strPtr(link)
	}

	return sub
}

func strPtr(s string) *string {
	return &s
}
