package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	"github.com/dropoutsanta/cursorleaderboard/internal/service"
	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStatus reports cache reachability plus the current listing version.
type CacheStatus interface {
	Pinger
	GetVersion(ctx context.Context) (int64, error)
}

// LeaderboardHandler handles HTTP requests for the leaderboard
type LeaderboardHandler struct {
	service *service.LeaderboardService
	db      Pinger
	cache   CacheStatus
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service *service.LeaderboardService, db Pinger, cache CacheStatus) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		db:      db,
		cache:   cache,
	}
}

// GetLeaderboard handles GET /api/v1/leaderboard
// @Summary Get leaderboard
// @Description Retrieves all submissions ordered by token count descending
// @Produce json
// @Success 200 {array} models.LeaderboardEntry
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	entries, err := h.service.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	// Always an array, never null, so clients can iterate unconditionally.
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	return c.Status(fiber.StatusOK).JSON(entries)
}

// GetUserRank handles GET /api/v1/users/:id
// @Summary Get a submission's rank
// @Description Retrieves the rank and percentile for one submission
// @Produce json
// @Param id path string true "Submission id"
// @Success 200 {object} models.RankResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/users/{id} [get]
func (h *LeaderboardHandler) GetUserRank(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   apperrors.CodeMissingInput,
			Message: "Submission id cannot be empty",
		})
	}

	res, err := h.service.RankOf(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

// HealthCheck handles GET /api/v1/health
// @Summary Health check
// @Description Checks the health of the service and its dependencies
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} models.ErrorResponse
// @Router /api/v1/health [get]
func (h *LeaderboardHandler) HealthCheck(c *fiber.Ctx) error {
	if err := h.db.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "UNHEALTHY",
			Message: "database unreachable",
		})
	}
	if err := h.cache.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "UNHEALTHY",
			Message: "cache unreachable",
		})
	}

	payload := fiber.Map{
		"status":  "healthy",
		"message": "All systems operational",
	}
	if version, err := h.cache.GetVersion(c.Context()); err == nil {
		payload["leaderboard_version"] = version
	}

	return c.Status(fiber.StatusOK).JSON(payload)
}
