package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	"github.com/dropoutsanta/cursorleaderboard/internal/preview"
	"github.com/dropoutsanta/cursorleaderboard/internal/service"
	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
)

// neighborRadius is how many ranks to show above and below the user on the
// share card.
const neighborRadius = 3

// PreviewHandler serves the dynamically generated share-card image
type PreviewHandler struct {
	service *service.LeaderboardService
}

// NewPreviewHandler creates a new preview handler
func NewPreviewHandler(service *service.LeaderboardService) *PreviewHandler {
	return &PreviewHandler{
		service: service,
	}
}

// GetCard handles GET /api/v1/og/:id
// @Summary Share-card image
// @Description Renders an SVG card with the submission's rank and neighboring ranks
// @Produce image/svg+xml
// @Param id path string true "Submission id"
// @Success 200
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/og/{id} [get]
func (h *PreviewHandler) GetCard(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   apperrors.CodeMissingInput,
			Message: "Submission id cannot be empty",
		})
	}

	target, neighbors, total, err := h.service.Window(c.Context(), id, neighborRadius)
	if err != nil {
		return respondError(c, err)
	}

	svg := preview.Render(preview.Card{
		Entry:      *target,
		Neighbors:  neighbors,
		Total:      total,
		Percentile: service.PercentileLabel(target.Rank, total),
	})

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	return c.Status(fiber.StatusOK).Send(svg)
}
