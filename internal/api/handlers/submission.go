package handlers

import (
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/dropoutsanta/cursorleaderboard/internal/auth"
	"github.com/dropoutsanta/cursorleaderboard/internal/models"
	"github.com/dropoutsanta/cursorleaderboard/internal/service"
	apperrors "github.com/dropoutsanta/cursorleaderboard/pkg/errors"
	"github.com/dropoutsanta/cursorleaderboard/pkg/logger"
)

// SubmissionHandler handles HTTP requests for submitting stats
type SubmissionHandler struct {
	service       *service.SubmissionService
	validator     *validator.Validate
	maxUploadSize int64
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(service *service.SubmissionService, maxUploadSize int) *SubmissionHandler {
	return &SubmissionHandler{
		service:       service,
		validator:     validator.New(),
		maxUploadSize: int64(maxUploadSize),
	}
}

// submitForm is the multipart form contract.
type submitForm struct {
	Name string `validate:"required,min=1,max=100"`
}

// Submit handles POST /api/v1/submissions
// @Summary Submit a usage screenshot
// @Description Extracts stats from the screenshot, persists the record, and returns the rank
// @Accept mpfd
// @Produce json
// @Success 200 {object} models.SubmitResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/submissions [post]
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	principal := auth.PrincipalFromCtx(c)
	if principal == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
			Error:   apperrors.CodeUnauthenticated,
			Message: "Unauthorized",
		})
	}

	form := submitForm{Name: c.FormValue("name")}
	if err := h.validator.Struct(&form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   apperrors.CodeMissingInput,
			Message: "Missing required fields",
		})
	}

	fileHeader, err := c.FormFile("screenshot")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   apperrors.CodeMissingInput,
			Message: "Missing required fields",
		})
	}
	if fileHeader.Size > h.maxUploadSize {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   apperrors.CodeMissingInput,
			Message: "Screenshot is too large",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   apperrors.CodeMissingInput,
			Message: "Could not read screenshot",
		})
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil || int64(len(image)) > h.maxUploadSize {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   apperrors.CodeMissingInput,
			Message: "Could not read screenshot",
		})
	}

	mimeType := fileHeader.Header.Get(fiber.HeaderContentType)

	res, err := h.service.Submit(c.Context(), principal, form.Name, image, fileHeader.Filename, mimeType)
	if err != nil {
		logger.Errorf("submission failed for user %s: %v", principal.ID, err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

// respondError maps an AppError to its status without leaking internals.
func respondError(c *fiber.Ctx, err error) error {
	code := apperrors.CodeOf(err)
	if code == "" {
		code = "INTERNAL"
	}
	return c.Status(apperrors.HTTPStatus(err)).JSON(models.ErrorResponse{
		Error:   code,
		Message: apperrors.MessageOf(err),
	})
}
