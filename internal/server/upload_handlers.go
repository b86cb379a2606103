// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"io"

	"echoverse/internal/models"
	"echoverse/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadAttachment handles POST /api/uploads/attachments (multipart form,
// field "file"). The returned file_url/file_name/file_type are meant to be
// echoed back in a subsequent message send.
func (s *Server) UploadAttachment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	if fileHeader.Size > s.config.UploadMaxBytes {
		return models.RespondWithError(c, fiber.StatusRequestEntityTooLarge,
			models.NewValidationError("File too large"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, s.config.UploadMaxBytes+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	attachment, err := s.mediaService.UploadAttachment(ctx, service.UploadAttachmentInput{
		UserID:      userID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithError(c, mapServiceError(err), err)
	}

	return c.Status(fiber.StatusCreated).JSON(attachment)
}
