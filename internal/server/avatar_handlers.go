package server

import (
	"github.com/gofiber/fiber/v2"
)

// AvatarUploadResponse carries the public URL of a normalized avatar.
type AvatarUploadResponse struct {
	URL string `json:"url"`
}

// UploadAvatar handles POST /api/avatars
// @Summary Upload an avatar
// @Description Accepts PNG, JPEG, GIF or WebP in the "file" field; stored as a square WebP.
// @Tags media
// @Accept mpfd
// @Produce json
// @Param file formData file true "Image"
// @Success 201 {object} AvatarUploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /avatars [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No file uploaded")
	}
	avatar, err := s.readUpload(fh)
	if err != nil {
		return respond(c, err)
	}

	url, err := s.backendFor(userID).UploadAvatar(ctx, avatar.Filename, avatar.Content)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(AvatarUploadResponse{URL: url})
}
