package server

import (
	"wayfarer/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UserSearchResponse lists matching users. When nothing matched and the
// query is an email address, InviteEmail is the address to invite instead.
type UserSearchResponse struct {
	Users       []models.User `json:"users"`
	OfferInvite bool          `json:"offer_invite"`
	InviteEmail string        `json:"invite_email,omitempty"`
}

// SearchUsers handles GET /api/users/search
// @Summary Search users to add or invite
// @Tags users
// @Produce json
// @Param q query string true "Handle, name or email"
// @Success 200 {object} UserSearchResponse
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)

	res, err := s.managerFor(userID).SearchMembers(ctx, c.Query("q"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(UserSearchResponse{
		Users:       res.Users,
		OfferInvite: res.OfferInvite,
		InviteEmail: res.Email,
	})
}
