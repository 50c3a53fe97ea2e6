package server

import (
	"strings"

	"wayfarer/internal/membership"
	"wayfarer/internal/models"

	"github.com/gofiber/fiber/v2"
)

// InviteRequest creates an invite. A missing or blank email makes an open
// link invite.
type InviteRequest struct {
	Email *string `json:"email"`
}

// InviteView is an invite together with its shareable link.
type InviteView struct {
	models.Invite
	Link string `json:"link"`
}

// ListInvites handles GET /api/{groups,communities}/:id/invites
// @Summary List invites
// @Description Members only. Includes remind counters and terminal invites.
// @Tags invites
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {array} InviteView
// @Failure 502 {object} models.ErrorResponse
// @Router /groups/{id}/invites [get]
func (s *Server) ListInvites(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	mgr := s.managerFor(userID)
	invites, err := mgr.ListInvites(ctx, circleKind(c), id)
	if err != nil {
		return respond(c, err)
	}
	views := make([]InviteView, 0, len(invites))
	for _, inv := range invites {
		views = append(views, InviteView{Invite: inv, Link: mgr.InviteLink(inv.InviteCode)})
	}
	return c.JSON(views)
}

// CreateInvite handles POST /api/{groups,communities}/:id/invites
// @Summary Create an invite
// @Tags invites
// @Accept json
// @Produce json
// @Param id path int true "Circle ID"
// @Param request body InviteRequest false "Optional email"
// @Success 201 {object} InviteView
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /groups/{id}/invites [post]
func (s *Server) CreateInvite(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req InviteRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	mgr := s.managerFor(userID)
	inv, err := mgr.CreateInvite(ctx, circleKind(c), id, req.Email)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(InviteView{Invite: *inv, Link: mgr.InviteLink(inv.InviteCode)})
}

// RemindInvite handles POST /api/{groups,communities}/:id/invites/:inviteId/remind
// @Summary Remind an invitee
// @Description Only pending invites can be reminded.
// @Tags invites
// @Param id path int true "Circle ID"
// @Param inviteId path int true "Invite ID"
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Router /groups/{id}/invites/{inviteId}/remind [post]
func (s *Server) RemindInvite(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	inviteID, err := s.parseID(c, "inviteId")
	if err != nil {
		return nil
	}

	if err := s.managerFor(userID).RemindInvite(ctx, circleKind(c), id, inviteID); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RevokeInvite handles POST /api/{groups,communities}/:id/invites/:inviteId/revoke
// @Summary Revoke an invite
// @Description Only pending invites can be revoked.
// @Tags invites
// @Param id path int true "Circle ID"
// @Param inviteId path int true "Invite ID"
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Router /groups/{id}/invites/{inviteId}/revoke [post]
func (s *Server) RevokeInvite(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	inviteID, err := s.parseID(c, "inviteId")
	if err != nil {
		return nil
	}

	if err := s.managerFor(userID).RevokeInvite(ctx, circleKind(c), id, inviteID); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetInviteLink handles GET /api/invites/link/:code
// @Summary Build the shareable link for an invite code
// @Tags invites
// @Produce json
// @Param code path string true "Invite code"
// @Success 200 {object} map[string]string
// @Router /invites/link/{code} [get]
func (s *Server) GetInviteLink(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return badRequest(c, "code is required")
	}
	return c.JSON(fiber.Map{"link": membership.InviteLink(s.config.PublicOrigin, code)})
}
