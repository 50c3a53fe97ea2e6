package server

import (
	"wayfarer/internal/inbox"
	"wayfarer/internal/lifecycle"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"

	"github.com/gofiber/fiber/v2"
)

// InboxResponse is the merged conversation list for one tab.
type InboxResponse struct {
	Tab   inbox.Tab    `json:"tab"`
	Items []inbox.Item `json:"items"`
}

// ActionResponse reports a confirmed lifecycle action and the refreshed list.
type ActionResponse struct {
	Notice lifecycle.Notice `json:"notice"`
	Tab    inbox.Tab        `json:"tab"`
	Items  []inbox.Item     `json:"items"`
}

// GetInbox handles GET /api/inbox
// @Summary List conversations
// @Description Direct conversations, groups and communities merged newest first.
// @Tags inbox
// @Produce json
// @Param tab query string false "all, direct, groups, communities or archived"
// @Success 200 {object} InboxResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /inbox [get]
func (s *Server) GetInbox(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)

	tab, ok := inbox.ParseTab(c.Query("tab"))
	if !ok {
		return badRequest(c, "tab must be one of all, direct, groups, communities, archived")
	}

	items, _ := s.loaderFor(userID).Refresh(ctx, tab)
	return c.JSON(InboxResponse{Tab: tab, Items: items})
}

// InboxAction handles POST /api/inbox/:kind/:id/:action
// @Summary Archive, unarchive, delete or leave a conversation
// @Tags inbox
// @Produce json
// @Param kind path string true "direct, group or community"
// @Param id path int true "Conversation ID"
// @Param action path string true "archive, unarchive, delete or leave"
// @Success 200 {object} ActionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /inbox/{kind}/{id}/{action} [post]
func (s *Server) InboxAction(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)

	kind, ok := models.ParseKind(c.Params("kind"))
	if !ok {
		return badRequest(c, "kind must be direct, group or community")
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	action, ok := lifecycle.ParseAction(c.Params("action"))
	if !ok {
		return badRequest(c, "action must be archive, unarchive, delete or leave")
	}
	if !lifecycle.Allowed(kind, action) {
		return badRequest(c, "cannot "+string(action)+" a "+kind.String()+" conversation")
	}

	loader := s.loaderFor(userID)
	item, found := loader.Find(ctx, inbox.Key{Kind: kind, ID: id})
	if !found {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Conversation", id))
	}

	machine := lifecycle.NewMachine(s.backendFor(userID), loader, &lifecycle.Selection{}, middleware.Logger)
	if _, err := machine.Request(item, action); err != nil {
		return respond(c, err)
	}
	notice, err := machine.Confirm(ctx)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(ActionResponse{Notice: notice, Tab: loader.Tab(), Items: loader.Items()})
}
