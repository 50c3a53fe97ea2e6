package server

import (
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"wayfarer/internal/inbox"
	"wayfarer/internal/membership"
	"wayfarer/internal/models"

	"github.com/gofiber/fiber/v2"
)

// CreateConversationRequest starts or reopens a direct conversation.
type CreateConversationRequest struct {
	PeerID uint `json:"peer_id"`
}

// CircleRequest is the JSON body for creating or editing a group or
// community. Multipart bodies carry the same fields plus an "avatar" file.
type CircleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsPublic    *bool   `json:"is_public"`
	MemberIDs   []uint  `json:"member_ids"`
}

// MemberRequest names the user to add.
type MemberRequest struct {
	UserID uint `json:"user_id"`
}

// CreateConversation handles POST /api/conversations
// @Summary Start a direct conversation
// @Description Returns the existing conversation when one already exists with the peer.
// @Tags conversations
// @Accept json
// @Produce json
// @Param request body CreateConversationRequest true "Peer"
// @Success 200 {object} inbox.Item
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /conversations [post]
func (s *Server) CreateConversation(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)

	var req CreateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.PeerID == 0 {
		return badRequest(c, "peer_id is required")
	}

	dc, err := s.backendFor(userID).CreateDirect(ctx, req.PeerID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(inbox.FromDirect(*dc, userID))
}

// CreateCircle handles POST /api/groups and POST /api/communities
// @Summary Create a group or community
// @Description The caller becomes admin. Communities cannot take initial members; invite them instead.
// @Tags circles
// @Accept json,mpfd
// @Produce json
// @Param request body CircleRequest true "Circle details"
// @Success 201 {object} models.Circle
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /groups [post]
// @Router /communities [post]
func (s *Server) CreateCircle(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)
	kind := circleKind(c)

	req, avatar, err := s.parseCircleRequest(c)
	if err != nil {
		return nil
	}
	name, description := deref(req.Name), deref(req.Description)
	mgr := s.managerFor(userID)

	switch kind {
	case models.KindGroup:
		g, err := mgr.CreateGroup(ctx, membership.GroupInput{
			Name:        name,
			Description: description,
			MemberIDs:   req.MemberIDs,
			Avatar:      avatar,
			IsPublic:    req.IsPublic,
		})
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(g)
	case models.KindCommunity:
		if len(req.MemberIDs) > 0 {
			return badRequest(c, "communities take no initial members; send invites instead")
		}
		cm, err := mgr.CreateCommunity(ctx, membership.CommunityInput{
			Name:        name,
			Description: description,
			Avatar:      avatar,
			IsPublic:    req.IsPublic,
		})
		if err != nil {
			return respond(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(cm)
	}
	return badRequest(c, "unknown circle kind")
}

// UpdateCircle handles PATCH /api/groups/:id and PATCH /api/communities/:id
// @Summary Edit a group or community
// @Description Admin only. Omitted fields are left unchanged.
// @Tags circles
// @Accept json,mpfd
// @Param id path int true "Circle ID"
// @Param request body CircleRequest true "Fields to change"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /groups/{id} [patch]
// @Router /communities/{id} [patch]
func (s *Server) UpdateCircle(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	req, avatar, err := s.parseCircleRequest(c)
	if err != nil {
		return nil
	}

	err = s.managerFor(userID).Update(ctx, circleKind(c), id, membership.Update{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Avatar:      avatar,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddMember handles POST /api/{groups,communities}/:id/members
// @Summary Add a member
// @Tags circles
// @Accept json
// @Param id path int true "Circle ID"
// @Param request body MemberRequest true "User to add"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /groups/{id}/members [post]
func (s *Server) AddMember(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req MemberRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := s.managerFor(userID).AddMember(ctx, circleKind(c), id, req.UserID); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveMember handles DELETE /api/{groups,communities}/:id/members/:userId
// @Summary Remove a member
// @Description Admins cannot be removed.
// @Tags circles
// @Param id path int true "Circle ID"
// @Param userId path int true "User ID"
// @Success 204
// @Failure 409 {object} models.ErrorResponse
// @Router /groups/{id}/members/{userId} [delete]
func (s *Server) RemoveMember(c *fiber.Ctx) error {
	userID, ctx := currentUser(c)
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	memberID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.managerFor(userID).RemoveMember(ctx, circleKind(c), id, memberID); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// parseCircleRequest reads a JSON or multipart circle body. On failure it
// writes a 400 and returns errResponseWritten.
func (s *Server) parseCircleRequest(c *fiber.Ctx) (CircleRequest, *membership.AvatarFile, error) {
	var req CircleRequest
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if err := c.BodyParser(&req); err != nil {
			_ = badRequest(c, "Invalid request body")
			return req, nil, errResponseWritten
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		_ = badRequest(c, "Invalid multipart body")
		return req, nil, errResponseWritten
	}
	if v, ok := formValue(form, "name"); ok {
		req.Name = &v
	}
	if v, ok := formValue(form, "description"); ok {
		req.Description = &v
	}
	if v, ok := formValue(form, "is_public"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			_ = badRequest(c, "is_public must be true or false")
			return req, nil, errResponseWritten
		}
		req.IsPublic = &b
	}
	if v, ok := formValue(form, "member_ids"); ok && strings.TrimSpace(v) != "" {
		for _, raw := range strings.Split(v, ",") {
			n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
			if err != nil || n == 0 {
				_ = badRequest(c, "member_ids must be a comma separated list of user IDs")
				return req, nil, errResponseWritten
			}
			req.MemberIDs = append(req.MemberIDs, uint(n))
		}
	}

	files := form.File["avatar"]
	if len(files) == 0 {
		return req, nil, nil
	}
	avatar, err := s.readUpload(files[0])
	if err != nil {
		_ = respond(c, err)
		return req, nil, errResponseWritten
	}
	return req, avatar, nil
}

func (s *Server) readUpload(fh *multipart.FileHeader) (*membership.AvatarFile, error) {
	limit := int64(s.avatarLimitMB()) * 1024 * 1024
	if fh.Size > limit {
		return nil, models.NewValidationError("avatar exceeds the upload size limit")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewValidationError("unreadable avatar upload")
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, models.NewValidationError("unreadable avatar upload")
	}
	if int64(len(content)) > limit {
		return nil, models.NewValidationError("avatar exceeds the upload size limit")
	}
	return &membership.AvatarFile{Filename: fh.Filename, Content: content}, nil
}

func formValue(form *multipart.Form, key string) (string, bool) {
	vs, ok := form.Value[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
