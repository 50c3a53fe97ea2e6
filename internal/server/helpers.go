package server

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"wayfarer/internal/collab"
	"wayfarer/internal/inbox"
	"wayfarer/internal/membership"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const kindLocal = "circleKind"

// withKind pins the circle kind for a route group.
func withKind(kind models.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(kindLocal, kind)
		return c.Next()
	}
}

func circleKind(c *fiber.Ctx) models.Kind {
	kind, _ := c.Locals(kindLocal).(models.Kind)
	return kind
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "inviteId" -> "Invalid invite ID").
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// currentUser returns the authenticated caller and a request context tagged
// with it for logging.
func currentUser(c *fiber.Ctx) (uint, context.Context) {
	userID, _ := c.Locals("userID").(uint)
	return userID, middleware.WithUserID(c.UserContext(), userID)
}

// backendFor binds the service layer to the caller.
func (s *Server) backendFor(userID uint) *collab.Local {
	return collab.NewLocal(userID, s.services)
}

func (s *Server) managerFor(userID uint) *membership.Manager {
	return membership.NewManager(s.backendFor(userID), s.config.PublicOrigin, middleware.Logger)
}

func (s *Server) loaderFor(userID uint) *inbox.Loader {
	return inbox.NewLoader(s.backendFor(userID), userID, middleware.Logger)
}

// respond writes err with the status its code maps to.
func respond(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func badRequest(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}
