// services/arena_service.go
package services

import (
	"errors"

	"nft-wager-arena/models"

	"github.com/gofiber/fiber/v2"
)

// ArenaService exposes the actor over HTTP.
type ArenaService struct {
	Actor *Actor
}

func NewArenaService(actor *Actor) *ArenaService {
	return &ArenaService{Actor: actor}
}

func callerFrom(c *fiber.Ctx) models.ActorID {
	userID, _ := c.Locals("user_id").(string)
	return models.ActorID(userID)
}

// HandleAction runs one action for the gateway user. Recoverable failures are
// answered with 200 and an error event so the caller can read the refund.
func (s *ArenaService) HandleAction(c *fiber.Ctx) error {
	var action Action
	if err := c.BodyParser(&action); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if action.Kind == "" {
		return c.Status(400).JSON(fiber.Map{"error": "action is required"})
	}

	reply, err := s.Actor.Handle(c.UserContext(), callerFrom(c), action)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownAction):
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		case IsAborted(err):
			return c.Status(502).JSON(fiber.Map{"error": "request aborted", "details": err.Error()})
		default:
			return c.Status(503).JSON(fiber.Map{"error": err.Error()})
		}
	}
	return c.JSON(reply)
}

func (s *ArenaService) GetState(c *fiber.Ctx) error {
	return s.query(c, QueryAll)
}

func (s *ArenaService) GetIdentity(c *fiber.Ctx) error {
	return s.query(c, QueryIdentity)
}

func (s *ArenaService) GetDescription(c *fiber.Ctx) error {
	return s.query(c, QueryDescription)
}

func (s *ArenaService) query(c *fiber.Ctx, kind QueryKind) error {
	out, err := s.Actor.Query(c.UserContext(), callerFrom(c), kind)
	if err != nil {
		return c.Status(503).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(out)
}
