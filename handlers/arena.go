// handlers/arena.go
package handlers

import (
	"nft-wager-arena/middleware"
	"nft-wager-arena/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func SetupArenaRoutes(app *fiber.App, arenaService *services.ArenaService, log *logrus.Entry) {
	// 🔓 No user context needed, but still behind Gateway auth
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "arena": arenaService.Actor.ID()})
	})
	app.Get("/state/description", arenaService.GetDescription)

	// 🔐 Caller identity comes from the gateway user context; scoped per route
	userCtx := middleware.UserContextMiddleware(log)

	app.Post("/actions", userCtx, arenaService.HandleAction)
	app.Get("/state", userCtx, arenaService.GetState)
	app.Get("/state/identity", userCtx, arenaService.GetIdentity)
}
