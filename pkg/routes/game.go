package routes

import (
	"github.com/DedS3t/monopoly-engine/app/controllers"
	"github.com/gofiber/fiber/v2"
)

func GameRoutes(a *fiber.App, c *controllers.GameController) {
	route := a.Group("/game")
	route.Post("/create", c.CreateGame)
	route.Get("/verify", c.VerifyGame)
}

// GameStateRoutes need a verified token.
func GameStateRoutes(a *fiber.App, c *controllers.GameController) {
	a.Get("/game/:id/state", c.GameState)
}
