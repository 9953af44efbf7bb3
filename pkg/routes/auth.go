package routes

import (
	"github.com/DedS3t/monopoly-engine/app/controllers"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(a *fiber.App, c *controllers.AuthController) {
	route := a.Group("/user")

	route.Post("/register", c.CreateUser)
	route.Post("/login", c.Login)
}

// UserRoutes need a verified token.
func UserRoutes(a *fiber.App, c *controllers.AuthController) {
	a.Get("/user/cur", c.Cur)
}
