package handlers

import (
	"habit-garden-system/middleware"
	"habit-garden-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, userService *services.UserService) {
	// 🔐 Secured routes — require user context
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/users/search", userService.SearchUsers)
	secured.Get("/users/me/stats", userService.GetUserStats)
}
