package handlers

import (
	"time"

	"habit-garden-system/middleware"
	"habit-garden-system/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func SetupHabitRoutes(app *fiber.App, habitService *services.HabitService, registerService *services.RegisterService) {
	db := habitService.DB

	// 🔐 Every habit route requires user context (userID, roles) from the gateway
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Habit CRUD — ownership enforced by route guard on :id routes
	secured.Post("/habits", middleware.RequireVerifiedEmail(db), habitService.CreateHabit)
	secured.Get("/habits", habitService.GetUserHabits)
	secured.Get("/habits/:id", middleware.RequireOwnership(db, middleware.ResourceHabit, "id"), habitService.GetHabitByID)
	secured.Put("/habits/:id", middleware.RequireOwnership(db, middleware.ResourceHabit, "id"), habitService.UpdateHabit)
	secured.Patch("/habits/:id", middleware.RequireOwnership(db, middleware.ResourceHabit, "id"), habitService.UpdateHabit)
	secured.Delete("/habits/:id", middleware.RequireOwnership(db, middleware.ResourceHabit, "id"), habitService.DeactivateHabit)
	secured.Post("/habits/:id/restore", middleware.RequireOwnership(db, middleware.ResourceHabit, "id"), habitService.RestoreHabit)
	secured.Get("/habits/:id/stats", middleware.RequireOwnership(db, middleware.ResourceHabit, "id"), habitService.GetHabitStats)

	// ✅ Completions — rate-limited so a misbehaving client can't hammer the
	// streak pipeline; repeats are idempotent anyway.
	completionLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if userID, ok := c.Locals("user_id").(string); ok {
				return userID
			}
			return c.IP()
		},
	})
	secured.Post("/completions", completionLimiter, registerService.MarkCompletedEndpoint)
	secured.Get("/completions", registerService.GetCompletions)
	secured.Get("/completions/:id", middleware.RequireOwnership(db, middleware.ResourceRegister, "id"), registerService.GetCompletionByID)
	secured.Get("/habits/:habitId/completions", middleware.RequireOwnership(db, middleware.ResourceHabit, "habitId"), registerService.GetCompletions)
	secured.Get("/habits/:habitId/streak", middleware.RequireOwnership(db, middleware.ResourceHabit, "habitId"), registerService.GetStreakData)
}
