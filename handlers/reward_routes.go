package handlers

import (
	"habit-garden-system/middleware"
	"habit-garden-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRewardRoutes(app *fiber.App, rewardService *services.RewardService) {
	// 🔓 Catalog is public — no user context, but still behind gateway auth
	app.Get("/rewards/catalog", rewardService.GetCatalog)

	// 🔐 Secured routes — require user context
	secured := app.Group("/", middleware.UserContextMiddleware())

	secured.Get("/rewards", rewardService.GetUserRewards)
	secured.Get("/rewards/counts", rewardService.GetRewardCounts)
	secured.Post("/rewards/check", rewardService.CheckRewards)
	secured.Patch("/rewards/viewed", rewardService.MarkRewardsViewed)
	secured.Patch("/rewards/viewed/all", rewardService.MarkAllRewardsViewed)
	secured.Patch("/rewards/:id/viewed", middleware.RequireOwnership(rewardService.DB, middleware.ResourceUserReward, "id"), rewardService.MarkRewardViewed)

	// 🔒 Admin-only catalog asset management
	admin := secured.Group("/admin", middleware.RequireRole("admin"))
	admin.Post("/rewards/:code/icon", rewardService.UploadRewardIcon)
	admin.Post("/rewards/icon-pack", rewardService.UploadIconPack)
}
