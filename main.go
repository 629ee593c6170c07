package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"habit-garden-system/handlers"
	"habit-garden-system/middleware"
	"habit-garden-system/models"
	"habit-garden-system/services"
	"habit-garden-system/utils"
	"habit-garden-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB — largest upload is an icon pack zip
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.HabitUser{},
		&models.Habit{},
		&models.HabitRegister{},
		&models.Reward{},
		&models.UserReward{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	habitService := services.NewHabitService(db)
	rewardService := services.NewRewardService(db)
	registerService := services.NewRegisterService(db, rewardService)
	userService := services.NewUserService(db)

	if err := rewardService.SeedCatalog(); err != nil {
		log.Fatal("failed to seed reward catalog:", err)
	}

	// Notification hand-off is optional; without a URL, unlocks are simply
	// not pushed and clients rely on the counts endpoint.
	if notifyURL := os.Getenv("NOTIFICATION_SERVICE_URL"); notifyURL != "" {
		rewardService.Notifier = services.NewNotificationClient(notifyURL, os.Getenv("HABIT_SERVICE_TOKEN"))
		log.Println("🔔 Notification hand-off enabled")
	}

	syncServiceURL := os.Getenv("SYNC_SERVICE_URL")
	if syncServiceURL == "" {
		log.Fatal("SYNC_SERVICE_URL environment variable not set")
	}
	habitServiceToken := os.Getenv("HABIT_SERVICE_TOKEN")
	if habitServiceToken == "" {
		log.Fatal("HABIT_SERVICE_TOKEN environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profileSync := workers.NewProfileSyncWorker(db, syncServiceURL, "/api/v1/public/profiles", habitServiceToken)
	profileSync.Start(ctx)

	cleanup := workers.NewCleanupWorker(db)
	cleanup.Start(ctx)

	registerService.StartStreakExpiryScheduler()

	handlers.SetupHabitRoutes(app, habitService, registerService)
	handlers.SetupRewardRoutes(app, rewardService)
	handlers.SetupUserRoutes(app, userService)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Cleanup Worker running (daily)")
	log.Println("✅ Streak expiry scheduler running (hourly)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
