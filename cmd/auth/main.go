package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"koalitos/backend/internal/config"
	"koalitos/backend/internal/database"
	"koalitos/backend/internal/handlers"
	"koalitos/backend/internal/repository"
	"koalitos/backend/internal/routes"
	"koalitos/backend/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load("DATABASE_URL", "JWT_SECRET", "ADMIN_API_KEY")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	pool, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	jwt := utils.NewJWT(cfg.JWTSecret)

	app := fiber.New(fiber.Config{
		AppName: "Auth Service v1.0",
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowCredentials: true,
	}))

	routes.SetupAuthRoutes(app, routes.AuthDeps{
		JWT:         jwt,
		AdminAPIKey: cfg.AdminAPIKey,
		Auth:        handlers.NewAuthHandler(userRepo, jwt),
		Profiles:    handlers.NewProfileHandler(userRepo),
		Admin:       handlers.NewAdminHandler(adminRepo),
	})

	log.Printf("Auth service starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
