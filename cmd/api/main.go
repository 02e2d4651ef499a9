package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"koalitos/backend/internal/chat"
	"koalitos/backend/internal/config"
	"koalitos/backend/internal/database"
	"koalitos/backend/internal/handlers"
	"koalitos/backend/internal/realtime"
	"koalitos/backend/internal/repository"
	"koalitos/backend/internal/routes"
	"koalitos/backend/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load("DATABASE_URL", "JWT_SECRET", "CHAT_ENCRYPTION_KEY")
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	redisClient, err := realtime.Dial(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	encryptor, err := chat.NewEncryptor(cfg.ChatEncryptionKey)
	if err != nil {
		log.Fatalf("Invalid encryption key: %v", err)
	}

	chatRepo := repository.NewChatRepository(pool)
	calcRepo := repository.NewCalculationRepository(pool)
	notifier := realtime.NewRedisNotifier(redisClient)
	chatService := chat.NewService(chatRepo, encryptor, notifier)
	jwt := utils.NewJWT(cfg.JWTSecret)

	hub := realtime.NewHub(chatRepo)
	go hub.Run()
	go hub.Listen(ctx, redisClient)

	app := fiber.New(fiber.Config{
		AppName: "API Service v1.0",
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000",
		AllowCredentials: true,
	}))

	routes.SetupAPIRoutes(app, routes.APIDeps{
		JWT:  jwt,
		Chat: handlers.NewChatHandler(chatService),
		Math: handlers.NewMathHandler(calcRepo, notifier),
		WS:   handlers.NewWebSocketHandler(hub),
	})

	log.Printf("API service starting on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
