package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	chatApp "realtime_chat_service/internal/chat/app"
	chatRepo "realtime_chat_service/internal/chat/repository"
	chatRouter "realtime_chat_service/internal/chat/router"
	memberApp "realtime_chat_service/internal/member/app"
	memberRepo "realtime_chat_service/internal/member/repository"
	memberRouter "realtime_chat_service/internal/member/router"
	"realtime_chat_service/pkg/config"
	"realtime_chat_service/pkg/database"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	if config.EnvConfig.JWTSecret != "" {
		token.SetSecret(config.EnvConfig.JWTSecret)
	} else if cfg.JWT.Secret != "" {
		token.SetSecret(cfg.JWT.Secret)
	}

	ctx := context.Background()

	// 1. PostgreSQL holds member accounts
	pgConnStr := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.Database)
	pgPool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    pgConnStr,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.PostgreSQL.Host, cfg.PostgreSQL.Port)),
			zap.Error(err),
		)
	}
	defer pgPool.Close()

	// 2. Mongo holds chat messages
	mongoURI := fmt.Sprintf("mongodb://%s:%s@%s:%d",
		cfg.Mongo.User, cfg.Mongo.Password, cfg.Mongo.Host, cfg.Mongo.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    mongoURI,
			RetryCount:    cfg.Mongo.RetryCount,
			RetryInterval: time.Duration(cfg.Mongo.RetryInterval),
		},
		cfg.Mongo.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s]", mongoURI)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	// 3. Redis backs presence and the rate limiter. Without an address the
	// service falls back to in process stores, single instance only.
	var (
		presence chatRepo.PresenceStore
		limiter  chatRepo.RateLimiter
	)
	if cfg.Redis.Addr != "" {
		redisClient, err := database.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.RedisDB)
		if err != nil {
			logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
		}
		presence = chatRepo.NewRedisPresenceStore(redisClient)
		limiter = chatRepo.NewRedisRateLimiter(redisClient, cfg.RateLimit.Window, cfg.RateLimit.Max)
	} else {
		logger.Log.Warn("redis address not set, using in process presence and rate limiting")
		presence = chatRepo.NewMemoryPresenceStore()
		limiter = chatRepo.NewMemoryRateLimiter(cfg.RateLimit.Window, cfg.RateLimit.Max)
	}

	// 4. Repositories and use cases
	mRepo := memberRepo.NewMemberRepository(pgPool)
	memberUC := memberApp.NewMemberUseCase(mRepo, cfg.JWT.TTL)
	msgRepo := chatRepo.NewMongoMessageRepository(mongo.Database)
	msgUC := chatApp.NewMessageUseCase(msgRepo)

	// 5. The websocket room
	registry := chatApp.NewRegistry()
	hub := chatApp.NewHub(registry)
	sessionCtl := chatApp.NewSessionController(hub, presence, limiter, msgUC,
		chatApp.NewMemberDirectory(memberUC),
		chatApp.SessionConfig{
			HeartbeatInterval: cfg.Heartbeat.Interval,
			HeartbeatGrace:    cfg.Heartbeat.Grace,
		})

	// 6. Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	memberRouter.RegisterRoutes(r, &memberApp.MemberHandler{Usecase: memberUC})
	chatRouter.RegisterRoutes(r, sessionCtl,
		&chatApp.MessageHandler{Usecase: msgUC, Hub: hub},
		&chatApp.PresenceHandler{Presence: presence})

	port := ":" + cfg.Port
	log.Printf("Chat Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
