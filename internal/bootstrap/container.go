package bootstrap

import (
	"context"
	"log"
	"time"

	"course-pr-be/internal/config"
	"course-pr-be/internal/controller"
	"course-pr-be/internal/handler"
	"course-pr-be/internal/pkg/logger"
	"course-pr-be/internal/repository/implementation"
	"course-pr-be/internal/repository/memory"
	"course-pr-be/internal/service"
	"course-pr-be/internal/websocket"
	"course-pr-be/pkg/moderation"
	"course-pr-be/pkg/prserver"

	pktNats "course-pr-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const submissionTopic = "SUBMISSION_COMPLETED"

type Container struct {
	// Controllers
	PRController controller.IPRController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	ActivityHandler *handler.ActivityHandler
	WebSocketHub    *websocket.Hub

	// Exposed for the simulate CLI
	PREntryService service.IPREntryService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run()

	// In-Memory Session Storage
	sessionRepo := memory.NewSessionRepository(time.Duration(cfg.Session.TTLMinutes) * time.Minute)

	// External collaborators
	prClient := prserver.NewClient(cfg.PRServer.BaseURL, cfg.PRServer.APIKey)
	moderator := moderation.NewModerator(cfg.Moderation.APIKey, cfg.Moderation.BaseURL, cfg.Moderation.Model)

	// 3. Services
	prEntryService := service.NewPREntryService(
		sessionRepo,
		prClient,
		moderator,
		pubSub,
		submissionTopic,
		cfg.Auth.AllowedUsers,
		sysLogger,
	)

	submissionRepo := implementation.NewSubmissionRepository(db)
	submissionService := service.NewSubmissionService(submissionRepo)

	consumerService := service.NewConsumerService(
		pubSub,
		submissionTopic,
		submissionRepo,
		wsHub, // Hub implements ActivityDelivery
		natsPub,
	)

	// Handler
	activityHandler := handler.NewActivityHandler(wsHub, sysLogger)

	// 4. Controllers
	return &Container{
		PRController:    controller.NewPRController(prEntryService, submissionService),
		ConsumerService: consumerService,
		ActivityHandler: activityHandler,
		WebSocketHub:    wsHub,
		PREntryService:  prEntryService,
	}
}
