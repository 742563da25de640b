package bootstrap

import (
	"context"
	"log"

	"mediagrid-be/internal/config"
	"mediagrid-be/internal/controller"
	"mediagrid-be/internal/pkg/logger"
	"mediagrid-be/internal/pkg/mailer"
	"mediagrid-be/internal/platform/docstore"
	"mediagrid-be/internal/platform/identity"
	"mediagrid-be/internal/platform/objectstore"
	"mediagrid-be/internal/repository"
	"mediagrid-be/internal/repository/memory"
	"mediagrid-be/internal/service"
	"mediagrid-be/internal/session"
	"mediagrid-be/internal/websocket"
	"mediagrid-be/pkg/llm"
	"mediagrid-be/pkg/llm/factory"

	pkgNats "mediagrid-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	UserController         controller.IUserController
	PostController         controller.IPostController
	ChatController         controller.IChatController
	NotificationController controller.INotificationController

	// Background services (exposed for main.go to run)
	NotificationService *service.NotificationService

	// WebSockets
	WebSocketHub *websocket.Hub

	// Session registry, used by the websocket route to validate tokens.
	AuthService service.IAuthService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Platform layers
	provider := identity.NewGormProvider(db, sysLogger)
	docs := docstore.NewGormStore(db)
	objects := objectstore.NewDiskStore(cfg.App.UploadDir, cfg.App.BaseURL)

	// 2.5 Infrastructure
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

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

	// WebSocket hub doubles as the toast notifier.
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. AI provider. An empty token routes every chat to demo mode.
	demoMode := cfg.Ai.APIKey == ""
	var llmProvider llm.LLMProvider
	if demoMode {
		log.Printf("[WARN] HF_TOKEN not set, AI chat runs in demo mode")
	} else {
		llmProvider, err = factory.NewLLMProvider("huggingface", cfg.Ai.APIKey, cfg.Ai.BaseURL, cfg.Ai.Model)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
		}
		log.Printf("[INFO] Using LLM model: %s", cfg.Ai.Model)
	}

	// 4. In-memory registries
	managerRepo := memory.NewSessionManagerRepository()
	pipelineRepo := memory.NewPipelineRepository()

	// 5. Services
	var eventPublisher session.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}

	authService := service.NewAuthService(
		managerRepo,
		provider,
		docs,
		objects,
		wsHub,
		eventPublisher,
		emailService,
		cfg.JWT.Secret,
		sysLogger,
	)
	userService := service.NewUserService(managerRepo, docs)
	postService := service.NewPostService(docs, sysLogger)
	chatService := service.NewChatService(
		pipelineRepo,
		llmProvider,
		demoMode,
		cfg.Ai.Temperature,
		cfg.Ai.MaxTokens,
		wsHub,
		sysLogger,
	)

	notifRepo := repository.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, natsSub, wsHub, wsLogger)

	// 6. Controllers
	return &Container{
		AuthController:         controller.NewAuthController(authService),
		UserController:         controller.NewUserController(userService),
		PostController:         controller.NewPostController(postService),
		ChatController:         controller.NewChatController(chatService),
		NotificationController: controller.NewNotificationController(notifService),
		NotificationService:    notifService,
		WebSocketHub:           wsHub,
		AuthService:            authService,
	}
}
