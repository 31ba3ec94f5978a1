package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"classipost/internal/adapter/api"
	"classipost/internal/adapter/api/handler"
	apimiddleware "classipost/internal/adapter/api/middleware"
	"classipost/internal/adapter/api/router"
	"classipost/internal/adapter/repository"
	"classipost/internal/infrastructure/firebase"
	"classipost/internal/infrastructure/mailer"
	"classipost/internal/infrastructure/ratelimit"
	"classipost/internal/infrastructure/websocket"
	"classipost/internal/usecase"
	"classipost/pkg/config"
	"classipost/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Environment == "development"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var opts []option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	conversationRepo := repository.NewFirestoreConversationRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	listingRepo := repository.NewFirestoreListingRepository(firestoreClient)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	var emailSender usecase.EmailSender
	if cfg.EmailEnabled && cfg.BrevoAPIKey != "" {
		emailSender = mailer.NewBrevoMailer(cfg.BrevoAPIKey, cfg.EmailSender, cfg.EmailSenderName)
	}

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, userRepo, emailSender, wsManager, usecase.NotificationSettings{
		EmailEnabled:  cfg.EmailEnabled,
		SiteURL:       cfg.SiteURL,
		PreviewLength: cfg.MessagePreviewLen,
	})
	messageUseCase := usecase.NewMessageUseCase(messageRepo, conversationRepo, userRepo, notificationUseCase, rateLimiter)
	conversationUseCase := usecase.NewConversationUseCase(conversationRepo, messageRepo, userRepo, listingRepo, notificationUseCase, rateLimiter)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(apimiddleware.NewIPRateLimiter(120, time.Minute).Middleware())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebase.NewAuthClient(authClient))
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	router.Setup(e, router.Handlers{
		Conversation: handler.NewConversationHandler(conversationUseCase),
		Message:      handler.NewMessageHandler(messageUseCase),
		Notification: handler.NewNotificationHandler(notificationUseCase),
		Admin:        handler.NewAdminHandler(notificationUseCase, listingRepo),
		WebSocket:    handler.NewWebSocketHandler(wsManager),
		Health:       handler.NewHealthHandler(),
	}, authMiddleware, adminMiddleware)

	logger.Info("Starting server on port %s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
