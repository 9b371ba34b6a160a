package config

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"

	"bheem-chat/config/common"
	"bheem-chat/config/logger"
	"bheem-chat/handler"
	"bheem-chat/middleware"
	"bheem-chat/realtime"
	"bheem-chat/routes"
	"bheem-chat/security"
	"bheem-chat/storage"
	"bheem-chat/usecase"
	"bheem-chat/worker"
)

type AppConfig struct {
	*fiber.App
	*validator.Validate
	*logrus.Logger
	*DBConfig
	*security.JWT
	*middleware.Middleware
	Config *common.Config
	Broker realtime.Broker
	Store  storage.AttachmentStore
}

// Usecases is everything App wires, exposed for the worker and for tests.
type Usecases struct {
	Conversations usecase.ConversationUsecase
	Participants  usecase.ParticipantUsecase
	Messages      usecase.MessageUsecase
	Exports       usecase.ExportUsecase
	Invitations   usecase.InvitationUsecase
	Calls         usecase.CallUsecase
	WaitingRoom   usecase.WaitingRoomUsecase
}

func RunServer() {
	newConfig := common.NewViper()
	log := NewLogger()
	appLogger := logger.NewLogger(newConfig.GetLogDir())
	app := NewFiber(newConfig, log)
	newDB := NewDB(newConfig, appLogger)
	newValidator := NewValidator()
	newJWT := security.NewJWT(newConfig)
	newMiddleware := middleware.NewMiddleware(newConfig, newJWT, log)

	redisURL := newConfig.GetRedisURL()
	var broker realtime.Broker = realtime.NewMemoryBroker()
	if redisURL != "" {
		redisBroker, err := realtime.NewRedisBroker(redisURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to redis")
		}
		broker = redisBroker
	}
	defer func() { _ = broker.Close() }()

	dir, baseURL, maxBytes := newConfig.GetAttachmentConfig()
	store, err := storage.NewLocalStore(dir, baseURL, maxBytes)
	if err != nil {
		log.WithError(err).Fatal("Failed to prepare attachment storage")
	}

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: newConfig.GetCorsOrigins(),
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	usecases := App(&AppConfig{
		App:        app,
		Validate:   newValidator,
		Logger:     log,
		DBConfig:   newDB,
		JWT:        newJWT,
		Middleware: newMiddleware,
		Config:     newConfig,
		Broker:     broker,
		Store:      store,
	})

	if redisURL != "" {
		chatWorker, err := worker.NewWorker(redisURL, &worker.Handlers{
			Invitations: usecases.Invitations,
			WaitingRoom: usecases.WaitingRoom,
			Calls:       usecases.Calls,
			Chat:        newConfig.GetChatConfig(),
			Log:         appLogger.Worker,
		}, appLogger.Worker)
		if err != nil {
			log.WithError(err).Fatal("Failed to create worker")
		}
		if err := chatWorker.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start worker")
		}
		defer chatWorker.Shutdown()
	} else {
		log.Warn("REDIS_URL is empty: realtime events stay in process and sweeps are disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Error("Failed to shut down server")
		}
	}()

	_, port := newConfig.GetAppConfig()
	if err := app.Listen(":" + strings.TrimPrefix(port, ":")); err != nil {
		log.WithError(err).Errorf("Failed to start server: %v", err)
	}
}

func App(aC *AppConfig) *Usecases {
	repositories := usecase.NewRepositories()
	chat := aC.Config.GetChatConfig()
	db := aC.GetDB()

	conversationUsecase := usecase.NewConversationUsecase(repositories, aC.Validate, db, aC.Logger, aC.Broker)
	participantUsecase := usecase.NewParticipantUsecase(repositories, aC.Validate, db, aC.Logger, aC.Broker)
	messageUsecase := usecase.NewMessageUsecase(repositories, aC.Validate, db, aC.Logger, aC.Broker, aC.Store, chat.MessagePageLimit)
	exportUsecase := usecase.NewExportUsecase(repositories, db, aC.Logger)
	invitationUsecase := usecase.NewInvitationUsecase(repositories, aC.Validate, db, aC.Logger, aC.Broker, chat.InvitationTTL)
	callUsecase := usecase.NewCallUsecase(repositories, aC.Validate, db, aC.Logger, aC.Broker)
	waitingRoomUsecase := usecase.NewWaitingRoomUsecase(repositories, aC.Validate, db, aC.Logger, aC.Broker)

	_, baseURL, maxBytes := aC.Config.GetAttachmentConfig()
	dir := ""
	if local, ok := aC.Store.(*storage.LocalStore); ok {
		dir = local.Dir
	}

	route := routes.ConfigRoute{
		App:                 aC.App,
		Middleware:          aC.Middleware,
		ConversationHandler: handler.NewConversationHandler(conversationUsecase, participantUsecase, exportUsecase, aC.Logger),
		MessageHandler:      handler.NewMessageHandler(messageUsecase, aC.Logger, maxBytes),
		InvitationHandler:   handler.NewInvitationHandler(invitationUsecase, aC.Logger),
		CallHandler:         handler.NewCallHandler(callUsecase, aC.Logger),
		MeetHandler:         handler.NewMeetHandler(waitingRoomUsecase, aC.Logger),
		WebSocketHandler:    handler.NewWebSocketHandler(aC.Broker, conversationUsecase, waitingRoomUsecase, aC.DBConfig.AppLogger),
		AttachmentDir:       dir,
		AttachmentBaseURL:   baseURL,
	}
	route.GetRoute()

	return &Usecases{
		Conversations: conversationUsecase,
		Participants:  participantUsecase,
		Messages:      messageUsecase,
		Exports:       exportUsecase,
		Invitations:   invitationUsecase,
		Calls:         callUsecase,
		WaitingRoom:   waitingRoomUsecase,
	}
}
