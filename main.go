package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"workforce-service/internal/auth"
	"workforce-service/internal/config"
	"workforce-service/internal/db"
	"workforce-service/internal/handlers"
	"workforce-service/internal/logging"
	"workforce-service/internal/middleware"
	"workforce-service/internal/notifier"
	"workforce-service/internal/notify"
	"workforce-service/internal/observability"
	"workforce-service/internal/rabbitmq"
	"workforce-service/internal/repositories"
	"workforce-service/internal/telemetry"
	"workforce-service/internal/ws"
)

const auditRoutingKey = "audit.workforce"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	database, err := db.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to connect to db", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	jobCardRepo := repositories.NewJobCardRepo(database)
	userRepo := repositories.NewUserRepo(database)

	tokens := auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hub := ws.NewHub(logger)

	publisher := rabbitmq.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	logger.Info("event publisher ready", "mode", rabbitmq.PublisherMode(publisher), "reason", rabbitmq.PublisherNoopReason(publisher))

	audit := telemetry.NewAuditEmitter(publisher, auditRoutingKey, cfg.Tracing.ServiceName, cfg.Environment, logger)
	notifications := notifier.NewService(notificationRepo, hub, publisher, logger)

	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, userRepo, notifications, hub, audit, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, notifications)
	jobCardHandler := handlers.NewJobCardHandler(jobCardRepo, userRepo, notifications, audit, logger)

	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, tokens)
	notificationWS := ws.NewNotificationWebSocketHandler(hub, tokens)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/csrf-token", middleware.CSRFToken(cfg.CookieSecure))

	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	router.GET(notify.LivePath, notificationWS.Handle)

	authed := router.Group("/", middleware.AuthMiddleware(tokens), middleware.CSRF())
	{
		authed.GET("/jobcard/:id/details", jobCardHandler.JobCardDetails)
		authed.GET("/employee/:id/details", jobCardHandler.EmployeeDetails)
		authed.POST("/jobcard/assign", middleware.RequireElevated(), jobCardHandler.Assign)
		authed.PATCH("/jobcard/:id/status", jobCardHandler.UpdateStatus)

		authed.POST("/notifications/send", notificationHandler.Send)
		authed.GET("/notifications/pending", notificationHandler.Pending)
		authed.POST("/notifications/mark-read", notificationHandler.MarkRead)

		limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		authed.GET("/chats", chatHandler.ListChats)
		authed.POST("/chats/groups", chatHandler.CreateGroup)
		authed.POST("/chats/dm", chatHandler.CreateDirect)
		authed.DELETE("/chats/:chat_id", chatHandler.DeleteChat)
		authed.POST("/chats/:chat_id/members", chatHandler.AddMember)
		authed.DELETE("/chats/:chat_id/members/:user_id", chatHandler.RemoveMember)
		authed.GET("/chats/:chat_id/messages", chatHandler.GetMessages)
		authed.POST("/chats/:chat_id/messages", limiter.Limit(), chatHandler.PostMessage)
		authed.POST("/chats/:chat_id/read", chatHandler.MarkRead)

		handlers.RegisterDebugRoutes(authed, handlers.DebugDeps{Audit: audit, Notifier: notifications}, cfg.Debug)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", "error", err)
	}
}
