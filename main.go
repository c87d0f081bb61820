package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Edura-Academy/edura-sub002/internal/db"
	"github.com/Edura-Academy/edura-sub002/internal/directory"
	"github.com/Edura-Academy/edura-sub002/internal/handlers"
	"github.com/Edura-Academy/edura-sub002/internal/messagelog"
	"github.com/Edura-Academy/edura-sub002/internal/middleware"
	"github.com/Edura-Academy/edura-sub002/internal/observability"
	"github.com/Edura-Academy/edura-sub002/internal/rabbitmq"
	"github.com/Edura-Academy/edura-sub002/internal/readstate"
	"github.com/Edura-Academy/edura-sub002/internal/repositories"
	"github.com/Edura-Academy/edura-sub002/internal/syncer"
	"github.com/Edura-Academy/edura-sub002/internal/telemetry"
	"github.com/Edura-Academy/edura-sub002/internal/userdir"
)

const serviceName = "edura-messaging"

func main() {
	ctx := context.Background()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(ctx, serviceName, os.Getenv("OTLP_ENDPOINT"))
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	var rdb redis.UniversalClient
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis unreachable, caches disabled: %v", err)
			rdb = nil
		}
	}

	publisher := rabbitmq.NewPublisher(os.Getenv("AMQP_URL"), getEnv("AMQP_EXCHANGE", "edura.messaging"))
	defer publisher.Close()
	observability.SetPublisher(publisher)
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	audit := telemetry.NewAuditEmitter(publisher, "audit.messaging", serviceName, getEnv("ENVIRONMENT", "dev"))

	users := userdir.NewCachedDirectory(
		userdir.NewHTTPDirectory(getEnv("USER_SERVICE_URL", "http://localhost:8085")),
		rdb,
		time.Minute,
	)

	convRepo := repositories.NewConversationRepo(database)
	msgRepo := repositories.NewMessageRepo(database)
	cursorRepo := repositories.NewReadCursorRepo(database)

	readStateSvc := readstate.NewService(convRepo, cursorRepo, rdb)
	directorySvc := directory.NewService(convRepo, msgRepo, cursorRepo, users)
	messageLogSvc := messagelog.NewService(convRepo, msgRepo, users, readStateSvc)
	syncSvc := syncer.NewService(convRepo, msgRepo)

	conversationHandler := handlers.NewConversationHandler(directorySvc, audit)
	messageHandler := handlers.NewMessageHandler(messageLogSvc, syncSvc)
	readStateHandler := handlers.NewReadStateHandler(readStateSvc)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware([]byte(getEnv("JWT_SECRET", "dev-secret")))

	router.POST("/conversations", authMiddleware, conversationHandler.Create)
	router.GET("/conversations", authMiddleware, conversationHandler.List)
	router.POST("/conversations/:conversation_id/members", authMiddleware, conversationHandler.AddMember)
	router.DELETE("/conversations/:conversation_id/members/:user_id", authMiddleware, conversationHandler.RemoveMember)
	router.POST("/conversations/:conversation_id/members/:user_id/promote", authMiddleware, conversationHandler.PromoteMember)

	router.GET("/conversations/:conversation_id/messages", authMiddleware, messageHandler.GetHistory)
	router.GET("/conversations/:conversation_id/messages/new", authMiddleware, messageHandler.GetNew)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, messageHandler.Post)
	router.PUT("/conversations/:conversation_id/messages/:seq", authMiddleware, messageHandler.Edit)

	router.POST("/conversations/:conversation_id/read", authMiddleware, readStateHandler.MarkRead)
	router.POST("/conversations/:conversation_id/flags", authMiddleware, readStateHandler.SetFlags)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	handlers.RegisterDebugRoutes(router, audit, os.Getenv("DEBUG_ROUTES") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
