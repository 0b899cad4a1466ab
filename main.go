package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	authpb "ticket-chat-service/pb/auth"
	purchasepb "ticket-chat-service/pb/purchase"

	"ticket-chat-service/internal/config"
	"ticket-chat-service/internal/db"
	"ticket-chat-service/internal/delivery"
	grpcclient "ticket-chat-service/internal/grpc"
	"ticket-chat-service/internal/handlers"
	"ticket-chat-service/internal/middleware"
	"ticket-chat-service/internal/observability"
	"ticket-chat-service/internal/rabbitmq"
	"ticket-chat-service/internal/repositories"
	"ticket-chat-service/internal/telemetry"
	"ticket-chat-service/internal/ws"
)

func main() {
	cfg := config.Load()

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "ticket-chat-service", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	authConn, err := grpc.Dial(cfg.AuthGRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
	if err != nil {
		log.Fatalf("failed to connect to auth grpc: %v", err)
	}
	defer authConn.Close()

	purchaseConn, err := grpc.Dial(cfg.PurchaseGRPCAddr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()))
	if err != nil {
		log.Fatalf("failed to connect to purchase grpc: %v", err)
	}
	defer purchaseConn.Close()

	authClient := grpcclient.NewAuthClient(authpb.NewAuthServiceClient(authConn))
	purchaseClient := grpcclient.NewPurchaseClient(purchasepb.NewPurchaseServiceClient(purchaseConn))

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	if cfg.AMQPURL != "" {
		if amqpPublisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange); err != nil {
			log.Printf("ws event publisher disabled: %v", err)
		} else {
			observability.SetPublisher(amqpPublisher)
			defer amqpPublisher.Close()
		}
	}

	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.chat", "ticket-chat-service", cfg.Env)

	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()
	coordinator := delivery.NewCoordinator(roomRepo, messageRepo, purchaseClient, hub, publisher)

	messageHandler := handlers.NewMessageHandler(coordinator)
	roomHandler := handlers.NewRoomHandler(roomRepo, auditEmitter)
	sessionHandler := ws.NewSessionHandler(hub, coordinator, authClient, cfg.IsProduction())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("ticket-chat-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authClient)

	router.GET("/api/messages", authMiddleware, messageHandler.ListMessages)
	router.POST("/api/messages", authMiddleware, messageHandler.PostMessage)
	router.PATCH("/api/messages/read", authMiddleware, messageHandler.MarkRead)
	router.GET("/api/rooms", authMiddleware, roomHandler.ListRooms)
	router.DELETE("/api/rooms/:room_id/me", authMiddleware, roomHandler.LeaveRoom)

	router.GET("/ws", sessionHandler.Handle)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	log.Printf("ticket-chat-service listening on :%s env=%s", cfg.Port, cfg.Env)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
