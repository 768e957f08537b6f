package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tictacduel/server/internal/auth"
	"github.com/tictacduel/server/internal/config"
	"github.com/tictacduel/server/internal/domain"
	"github.com/tictacduel/server/internal/repository/postgres"
	redisrepo "github.com/tictacduel/server/internal/repository/redis"
	"github.com/tictacduel/server/internal/service/game"
	"github.com/tictacduel/server/internal/service/invite"
	"github.com/tictacduel/server/internal/service/notify"
	"github.com/tictacduel/server/internal/service/presence"
	transportHttp "github.com/tictacduel/server/internal/transport/http"
	"github.com/tictacduel/server/internal/transport/http/middleware"
	"github.com/tictacduel/server/internal/transport/websocket"
)

func main() {
	log.Println("Starting tictacduel server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Persistence
	db, err := postgres.Open(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetimeMin)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Running database migrations...")
	if err := postgres.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	inviteRepo := postgres.NewInviteRepo(db)
	gameRepo := postgres.NewGameRepo(db)

	// Optional Redis session cache; nil client means Postgres only.
	redisClient, _ := redisrepo.Connect(cfg.RedisURL, cfg.RedisPassword)
	var cache game.Cache
	if redisClient != nil {
		defer redisClient.Close()
		cache = redisrepo.NewSessionCache(redisClient,
			time.Duration(cfg.SessionCacheTTLMin)*time.Minute,
			time.Duration(cfg.SessionCacheTerminalTTLMin)*time.Minute)
	}

	// Core services
	registry := presence.NewRegistry()
	notifier := notify.NewService(registry)
	registry.OnChange(func(email string, online bool) {
		notifier.Broadcast(context.Background(), domain.EventPresenceChanged, domain.PresenceChangedEvent{
			Email:  email,
			Online: online,
		})
	})

	coordinator := game.NewCoordinator(gameRepo, cache, notifier)
	inviteManager := invite.NewManager(inviteRepo, coordinator, notifier, registry)

	janitor := game.NewJanitor(coordinator, 10*time.Minute, time.Duration(cfg.SessionLockTTLMin)*time.Minute)
	go janitor.Start()
	defer janitor.Stop()

	// Transport
	verifier := auth.NewVerifier(cfg.JWTSecret)
	inviteHandler := transportHttp.NewInviteHandler(inviteManager)
	sessionHandler := transportHttp.NewSessionHandler(coordinator)
	wsHandler := websocket.NewHandler(registry, verifier, cfg.AllowedOrigins)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The socket authenticates itself via the init handshake.
	router.GET("/ws", gin.WrapF(wsHandler.HandleWebSocket))

	authMW := middleware.AuthMiddleware(verifier)
	api := router.Group("/api", authMW)
	{
		api.POST("/invites", inviteHandler.Create)
		api.GET("/invites", inviteHandler.List)
		api.POST("/invites/:id/respond", inviteHandler.Respond)
		api.POST("/invites/:id/cancel", inviteHandler.Cancel)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.POST("/sessions/:id/moves", sessionHandler.SubmitMove)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
