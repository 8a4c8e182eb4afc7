package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"eventflow/internal/auth"
	"eventflow/internal/db"
	"eventflow/internal/handler"
	"eventflow/internal/hub"
	"eventflow/internal/presence"
	"eventflow/internal/repo"
	"eventflow/internal/service"
)

type Container struct {
	ChatHandler     handler.ChatHandler
	PresenceHandler handler.PresenceHandler
	MonitorHandler  handler.MonitorHandler
	Hub             *hub.Hub
	Verifier        auth.TokenVerifier
	Config          Config
	Logger          *zap.Logger

	// private - for cleanup
	mongoClient *mongo.Database
}

func BuildContainer(configPath string) (*Container, error) {
	// optional .env for local development
	_ = godotenv.Load()

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	var (
		mongoDB       *mongo.Database
		conversations repo.ConversationRepository
		messages      repo.MessageRepository
	)

	if config.Mongo.URI == "" {
		logger.Info("no mongo URI configured, running with in-memory store")
	} else {
		mongoDB, err = db.OpenConnection(config.Mongo.URI, config.Mongo.Database)
		if err != nil {
			// chat stays available without a database; see store contract
			logger.Warn("mongo unreachable, falling back to in-memory store",
				zap.Error(err),
			)
			mongoDB = nil
		}
	}

	if mongoDB != nil {
		conversations = repo.NewMongoConversationRepository(mongoDB, config.Mongo.ConversationsCollection, logger)
		messages = repo.NewMongoMessageRepository(mongoDB, config.Mongo.MessagesCollection, logger)
	} else {
		conversations = repo.NewMemoryConversationRepository()
		messages = repo.NewMemoryMessageRepository()
	}

	tracker := presence.NewTracker()
	verifier := auth.NewJWTVerifier(config.Auth.JWTSecret)
	directory := auth.NewStaticDirectory(config.Users)
	conversationService := service.NewConversationService(conversations, logger)

	chatHub := hub.NewHub(conversationService, messages, tracker, verifier, logger, hub.Options{
		HistoryPageSize: config.Chat.HistoryPageSize,
		AllowedOrigins:  config.Server.AllowedOrigins,
	})

	return &Container{
		ChatHandler:     handler.NewChatHandler(conversationService, messages, directory, chatHub, logger),
		PresenceHandler: handler.NewPresenceHandler(tracker),
		MonitorHandler:  handler.NewMonitorHandler(chatHub),
		Hub:             chatHub,
		Verifier:        verifier,
		Config:          *config,
		Logger:          logger,
		mongoClient:     mongoDB,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
