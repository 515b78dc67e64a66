package main

import (
	"net/http"
	"time"

	"github.com/agentdesk/agentdesk/internal/api"
	"github.com/agentdesk/agentdesk/internal/auth"
	"github.com/agentdesk/agentdesk/internal/chat"
	"github.com/agentdesk/agentdesk/internal/config"
	"github.com/agentdesk/agentdesk/internal/db"
	"github.com/agentdesk/agentdesk/internal/llm"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if cfg.HuggingFace.APIKey == "" {
		logger.Warn("no generation API key configured; chat turns will fail")
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to initialize database",
			zap.Error(err),
			zap.String("dbPath", cfg.DBPath))
	}
	defer database.Close()

	client := llm.NewClient(cfg.HuggingFace.APIKey, logger,
		llm.WithBaseURL(cfg.HuggingFace.BaseURL),
		llm.WithTimeout(time.Duration(cfg.HuggingFace.TimeoutSeconds)*time.Second),
	)

	chatService := chat.NewService(database, client, logger)
	handler := api.NewHandler(database, chatService, logger)

	logger.Info("starting server", zap.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, auth.Middleware(handler.Routes())); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
