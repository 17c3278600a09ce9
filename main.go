package main

import (
	"time"

	"undercover-be/internal/api/http"
	"undercover-be/internal/config"
	"undercover-be/internal/logger"
	"undercover-be/internal/service"
	"undercover-be/internal/service/words"
	"undercover-be/internal/state"

	"github.com/joho/godotenv"
)

func main() {
	// Optional .env for local overrides
	_ = godotenv.Load()

	cfg := config.GetConfig()

	logger.InitLogger(cfg.LogLevel)

	sessions := service.NewSessionManager(
		time.Duration(cfg.GracePeriodSec)*time.Second,
		time.Duration(cfg.SweepIntervalSec)*time.Second,
		words.NewBuiltinSource(),
	)
	defer sessions.Close()

	appState := state.NewAppState(cfg, sessions)

	http.RunServer(appState)
}
