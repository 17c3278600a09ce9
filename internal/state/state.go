package state

import (
	"undercover-be/internal/config"
	"undercover-be/internal/service"
)

type AppState struct {
	Cfg      *config.AppConfig
	Sessions *service.SessionManager
}

func NewAppState(
	cfg *config.AppConfig,
	sessions *service.SessionManager,
) *AppState {
	return &AppState{
		Cfg:      cfg,
		Sessions: sessions,
	}
}
