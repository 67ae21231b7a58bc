package handlers

import (
	"cardshare/internal/config"
	"cardshare/internal/media"
	"cardshare/internal/repos"
	"cardshare/internal/services"
)

type Deps struct {
	CardHandler  *CardHandler
	ShareHandler *ShareHandler
	MediaHandler *MediaHandler
}

func NewDeps(cfg config.Config, cards *repos.CardRepo, assets *media.Store) *Deps {
	ingestSvc := services.NewIngestService(cards, assets)
	shareSvc := services.NewShareService(cards)

	return &Deps{
		CardHandler:  &CardHandler{Ingest: ingestSvc},
		ShareHandler: &ShareHandler{Shares: shareSvc, BaseURL: cfg.PublicBaseURL},
		MediaHandler: &MediaHandler{Assets: assets},
	}
}
