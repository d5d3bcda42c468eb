package appbootstrap

import (
	"context"
	"database/sql"
	"net/http"

	"siaga-desk/api"
	"siaga-desk/config"
	"siaga-desk/core/incidents"
	"siaga-desk/core/store"
	"siaga-desk/core/utils"
)

type Runtime struct {
	Handler http.Handler
	Feed    *store.FeedHub
	Svc     *incidents.Service
}

// Compose wires stores, services and the HTTP server from an open database.
func Compose(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) *Runtime {
	feed := store.NewFeedHub()
	incidentsStore := store.NewIncidentsStore(db, store.EffectiveDriver(cfg), feed)
	sender := incidents.NewHTTPWebhookSender(cfg.Webhooks.Timeout)
	svc := incidents.NewService(cfg, incidentsStore, sender, logger)
	server := api.NewServer(cfg, api.ServerDeps{IncidentsSvc: svc, Feed: feed}, logger)
	return &Runtime{Handler: server.Handler(), Feed: feed, Svc: svc}
}

// Bootstrap opens the database, applies migrations and composes the runtime.
func Bootstrap(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) (*Runtime, *sql.DB, error) {
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := store.ApplyMigrations(ctx, db, store.EffectiveDriver(cfg), logger); err != nil {
		db.Close()
		return nil, nil, err
	}
	return Compose(cfg, db, logger), db, nil
}
