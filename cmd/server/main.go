package main

import (
	"context"

	"github.com/studybuddy/studybuddy/internal/app"
	"github.com/studybuddy/studybuddy/internal/cache"
	"github.com/studybuddy/studybuddy/internal/config"
	"github.com/studybuddy/studybuddy/internal/db"
	"github.com/studybuddy/studybuddy/internal/logger"
	"github.com/studybuddy/studybuddy/internal/realtime"
	"github.com/studybuddy/studybuddy/internal/server"
	"github.com/studybuddy/studybuddy/internal/service/accounts"
	"github.com/studybuddy/studybuddy/internal/service/groups"
	"github.com/studybuddy/studybuddy/internal/service/matches"
	"github.com/studybuddy/studybuddy/internal/service/notifications"
	"github.com/studybuddy/studybuddy/internal/service/swipes"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Init realtime hub
	hub := realtime.NewHub(log)
	go func() {
		if err := hub.Run(); err != nil {
			log.Error("socket server stopped", "err", err)
		}
	}()
	defer hub.Close()

	appCtx := app.New(database, redisCache, hub, log)

	registrars := []server.Registrar{
		swipes.NewRegistrar(appCtx),
		matches.NewRegistrar(appCtx),
		groups.NewRegistrar(appCtx),
		accounts.NewRegistrar(appCtx),
		notifications.NewRegistrar(appCtx),
	}

	router := server.NewRouter(registrars...)
	router.Handle("/socket.io/", hub.Server())

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, router); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
