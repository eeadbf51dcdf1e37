package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/surveyard/surveyard/app"
	"github.com/surveyard/surveyard/config"
	"github.com/surveyard/surveyard/database"
	"github.com/surveyard/surveyard/httpx"
	"github.com/surveyard/surveyard/log"
	"github.com/surveyard/surveyard/routes"
	"github.com/surveyard/surveyard/storage"
	"github.com/surveyard/surveyard/survey"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	bearerServer := httpx.NewBearerServer(db, cfg)

	app := app.App{
		DB:           db,
		BearerServer: bearerServer,
		Config:       cfg,
		Surveys: &survey.Service{
			DB:    db,
			Blobs: storage.NewFileStore(cfg.ImagesDir),
		},
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
