package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/harvest-estate/gateway/config"
	"github.com/harvest-estate/gateway/handlers"
	"github.com/harvest-estate/gateway/services"
	"github.com/harvest-estate/gateway/storage"
)

func main() {
	seed := flag.Bool("seed", false, "load the demo estate fixtures and exit")
	flag.Parse()

	cfg := config.Load()

	log := newLogger(cfg.EstateMode)

	db, err := storage.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	defer db.Close()

	store := storage.NewStore(db)

	if *seed {
		if err := storage.SeedDemo(context.Background(), store); err != nil {
			log.Fatal().Err(err).Msg("seed demo data")
		}
		log.Info().Msg("demo fixtures loaded")
		return
	}

	se7en := services.NewSe7enClient(cfg.Se7enURL, log)
	ledger := services.NewLedgerService(store, se7en, log)
	handler := handlers.NewLedgerHandler(ledger, cfg.EstateMode, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.URLFormat)

	handler.Routes(r)

	log.Info().Str("addr", cfg.ListenAddr).Str("mode", cfg.EstateMode).Msg("gateway listening")
	if err := http.ListenAndServe(cfg.ListenAddr, r); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

// newLogger builds the process logger: human-readable console output in
// demo mode, JSON elsewhere.
func newLogger(mode string) zerolog.Logger {
	if mode == "DEMO" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
