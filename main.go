package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/garyHu951/wordle-game/internal/config"
	"github.com/garyHu951/wordle-game/internal/duel"
	"github.com/garyHu951/wordle-game/internal/gateway"
	"github.com/garyHu951/wordle-game/internal/history"
	"github.com/garyHu951/wordle-game/internal/httpserver"
	"github.com/garyHu951/wordle-game/internal/store"
	"github.com/garyHu951/wordle-game/internal/words"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	dict := words.Load(cfg.WordsDir)
	log.Info().Interface("lists", dict.Stats()).Msg("word lists loaded")

	games := store.NewMemoryStore(cfg.SoloGameTTL)
	games.StartJanitor(time.Minute)

	var (
		hist     *history.Store
		recorder duel.Recorder
		stats    httpserver.History
	)
	if cfg.DBPath != "" {
		h, err := history.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open history database")
		}
		hist, recorder, stats = h, h, h
	} else {
		log.Warn().Msg("DB_PATH is empty, match history disabled")
	}

	hub := gateway.NewHub()
	rooms := duel.NewRegistry(dict, hub, duel.Options{
		FirstRoundDelay: cfg.FirstRoundDelay,
		NextRoundDelay:  cfg.NextRoundDelay,
		FinishedRoomTTL: cfg.FinishedRoomTTL,
		IdleRoomTTL:     cfg.IdleRoomTTL,
		Recorder:        recorder,
	})
	rooms.StartCleanup(30 * time.Second)

	gw := gateway.New(hub, rooms, gateway.Options{AllowedOrigin: cfg.ClientOrigin})

	srv := httpserver.New(httpserver.Deps{
		Words:        dict,
		Games:        games,
		History:      stats,
		Rooms:        rooms,
		WS:           http.HandlerFunc(gw.ServeWS),
		ClientOrigin: cfg.ClientOrigin,
	})

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting wordle-game server")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	// rooms.Stop drains match records, so history closes after it.
	rooms.Stop()
	games.Stop()
	if hist != nil {
		if err := hist.Close(); err != nil {
			log.Error().Err(err).Msg("close history database")
		}
	}
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the global zerolog logger.
func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
