package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/secret-deus/RAG-Chat/internal/bootstrap"
	httptransport "github.com/secret-deus/RAG-Chat/internal/transport/http"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("bootstrap failed")
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Error().Err(err).Msg("close resources failed")
		}
	}()

	router := httptransport.NewRouter(app)
	server := &http.Server{
		Addr:              app.Config.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		app.Logger.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	waitForShutdown(app, server)
}

func waitForShutdown(app *bootstrap.App, server *http.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("server shutdown failed")
	}
}
