// Command blogd serves the /posts resource the blog front-end talks to.
package main

import (
	"context"
	"flag"
	"miniblog/blog/storage"
	"miniblog/config"
	"miniblog/httpapi"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "blogd.toml", "path to the TOML configuration file")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(config.Defaults(), *configPath, *envFile)
	logger := config.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager, release, err := storage.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("mode", cfg.Storage.Mode).Msg("failed to open storage")
	}
	defer release()

	srv := httpapi.NewServer(cfg.ListenAddr, manager, logger)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Str("storage", cfg.Storage.Mode).Msg("serving posts")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
