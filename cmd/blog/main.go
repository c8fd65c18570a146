// Command blog runs the blog front-end against a posts backend.
package main

import (
	"context"
	"flag"
	"miniblog/config"
	"miniblog/frontend"
	"miniblog/frontend/webui"
	"miniblog/postsapi"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "blog.toml", "path to the TOML configuration file")
	envFile := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	cfg, err := config.Load(config.Defaults(), *configPath, *envFile)
	logger := config.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := postsapi.New(cfg.APIBaseURL, &http.Client{})
	history := webui.NewHistory("/")
	state := frontend.New(client, history, logger)
	if err := state.Load(ctx); err != nil {
		logger.Warn().Str("api", cfg.APIBaseURL).Msg("starting with no posts")
	}

	srv := &http.Server{
		Addr:         cfg.UIListenAddr,
		Handler:      webui.NewRouter(state, history, logger),
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.UIListenAddr).Str("api", cfg.APIBaseURL).Msg("serving blog")
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
