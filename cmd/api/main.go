package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"engine/internal/bootstrap"
	"engine/internal/http/handlers"
	httpapi "engine/internal/http/httpapi"
	"engine/internal/infra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build engine")
	}
	defer engine.Close()

	app := handlers.NewApp(engine.Pipeline, engine.Batch, engine.Metrics).WithCatalog(engine.Catalog)
	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		AssetsDir:       engine.Files.BasePath(),
	})

	logger.Info().Str("port", cfg.Port).Str("public_base_url", cfg.PublicBaseURL).Msg("API listening")
	if err := infra.NewHTTPServer(cfg, router).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("http server failed")
		return
	}
	logger.Info().Msg("server stopped")
}
