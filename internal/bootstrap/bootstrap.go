// Package bootstrap assembles the engine components from a Config.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"engine/internal/adapter/repo"
	"engine/internal/batch"
	"engine/internal/catalog"
	"engine/internal/domain"
	"engine/internal/infra"
	"engine/internal/infra/credentials"
	"engine/internal/metrics"
	"engine/internal/pipeline"
	"engine/internal/providers/genai"
	"engine/internal/providers/image"
	"engine/internal/providers/kie"
	"engine/internal/providers/video"
	"engine/internal/storage"
)

// Engine is every long-lived component a process needs.
type Engine struct {
	Config   *infra.Config
	Catalog  *catalog.Catalog
	Files    *storage.FileStore
	Pipeline *pipeline.ShotPipeline
	Batch    *batch.Service
	Metrics  *metrics.Metrics

	pool *pgxpool.Pool
}

// Close releases the database pool, if any.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// Build wires an Engine. A database pool is opened when the project store is
// postgres or DATABASE_URL is set for credential lookups.
func Build(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (*Engine, error) {
	e := &Engine{Config: cfg, Metrics: metrics.New()}

	var sql infra.SQLExecutor
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			if cfg.ProjectStore == infra.ProjectStorePostgres {
				return nil, err
			}
			logger.Warn().Err(err).Msg("bootstrap: database unavailable, stored credentials disabled")
		} else {
			e.pool = pool
			sql = infra.NewSQLRunner(pool, logger)
		}
	}

	keys, err := resolveKeys(ctx, cfg, sql, logger)
	if err != nil {
		e.Close()
		return nil, err
	}

	files, err := storage.NewFileStore(cfg.AssetsDir)
	if err != nil {
		e.Close()
		return nil, err
	}
	if cfg.MinioEnabled() {
		mirror, err := storage.NewObjectMirror(ctx, storage.MirrorOptions{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			logger.Warn().Err(err).Str("endpoint", cfg.MinioEndpoint).Msg("bootstrap: object mirror disabled")
		} else {
			files = files.WithMirror(mirror, logger)
		}
	}
	e.Files = files
	fetcher := storage.NewFetcher(cfg.DownloadTimeout)
	shots := storage.NewShotStore(files, fetcher, cfg.PublicBaseURL)

	e.Catalog = catalog.New(cfg.AssetsCatalogPath, cfg.AssetsFilesDir, &logger)

	gemini := genai.NewClient(genai.Options{
		APIKey:       keys.gemini,
		BaseURL:      cfg.GeminiBaseURL,
		ImageModel:   cfg.GeminiImageModel,
		VideoModel:   cfg.VeoModel,
		Logger:       &logger,
		PollInterval: cfg.PollInterval,
		MaxPolls:     cfg.MaxPolls,
	})
	kieClient := kie.NewClient(kie.Options{
		APIKey:        keys.kie,
		BaseURL:       cfg.KieAPIBase,
		ImageModel:    cfg.KieNanoBananaModel,
		VideoModel:    cfg.KieVeoModel,
		Logger:        &logger,
		PollInterval:  cfg.PollInterval,
		MaxPolls:      cfg.MaxPolls,
		SubmitsPerMin: cfg.GenerationPerMin,
	})

	images, err := shotImageGenerator(cfg.ImageProvider, gemini, kieClient, fetcher, shots.LocalPath)
	if err != nil {
		e.Close()
		return nil, err
	}
	videos, err := videoGenerator(cfg.VideoProvider, gemini, kieClient, fetcher, shots.PublicURL)
	if err != nil {
		e.Close()
		return nil, err
	}
	batchImages, err := batchImageGenerator(cfg.BatchImageProvider, kieClient)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.Pipeline, err = pipeline.New(pipeline.Options{
		Catalog:       e.Catalog,
		Images:        images,
		Videos:        videos,
		Storage:       shots,
		Metrics:       e.Metrics,
		Logger:        &logger,
		ImageProvider: cfg.ImageProvider,
		VideoProvider: cfg.VideoProvider,
	})
	if err != nil {
		e.Close()
		return nil, err
	}

	projects, err := projectRepository(ctx, cfg, sql)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.Batch, err = batch.New(batch.Options{
		Repository:    projects,
		Catalog:       e.Catalog,
		Images:        batchImages,
		Files:         files,
		Fetcher:       fetcher,
		PublicBaseURL: cfg.PublicBaseURL,
		Provider:      cfg.BatchImageProvider,
		Metrics:       e.Metrics,
		Logger:        &logger,
	})
	if err != nil {
		e.Close()
		return nil, err
	}

	logger.Info().
		Str("image_provider", cfg.ImageProvider).
		Str("batch_image_provider", cfg.BatchImageProvider).
		Str("video_provider", cfg.VideoProvider).
		Str("project_store", cfg.ProjectStore).
		Str("assets_dir", files.BasePath()).
		Msg("bootstrap: engine ready")
	return e, nil
}

type apiKeys struct {
	gemini string
	kie    string
}

// resolveKeys prefers configured keys and falls back to provider_keys.
func resolveKeys(ctx context.Context, cfg *infra.Config, sql infra.SQLExecutor, logger zerolog.Logger) (apiKeys, error) {
	keys := apiKeys{gemini: cfg.GeminiAPIKey, kie: cfg.KieAPIKey}
	if sql == nil {
		return keys, nil
	}
	store := credentials.NewStore(sql)
	var err error
	if keys.gemini, err = store.Resolve(ctx, credentials.ProviderGemini, cfg.GeminiAPIKey); err != nil {
		logger.Warn().Err(err).Str("provider", credentials.ProviderGemini).Msg("bootstrap: stored key lookup failed")
		keys.gemini = cfg.GeminiAPIKey
	}
	if keys.kie, err = store.Resolve(ctx, credentials.ProviderKie, cfg.KieAPIKey); err != nil {
		logger.Warn().Err(err).Str("provider", credentials.ProviderKie).Msg("bootstrap: stored key lookup failed")
		keys.kie = cfg.KieAPIKey
	}
	return keys, nil
}

func shotImageGenerator(name string, gemini *genai.Client, kieClient *kie.Client, fetcher *storage.Fetcher, local image.LocalResolver) (image.Generator, error) {
	switch name {
	case "gemini":
		return image.NewGeminiGenerator(gemini, fetcher, local), nil
	case "kie":
		return image.NewKieGenerator(kieClient), nil
	case "synthetic":
		return image.NewSyntheticGenerator(), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown image provider %q", name)
}

func videoGenerator(name string, gemini *genai.Client, kieClient *kie.Client, fetcher *storage.Fetcher, publish video.URLResolver) (video.Generator, error) {
	switch name {
	case "veo":
		return video.NewVeoGenerator(gemini, fetcher), nil
	case "kie":
		return video.NewKieGenerator(kieClient, publish), nil
	case "synthetic":
		return video.NewSyntheticGenerator(), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown video provider %q", name)
}

func batchImageGenerator(name string, kieClient *kie.Client) (image.BatchGenerator, error) {
	switch name {
	case "kie":
		return image.NewKieGenerator(kieClient), nil
	case "synthetic":
		return image.NewSyntheticGenerator(), nil
	}
	return nil, fmt.Errorf("bootstrap: unknown batch image provider %q", name)
}

func projectRepository(ctx context.Context, cfg *infra.Config, sql infra.SQLExecutor) (domain.ProjectRepository, error) {
	if cfg.ProjectStore != infra.ProjectStorePostgres {
		return repo.NewProjectRepositoryMemory(), nil
	}
	if sql == nil {
		return nil, fmt.Errorf("bootstrap: project store %q needs a database", cfg.ProjectStore)
	}
	pg := repo.NewProjectRepositoryPG(sql)
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("bootstrap: ensure schema: %w", err)
	}
	return pg, nil
}
