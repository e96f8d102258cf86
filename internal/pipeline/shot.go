// Package pipeline runs the per-shot generation state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"engine/internal/domain"
	"engine/internal/metrics"
	"engine/internal/prompt"
	"engine/internal/providers/image"
	"engine/internal/providers/video"
)

// AssetResolver is the catalog surface the pipeline needs.
type AssetResolver interface {
	GetAsset(id string) (domain.Asset, bool)
	ResolveFilePath(fileName string) (string, bool)
}

// Storage persists shot media and metadata.
type Storage interface {
	SaveImage(ctx context.Context, shot *domain.Shot, ref string) (string, error)
	SaveVideo(ctx context.Context, shot *domain.Shot, ref string) (string, error)
	SaveMetadata(ctx context.Context, shot *domain.Shot) (string, error)
	PublicURL(localPath string) (string, error)
}

// Options wires a ShotPipeline.
type Options struct {
	Catalog       AssetResolver
	Images        image.Generator
	Videos        video.Generator
	Storage       Storage
	Metrics       *metrics.Metrics
	Logger        *zerolog.Logger
	ImageProvider string
	VideoProvider string
}

// ShotPipeline moves a shot from PENDING through IN_PROGRESS to COMPLETED or
// ERROR. It never returns an error: failures end up on the shot itself.
type ShotPipeline struct {
	catalog       AssetResolver
	images        image.Generator
	videos        video.Generator
	storage       Storage
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	imageProvider string
	videoProvider string
}

// New validates opts and returns a pipeline.
func New(opts Options) (*ShotPipeline, error) {
	switch {
	case opts.Catalog == nil:
		return nil, errors.New("pipeline: catalog is required")
	case opts.Images == nil:
		return nil, errors.New("pipeline: image generator is required")
	case opts.Videos == nil:
		return nil, errors.New("pipeline: video generator is required")
	case opts.Storage == nil:
		return nil, errors.New("pipeline: storage is required")
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "shot_pipeline").Logger()
	}
	return &ShotPipeline{
		catalog:       opts.Catalog,
		images:        opts.Images,
		videos:        opts.Videos,
		storage:       opts.Storage,
		metrics:       opts.Metrics,
		logger:        logger,
		imageProvider: opts.ImageProvider,
		videoProvider: opts.VideoProvider,
	}, nil
}

// shotRun carries state between steps of one execution.
type shotRun struct {
	shot   *domain.Shot
	asset  *domain.Asset
	refURL string
	log    zerolog.Logger
}

type step struct {
	name string
	run  func(ctx context.Context, r *shotRun) error
}

// ProcessShot executes the pipeline on shot in place and returns it.
// Already supplied prompts are kept.
func (p *ShotPipeline) ProcessShot(ctx context.Context, shot *domain.Shot) *domain.Shot {
	shot.Normalize()
	r := &shotRun{shot: shot, log: p.logger.With().Str("shot_key", shot.Key()).Logger()}

	if err := shot.Validate(); err != nil {
		p.fail(r, err)
		p.metrics.ShotFinished(string(shot.State))
		return shot
	}

	shot.State = domain.ShotStateInProgress
	shot.ErrorMessage = ""
	shot.ErrorCode = ""
	r.log.Info().Str("asset_mode", string(shot.AssetMode)).Msg("pipeline: shot started")

	steps := []step{
		{"resolve_asset", p.resolveAsset},
		{"build_prompts", p.buildPrompts},
		{"generate_image", p.generateImage},
		{"generate_video", p.generateVideo},
	}
	if err := p.runSteps(ctx, r, steps); err != nil {
		p.fail(r, err)
		p.saveMetadataBestEffort(ctx, r)
	} else {
		shot.State = domain.ShotStateCompleted
		if _, err := p.storage.SaveMetadata(ctx, shot); err != nil {
			p.fail(r, fmt.Errorf("save metadata: %w", err))
			p.saveMetadataBestEffort(ctx, r)
		} else {
			r.log.Info().Str("image_path", shot.ImagePath).Str("video_path", shot.VideoPath).Msg("pipeline: shot completed")
		}
	}
	p.metrics.ShotFinished(string(shot.State))
	return shot
}

// RegenerateShot clears generated prompts and media and runs the pipeline
// again from PENDING.
func (p *ShotPipeline) RegenerateShot(ctx context.Context, shot *domain.Shot) *domain.Shot {
	shot.ResetOutputs()
	return p.ProcessShot(ctx, shot)
}

func (p *ShotPipeline) runSteps(ctx context.Context, r *shotRun, steps []step) (err error) {
	current := ""
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Str("step", current).Msg("pipeline: recovered panic")
			err = fmt.Errorf("%s: internal error: %v", current, rec)
		}
	}()
	for _, s := range steps {
		current = s.name
		if err := s.run(ctx, r); err != nil {
			r.log.Debug().Err(err).Str("step", s.name).Msg("pipeline: step failed")
			return err
		}
	}
	return nil
}

func (p *ShotPipeline) resolveAsset(_ context.Context, r *shotRun) error {
	shot := r.shot
	shot.ResolvedAssetFileName = ""
	shot.ResolvedAssetPath = ""
	shot.ContextMismatchFlag = false
	if shot.AssetID == "" {
		return nil
	}

	asset, ok := p.catalog.GetAsset(shot.AssetID)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrAssetNotFound, shot.AssetID)
	}
	path, ok := p.catalog.ResolveFilePath(asset.FileName)
	if !ok {
		return fmt.Errorf("%w: %s (%s)", domain.ErrAssetFileMissing, shot.AssetID, asset.FileName)
	}
	shot.ResolvedAssetFileName = asset.FileName
	shot.ResolvedAssetPath = path
	shot.ContextMismatchFlag = shot.MVContext != asset.DefaultContext
	if shot.ContextMismatchFlag {
		r.log.Warn().
			Str("mv_context", shot.MVContext).
			Str("default_context", asset.DefaultContext).
			Msg("pipeline: shot context differs from asset default")
	}

	url, err := p.storage.PublicURL(path)
	if err != nil {
		r.log.Warn().Err(err).Str("path", path).Msg("pipeline: asset has no public url; sending local path")
		url = path
	}
	r.asset = &asset
	r.refURL = url
	return nil
}

func (p *ShotPipeline) buildPrompts(_ context.Context, r *shotRun) error {
	if r.shot.ImagePrompt == "" {
		r.shot.ImagePrompt = prompt.BuildImagePrompt(r.shot, r.asset)
	}
	if r.shot.VideoPrompt == "" {
		r.shot.VideoPrompt = prompt.BuildVideoPrompt(r.shot)
	}
	return nil
}

func (p *ShotPipeline) generateImage(ctx context.Context, r *shotRun) error {
	started := time.Now()
	ref, err := p.images.Generate(ctx, r.shot.ImagePrompt, r.refURL)
	p.metrics.ObserveGeneration("image", p.imageProvider, started)
	if err != nil {
		return fmt.Errorf("generate image: %w", err)
	}
	path, err := p.storage.SaveImage(ctx, r.shot, ref)
	if err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	r.shot.ImagePath = path
	return nil
}

func (p *ShotPipeline) generateVideo(ctx context.Context, r *shotRun) error {
	shot := r.shot
	switch shot.AssetMode {
	case domain.AssetModeStillOnly:
		shot.VideoPath = ""
		return nil
	case domain.AssetModeImage1FVideo, domain.AssetModeImage2FVideo:
		// IMAGE_2F_VIDEO has no two-frame path and animates the single still.
	default:
		return fmt.Errorf("%w: unsupported asset_mode %q", domain.ErrValidation, shot.AssetMode)
	}

	started := time.Now()
	ref, err := p.videos.Generate(ctx, shot.ImagePath, shot.VideoPrompt)
	p.metrics.ObserveGeneration("video", p.videoProvider, started)
	if err != nil {
		return fmt.Errorf("generate video: %w", err)
	}
	path, err := p.storage.SaveVideo(ctx, shot, ref)
	if err != nil {
		return fmt.Errorf("save video: %w", err)
	}
	shot.VideoPath = path
	return nil
}

func (p *ShotPipeline) fail(r *shotRun, err error) {
	r.shot.State = domain.ShotStateError
	r.shot.ErrorMessage = err.Error()
	r.shot.ErrorCode = domain.ErrorCode(err)
	r.log.Error().Err(err).Str("code", r.shot.ErrorCode).Msg("pipeline: shot failed")
}

func (p *ShotPipeline) saveMetadataBestEffort(ctx context.Context, r *shotRun) {
	if _, err := p.storage.SaveMetadata(ctx, r.shot); err != nil {
		r.log.Warn().Err(err).Msg("pipeline: metadata write failed on error path")
	}
}
