package batch

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"engine/internal/domain"
	"engine/internal/prompt"
	"engine/internal/providers/image"
	"engine/internal/storage"
)

// Result is the outcome of one generated variant, or of a failed task when
// Error is set.
type Result struct {
	TaskID              string               `json:"task_id"`
	Variant             int                  `json:"variant,omitempty"`
	ImageURL            string               `json:"image_url,omitempty"`
	LocalPath           string               `json:"local_path,omitempty"`
	FinalPrompt         string               `json:"final_prompt"`
	FinalNegativePrompt string               `json:"final_negative_prompt"`
	AssetsSent          []domain.ResolvedRef `json:"assets_sent"`
	Error               string               `json:"error,omitempty"`
	ErrorCode           string               `json:"error_code,omitempty"`
}

// Generate renders every task of the stored project in order. A failed task
// is reported in the results and does not stop the run. Each task that
// produced output is reset to PENDING_REVIEW and persisted.
func (s *Service) Generate(ctx context.Context, projectID string, dryRun bool) ([]Result, error) {
	unlock := s.lock(projectID)
	defer unlock()

	project, err := s.repo.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	log := s.logger.With().Str("project_id", projectID).Bool("dry_run", dryRun).Logger()
	log.Info().Int("tasks", len(project.ImageTasks)).Msg("batch: generation started")

	results := make([]Result, 0, len(project.ImageTasks))
	for i := range project.ImageTasks {
		task := &project.ImageTasks[i]
		taskLog := log.With().Str("task_id", task.TaskID).Logger()

		out, err := s.runTask(ctx, project, task, dryRun, taskLog)
		if err != nil {
			taskLog.Error().Err(err).Msg("batch: task failed")
			s.metrics.BatchTask("failed")
			results = append(results, Result{
				TaskID:              task.TaskID,
				FinalPrompt:         prompt.ConstructPrompt(project.StylePresets, *task),
				FinalNegativePrompt: prompt.ConstructNegativePrompt(project.StylePresets, *task),
				Error:               err.Error(),
				ErrorCode:           domain.ErrorCode(err),
			})
			continue
		}
		results = append(results, out...)
		if dryRun {
			s.metrics.BatchTask("dry_run")
		} else {
			s.metrics.BatchTask("success")
		}

		task.Approval.Status = domain.ApprovalPendingReview
		if err := s.repo.Update(ctx, project); err != nil {
			return results, fmt.Errorf("batch: persist task %s: %w", task.TaskID, err)
		}
	}
	log.Info().Int("results", len(results)).Msg("batch: generation finished")
	return results, nil
}

func (s *Service) runTask(ctx context.Context, project *domain.BatchProject, task *domain.ImageTask, dryRun bool, log zerolog.Logger) ([]Result, error) {
	positive := prompt.ConstructPrompt(project.StylePresets, *task)
	negative := prompt.ConstructNegativePrompt(project.StylePresets, *task)
	sent := s.resolveRefs(task.Refs, log)
	urls := make([]string, len(sent))
	for i, ref := range sent {
		urls[i] = ref.ResolvedURL
	}

	var generated []string
	if dryRun {
		log.Info().Msg("batch: dry run, skipping provider call")
		generated = []string{DryRunImageURL}
	} else {
		started := time.Now()
		out, err := s.images.GenerateBatch(ctx, image.BatchRequest{
			Prompt:         positive,
			NegativePrompt: negative,
			ReferenceURLs:  urls,
			Resolution:     string(project.Project.Output.Resolution),
			AspectRatio:    project.Project.Output.AspectRatio,
			OutputFormat:   project.Project.Output.ImageFormat,
			Variants:       variantCount(project, task),
		})
		s.metrics.ObserveGeneration("batch_image", s.provider, started)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: no images returned", domain.ErrProviderFailure)
		}
		generated = out
	}

	results := make([]Result, 0, len(generated))
	for i, url := range generated {
		variant := i + 1
		key := outputKey(project.ID(), task, variant, len(generated) > 1)
		res := Result{
			TaskID:              task.TaskID,
			Variant:             variant,
			ImageURL:            url,
			FinalPrompt:         positive,
			FinalNegativePrompt: negative,
			AssetsSent:          sent,
		}
		if dryRun {
			log.Debug().Str("key", key+".png").Msg("batch: dry run, not downloading")
		} else if local, public, err := s.persist(ctx, key, url, project.Project.Output.ImageFormat); err != nil {
			log.Error().Err(err).Str("url", url).Msg("batch: download failed, keeping provider url")
		} else {
			res.LocalPath = local
			res.ImageURL = public
		}
		results = append(results, res)
	}
	return results, nil
}

// resolveRefs maps ref IDs to public URLs. Refs that do not resolve are
// dropped with a warning.
func (s *Service) resolveRefs(refs []string, log zerolog.Logger) []domain.ResolvedRef {
	sent := make([]domain.ResolvedRef, 0, len(refs))
	for _, id := range refs {
		asset, ok := s.catalog.GetAsset(id)
		if !ok {
			log.Warn().Str("ref", id).Msg("batch: ref not in catalog, dropped")
			continue
		}
		local, ok := s.catalog.ResolveFilePath(asset.FileName)
		if !ok {
			log.Warn().Str("ref", id).Str("file_name", asset.FileName).Msg("batch: ref file missing, dropped")
			continue
		}
		url, err := storage.PublicURL(s.files, s.publicBaseURL, local)
		if err != nil {
			log.Warn().Err(err).Str("ref", id).Msg("batch: ref not publicly served, dropped")
			continue
		}
		sent = append(sent, domain.ResolvedRef{RefID: id, ResolvedURL: url})
	}
	return sent
}

func (s *Service) persist(ctx context.Context, key, url, format string) (string, string, error) {
	blob, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", "", err
	}
	if len(blob.Data) == 0 {
		return "", "", errors.New("empty image body")
	}
	fallback := strings.ToLower(strings.TrimPrefix(format, "."))
	if fallback == "" {
		fallback = "png"
	}
	local, err := s.files.Write(ctx, key+"."+storage.Extension(blob, fallback), blob.Data, blob.MIME)
	if err != nil {
		return "", "", err
	}
	public, err := storage.PublicURL(s.files, s.publicBaseURL, local)
	if err != nil {
		return local, url, nil
	}
	return local, public, nil
}

// outputKey returns videos/{project}/{task}/{block}/{shot}/img_{role}[_v{n}]
// without extension.
func outputKey(projectID string, task *domain.ImageTask, variant int, multi bool) string {
	name := "img_" + task.Role
	if multi {
		name += "_v" + strconv.Itoa(variant)
	}
	return path.Join("videos", projectID, task.TaskID, task.BlockID, task.ShotID, name)
}

func variantCount(project *domain.BatchProject, task *domain.ImageTask) int {
	n := project.Project.ProductionRules.VariantsPerTask
	if task.Variants != nil {
		n = *task.Variants
	}
	if n < 1 {
		n = 1
	}
	return n
}
