package batch

import (
	"context"
	"fmt"

	"engine/internal/domain"
	"engine/internal/domain/jsoncfg"
)

// Ingest validates project and stores it as the current project. Nothing is
// written when any check fails.
func (s *Service) Ingest(ctx context.Context, project *domain.BatchProject) (string, error) {
	if err := jsoncfg.Validate(project); err != nil {
		return "", err
	}
	log := s.logger.With().Str("project_id", project.ID()).Logger()
	if extra := jsoncfg.ExtraKeys(project); len(extra) > 0 {
		log.Info().Strs("fields", extra).Msg("batch: ignoring unrecognised fields")
	}
	if err := checkUniqueTasks(project); err != nil {
		return "", err
	}
	if err := s.checkRefs(project); err != nil {
		log.Warn().Err(err).Msg("batch: ingestion rejected")
		return "", err
	}

	unlock := s.lock(project.ID())
	defer unlock()
	id, err := s.repo.Save(ctx, project)
	if err != nil {
		return "", fmt.Errorf("batch: store project: %w", err)
	}
	log.Info().Int("tasks", len(project.ImageTasks)).Msg("batch: project ingested")
	return id, nil
}

func checkUniqueTasks(project *domain.BatchProject) error {
	seen := make(map[string]struct{}, len(project.ImageTasks))
	for _, task := range project.ImageTasks {
		if _, dup := seen[task.TaskID]; dup {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateTaskID, task.TaskID)
		}
		seen[task.TaskID] = struct{}{}
	}
	return nil
}

// checkRefs stops at the first violation in task order.
func (s *Service) checkRefs(project *domain.BatchProject) error {
	limit := project.Project.ProductionRules.MaxReferenceImages
	declared := project.KnownAssetIDs()
	for _, task := range project.ImageTasks {
		if len(task.Refs) > limit {
			return fmt.Errorf("%w: task %s has %d refs, limit is %d",
				domain.ErrRefLimitExceeded, task.TaskID, len(task.Refs), limit)
		}
		for _, ref := range task.Refs {
			if _, ok := declared[ref]; !ok {
				return fmt.Errorf("%w: task %s references %q", domain.ErrUnknownRef, task.TaskID, ref)
			}
			asset, ok := s.catalog.GetAsset(ref)
			if !ok {
				return fmt.Errorf("%w: task %s references %q, not in the catalog",
					domain.ErrAssetNotFound, task.TaskID, ref)
			}
			if _, ok := s.catalog.ResolveFilePath(asset.FileName); !ok {
				return fmt.Errorf("%w: %s (%s)", domain.ErrAssetFileMissing, ref, asset.FileName)
			}
		}
	}
	return nil
}
