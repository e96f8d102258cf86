package batch

import (
	"context"

	"engine/internal/domain"
)

// CheckProjectApproval reports whether the project may move past the
// approval gate. A missing project is never approved.
func (s *Service) CheckProjectApproval(ctx context.Context, projectID string) (bool, error) {
	project, err := s.repo.Get(ctx, projectID)
	if err != nil {
		s.logger.Warn().Err(err).Str("project_id", projectID).Msg("batch: approval check on unknown project")
		return false, err
	}
	if !project.ApprovalGateActive() {
		return true, nil
	}
	var pending []string
	for _, task := range project.ImageTasks {
		if task.Approval.Status != domain.ApprovalApproved {
			pending = append(pending, task.TaskID)
		}
	}
	if len(pending) > 0 {
		s.logger.Info().Str("project_id", projectID).Strs("pending", pending).Msg("batch: blocked by approval gate")
		return false, nil
	}
	return true, nil
}
