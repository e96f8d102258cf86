package domain

import "context"

// ProjectRepository stores ingested batch projects. Implementations return
// copies; callers persist mutations through Save or Update. Save marks the
// project as the current one, Update leaves the current pointer alone.
type ProjectRepository interface {
	Save(ctx context.Context, project *BatchProject) (string, error)
	Update(ctx context.Context, project *BatchProject) error
	Get(ctx context.Context, projectID string) (*BatchProject, error)
	Current(ctx context.Context) (*BatchProject, error)
	List(ctx context.Context) ([]string, error)
}
