package batch

import (
	"context"

	"engine/internal/domain"
)

// Run statuses reported by RunFull.
const (
	RunSuccess = "SUCCESS"
	RunError   = "ERROR"
)

// RunOutcome is the combined ingest and generate report.
type RunOutcome struct {
	Status    string   `json:"status"`
	ProjectID string   `json:"project_id,omitempty"`
	Results   []Result `json:"results"`
	Error     string   `json:"error,omitempty"`
	ErrorCode string   `json:"error_code,omitempty"`
}

// RunFull ingests project and generates it in one call. Failures are
// reported in the outcome rather than returned.
func (s *Service) RunFull(ctx context.Context, project *domain.BatchProject, dryRun bool) RunOutcome {
	id, err := s.Ingest(ctx, project)
	if err != nil {
		return failed("", err, nil)
	}
	results, err := s.Generate(ctx, id, dryRun)
	if err != nil {
		return failed(id, err, results)
	}
	if results == nil {
		results = []Result{}
	}
	return RunOutcome{Status: RunSuccess, ProjectID: id, Results: results}
}

// Current returns the project most recently ingested.
func (s *Service) Current(ctx context.Context) (*domain.BatchProject, error) {
	return s.repo.Current(ctx)
}

// Get returns a stored project.
func (s *Service) Get(ctx context.Context, projectID string) (*domain.BatchProject, error) {
	return s.repo.Get(ctx, projectID)
}

func failed(id string, err error, results []Result) RunOutcome {
	if results == nil {
		results = []Result{}
	}
	return RunOutcome{
		Status:    RunError,
		ProjectID: id,
		Results:   results,
		Error:     err.Error(),
		ErrorCode: domain.ErrorCode(err),
	}
}
