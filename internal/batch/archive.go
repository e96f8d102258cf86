package batch

import (
	"context"
	"fmt"
	"strings"

	"engine/internal/domain"
	"engine/pkg/zip"
)

// ArchiveEntries lists the files generated for a stored project.
func (s *Service) ArchiveEntries(ctx context.Context, projectID string) ([]zip.Entry, error) {
	if projectID == "." || projectID == ".." || strings.ContainsAny(projectID, `/\`) {
		return nil, fmt.Errorf("%w: project %q", domain.ErrNotFound, projectID)
	}
	if _, err := s.repo.Get(ctx, projectID); err != nil {
		return nil, err
	}
	dir, err := s.files.Path("videos/" + projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	entries, err := zip.Collect(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: no outputs for %s", domain.ErrNotFound, projectID)
	}
	return entries, nil
}
