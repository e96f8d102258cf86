package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"engine/internal/domain"
)

// ProjectRepositoryMemory implements domain.ProjectRepository in process
// memory. Projects are cloned on the way in and out.
type ProjectRepositoryMemory struct {
	mu      sync.RWMutex
	items   map[string]*domain.BatchProject
	order   []string
	current string
}

// NewProjectRepositoryMemory returns an empty repository.
func NewProjectRepositoryMemory() *ProjectRepositoryMemory {
	return &ProjectRepositoryMemory{items: make(map[string]*domain.BatchProject)}
}

// Save stores project, replacing any entry with the same ID, and marks it current.
func (r *ProjectRepositoryMemory) Save(_ context.Context, project *domain.BatchProject) (string, error) {
	if project == nil || project.ID() == "" {
		return "", errors.New("repo: project id is required")
	}
	id := project.ID()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		r.order = append(r.order, id)
	}
	r.items[id] = project.Clone()
	r.current = id
	return id, nil
}

// Update replaces an existing project without moving the current pointer.
func (r *ProjectRepositoryMemory) Update(_ context.Context, project *domain.BatchProject) error {
	if project == nil {
		return errors.New("repo: project is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[project.ID()]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, project.ID())
	}
	r.items[project.ID()] = project.Clone()
	return nil
}

// Get returns a copy of the project.
func (r *ProjectRepositoryMemory) Get(_ context.Context, projectID string) (*domain.BatchProject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[projectID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, projectID)
	}
	return p.Clone(), nil
}

// Current returns the most recently saved project.
func (r *ProjectRepositoryMemory) Current(ctx context.Context) (*domain.BatchProject, error) {
	r.mu.RLock()
	id := r.current
	r.mu.RUnlock()
	if id == "" {
		return nil, fmt.Errorf("%w: no current project", domain.ErrProjectNotFound)
	}
	return r.Get(ctx, id)
}

// List returns project IDs in first-ingestion order.
func (r *ProjectRepositoryMemory) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...), nil
}
