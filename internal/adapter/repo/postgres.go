package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"engine/internal/domain"
	"engine/internal/infra"
	"engine/internal/sqlinline"
)

// ProjectRepositoryPG implements domain.ProjectRepository on the
// batch_projects table. The core schema is stored in document; fields the
// decoder did not recognise are kept in extra.
type ProjectRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewProjectRepositoryPG creates a repository backed by PostgreSQL.
func NewProjectRepositoryPG(sql infra.SQLExecutor) *ProjectRepositoryPG {
	return &ProjectRepositoryPG{sql: sql}
}

// EnsureSchema creates the engine tables when missing.
func (r *ProjectRepositoryPG) EnsureSchema(ctx context.Context) error {
	_, err := r.sql.Exec(ctx, sqlinline.QCreateEngineSchema)
	return err
}

type extraEnvelope struct {
	Request map[string]json.RawMessage            `json:"request,omitempty"`
	Project map[string]json.RawMessage            `json:"project,omitempty"`
	Tasks   map[string]map[string]json.RawMessage `json:"tasks,omitempty"`
}

// Save upserts project and marks it current.
func (r *ProjectRepositoryPG) Save(ctx context.Context, project *domain.BatchProject) (string, error) {
	if project == nil || project.ID() == "" {
		return "", errors.New("repo: project id is required")
	}
	doc, extra, err := encodeProject(project)
	if err != nil {
		return "", err
	}
	if _, err := r.sql.Exec(ctx, sqlinline.QUpsertBatchProject, project.ID(), doc, extra); err != nil {
		return "", err
	}
	return project.ID(), nil
}

// Update rewrites an existing project.
func (r *ProjectRepositoryPG) Update(ctx context.Context, project *domain.BatchProject) error {
	if project == nil {
		return errors.New("repo: project is required")
	}
	doc, extra, err := encodeProject(project)
	if err != nil {
		return err
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateBatchProjectDocument, project.ID(), doc, extra)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProjectNotFound, project.ID())
	}
	return nil
}

// Get fetches a project by ID.
func (r *ProjectRepositoryPG) Get(ctx context.Context, projectID string) (*domain.BatchProject, error) {
	var doc, extra []byte
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectBatchProject, projectID).Scan(&doc, &extra); err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProjectNotFound, projectID)
		}
		return nil, err
	}
	return decodeProject(doc, extra)
}

// Current fetches the project flagged current.
func (r *ProjectRepositoryPG) Current(ctx context.Context) (*domain.BatchProject, error) {
	var doc, extra []byte
	if err := r.sql.QueryRow(ctx, sqlinline.QSelectCurrentBatchProject).Scan(&doc, &extra); err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("%w: no current project", domain.ErrProjectNotFound)
		}
		return nil, err
	}
	return decodeProject(doc, extra)
}

// List returns every stored project ID in creation order.
func (r *ProjectRepositoryPG) List(ctx context.Context) ([]string, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListBatchProjectIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func encodeProject(p *domain.BatchProject) ([]byte, []byte, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, nil, fmt.Errorf("repo: encode project: %w", err)
	}
	env := extraEnvelope{Request: p.Extra, Project: p.Project.Extra}
	for _, task := range p.ImageTasks {
		if len(task.Extra) == 0 {
			continue
		}
		if env.Tasks == nil {
			env.Tasks = make(map[string]map[string]json.RawMessage)
		}
		env.Tasks[task.TaskID] = task.Extra
	}
	extra, err := json.Marshal(env)
	if err != nil {
		return nil, nil, fmt.Errorf("repo: encode extra fields: %w", err)
	}
	return doc, extra, nil
}

func decodeProject(doc, extra []byte) (*domain.BatchProject, error) {
	var p domain.BatchProject
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("repo: decode project: %w", err)
	}
	if len(extra) == 0 {
		return &p, nil
	}
	var env extraEnvelope
	if err := json.Unmarshal(extra, &env); err != nil {
		return nil, fmt.Errorf("repo: decode extra fields: %w", err)
	}
	p.Extra = env.Request
	p.Project.Extra = env.Project
	for i := range p.ImageTasks {
		if fields, ok := env.Tasks[p.ImageTasks[i].TaskID]; ok {
			p.ImageTasks[i].Extra = fields
		}
	}
	return &p, nil
}
