package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"engine/internal/domain"
	"engine/internal/domain/jsoncfg"
	"engine/pkg/zip"
)

func (a *App) decodeProject(w http.ResponseWriter, r *http.Request) (*domain.BatchProject, bool) {
	data, err := readBody(r)
	if err != nil {
		a.invalidPayload(w, err)
		return nil, false
	}
	project, err := jsoncfg.DecodeProject(data)
	if err != nil {
		a.invalidPayload(w, err)
		return nil, false
	}
	return project, true
}

func dryRun(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("dry_run"))
	return err == nil && v
}

func (a *App) IngestProject(w http.ResponseWriter, r *http.Request) {
	project, ok := a.decodeProject(w, r)
	if !ok {
		return
	}
	id, err := a.Batch.Ingest(r.Context(), project)
	if err != nil {
		a.fail(w, r, err, nil)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "project_id": id})
}

func (a *App) GenerateProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	results, err := a.Batch.Generate(generationContext(r), id, dryRun(r))
	if err != nil {
		a.fail(w, r, err, map[string]any{"project_id": id, "results": results})
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "project_id": id, "results": results})
}

func (a *App) RunFull(w http.ResponseWriter, r *http.Request) {
	project, ok := a.decodeProject(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, a.Batch.RunFull(generationContext(r), project, dryRun(r)))
}

func (a *App) CurrentProject(w http.ResponseWriter, r *http.Request) {
	project, err := a.Batch.Current(r.Context())
	if err != nil {
		a.fail(w, r, err, nil)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "project": project})
}

func (a *App) ProjectApproval(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	approved, err := a.Batch.CheckProjectApproval(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, map[string]any{"project_id": id, "approved": false})
		return
	}
	a.json(w, http.StatusOK, map[string]any{"success": true, "project_id": id, "approved": approved})
}

func (a *App) ProjectArchive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	entries, err := a.Batch.ArchiveEntries(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, nil)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, id))
	if err := zip.Write(w, entries); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("project_id", id).Msg("handlers: archive stream failed")
	}
}
