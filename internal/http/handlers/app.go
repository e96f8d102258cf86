package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"engine/internal/batch"
	"engine/internal/domain"
	"engine/internal/metrics"
	"engine/pkg/zip"
)

const maxBodyBytes = 10 << 20

// ShotProcessor runs the shot pipeline.
type ShotProcessor interface {
	ProcessShot(ctx context.Context, shot *domain.Shot) *domain.Shot
	RegenerateShot(ctx context.Context, shot *domain.Shot) *domain.Shot
}

// BatchRunner runs NanoBanana projects.
type BatchRunner interface {
	Ingest(ctx context.Context, project *domain.BatchProject) (string, error)
	Generate(ctx context.Context, projectID string, dryRun bool) ([]batch.Result, error)
	RunFull(ctx context.Context, project *domain.BatchProject, dryRun bool) batch.RunOutcome
	CheckProjectApproval(ctx context.Context, projectID string) (bool, error)
	Current(ctx context.Context) (*domain.BatchProject, error)
	ArchiveEntries(ctx context.Context, projectID string) ([]zip.Entry, error)
}

// AssetCounter reports how many assets the catalog holds.
type AssetCounter interface {
	Len() int
}

type App struct {
	Shots   ShotProcessor
	Batch   BatchRunner
	Metrics *metrics.Metrics
	Assets  AssetCounter
}

func NewApp(shots ShotProcessor, runner BatchRunner, m *metrics.Metrics) *App {
	return &App{Shots: shots, Batch: runner, Metrics: m}
}

// WithCatalog makes the health check report the catalog size.
func (a *App) WithCatalog(c AssetCounter) *App {
	a.Assets = c
	return a
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail writes a business failure: success=false plus the domain code.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, extra map[string]any) {
	code := domain.ErrorCode(err)
	status := http.StatusOK
	switch code {
	case "project_not_found", "not_found":
		status = http.StatusNotFound
	case "internal":
		status = http.StatusInternalServerError
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("handlers: internal error")
	}
	body := map[string]any{"success": false, "error": apiError{Code: code, Message: err.Error()}}
	for k, v := range extra {
		body[k] = v
	}
	a.json(w, status, body)
}

func (a *App) invalidPayload(w http.ResponseWriter, err error) {
	a.json(w, http.StatusBadRequest, map[string]any{
		"success": false,
		"error":   apiError{Code: "invalid_payload", Message: err.Error()},
	})
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBodyBytes {
		return nil, errors.New("request body too large")
	}
	if len(data) == 0 {
		return nil, errors.New("request body is empty")
	}
	return data, nil
}

// generationContext keeps request values but detaches from client
// cancellation; generation runs to completion once started.
func generationContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
