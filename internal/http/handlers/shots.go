package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"engine/internal/domain"
)

type shotResponse struct {
	Success bool         `json:"success"`
	Shot    *domain.Shot `json:"shot"`
	Error   *apiError    `json:"error,omitempty"`
}

func (a *App) ProcessShot(w http.ResponseWriter, r *http.Request) {
	a.runShot(w, r, a.Shots.ProcessShot)
}

func (a *App) RegenerateShot(w http.ResponseWriter, r *http.Request) {
	a.runShot(w, r, a.Shots.RegenerateShot)
}

func (a *App) runShot(w http.ResponseWriter, r *http.Request, run func(ctx context.Context, shot *domain.Shot) *domain.Shot) {
	data, err := readBody(r)
	if err != nil {
		a.invalidPayload(w, err)
		return
	}
	var shot domain.Shot
	if err := json.Unmarshal(data, &shot); err != nil {
		a.invalidPayload(w, err)
		return
	}
	out := run(generationContext(r), &shot)
	resp := shotResponse{Success: out.State == domain.ShotStateCompleted, Shot: out}
	if !resp.Success {
		resp.Error = &apiError{Code: out.ErrorCode, Message: out.ErrorMessage}
	}
	a.json(w, http.StatusOK, resp)
}
