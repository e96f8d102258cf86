package handlers

import (
	"net/http"
)

type healthResponse struct {
	Status         string `json:"status"`
	CatalogAssets  *int   `json:"catalog_assets,omitempty"`
	CurrentProject string `json:"current_project,omitempty"`
}

// Health always answers 200. Catalog and project details are best effort.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if a.Assets != nil {
		n := a.Assets.Len()
		resp.CatalogAssets = &n
	}
	if a.Batch != nil {
		if p, err := a.Batch.Current(r.Context()); err == nil && p != nil {
			resp.CurrentProject = p.ID()
		}
	}
	a.json(w, http.StatusOK, resp)
}
