package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/framecount/internal/app"
	"github.com/okian/framecount/internal/domain/model"
	"github.com/okian/framecount/internal/domain/types"
)

// ShotDependencies is the shot collection surface used by ShotsHandler.
type ShotDependencies interface {
	AddShot(ctx context.Context, name string, frames int, previewRef string) (types.ShotView, error)
	AddBatch(ctx context.Context, candidates []model.Candidate) (types.BatchResult, error)
	UpdateShot(ctx context.Context, id string, patch service.ShotPatch) (types.ShotView, error)
	RemoveShot(ctx context.Context, id string) error
	Shot(ctx context.Context, id string) (types.ShotView, error)
	Shots(ctx context.Context) []types.ShotView
	Summary(ctx context.Context) types.Summary
}

// addShotRequest mirrors the OpenAPI schema for POST /shots.
type addShotRequest struct {
	Name       string `json:"name" validate:"required,max=256"`
	Frames     *int   `json:"frames" validate:"required,gte=0"`
	PreviewRef string `json:"preview_ref" validate:"max=2048"`
}

type batchRequest struct {
	Candidates []model.Candidate `json:"candidates" validate:"max=5000"`
}

type updateShotRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=256"`
	Frames *int    `json:"frames" validate:"omitempty,gte=0"`
}

type shotListResponse struct {
	Shots   []types.ShotView `json:"shots"`
	Summary types.Summary    `json:"summary"`
}

// ShotsHandler handles /shots requests.
type ShotsHandler struct {
	deps     ShotDependencies
	validate *requestValidator
}

// NewShotsHandler creates a new shots handler.
func NewShotsHandler(deps ShotDependencies, v *requestValidator) *ShotsHandler {
	return &ShotsHandler{deps: deps, validate: v}
}

// HandleList handles GET /shots.
func (h *ShotsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, shotListResponse{
		Shots:   h.deps.Shots(r.Context()),
		Summary: h.deps.Summary(r.Context()),
	})
}

// HandleGet handles GET /shots/{id}.
func (h *ShotsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Shot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleAdd handles POST /shots.
func (h *ShotsHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req addShotRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.deps.AddShot(r.Context(), req.Name, *req.Frames, req.PreviewRef)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// HandleAddBatch handles POST /shots/batch. Duplicates and unusable
// candidates are counted, not rejected.
func (h *ShotsHandler) HandleAddBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.deps.AddBatch(r.Context(), req.Candidates)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleUpdate handles PATCH /shots/{id}.
func (h *ShotsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateShotRequest
	if !h.decode(w, r, &req) {
		return
	}
	view, err := h.deps.UpdateShot(r.Context(), chi.URLParam(r, "id"), service.ShotPatch{
		Name:   req.Name,
		Frames: req.Frames,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRemove handles DELETE /shots/{id}.
func (h *ShotsHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.RemoveShot(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShotsHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	return decodeAndValidate(w, r, h.validate, dst)
}

// decodeAndValidate writes a 400 and returns false when the body is not
// valid JSON or fails validation.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *requestValidator, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err))
		return false
	}
	if err := v.Validate(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err)
		return false
	}
	return true
}
