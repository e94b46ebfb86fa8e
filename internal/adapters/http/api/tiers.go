package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/framecount/internal/domain/pricing"
	"github.com/okian/framecount/internal/domain/types"
)

// TierDependencies is the pricing table surface used by TiersHandler.
type TierDependencies interface {
	Tiers(ctx context.Context) []types.TierView
	ReplaceTiers(ctx context.Context, tiers []pricing.Tier) ([]types.TierView, error)
	RemoveTier(ctx context.Context, index int) ([]types.TierView, error)
}

// tiersRequest replaces the whole table. An empty list is allowed and prices
// every shot at zero.
type tiersRequest struct {
	Tiers []pricing.Tier `json:"tiers" validate:"required,dive"`
}

// TiersHandler handles /tiers requests.
type TiersHandler struct {
	deps     TierDependencies
	validate *requestValidator
}

// NewTiersHandler creates a new tiers handler.
func NewTiersHandler(deps TierDependencies, v *requestValidator) *TiersHandler {
	return &TiersHandler{deps: deps, validate: v}
}

// HandleList handles GET /tiers.
func (h *TiersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Tiers(r.Context()))
}

// HandleReplace handles PUT /tiers. Every shot is re-priced.
func (h *TiersHandler) HandleReplace(w http.ResponseWriter, r *http.Request) {
	var req tiersRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	views, err := h.deps.ReplaceTiers(r.Context(), req.Tiers)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleRemove handles DELETE /tiers/{index}.
func (h *TiersHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: index must be an integer", ErrBadRequest))
		return
	}
	views, err := h.deps.RemoveTier(r.Context(), index)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
