package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/pairank/internal/domain/model"
)

type submitRequest struct {
	WinnerSide int `json:"winner_side"`
}

// ComparisonHandler exposes the open comparison.
type ComparisonHandler struct {
	deps Dependencies
}

// NewComparisonHandler creates a new comparison handler.
func NewComparisonHandler(deps Dependencies) *ComparisonHandler {
	return &ComparisonHandler{deps: deps}
}

// HandleComparison dispatches GET, POST and DELETE on /comparison.
func (h *ComparisonHandler) HandleComparison(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodDelete:
		h.handleCancel(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleGet returns the open comparison, opening one when none is.
func (h *ComparisonHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.deps.Pending(); ok {
		writeJSON(w, http.StatusOK, p)
		return
	}
	p, err := h.deps.RequestComparison(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if p.Complete {
		writeJSON(w, http.StatusOK, map[string]bool{"complete": true})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ComparisonHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_result"
	var req submitRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	out, err := h.deps.SubmitResult(r.Context(), model.Side(req.WinnerSide))
	if err != nil {
		writeFailure(w, err)
		return
	}
	if out.Locked == nil {
		out.Locked = []int64{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ComparisonHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.CancelPending(r.Context()); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
