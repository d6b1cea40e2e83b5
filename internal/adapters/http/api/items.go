package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IdempotencyHeader may carry the request id instead of the body field.
const IdempotencyHeader = "Idempotency-Key"

// maxBodyBytes bounds request payloads.
const maxBodyBytes = 1 << 20

type addItemRequest struct {
	Name      string `json:"name"`
	RequestID string `json:"request_id"`
}

// ItemsHandler handles item creation.
type ItemsHandler struct {
	deps Dependencies
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(deps Dependencies) *ItemsHandler {
	return &ItemsHandler{deps: deps}
}

// HandleAddItem handles POST /items. A repeated request id returns the
// original item with 200 instead of 201.
func (h *ItemsHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_item"
	if !allowMethods(w, r, http.MethodPost) {
		return
	}

	var req addItemRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.RequestID == "" {
		req.RequestID = strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	}

	res, err := h.deps.AddItem(r.Context(), req.Name, req.RequestID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}
