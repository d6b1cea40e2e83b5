package api

import (
	"io"
	"net/http"
)

// DebugHandler renders the human-readable snapshot.
type DebugHandler struct {
	deps Dependencies
}

// NewDebugHandler creates a new debug handler.
func NewDebugHandler(deps Dependencies) *DebugHandler {
	return &DebugHandler{deps: deps}
}

// HandleDebug handles GET /debug. With ?sync=1 the snapshot is taken in
// queue order, after every operation already accepted.
func (h *DebugHandler) HandleDebug(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	snap := h.deps.Snapshot()
	if r.URL.Query().Get("sync") == "1" {
		var err error
		if snap, err = h.deps.DebugSnapshot(r.Context()); err != nil {
			writeFailure(w, err)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, snap)
}
