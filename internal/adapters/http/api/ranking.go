package api

import (
	"net/http"

	"github.com/okian/pairank/internal/domain/model"
)

// RankingHandler serves the current order and the comparison history.
type RankingHandler struct {
	deps Dependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps Dependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

// HandleGetRanking handles GET /ranking.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, h.deps.OrderedList())
}

// HandleGetHistory handles GET /history.
func (h *RankingHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	recs := h.deps.Records()
	if recs == nil {
		recs = []model.ComparisonRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}
