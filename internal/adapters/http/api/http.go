// Package api exposes the ranking scheduler over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/pairank/internal/app"
	"github.com/okian/pairank/internal/domain/model"
	"github.com/okian/pairank/internal/domain/ranking"
	"github.com/okian/pairank/internal/domain/types"
)

// Dependencies required by HTTP handlers. *app.Scheduler satisfies it.
type Dependencies interface {
	AddItem(ctx context.Context, name, requestID string) (app.AddResult, error)
	RequestComparison(ctx context.Context) (app.Prompt, error)
	Pending() (app.Prompt, bool)
	SubmitResult(ctx context.Context, side model.Side) (ranking.Outcome, error)
	CancelPending(ctx context.Context) error
	OrderedList() []types.Entry
	Records() []model.ComparisonRecord
	Snapshot() string
	DebugSnapshot(ctx context.Context) (string, error)
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	itemsHandler      *ItemsHandler
	comparisonHandler *ComparisonHandler
	rankingHandler    *RankingHandler
	debugHandler      *DebugHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		itemsHandler:      NewItemsHandler(deps),
		comparisonHandler: NewComparisonHandler(deps),
		rankingHandler:    NewRankingHandler(deps),
		debugHandler:      NewDebugHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/items", MetricsMiddleware(s.itemsHandler.HandleAddItem, "items"))
	mux.HandleFunc("/comparison", MetricsMiddleware(s.comparisonHandler.HandleComparison, "comparison"))
	mux.HandleFunc("/ranking", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
	mux.HandleFunc("/history", MetricsMiddleware(s.rankingHandler.HandleGetHistory, "history"))
	mux.HandleFunc("/debug", MetricsMiddleware(s.debugHandler.HandleDebug, "debug"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	if ec, ok := w.(errorCoder); ok {
		ec.setErrorCode(code)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a scheduler or ranker error onto a status and code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ranking.ErrInvalidName):
		return http.StatusBadRequest, "invalid_name"
	case errors.Is(err, ranking.ErrInvalidSelection):
		return http.StatusBadRequest, "invalid_selection"
	case errors.Is(err, ranking.ErrNoOpenComparison):
		return http.StatusConflict, "no_open_comparison"
	case errors.Is(err, ranking.ErrQuestionPending):
		return http.StatusConflict, "question_pending"
	case errors.Is(err, ranking.ErrRankingLocked):
		return http.StatusConflict, "ranking_locked"
	case errors.Is(err, ranking.ErrInconsistentLog):
		return http.StatusUnprocessableEntity, "inconsistent"
	case errors.Is(err, app.ErrBusy), errors.Is(err, ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, app.ErrStopped), errors.Is(err, app.ErrNotStarted), errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	http.NotFound(w, r)
	return false
}
