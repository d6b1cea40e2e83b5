package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/okian/pairank/internal/app"
	"github.com/okian/pairank/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given errors from every layer", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{WrapKind("op", ErrBadRequest, errors.New("eof")), http.StatusBadRequest, "bad_request"},
			{fmt.Errorf("add: %w", ranking.ErrInvalidName), http.StatusBadRequest, "invalid_name"},
			{ranking.ErrInvalidSelection, http.StatusBadRequest, "invalid_selection"},
			{ranking.ErrNoOpenComparison, http.StatusConflict, "no_open_comparison"},
			{ranking.ErrQuestionPending, http.StatusConflict, "question_pending"},
			{fmt.Errorf("add: %w", ranking.ErrRankingLocked), http.StatusConflict, "ranking_locked"},
			{ranking.ErrInconsistentLog, http.StatusUnprocessableEntity, "inconsistent"},
			{app.ErrBusy, http.StatusTooManyRequests, "backpressure"},
			{app.ErrStopped, http.StatusServiceUnavailable, "unavailable"},
			{app.ErrNotStarted, http.StatusServiceUnavailable, "unavailable"},
			{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
			{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		}

		Convey("Then each maps to its status and code", func() {
			for _, c := range cases {
				status, code := classify(c.err)
				So(status, ShouldEqual, c.status)
				So(code, ShouldEqual, c.code)
			}
		})
	})

	Convey("Given a wrapped API error", t, func() {
		cause := errors.New("unexpected EOF")
		err := WrapKind("api.add_item", ErrBadRequest, cause)

		Convey("Then both kind and cause are visible", func() {
			So(errors.Is(err, ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.add_item: bad request: unexpected EOF")
			So(NewKind("api.x", ErrUnavailable).Error(), ShouldEqual, "api.x: unavailable")
		})
	})
}
