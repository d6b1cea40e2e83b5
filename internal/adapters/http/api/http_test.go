package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/pairank/internal/adapters/http/api"
	"github.com/okian/pairank/internal/app"
	"github.com/okian/pairank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestMux(opts ...app.Option) (*http.ServeMux, func()) {
	s := app.New(opts...)
	So(s.Start(context.Background()), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(s, s).Register(context.Background(), mux)
	return mux, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	}
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder, v any) {
	So(json.NewDecoder(w.Body).Decode(v), ShouldBeNil)
}

func TestServerHealthAndMetrics(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, stop := newTestMux()
		defer stop()

		Convey("Then /healthz reports ok", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("Then /metrics serves the Prometheus registry", func() {
			do(mux, http.MethodGet, "/healthz", "")
			w := do(mux, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "http_requests_total")
		})

		Convey("Then /stats returns the scheduler view", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats app.Stats
			decode(w, &stats)
			So(stats.Started, ShouldBeTrue)
			So(stats.SessionID, ShouldNotBeBlank)
		})

		Convey("Then unsupported methods are not found", func() {
			So(do(mux, http.MethodDelete, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/items", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPut, "/comparison", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestItemsEndpoint(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		mux, stop := newTestMux()
		defer stop()

		Convey("When an item is posted", func() {
			w := do(mux, http.MethodPost, "/items", `{"name":"Tetris","request_id":"r1"}`)

			Convey("Then it is created at the end of the list", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				var res app.AddResult
				decode(w, &res)
				So(res.Item.Name, ShouldEqual, "Tetris")
				So(res.Item.Position, ShouldEqual, 0)
				So(res.Duplicate, ShouldBeFalse)
			})

			Convey("And the same request id is retried", func() {
				again := do(mux, http.MethodPost, "/items", `{"name":"Tetris","request_id":"r1"}`)

				Convey("Then the original item is returned with 200", func() {
					So(again.Code, ShouldEqual, http.StatusOK)
					var res app.AddResult
					decode(again, &res)
					So(res.Duplicate, ShouldBeTrue)
					var list []types.Entry
					decode(do(mux, http.MethodGet, "/ranking", ""), &list)
					So(list, ShouldHaveLength, 1)
				})
			})
		})

		Convey("When the request id comes from the header", func() {
			req := httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name":"Doom"}`))
			req.Header.Set(api.IdempotencyHeader, "hdr-1")
			first := httptest.NewRecorder()
			mux.ServeHTTP(first, req)

			req = httptest.NewRequest(http.MethodPost, "/items", strings.NewReader(`{"name":"Doom"}`))
			req.Header.Set(api.IdempotencyHeader, "hdr-1")
			second := httptest.NewRecorder()
			mux.ServeHTTP(second, req)

			Convey("Then the retry is deduplicated", func() {
				So(first.Code, ShouldEqual, http.StatusCreated)
				So(second.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the body is malformed or the name is blank", func() {
			bad := do(mux, http.MethodPost, "/items", `{"name":`)
			blank := do(mux, http.MethodPost, "/items", `{"name":"   "}`)
			unknown := do(mux, http.MethodPost, "/items", `{"title":"x"}`)

			Convey("Then each is a bad request", func() {
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(blank.Code, ShouldEqual, http.StatusBadRequest)
				So(blank.Body.String(), ShouldContainSubstring, "invalid_name")
				So(unknown.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestComparisonEndpoint(t *testing.T) {
	Convey("Given a server holding A, B and C", t, func() {
		mux, stop := newTestMux()
		defer stop()
		for _, n := range []string{"A", "B", "C"} {
			So(do(mux, http.MethodPost, "/items", `{"name":"`+n+`"}`).Code, ShouldEqual, http.StatusCreated)
		}

		Convey("When nothing is open", func() {
			submit := do(mux, http.MethodPost, "/comparison", `{"winner_side":1}`)
			cancel := do(mux, http.MethodDelete, "/comparison", "")

			Convey("Then submit and cancel conflict", func() {
				So(submit.Code, ShouldEqual, http.StatusConflict)
				So(submit.Body.String(), ShouldContainSubstring, "no_open_comparison")
				So(cancel.Code, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When a comparison is fetched", func() {
			w := do(mux, http.MethodGet, "/comparison", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var p app.Prompt
			decode(w, &p)

			Convey("Then the first two items are paired", func() {
				So(p.Complete, ShouldBeFalse)
				So(p.ItemA.Name, ShouldEqual, "A")
				So(p.ItemB.Name, ShouldEqual, "B")
			})

			Convey("Then fetching again returns the same open comparison", func() {
				var again app.Prompt
				decode(do(mux, http.MethodGet, "/comparison", ""), &again)
				So(again.ItemA.ID, ShouldEqual, p.ItemA.ID)
				So(again.ItemB.ID, ShouldEqual, p.ItemB.ID)
			})

			Convey("And an invalid side is posted", func() {
				w := do(mux, http.MethodPost, "/comparison", `{"winner_side":3}`)

				Convey("Then it is rejected and the comparison stays open", func() {
					So(w.Code, ShouldEqual, http.StatusBadRequest)
					So(w.Body.String(), ShouldContainSubstring, "invalid_selection")
					var stats app.Stats
					decode(do(mux, http.MethodGet, "/stats", ""), &stats)
					So(stats.Pending, ShouldBeTrue)
				})
			})

			Convey("And side B wins", func() {
				w := do(mux, http.MethodPost, "/comparison", `{"winner_side":2}`)

				Convey("Then B moves to the top and the history records it", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					var out struct {
						Winner struct{ Name string } `json:"winner"`
						Locked []int64               `json:"locked"`
					}
					decode(w, &out)
					So(out.Winner.Name, ShouldEqual, "B")
					So(out.Locked, ShouldNotBeNil)

					var list []types.Entry
					decode(do(mux, http.MethodGet, "/ranking", ""), &list)
					So(list[0].Name, ShouldEqual, "B")

					hist := do(mux, http.MethodGet, "/history", "")
					So(hist.Code, ShouldEqual, http.StatusOK)
					So(hist.Body.String(), ShouldContainSubstring, `"winner_id":2`)
				})
			})

			Convey("And it is cancelled", func() {
				w := do(mux, http.MethodDelete, "/comparison", "")

				Convey("Then no content is returned and nothing is pending", func() {
					So(w.Code, ShouldEqual, http.StatusNoContent)
					var stats app.Stats
					decode(do(mux, http.MethodGet, "/stats", ""), &stats)
					So(stats.Pending, ShouldBeFalse)
				})
			})
		})

		Convey("When the submit body is malformed", func() {
			w := do(mux, http.MethodPost, "/comparison", `not json`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "bad_request")
			})
		})
	})

	Convey("Given a server holding a single item", t, func() {
		mux, stop := newTestMux()
		defer stop()
		do(mux, http.MethodPost, "/items", `{"name":"only"}`)

		Convey("Then fetching a comparison reports completion", func() {
			w := do(mux, http.MethodGet, "/comparison", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"complete":true`)
		})
	})
}

func TestItemsAfterLock(t *testing.T) {
	Convey("Given a server whose two items are already ranked", t, func() {
		mux, stop := newTestMux()
		defer stop()
		do(mux, http.MethodPost, "/items", `{"name":"Myst"}`)
		do(mux, http.MethodPost, "/items", `{"name":"Zork"}`)
		So(do(mux, http.MethodGet, "/comparison", "").Code, ShouldEqual, http.StatusOK)
		So(do(mux, http.MethodPost, "/comparison", `{"winner_side":1}`).Code, ShouldEqual, http.StatusOK)

		Convey("When a third item is posted", func() {
			w := do(mux, http.MethodPost, "/items", `{"name":"Riven"}`)

			Convey("Then it conflicts and the ranking is unchanged", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(w.Body.String(), ShouldContainSubstring, "ranking_locked")
				var list []types.Entry
				decode(do(mux, http.MethodGet, "/ranking", ""), &list)
				So(list, ShouldHaveLength, 2)
			})

			Convey("Then the failure is counted under its error code", func() {
				body := do(mux, http.MethodGet, "/metrics", "").Body.String()
				So(body, ShouldContainSubstring, `component="http_items",error_type="ranking_locked"`)
			})
		})

		Convey("When an unsupported method is used", func() {
			do(mux, http.MethodPut, "/items", "")

			Convey("Then the failure is counted by status class", func() {
				body := do(mux, http.MethodGet, "/metrics", "").Body.String()
				So(body, ShouldContainSubstring, `component="http_items",error_type="not_found"`)
			})
		})
	})
}

func TestDebugEndpoint(t *testing.T) {
	Convey("Given a server with two items", t, func() {
		mux, stop := newTestMux()
		defer stop()
		do(mux, http.MethodPost, "/items", `{"name":"Myst"}`)
		do(mux, http.MethodPost, "/items", `{"name":"Zork"}`)

		Convey("Then /debug renders a plain text snapshot", func() {
			w := do(mux, http.MethodGet, "/debug", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "text/plain")
			So(w.Body.String(), ShouldContainSubstring, "Myst")
			So(w.Body.String(), ShouldContainSubstring, "Zork")
		})

		Convey("Then the synchronous snapshot matches", func() {
			w := do(mux, http.MethodGet, "/debug?sync=1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Zork")
		})
	})
}

func TestUnavailableScheduler(t *testing.T) {
	Convey("Given a server whose scheduler was never started", t, func() {
		s := app.New()
		mux := http.NewServeMux()
		api.NewServer(s, s).Register(context.Background(), mux)

		Convey("Then writes are refused with 503", func() {
			w := do(mux, http.MethodPost, "/items", `{"name":"A"}`)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, "unavailable")
		})
	})
}
