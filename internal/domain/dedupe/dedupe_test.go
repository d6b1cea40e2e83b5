package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/pairank/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		ctx := context.Background()

		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, int64(0))
				_, ok := d.Lookup(ctx, "req-1")
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When recording a request", func() {
			d := dedupe.NewInMemoryDeduper()
			d.Record(ctx, "req-1", 42)

			Convey("Then lookups return the item id", func() {
				id, ok := d.Lookup(ctx, "req-1")
				So(ok, ShouldBeTrue)
				So(id, ShouldEqual, int64(42))
				So(d.Size(), ShouldEqual, int64(1))
			})

			Convey("And the same request is recorded again", func() {
				d.Record(ctx, "req-1", 43)

				Convey("Then the first item id is kept", func() {
					id, _ := d.Lookup(ctx, "req-1")
					So(id, ShouldEqual, int64(42))
					So(d.Size(), ShouldEqual, int64(1))
				})
			})

			Convey("And the request is unrecorded", func() {
				d.Unrecord(ctx, "req-1")
				d.Unrecord(ctx, "missing")

				Convey("Then it is forgotten", func() {
					_, ok := d.Lookup(ctx, "req-1")
					So(ok, ShouldBeFalse)
					So(d.Size(), ShouldEqual, int64(0))
				})
			})
		})

		Convey("When using bounded mode with eviction", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for i := 1; i <= 4; i++ {
				d.Record(ctx, fmt.Sprintf("req-%d", i), int64(i))
			}

			Convey("Then the oldest entry is evicted", func() {
				So(d.Size(), ShouldEqual, int64(3))
				_, ok := d.Lookup(ctx, "req-1")
				So(ok, ShouldBeFalse)
				for i := 2; i <= 4; i++ {
					id, ok := d.Lookup(ctx, fmt.Sprintf("req-%d", i))
					So(ok, ShouldBeTrue)
					So(id, ShouldEqual, int64(i))
				}
			})

			Convey("And a middle entry is removed before more are added", func() {
				d.Unrecord(ctx, "req-3")
				d.Record(ctx, "req-5", 5)
				d.Record(ctx, "req-6", 6)

				Convey("Then eviction still follows insertion order", func() {
					So(d.Size(), ShouldEqual, int64(3))
					_, ok := d.Lookup(ctx, "req-2")
					So(ok, ShouldBeFalse)
					for _, key := range []string{"req-4", "req-5", "req-6"} {
						_, ok := d.Lookup(ctx, key)
						So(ok, ShouldBeTrue)
					}
				})
			})
		})

		Convey("When using a max size of one", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))
			d.Record(ctx, "a", 1)
			d.Record(ctx, "b", 2)

			Convey("Then only the newest entry survives", func() {
				So(d.Size(), ShouldEqual, int64(1))
				_, okA := d.Lookup(ctx, "a")
				_, okB := d.Lookup(ctx, "b")
				So(okA, ShouldBeFalse)
				So(okB, ShouldBeTrue)
			})
		})

		Convey("When using unbounded mode", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			const n = 1000
			for i := 0; i < n; i++ {
				d.Record(ctx, fmt.Sprintf("req-%d", i), int64(i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, int64(n))
				_, ok := d.Lookup(ctx, "req-0")
				So(ok, ShouldBeTrue)
			})
		})
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given a deduper with concurrent access", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const goroutines = 10
		const perGoroutine = 100

		Convey("When multiple goroutines record and look up concurrently", func() {
			var wg sync.WaitGroup
			for g := 0; g < goroutines; g++ {
				wg.Add(1)
				go func(g int) {
					defer wg.Done()
					for j := 0; j < perGoroutine; j++ {
						key := fmt.Sprintf("req-%d-%d", g, j)
						d.Record(ctx, key, int64(j))
						_, _ = d.Lookup(ctx, key)
					}
				}(g)
			}
			wg.Wait()

			Convey("Then every request is recorded exactly once", func() {
				So(d.Size(), ShouldEqual, int64(goroutines*perGoroutine))
			})
		})
	})
}
