package types_test

import (
	"testing"

	"github.com/okian/pairank/internal/domain/model"
	"github.com/okian/pairank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromItems(t *testing.T) {
	Convey("Given items from the store", t, func() {
		items := []model.Item{
			{ID: 2, Name: "B", Position: 0, Wins: 1, Locked: true, ComparedThisPass: true},
			{ID: 1, Name: "A", Position: 1, Losses: 1},
		}

		Convey("When projected to entries", func() {
			entries := types.FromItems(items)

			Convey("Then order and fields are preserved", func() {
				So(entries, ShouldHaveLength, 2)
				So(entries[0], ShouldResemble, types.Entry{ID: 2, Name: "B", Position: 0, Wins: 1, Locked: true})
				So(entries[1], ShouldResemble, types.Entry{ID: 1, Name: "A", Position: 1, Losses: 1})
			})
		})

		Convey("When the input is empty", func() {
			Convey("Then the result is an empty, non-nil slice", func() {
				entries := types.FromItems(nil)
				So(entries, ShouldNotBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}
