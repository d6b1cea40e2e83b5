package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/pairank/internal/domain/types"
	"github.com/okian/pairank/internal/simulate"
)

func execute(t *testing.T, in string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("PAIRANK_CONFIG", "")
	color.NoColor = true

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(in))
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.Execute()
	return out.String(), err
}

func writeItems(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "items.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSimulateCommand(t *testing.T) {
	convey.Convey("Given the simulate command", t, func() {
		convey.Convey("When run with a small item count and JSON output", func() {
			out, err := execute(t, "", "simulate", "--items", "6", "--seed", "4", "--json")

			convey.Convey("Then the report shows a correct, fully locked ranking", func() {
				convey.So(err, convey.ShouldBeNil)
				var rep simulate.Report
				convey.So(json.Unmarshal([]byte(out), &rep), convey.ShouldBeNil)
				convey.So(rep.Items, convey.ShouldEqual, 6)
				convey.So(rep.Correct, convey.ShouldBeTrue)
				convey.So(rep.AllLocked, convey.ShouldBeTrue)
				convey.So(rep.Naive, convey.ShouldEqual, 15)
			})
		})

		convey.Convey("When run with text output", func() {
			out, err := execute(t, "", "simulate", "--items", "3")

			convey.Convey("Then a summary is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "comparisons:")
				convey.So(out, convey.ShouldContainSubstring, "correct")
			})
		})
	})
}

func TestRankCommand(t *testing.T) {
	convey.Convey("Given an items file with two names", t, func() {
		path := writeItems(t, "# favourites", "Myst", "", "Zork")

		convey.Convey("When the second option is chosen", func() {
			out, err := execute(t, "2\n", "rank", path)

			convey.Convey("Then Zork is ranked first and the sort completes", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "which do you prefer?")
				convey.So(out, convey.ShouldContainSubstring, "done after 1 comparisons")
				convey.So(out, convey.ShouldContainSubstring, "  1.* Zork (1-0)")
			})
		})

		convey.Convey("When the user quits", func() {
			out, err := execute(t, "q\n", "rank", "--json", path)

			convey.Convey("Then the partial ranking is printed as JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "aborted")
				var entries []types.Entry
				convey.So(json.Unmarshal([]byte(out[strings.Index(out, "["):]), &entries), convey.ShouldBeNil)
				convey.So(entries, convey.ShouldHaveLength, 2)
				convey.So(entries[0].Name, convey.ShouldEqual, "Myst")
			})
		})

		convey.Convey("When no file is given", func() {
			_, err := execute(t, "", "rank")

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestRootConfig(t *testing.T) {
	convey.Convey("Given an invalid queue capacity in the environment", t, func() {
		t.Setenv("PAIRANK_QUEUE_CAPACITY", "0")

		convey.Convey("Then every subcommand refuses to start", func() {
			_, err := execute(t, "", "simulate", "--items", "2")
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(err.Error(), convey.ShouldContainSubstring, "queue_capacity")
		})
	})
}
