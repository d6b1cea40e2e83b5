package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/pairank/internal/adapters/loader"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFileLoader(t *testing.T) {
	Convey("Given item files", t, func() {
		ctx := context.Background()

		Convey("When loading a plain text file", func() {
			path := writeFile(t, "games.txt", "# favourites\nChrono Trigger\n\n  Final Fantasy VI  \n#Skipped\nEarthBound\n")
			names, err := loader.NewFile(path).Load(ctx)

			Convey("Then names are trimmed and comments skipped, in order", func() {
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"Chrono Trigger", "Final Fantasy VI", "EarthBound"})
			})
		})

		Convey("When loading a YAML file", func() {
			path := writeFile(t, "games.yaml", "items:\n  - Doom\n  - \"Myst\"\n  - ''\n  - Zork\n")
			names, err := loader.NewFile(path).Load(ctx)

			Convey("Then the items list is returned", func() {
				So(err, ShouldBeNil)
				So(names, ShouldResemble, []string{"Doom", "Myst", "Zork"})
			})
		})

		Convey("When the file has no items", func() {
			path := writeFile(t, "empty.yml", "other: 1\n")
			_, yamlErr := loader.NewFile(path).Load(ctx)
			txt := writeFile(t, "empty.txt", "# nothing\n\n")
			_, txtErr := loader.NewFile(txt).Load(ctx)

			Convey("Then ErrEmptySource is returned", func() {
				So(errors.Is(yamlErr, loader.ErrEmptySource), ShouldBeTrue)
				So(errors.Is(txtErr, loader.ErrEmptySource), ShouldBeTrue)
			})
		})

		Convey("When the file does not exist", func() {
			_, txtErr := loader.NewFile(filepath.Join(t.TempDir(), "missing.txt")).Load(ctx)
			_, yamlErr := loader.NewFile(filepath.Join(t.TempDir(), "missing.yaml")).Load(ctx)

			Convey("Then ErrReadSource is returned", func() {
				So(errors.Is(txtErr, loader.ErrReadSource), ShouldBeTrue)
				So(errors.Is(txtErr, os.ErrNotExist), ShouldBeTrue)
				So(errors.Is(yamlErr, loader.ErrReadSource), ShouldBeTrue)
			})
		})
	})
}

func TestReaderLoader(t *testing.T) {
	Convey("Given a stream of names", t, func() {
		ctx := context.Background()

		Convey("Then every non-comment line is a name", func() {
			names, err := loader.NewReader(strings.NewReader("a\n# b\nc\n")).Load(ctx)
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"a", "c"})
		})

		Convey("Then an empty stream is an error", func() {
			_, err := loader.NewReader(strings.NewReader("")).Load(ctx)
			So(errors.Is(err, loader.ErrEmptySource), ShouldBeTrue)
		})

		Convey("Then a cancelled context stops the load", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := loader.NewReader(strings.NewReader("a\n")).Load(cctx)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
