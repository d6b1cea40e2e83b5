// Package loader reads item names from files.
//
// Files ending in .yaml or .yml are parsed as a document with an "items"
// list. Anything else is read as one name per line, skipping blank lines and
// lines starting with '#'.
package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// itemsKey is the YAML list holding names.
const itemsKey = "items"

// File loads names from a path.
type File struct {
	path string
}

// NewFile creates a loader for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Load returns the names in file order.
func (f *File) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		names []string
		err   error
	)
	switch strings.ToLower(filepath.Ext(f.path)) {
	case ".yaml", ".yml":
		names, err = f.loadYAML()
	default:
		var fh *os.File
		fh, err = os.Open(f.path)
		if err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrReadSource, f.path, err)
		}
		defer fh.Close()
		names, err = ReadLines(fh)
	}
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%s: %w", f.path, ErrEmptySource)
	}
	return names, nil
}

func (f *File) loadYAML() ([]string, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(f.path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadSource, f.path, err)
	}
	var out []string
	for _, name := range k.Strings(itemsKey) {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out, nil
}

// ReadLines reads one name per line from r.
func ReadLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadSource, err)
	}
	return out, nil
}

// Reader loads names from an already open stream such as stdin.
type Reader struct {
	r io.Reader
}

// NewReader creates a loader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Load reads every line from the stream.
func (l *Reader) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := ReadLines(l.r)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, ErrEmptySource
	}
	return names, nil
}
