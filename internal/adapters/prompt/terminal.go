// Package prompt asks a human to choose between two items on a terminal.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/okian/pairank/internal/app"
	"github.com/okian/pairank/internal/domain/model"
)

// Terminal reads answers line by line. Typing a number submits it as the
// chosen side; "q" aborts the session.
type Terminal struct {
	in    *bufio.Scanner
	out   io.Writer
	asked int
}

// NewTerminal creates a prompter over in and out.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewScanner(in), out: out}
}

var (
	nameA  = color.New(color.FgCyan, color.Bold).SprintFunc()
	nameB  = color.New(color.FgMagenta, color.Bold).SprintFunc()
	dimmed = color.New(color.Faint).SprintFunc()
)

// Choose prints the pair and waits for an answer. Out-of-range numbers are
// passed through so the ranker can reject them.
func (t *Terminal) Choose(ctx context.Context, a, b string) (model.Side, error) {
	t.asked++
	fmt.Fprintf(t.out, "\n%s  which do you prefer?\n", dimmed(fmt.Sprintf("#%d", t.asked)))
	fmt.Fprintf(t.out, "  1) %s\n  2) %s\n", nameA(a), nameB(b))

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		fmt.Fprint(t.out, "> ")
		if !t.in.Scan() {
			if err := t.in.Err(); err != nil {
				return 0, fmt.Errorf("read answer: %w", err)
			}
			return 0, app.ErrAborted
		}

		line := strings.TrimSpace(t.in.Text())
		switch strings.ToLower(line) {
		case "q", "quit", "exit":
			return 0, app.ErrAborted
		case "":
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			fmt.Fprintln(t.out, color.YellowString("enter 1 or 2, or q to quit"))
			continue
		}
		return model.Side(n), nil
	}
}

// Rejected tells the user their last answer was not accepted.
func (t *Terminal) Rejected(reason error) {
	fmt.Fprintln(t.out, color.RedString("rejected: %v", reason))
}
