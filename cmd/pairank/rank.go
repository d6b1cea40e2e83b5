package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/okian/pairank/internal/adapters/loader"
	"github.com/okian/pairank/internal/adapters/prompt"
	"github.com/okian/pairank/internal/app"
	"github.com/okian/pairank/internal/domain/types"
)

// ttyPath is where answers are read from when names arrive on stdin.
const ttyPath = "/dev/tty"

func newRankCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rank [file|-]",
		Short: "Rank items interactively on the terminal",
		Long: "Rank the names in file (one per line, or a YAML document with an items list). " +
			"With '-' names are read from stdin and answers from the terminal.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.cfg.ItemsFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.New("no items: pass a file, '-' for stdin, or set items_file")
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			return c.rank(cmd.Context(), path, cmd.InOrStdin(), cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().Bool("json", false, "Print the final ranking as JSON")
	return cmd
}

func (c *cli) rank(ctx context.Context, path string, in io.Reader, out io.Writer, asJSON bool) error {
	var src app.Loader = loader.NewFile(path)
	if path == "-" {
		src = loader.NewReader(in)
		tty, err := os.Open(ttyPath)
		if err != nil {
			return fmt.Errorf("open terminal for answers: %w", err)
		}
		defer tty.Close()
		in = tty
	}

	s := app.New(c.schedulerOptions()...)
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = s.Stop(context.WithoutCancel(ctx)) }()

	session := app.NewSession(s, prompt.NewTerminal(in, out), c.log)
	if _, err := session.Load(ctx, src); err != nil {
		return err
	}

	type result struct {
		res app.SessionResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		res, err := session.Run(ctx)
		done <- result{res, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		fmt.Fprintln(out)
		return ctx.Err()
	}
	if errors.Is(r.err, app.ErrAborted) {
		fmt.Fprintln(out, color.YellowString("aborted; ranking so far:"))
		return printRanking(out, s.OrderedList(), asJSON)
	}
	if r.err != nil {
		return r.err
	}
	fmt.Fprintf(out, "\n%s after %d comparisons\n", color.GreenString("done"), r.res.Comparisons)
	return printRanking(out, r.res.Entries, asJSON)
}

func printRanking(w io.Writer, entries []types.Entry, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	bold := color.New(color.Bold).SprintFunc()
	for _, e := range entries {
		mark := " "
		if e.Locked {
			mark = color.GreenString("*")
		}
		fmt.Fprintf(w, "%3d.%s %s %s\n", e.Position+1, mark, bold(e.Name), color.New(color.Faint).Sprintf("(%d-%d)", e.Wins, e.Losses))
	}
	return nil
}
