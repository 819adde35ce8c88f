package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cinelog/internal/app"
	"github.com/at-ishikawa/cinelog/internal/search"
)

func newSearchCommand() *cobra.Command {
	var interactive bool
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the movie catalog",
		Long: "Search the movie catalog. With --interactive, every line read from stdin is a new edit of " +
			"the query and results are printed as they arrive; the end of input submits the last query.",
		Args: func(cmd *cobra.Command, args []string) error {
			if interactive {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.MinimumNArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, app.BootstrapOptions{}, func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				controller := session.NewSearch(ctx)
				if interactive {
					return searchInteractively(ctx, controller, cmd.InOrStdin(), cmd.OutOrStdout())
				}

				state := controller.Submit(strings.Join(args, " "))
				if state.Err != nil {
					return fmt.Errorf("search %q > %w", state.ResultsFor, state.Err)
				}
				printMovies(cmd.OutOrStdout(), state.Results)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Read query edits line by line from stdin")
	return cmd
}

func searchInteractively(ctx context.Context, controller *search.Controller, in io.Reader, out io.Writer) error {
	states, unsubscribe := controller.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var printed uint64
		for state := range states {
			if state.Loading || state.Seq == printed {
				continue
			}
			printed = state.Seq
			printState(out, state)
		}
	}()
	defer func() {
		unsubscribe()
		wg.Wait()
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var last string
	for {
		select {
		case <-ctx.Done():
			controller.Cancel()
			return nil
		case line, ok := <-lines:
			if !ok {
				if strings.TrimSpace(last) != "" {
					controller.Submit(last)
				}
				return nil
			}
			last = line
			controller.OnQueryChange(line)
		}
	}
}

func printState(out io.Writer, state search.State) {
	_, _ = bold.Fprintf(out, "> %s\n", state.ResultsFor)
	if state.Err != nil {
		_, _ = fmt.Fprintf(out, "search failed: %v\n", state.Err)
		return
	}
	printMovies(out, state.Results)
}
