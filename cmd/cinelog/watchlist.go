package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cinelog/internal/app"
	"github.com/at-ishikawa/cinelog/internal/editguard"
	"github.com/at-ishikawa/cinelog/internal/export"
	"github.com/at-ishikawa/cinelog/internal/watchlist"
)

var loadWatchlist = app.BootstrapOptions{Watchlist: true}

func newWatchlistCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage the watch list",
	}
	cmd.AddCommand(
		newWatchlistListCommand(),
		newWatchlistAddCommand(),
		newWatchlistWatchCommand(),
		newWatchlistUnwatchCommand(),
		newWatchlistRateCommand(),
		newWatchlistNotesCommand(),
		newWatchlistRemoveCommand(),
		newWatchlistExportCommand(),
	)
	return cmd
}

func newWatchlistListCommand() *cobra.Command {
	tab := TabFlag(watchlist.TabAll)
	output := OutputTable
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the watch list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, loadWatchlist, func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				return printItems(cmd.OutOrStdout(), session.Watchlist.View(watchlist.Tab(tab)), output)
			})
		},
	}
	cmd.Flags().Var(&tab, "tab", "Tab to show. Options: all, to-watch, watched")
	cmd.Flags().VarP(&output, "output", "o", "Output format. Options: table, yaml, json")
	return cmd
}

func newWatchlistAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <imdb id>",
		Short: "Add a movie to the watch list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, loadWatchlist, func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				item, err := session.AddByCatalogID(ctx, args[0])
				if err != nil {
					return fmt.Errorf("session.AddByCatalogID() > %w", err)
				}
				_, _ = green.Fprintf(cmd.OutOrStdout(), "Added %s\n", item)
				return nil
			})
		},
	}
}

func newWatchlistWatchCommand() *cobra.Command {
	var rating int
	cmd := &cobra.Command{
		Use:   "watch <id>",
		Short: "Mark an item as watched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var patch watchlist.Patch
			if cmd.Flags().Changed("rating") {
				patch = watchlist.Watch(&rating)
			} else {
				patch = watchlist.Watch(nil)
			}
			return updateItem(cmd, id, patch)
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 0, "Rating from 1 to 5")
	return cmd
}

func newWatchlistUnwatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unwatch <id>",
		Short: "Move an item back to the to-watch tab",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			watched := false
			return updateItem(cmd, id, watchlist.Patch{Watched: &watched})
		},
	}
}

func newWatchlistRateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <id> <rating>",
		Short: "Rate a watched item from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rating, err := parseRating(args[1])
			if err != nil {
				return err
			}
			return updateItem(cmd, id, watchlist.Rate(rating))
		},
	}
}

func updateItem(cmd *cobra.Command, id int64, patch watchlist.Patch) error {
	return runSession(cmd, loadWatchlist, func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
		item, err := session.Watchlist.Update(ctx, id, patch)
		if err != nil {
			return fmt.Errorf("Watchlist.Update(%d) > %w", id, err)
		}
		printItem(cmd.OutOrStdout(), item)
		return nil
	})
}

func newWatchlistNotesCommand() *cobra.Command {
	var discard bool
	cmd := &cobra.Command{
		Use:   "notes <id> <text>",
		Short: "Edit the notes of an item",
		Long:  "Edit the notes of an item. With --discard the edit is dropped and the saved notes are kept.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runSession(cmd, loadWatchlist, func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				guard, err := session.OpenNotesEditor(id)
				if err != nil {
					return fmt.Errorf("session.OpenNotesEditor() > %w", err)
				}
				guard.Edit(args[1])

				out := cmd.OutOrStdout()
				if discard {
					if guard.RequestClose() == editguard.NeedsConfirmation {
						guard.Confirm()
						_, _ = yellow.Fprintln(out, "Discarded unsaved notes.")
					}
					return nil
				}

				if err := guard.Save(ctx); err != nil {
					return fmt.Errorf("guard.Save() > %w", err)
				}
				if guard.RequestClose() != editguard.Proceed {
					return fmt.Errorf("notes of %d changed while saving", id)
				}
				_, _ = green.Fprintln(out, "Saved notes.")
				if item, ok := session.Watchlist.Get(id); ok {
					printItem(out, item)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&discard, "discard", false, "Drop the edit instead of saving it")
	return cmd
}

func newWatchlistRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a watched item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runSession(cmd, loadWatchlist, func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				if err := session.Watchlist.Remove(ctx, id); err != nil {
					return fmt.Errorf("Watchlist.Remove(%d) > %w", id, err)
				}
				_, _ = green.Fprintf(cmd.OutOrStdout(), "Removed %d\n", id)
				return nil
			})
		},
	}
}

func newWatchlistExportCommand() *cobra.Command {
	var generatePDF bool
	var templatePath string
	cmd := &cobra.Command{
		Use:   "export <file.md>",
		Short: "Export the watch list as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, loadWatchlist, func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				result, err := export.Watchlist(args[0], session.Watchlist.Items(), export.Options{
					TemplatePath: templatePath,
					PDF:          generatePDF,
				})
				if err != nil {
					return fmt.Errorf("export.Watchlist() > %w", err)
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Wrote %s\n", result.MarkdownPath)
				if result.PDFPath != "" {
					_, _ = fmt.Fprintf(out, "Wrote %s\n", result.PDFPath)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&generatePDF, "pdf", false, "Generate PDF output in addition to markdown")
	cmd.Flags().StringVar(&templatePath, "template", "", "Template file to use instead of the built-in one")
	return cmd
}
