package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cinelog/internal/app"
)

func newFeaturedCommand() *cobra.Command {
	var showReviews bool
	cmd := &cobra.Command{
		Use:   "featured",
		Short: "Show the movie of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, app.BootstrapOptions{Featured: true}, func(ctx context.Context, session *app.Session, boot app.Bootstrapped) error {
				out := cmd.OutOrStdout()
				printFeatured(out, *boot.Featured)
				if !showReviews {
					return nil
				}

				if err := session.Notes.Load(ctx, boot.Featured.Movie.ID); err != nil {
					return fmt.Errorf("Notes.Load(%s) > %w", boot.Featured.Movie.ID, err)
				}
				_, _ = fmt.Fprintln(out)
				_, _ = bold.Fprintln(out, "Reviews")
				printNotes(out, session.Notes.Notes(), time.Now())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&showReviews, "reviews", false, "Show the notes about the movie")
	return cmd
}
