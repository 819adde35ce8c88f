package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/cinelog/internal/app"
)

func newNotesCommand() *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Read and write notes",
	}
	cmd.PersistentFlags().StringVar(&scope, "scope", "", "IMDb id of the movie whose notes to use. Empty uses the global feed")

	loadNotes := func() app.BootstrapOptions {
		return app.BootstrapOptions{Notes: true, Scope: scope}
	}

	var showReplies bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, loadNotes(), func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				if showReplies {
					for _, note := range session.Notes.Notes() {
						if note.ReplyCount > 0 && !note.RepliesShown {
							if err := session.Notes.ToggleReplies(note.ID); err != nil {
								return fmt.Errorf("Notes.ToggleReplies(%d) > %w", note.ID, err)
							}
						}
					}
				}
				printNotes(cmd.OutOrStdout(), session.Notes.Notes(), time.Now())
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&showReplies, "replies", false, "Show replies under each note")

	var title, content string
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Post a new note",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, loadNotes(), func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				note, err := session.Notes.Create(ctx, title, content)
				if err != nil {
					return fmt.Errorf("Notes.Create() > %w", err)
				}
				_, _ = green.Fprintf(cmd.OutOrStdout(), "Posted #%d\n", note.ID)
				return nil
			})
		},
	}
	postCmd.Flags().StringVar(&title, "title", "", "Title of the note")
	postCmd.Flags().StringVar(&content, "content", "", "Content of the note")

	replyCmd := &cobra.Command{
		Use:   "reply <note id> <text>",
		Short: "Reply to a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runSession(cmd, loadNotes(), func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				reply, err := session.Notes.Reply(ctx, parentID, args[1])
				if err != nil {
					return fmt.Errorf("Notes.Reply(%d) > %w", parentID, err)
				}
				_, _ = green.Fprintf(cmd.OutOrStdout(), "Replied #%d to #%d\n", reply.ID, parentID)
				return nil
			})
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit <note id> <text>",
		Short: "Edit the content of a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runSession(cmd, loadNotes(), func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				note, err := session.Notes.Edit(ctx, id, args[1])
				if err != nil {
					return fmt.Errorf("Notes.Edit(%d) > %w", id, err)
				}
				printNote(cmd.OutOrStdout(), note, time.Now(), "")
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <note id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runSession(cmd, loadNotes(), func(ctx context.Context, session *app.Session, _ app.Bootstrapped) error {
				if err := session.Notes.Delete(ctx, id); err != nil {
					return fmt.Errorf("Notes.Delete(%d) > %w", id, err)
				}
				_, _ = green.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, postCmd, replyCmd, editCmd, deleteCmd)
	return cmd
}
