package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"todolists/app"
	"todolists/model"
)

func newListsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show and manage lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(commandContext(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			writeLists(cmd.OutOrStdout(), s.Lists(), s.ActiveID())
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "new [title...]",
		Short: "Create a list and make it active",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := a.openStore(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			l, err := s.CreateList(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d %s\n", l.ID, l.Title)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := a.openStore(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			id, err := listID(s, args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteList(ctx, id); err != nil {
				return err
			}
			writeLists(cmd.OutOrStdout(), s.Lists(), s.ActiveID())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "use <id>",
		Short: "Make a list active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := a.openStore(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			id, err := listID(s, args[0])
			if err != nil {
				return err
			}
			l, err := s.SwitchActive(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active %d %s\n", l.ID, l.Title)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <title...>",
		Short: "Rename the active list",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := a.openStore(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			l, reverted, err := s.RenameActive(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if reverted {
				fmt.Fprintf(cmd.ErrOrStderr(), "title cannot be empty, using %q\n", l.Title)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %d %s\n", l.ID, l.Title)
			return nil
		},
	})

	return cmd
}

// listID accepts a list id or, for small numbers, a 1-based list position.
func listID(s *app.ListStore, arg string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid list id %q", arg)
	}
	if _, err := s.List(n); err == nil {
		return n, nil
	}
	lists := s.Lists()
	if n >= 1 && n <= int64(len(lists)) {
		return lists[n-1].ID, nil
	}
	return 0, fmt.Errorf("%w: %s", app.ErrListNotFound, arg)
}

func writeLists(w io.Writer, lists []model.List, activeID int64) {
	for i, l := range lists {
		marker := " "
		if l.ID == activeID {
			marker = "*"
		}
		done, pending := l.Counts()
		fmt.Fprintf(w, "%s %d. %s  [%d]  %d open, %d done\n", marker, i+1, l.Title, l.ID, pending, done)
	}
}
