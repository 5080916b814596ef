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

// itemIndex converts a 1-based item number into an index of the active list.
func itemIndex(s *app.ListStore, arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("invalid item number %q", arg)
	}
	count := len(s.Items())
	if n < 1 || n > count {
		return 0, fmt.Errorf("no item %d (active list has %d items)", n, count)
	}
	return n - 1, nil
}

func newAddCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add an item to the active list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(commandContext(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			it, added, err := s.AddItem(commandContext(cmd), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if !added {
				fmt.Fprintln(cmd.ErrOrStderr(), "nothing added: text is empty or already in the list")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d. %s\n", len(s.Items()), it.Text)
			return nil
		},
	}
}

func newDoneCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <n>",
		Short: "Toggle item n between active and done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := a.openStore(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			idx, err := itemIndex(s, args[0])
			if err != nil {
				return err
			}
			it, err := s.ToggleItem(ctx, idx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s %s\n", idx+1, checkbox(it), it.Text)
			return nil
		},
	}
}

func newEditCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <n> <text...>",
		Short: "Replace the text of item n",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := a.openStore(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			idx, err := itemIndex(s, args[0])
			if err != nil {
				return err
			}
			it, err := s.EditItem(ctx, idx, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s %s\n", idx+1, checkbox(it), it.Text)
			return nil
		},
	}
}

func newRmCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <n>",
		Short: "Delete item n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := a.openStore(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			idx, err := itemIndex(s, args[0])
			if err != nil {
				return err
			}
			it, err := s.DeleteItem(ctx, idx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", it.Text)
			return nil
		},
	}
}

func newMoveCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:     "move <n> <delta>",
		Short:   "Move item n by delta positions",
		Example: "  todolists move 3 -- -1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := a.openStore(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			idx, err := itemIndex(s, args[0])
			if err != nil {
				return err
			}
			delta, err := strconv.Atoi(strings.TrimPrefix(args[1], "+"))
			if err != nil {
				return fmt.Errorf("invalid delta %q", args[1])
			}
			items, err := s.MoveItem(ctx, idx, delta)
			if err != nil {
				return err
			}
			writeItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func newReorderCmd(a *App) *cobra.Command {
	var byText bool
	cmd := &cobra.Command{
		Use:   "reorder <n...>",
		Short: "Reorder the active list",
		Long: strings.TrimSpace(`
Reorder the active list by listing item numbers in their new order.
Items left out keep their relative order after the listed ones.

With --text the arguments are item texts instead of numbers; texts that
match no item are ignored.
`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			s, err := a.openStore(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var items []model.Item
			if byText {
				items, err = s.ReorderByText(ctx, args)
			} else {
				current := s.Items()
				ids := make([]string, 0, len(args))
				for _, arg := range args {
					idx, err := itemIndex(s, arg)
					if err != nil {
						return err
					}
					ids = append(ids, current[idx].ID)
				}
				items, err = s.Reorder(ctx, ids)
			}
			if err != nil {
				return err
			}
			writeItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().BoolVar(&byText, "text", false, "Arguments are item texts")
	return cmd
}

func newLsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Print the active list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(commandContext(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			active := s.Active()
			fmt.Fprintln(cmd.OutOrStdout(), active.Title)
			writeItems(cmd.OutOrStdout(), active.Items)
			return nil
		},
	}
}

func writeItems(w io.Writer, items []model.Item) {
	for i, it := range items {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, checkbox(it), it.Text)
	}
}

func checkbox(it model.Item) string {
	if it.Done() {
		return "[x]"
	}
	return "[ ]"
}
