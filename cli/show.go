package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"todolists/model"
)

func newShowCmd(a *App) *cobra.Command {
	var all bool
	var width int
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Render the active list (or all lists) as markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(commandContext(cmd), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			lists := []model.List{s.Active()}
			if all {
				lists = s.Lists()
			}
			out, err := renderMarkdown(listsMarkdown(lists, s.ActiveID()), a.cfg.Theme.GlamourStyle, width)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Render every list")
	cmd.Flags().IntVar(&width, "width", 80, "Word wrap width")
	return cmd
}

func listsMarkdown(lists []model.List, activeID int64) string {
	var b strings.Builder
	for i, l := range lists {
		if i > 0 {
			b.WriteString("\n")
		}
		title := l.Title
		if l.ID == activeID && len(lists) > 1 {
			title += " (active)"
		}
		fmt.Fprintf(&b, "# %s\n\n", title)
		if len(l.Items) == 0 {
			b.WriteString("_No items._\n")
			continue
		}
		for _, it := range l.Items {
			box := " "
			if it.Done() {
				box = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", box, it.Text)
		}
		done, pending := l.Counts()
		fmt.Fprintf(&b, "\n%d open, %d done\n", pending, done)
	}
	return b.String()
}

// renderMarkdown renders md with a glamour style name; "auto" picks a style
// from the terminal background.
func renderMarkdown(md, style string, width int) (string, error) {
	if width < 10 {
		width = 10
	}
	styleOpt := glamour.WithStandardStyle(style)
	if style == "" || style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
