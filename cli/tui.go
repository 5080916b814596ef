package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"todolists/app"
	"todolists/tui"
)

func runTUI(cmd *cobra.Command, a *App) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logFile, err := tuiLogWriter(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx := commandContext(cmd)
	s, err := a.openStore(ctx, logFile)
	if err != nil {
		return err
	}

	m := tui.NewModel(ctx, s, recoveryStatus(s.Recovery()))
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// recoveryStatus describes a load-time recovery for the status line.
func recoveryStatus(rec app.Recovery) string {
	switch {
	case rec.Source != "":
		return "Lists recovered from backup " + rec.Source
	case rec.QuarantineKey != "":
		return fmt.Sprintf("Stored lists were unreadable and kept as %s; started a new list", rec.QuarantineKey)
	}
	return ""
}
