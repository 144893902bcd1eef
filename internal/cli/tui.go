package cli

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/nudge/internal/app"
	"github.com/sandeepkv93/nudge/internal/update"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			// The UI owns the terminal, so logs go next to the database.
			logPath := filepath.Join(filepath.Dir(cfg.Database.Path), "nudge.log")
			if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
				return err
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()
			log := newLogger(cfg, logFile)

			a, err := app.New(cfg, log, app.Options{Terminal: true})
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := contextOrBackground(cmd.Context())
			if err := a.Start(ctx); err != nil {
				return err
			}

			program := tea.NewProgram(update.NewModel(update.Options{
				Service:  a.Tasks,
				Events:   a.Terminal.C(),
				Sink:     a.Notify,
				Location: a.Location,
			}), tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("nudge ui failed: %w", err)
			}
			return nil
		},
	}
}
