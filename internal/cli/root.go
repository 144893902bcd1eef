// Package cli is the nudge command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/nudge/internal/config"
)

type rootOptions struct {
	configPath string
}

// NewRootCmd builds the command tree. Running nudge without a subcommand
// opens the terminal UI.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "nudge",
		Short: "nudge - task reminders that follow up until you act",
		Long: `nudge keeps a list of tasks, each with a reminder time. Reminders can
repeat after completion, follow up when ignored, be delayed from the
notification itself and respect a daily working-hours window.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath(), "config file (YAML)")

	tui := newTUICmd(opts)
	root.RunE = tui.RunE
	root.AddCommand(tui)
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

func Execute(version string) error {
	if err := NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
