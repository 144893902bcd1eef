package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/nudge/internal/model"
	"github.com/sandeepkv93/nudge/internal/storage"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		activeOnly bool
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print stored tasks without starting notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			repo, err := storage.Open(cfg.Database.Driver, cfg.Database.Path, newLogger(cfg, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer repo.Close()

			tasks, err := repo.ListTasks(contextOrBackground(cmd.Context()), storage.TaskListFilter{ActiveOnly: activeOnly, Limit: limit})
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTaskTable(tasks, loc))
			return nil
		},
	}
	cmd.Flags().BoolVar(&activeOnly, "active", false, "only tasks that still have a reminder")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of tasks (0 = all)")
	return cmd
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTaskTable(tasks []model.Task, loc *time.Location) string {
	rows := make([][]string, 0, len(tasks))
	for i, t := range tasks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			t.ReminderAt.In(loc).Format("2006-01-02 15:04"),
			t.Title,
			stateLabel(t),
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "WHEN", "TITLE", "STATE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func stateLabel(t model.Task) string {
	switch {
	case t.Completed:
		return "done"
	case t.DelayCount > 0:
		return fmt.Sprintf("delayed %dx", t.DelayCount)
	case t.IsRecurring():
		return "every " + strconv.Itoa(t.Recurrence.IntervalHours) + "h"
	default:
		return "open"
	}
}
