package cli

import (
	"fmt"
	"strconv"
	"time"

	"wayfarer/internal/inbox"
	"wayfarer/internal/tui"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newInboxCmd(app *App) *cobra.Command {
	var (
		tabName     string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List conversations newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, ok := inbox.ParseTab(tabName)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown tab %q: want all, direct, groups, communities or archived", tabName))
			}
			local, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}

			if interactive {
				return tui.RunInbox(app.ctx(cmd), tui.Deps{
					Loader:  app.loader(local),
					Backend: local,
					Tab:     tab,
				})
			}

			items, _ := app.loader(local).Refresh(app.ctx(cmd), tab)
			if app.JSON {
				return writeJSON(cmd, map[string]any{"tab": tab, "items": items})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderItems(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&tabName, "tab", string(inbox.TabAll), "all, direct, groups, communities or archived")
	cmd.Flags().BoolVar(&interactive, "tui", false, "Browse interactively")
	return cmd
}

func renderItems(items []inbox.Item) string {
	if len(items) == 0 {
		return "No conversations."
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		unread := ""
		if it.UnreadCount > 0 {
			unread = strconv.Itoa(it.UnreadCount)
		}
		rows = append(rows, []string{
			string(it.Kind),
			strconv.FormatUint(uint64(it.ID), 10),
			it.DisplayName,
			it.LastMessagePreview,
			activityLabel(it.LastActivityAt),
			unread,
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KIND", "ID", "NAME", "PREVIEW", "ACTIVITY", "UNREAD").
		Rows(rows...).
		String()
}

func activityLabel(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
