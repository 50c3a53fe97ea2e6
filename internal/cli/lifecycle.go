package cli

import (
	"bufio"
	"fmt"
	"strings"

	"wayfarer/internal/inbox"
	"wayfarer/internal/lifecycle"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"

	"github.com/spf13/cobra"
)

var lifecycleCommands = []lifecycle.Action{
	lifecycle.ActionArchive,
	lifecycle.ActionUnarchive,
	lifecycle.ActionDelete,
	lifecycle.ActionLeave,
}

func newLifecycleCmd(app *App, action lifecycle.Action) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   string(action) + " <kind> <id>",
		Short: lifecycleShort(action),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			id, err := parseIDArg(args[1], "conversation ID")
			if err != nil {
				return writeErr(cmd, err)
			}
			if !lifecycle.Allowed(kind, action) {
				return writeErr(cmd, models.NewValidationError(fmt.Sprintf("cannot %s a %s conversation", action, kind)))
			}

			local, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := app.ctx(cmd)
			loader := app.loader(local)
			item, ok := loader.Find(ctx, inbox.Key{Kind: kind, ID: id})
			if !ok {
				return writeErr(cmd, models.NewNotFoundError("Conversation", id))
			}

			machine := lifecycle.NewMachine(local, loader, nil, middleware.Logger)
			pending, err := machine.Request(item, action)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !yes && !confirm(cmd, pending.Prompt) {
				machine.Cancel()
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			notice, err := machine.Confirm(ctx)
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.JSON {
				return writeJSON(cmd, map[string]any{"notice": notice, "tab": loader.Tab(), "items": loader.Items()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), notice.Text)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func lifecycleShort(action lifecycle.Action) string {
	switch action {
	case lifecycle.ActionArchive:
		return "Archive a conversation"
	case lifecycle.ActionUnarchive:
		return "Move an archived conversation back to the inbox"
	case lifecycle.ActionDelete:
		return "Delete a direct conversation for yourself"
	case lifecycle.ActionLeave:
		return "Leave a group or community"
	}
	return string(action)
}

// confirm asks prompt on stdout and reads a y/N answer from stdin.
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
