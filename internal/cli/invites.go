package cli

import (
	"fmt"
	"strconv"

	"wayfarer/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newInvitesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "List, create, remind and revoke circle invites",
	}
	cmd.AddCommand(newInvitesListCmd(app))
	cmd.AddCommand(newInvitesCreateCmd(app))
	cmd.AddCommand(newInviteTransitionCmd(app, "remind", "Send a pending invite again"))
	cmd.AddCommand(newInviteTransitionCmd(app, "revoke", "Revoke a pending invite"))
	return cmd
}

func newInvitesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <group|community> <id>",
		Short: "List a circle's invites",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseCircleKindArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			circleID, err := parseIDArg(args[1], "circle ID")
			if err != nil {
				return writeErr(cmd, err)
			}
			local, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}
			mgr := app.manager(local)
			invites, err := mgr.ListInvites(app.ctx(cmd), kind, circleID)
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.JSON {
				return writeJSON(cmd, invites)
			}
			if len(invites) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No invites.")
				return nil
			}
			rows := make([][]string, 0, len(invites))
			for _, inv := range invites {
				email := "-"
				if inv.Email != nil {
					email = *inv.Email
				}
				rows = append(rows, []string{
					strconv.FormatUint(uint64(inv.ID), 10),
					email,
					string(inv.Status),
					strconv.Itoa(inv.RemindCount),
					mgr.InviteLink(inv.InviteCode),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "EMAIL", "STATUS", "REMINDED", "LINK").
				Rows(rows...).
				String())
			return nil
		},
	}
}

func newInvitesCreateCmd(app *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "create <group|community> <id>",
		Short: "Create an invite, optionally addressed to an email",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseCircleKindArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			circleID, err := parseIDArg(args[1], "circle ID")
			if err != nil {
				return writeErr(cmd, err)
			}
			local, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}

			var addr *string
			if email != "" {
				addr = &email
			}
			mgr := app.manager(local)
			inv, err := mgr.CreateInvite(app.ctx(cmd), kind, circleID, addr)
			if err != nil {
				return writeErr(cmd, err)
			}
			link := mgr.InviteLink(inv.InviteCode)
			if app.JSON {
				return writeJSON(cmd, struct {
					models.Invite
					Link string `json:"link"`
				}{*inv, link})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invite %d: %s\n", inv.ID, link)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Invitee email address")
	return cmd
}

func newInviteTransitionCmd(app *App, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <group|community> <id> <invite-id>",
		Short: short,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseCircleKindArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			circleID, err := parseIDArg(args[1], "circle ID")
			if err != nil {
				return writeErr(cmd, err)
			}
			inviteID, err := parseIDArg(args[2], "invite ID")
			if err != nil {
				return writeErr(cmd, err)
			}
			local, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}

			mgr := app.manager(local)
			ctx := app.ctx(cmd)
			if verb == "remind" {
				err = mgr.RemindInvite(ctx, kind, circleID, inviteID)
			} else {
				err = mgr.RevokeInvite(ctx, kind, circleID, inviteID)
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invite %d %sd.\n", inviteID, verb)
			return nil
		},
	}
}
