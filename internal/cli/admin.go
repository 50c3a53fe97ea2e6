package cli

import (
	"fmt"
	"strings"
	"time"

	"wayfarer/internal/database"
	"wayfarer/internal/middleware"

	"github.com/spf13/cobra"
)

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search users to add, offering an email invite on a miss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := app.manager(local).SearchMembers(app.ctx(cmd), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if app.JSON {
				return writeJSON(cmd, map[string]any{
					"users":        res.Users,
					"offer_invite": res.OfferInvite,
					"invite_email": res.Email,
				})
			}
			out := cmd.OutOrStdout()
			for _, u := range res.Users {
				fmt.Fprintf(out, "%d\t@%s\t%s\n", u.ID, u.Username, u.FullName)
			}
			if res.OfferInvite {
				fmt.Fprintf(out, "No one matches. Invite %s by email with --invite.\n", res.Email)
			} else if len(res.Users) == 0 {
				fmt.Fprintln(out, "No users found.")
			}
			return nil
		},
	}
}

func newTokenCmd(app *App) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue a bearer token for the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseIDArg(args[0], "user ID")
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := app.config()
			if err != nil {
				return writeErr(cmd, err)
			}
			token, err := middleware.IssueToken(cfg.JWTSecret, userID, ttl)
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.open(); err != nil {
				return writeErr(cmd, err)
			}
			if err := database.Migrate(app.db); err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date (%s).\n", strings.ToLower(app.db.Dialector.Name()))
			return nil
		},
	}
}
