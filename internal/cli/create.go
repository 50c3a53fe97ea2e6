package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"wayfarer/internal/membership"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/wizard"

	"github.com/spf13/cobra"
)

type createOptions struct {
	name        string
	description string
	public      bool
	private     bool
	avatar      string
	members     []uint
	invites     []string
	with        uint
}

func newCreateCmd(app *App) *cobra.Command {
	opts := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create <direct|group|community>",
		Short: "Start a direct conversation or create a group or community",
		Long: `Runs the creation wizard non-interactively.

A direct conversation needs --with. Groups and communities need --name.
For a community, --member users are sent email invites instead of being
added directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindArg(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			local, err := app.backend()
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := app.ctx(cmd)

			flow := wizard.NewFlow(app.manager(local), local, middleware.Logger)
			if err := flow.SelectType(kind); err != nil {
				return writeErr(cmd, err)
			}

			var res wizard.Result
			if kind == models.KindDirect {
				if opts.with == 0 {
					return writeErr(cmd, errors.New("--with is required for a direct conversation"))
				}
				peer, err := app.svc.Users.GetUserByID(ctx, opts.with)
				if err != nil {
					return writeErr(cmd, err)
				}
				if err := flow.Next(); err != nil {
					return writeErr(cmd, err)
				}
				if res, err = flow.PickDirect(ctx, *peer); err != nil {
					return writeErr(cmd, err)
				}
			} else {
				if err := fillDetails(flow, opts); err != nil {
					return writeErr(cmd, err)
				}
				if err := flow.Next(); err != nil {
					return writeErr(cmd, err)
				}
				for _, id := range opts.members {
					u, err := app.svc.Users.GetUserByID(ctx, id)
					if err != nil {
						return writeErr(cmd, err)
					}
					flow.ToggleMember(*u)
				}
				for _, email := range opts.invites {
					if err := flow.AddExternalInvite(email); err != nil {
						return writeErr(cmd, err)
					}
				}
				if res, err = flow.Submit(ctx); err != nil {
					return writeErr(cmd, err)
				}
			}

			if app.JSON {
				return writeJSON(cmd, res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %d\n", res.Kind, res.ID)
			for _, email := range res.FailedInvites {
				fmt.Fprintf(cmd.ErrOrStderr(), "invite not sent: %s\n", email)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.name, "name", "", "Group or community name")
	f.StringVar(&opts.description, "description", "", "Group or community description")
	f.BoolVar(&opts.public, "public", false, "Make the circle public")
	f.BoolVar(&opts.private, "private", false, "Make the circle private")
	f.StringVar(&opts.avatar, "avatar", "", "Path to an avatar image")
	f.UintSliceVar(&opts.members, "member", nil, "User ID to add (repeatable)")
	f.StringArrayVar(&opts.invites, "invite", nil, "Email address to invite (repeatable)")
	f.UintVar(&opts.with, "with", 0, "Peer user ID for a direct conversation")
	cmd.MarkFlagsMutuallyExclusive("public", "private")
	return cmd
}

func fillDetails(flow *wizard.Flow, opts *createOptions) error {
	if err := flow.Next(); err != nil {
		return err
	}
	flow.SetName(opts.name)
	flow.SetDescription(opts.description)
	switch {
	case opts.public:
		flow.SetPublic(true)
	case opts.private:
		flow.SetPublic(false)
	}
	if opts.avatar == "" {
		return nil
	}
	content, err := os.ReadFile(opts.avatar)
	if err != nil {
		return fmt.Errorf("read avatar: %w", err)
	}
	flow.SetAvatar(&membership.AvatarFile{Filename: filepath.Base(opts.avatar), Content: content})
	return nil
}
