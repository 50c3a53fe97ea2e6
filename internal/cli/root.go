// Package cli implements wayctl, an operator CLI that acts as a given user
// against the service layer in-process.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wayfarer/internal/collab"
	"wayfarer/internal/config"
	"wayfarer/internal/database"
	"wayfarer/internal/inbox"
	"wayfarer/internal/membership"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// App carries the persistent flags and the lazily opened database.
type App struct {
	As   uint
	JSON bool

	cfg *config.Config
	db  *gorm.DB
	svc collab.Services
	own bool
}

// NewRootCmd builds the wayctl command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "wayctl",
		Short:        "Inspect and manage Wayfarer conversations from the terminal",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Issue a bearer token for user 1
  wayctl token 1

  # Show user 1's archived conversations
  wayctl --as 1 inbox --tab archived

  # Browse the inbox interactively (hold or right-click a row for actions)
  wayctl --as 1 inbox --tui

  # Create a group with two members and an email invite
  wayctl --as 1 create group --name "Trip Squad" --member 2 --member 3 --invite dana@example.com
`),
	}

	cmd.PersistentFlags().UintVar(&app.As, "as", 0, "User ID to act as")
	cmd.PersistentFlags().BoolVar(&app.JSON, "json", false, "Print JSON instead of tables")

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return app.close()
	}

	cmd.AddCommand(newInboxCmd(app))
	cmd.AddCommand(newCreateCmd(app))
	for _, action := range lifecycleCommands {
		cmd.AddCommand(newLifecycleCmd(app, action))
	}
	cmd.AddCommand(newInvitesCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newTokenCmd(app))
	cmd.AddCommand(newMigrateCmd(app))

	return cmd
}

// config loads configuration once.
func (app *App) config() (*config.Config, error) {
	if app.cfg != nil {
		return app.cfg, nil
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	app.cfg = cfg
	return cfg, nil
}

// open connects to the database and builds the service layer once. Events
// and reminder jobs are not wired: wayctl has no redis dependency.
func (app *App) open() error {
	if app.db != nil {
		return nil
	}
	cfg, err := app.config()
	if err != nil {
		return err
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	app.db = db
	app.own = true
	app.svc = collab.NewServices(db, collab.Deps{Config: cfg})
	return nil
}

func (app *App) close() error {
	if !app.own || app.db == nil {
		return nil
	}
	sqlDB, err := app.db.DB()
	if err != nil {
		return err
	}
	app.db, app.own = nil, false
	return sqlDB.Close()
}

// backend binds the service layer to the --as user.
func (app *App) backend() (*collab.Local, error) {
	if app.As == 0 {
		return nil, errors.New("--as is required")
	}
	if err := app.open(); err != nil {
		return nil, err
	}
	return collab.NewLocal(app.As, app.svc), nil
}

func (app *App) manager(local *collab.Local) *membership.Manager {
	return membership.NewManager(local, app.cfg.PublicOrigin, middleware.Logger)
}

func (app *App) loader(local *collab.Local) *inbox.Loader {
	return inbox.NewLoader(local, local.UserID(), middleware.Logger)
}

func (app *App) ctx(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.WithUserID(ctx, app.As)
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeErr(cmd *cobra.Command, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", appErr.Code, appErr.Message)
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

func parseKindArg(raw string) (models.Kind, error) {
	kind, ok := models.ParseKind(raw)
	if !ok {
		return "", fmt.Errorf("unknown kind %q: want direct, group or community", raw)
	}
	return kind, nil
}

func parseCircleKindArg(raw string) (models.Kind, error) {
	kind, err := parseKindArg(raw)
	if err != nil {
		return "", err
	}
	if !kind.IsCircle() {
		return "", fmt.Errorf("%s conversations have no members or invites", kind)
	}
	return kind, nil
}

func parseIDArg(raw, what string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", what, raw)
	}
	return uint(id), nil
}
