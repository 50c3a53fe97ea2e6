package collab

import (
	"wayfarer/internal/config"
	"wayfarer/internal/featureflags"
	"wayfarer/internal/repository"
	"wayfarer/internal/service"

	"gorm.io/gorm"
)

// Deps are the optional collaborators of the service layer. Nil Events and
// Queue disable inbox notifications and reminder delivery respectively.
type Deps struct {
	Config *config.Config
	Flags  *featureflags.Manager
	Events service.InboxEvents
	Queue  service.ReminderQueue
}

// NewServices builds the service layer over db.
func NewServices(db *gorm.DB, deps Deps) Services {
	users := repository.NewUserRepository(db)
	circles := repository.NewCircleRepository(db)
	members := repository.NewMembershipRepository(db)
	invites := repository.NewInviteRepository(db)

	flags := deps.Flags
	if flags == nil {
		raw := ""
		if deps.Config != nil {
			raw = deps.Config.FeatureFlags
		}
		flags = featureflags.NewManager(raw)
	}
	origin := ""
	if deps.Config != nil {
		origin = deps.Config.PublicOrigin
	}

	return Services{
		Direct:  service.NewDirectService(repository.NewDirectRepository(db), users, deps.Events),
		Circles: service.NewCircleService(circles, members, users, deps.Events),
		Invites: service.NewInviteService(invites, members, circles, deps.Queue, flags, origin),
		Users:   service.NewUserService(users),
		Avatars: service.NewAvatarService(deps.Config),
	}
}
