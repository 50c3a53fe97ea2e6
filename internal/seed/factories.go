// Package seed creates demo data for development databases. Circles,
// memberships and invites go through the service layer so seeded rows obey
// the same rules as live ones.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"wayfarer/internal/collab"
	"wayfarer/internal/models"
	"wayfarer/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db      *gorm.DB
	svc     collab.Services
	rng     *rand.Rand
	maxDays int
}

// NewFactory creates a Factory bound to db. A zero seed picks one from the clock.
func NewFactory(db *gorm.DB, svc collab.Services, seed int64, maxDays int) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if maxDays <= 0 {
		maxDays = 30
	}
	gofakeit.Seed(seed)
	return &Factory{db: db, svc: svc, rng: rand.New(rand.NewSource(seed)), maxDays: maxDays}
}

// CreateUser constructs and persists a sample user. Optional overrides may
// modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	handle := strings.ToLower(first+"_"+last) + fmt.Sprintf("%d", gofakeit.Number(100, 999))
	user := &models.User{
		Username:  handle,
		FullName:  first + " " + last,
		Email:     handle + "@" + gofakeit.DomainName(),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateGroup creates a group owned by admin with members.
func (f *Factory) CreateGroup(ctx context.Context, admin models.User, members []models.User, name string) (*models.Group, error) {
	if name == "" {
		name = groupName()
	}
	g, err := collab.NewLocal(admin.ID, f.svc).CreateGroup(ctx, service.CreateCircleInput{
		Name:        name,
		Description: gofakeit.Sentence(8),
		MemberIDs:   userIDs(members),
	})
	if err != nil {
		return nil, err
	}
	return g, f.touch(&models.Group{}, g.ID)
}

// CreateCommunity creates a community owned by admin and adds members one by one.
func (f *Factory) CreateCommunity(ctx context.Context, admin models.User, members []models.User) (*models.Community, error) {
	local := collab.NewLocal(admin.ID, f.svc)
	c, err := local.CreateCommunity(ctx, service.CreateCircleInput{
		Name:        gofakeit.HipsterWord() + " " + gofakeit.RandomString([]string{"Club", "Collective", "Circle", "Guild"}),
		Description: gofakeit.Sentence(12),
	})
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		if err := local.AddCommunityMember(ctx, c.ID, m.ID); err != nil {
			return nil, err
		}
	}
	return c, f.touch(&models.Community{}, c.ID)
}

// CreateDirect opens a direct conversation between a and b with a last message.
func (f *Factory) CreateDirect(ctx context.Context, a, b models.User) (*models.DirectConversation, error) {
	dc, err := collab.NewLocal(a.ID, f.svc).CreateDirect(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return dc, f.touch(&models.DirectConversation{}, dc.ID)
}

// CreateInvite issues an invite from inviter, to a fake address when withEmail is set.
func (f *Factory) CreateInvite(ctx context.Context, inviter models.User, kind models.Kind, circleID uint, withEmail bool) (*models.Invite, error) {
	var email *string
	if withEmail {
		e := strings.ToLower(gofakeit.Email())
		email = &e
	}
	return collab.NewLocal(inviter.ID, f.svc).CreateInvite(ctx, kind, circleID, email)
}

// touch gives a row a last message at a random point in the window so the
// inbox has a realistic order.
func (f *Factory) touch(model interface{}, id uint) error {
	at := f.pastTime()
	return f.db.Model(model).Where("id = ?", id).Updates(map[string]interface{}{
		"last_message":    gofakeit.Sentence(f.rng.Intn(8) + 3),
		"last_message_at": at,
	}).Error
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Intn(f.maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

func groupName() string {
	return capitalize(gofakeit.Adjective()) + " " + gofakeit.RandomString([]string{"Squad", "Crew", "Gang", "Team", "Pals"})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
