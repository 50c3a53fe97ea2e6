package seed

import (
	"context"
	"fmt"
	"log/slog"

	"wayfarer/internal/collab"
	"wayfarer/internal/middleware"
	"wayfarer/internal/models"

	"gorm.io/gorm"
)

// Options configure a Seed run.
type Options struct {
	Users       int
	Groups      int
	Communities int
	Directs     int
	Invites     int
	Clean       bool
	// RandSeed makes runs reproducible; zero seeds from the clock.
	RandSeed int64
	MaxDays  int
}

// DefaultOptions is a small but varied data set.
func DefaultOptions() Options {
	return Options{Users: 20, Groups: 6, Communities: 3, Directs: 15, Invites: 8, Clean: true}
}

// Summary counts what a run created.
type Summary struct {
	Users       int
	Groups      int
	Communities int
	Directs     int
	Invites     int
}

// Seed populates db. Reminder delivery and inbox events are not wired, so
// seeding never enqueues jobs.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (Summary, error) {
	var sum Summary
	if opts.Users < 2 {
		return sum, fmt.Errorf("seed: need at least 2 users, got %d", opts.Users)
	}
	if opts.Clean {
		if err := ClearAll(db); err != nil {
			return sum, err
		}
	}

	f := NewFactory(db, collab.NewServices(db, collab.Deps{}), opts.RandSeed, opts.MaxDays)

	users := make([]models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		u, err := f.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("seed: create user: %w", err)
		}
		users = append(users, *u)
	}
	sum.Users = len(users)

	pick := func(n int, exclude uint) []models.User {
		out := make([]models.User, 0, n)
		for _, i := range f.rng.Perm(len(users)) {
			if len(out) == n {
				break
			}
			if users[i].ID != exclude {
				out = append(out, users[i])
			}
		}
		return out
	}

	type circleRef struct {
		kind  models.Kind
		id    uint
		admin models.User
	}
	var circles []circleRef

	for i := 0; i < opts.Groups; i++ {
		admin := users[f.rng.Intn(len(users))]
		g, err := f.CreateGroup(ctx, admin, pick(2+f.rng.Intn(4), admin.ID), "")
		if err != nil {
			return sum, fmt.Errorf("seed: create group: %w", err)
		}
		circles = append(circles, circleRef{models.KindGroup, g.ID, admin})
		sum.Groups++
	}
	for i := 0; i < opts.Communities; i++ {
		admin := users[f.rng.Intn(len(users))]
		c, err := f.CreateCommunity(ctx, admin, pick(3+f.rng.Intn(8), admin.ID))
		if err != nil {
			return sum, fmt.Errorf("seed: create community: %w", err)
		}
		circles = append(circles, circleRef{models.KindCommunity, c.ID, admin})
		sum.Communities++
	}
	for i := 0; i < opts.Directs; i++ {
		a := users[f.rng.Intn(len(users))]
		b := pick(1, a.ID)[0]
		// Repeated pairs reopen the same conversation.
		if _, err := f.CreateDirect(ctx, a, b); err != nil {
			return sum, fmt.Errorf("seed: create direct: %w", err)
		}
		sum.Directs++
	}
	for i := 0; i < opts.Invites && len(circles) > 0; i++ {
		ref := circles[f.rng.Intn(len(circles))]
		if _, err := f.CreateInvite(ctx, ref.admin, ref.kind, ref.id, f.rng.Intn(2) == 0); err != nil {
			return sum, fmt.Errorf("seed: create invite: %w", err)
		}
		sum.Invites++
	}

	middleware.Logger.InfoContext(ctx, "seed completed",
		slog.Int("users", sum.Users),
		slog.Int("groups", sum.Groups),
		slog.Int("communities", sum.Communities),
		slog.Int("directs", sum.Directs),
		slog.Int("invites", sum.Invites),
	)
	return sum, nil
}

// ClearAll deletes every row the application owns, children first.
func ClearAll(db *gorm.DB) error {
	all := models.AllModels()
	tx := db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for i := len(all) - 1; i >= 0; i-- {
		if err := tx.Delete(all[i]).Error; err != nil {
			return fmt.Errorf("seed: clear %T: %w", all[i], err)
		}
	}
	return nil
}

// TripSquad creates the alice/bob/carol fixture: a "Trip Squad" group
// administered by alice with bob and carol as members, plus a direct
// conversation between alice and bob.
func TripSquad(ctx context.Context, db *gorm.DB) ([]models.User, *models.Group, error) {
	f := NewFactory(db, collab.NewServices(db, collab.Deps{}), 1, 7)
	var users []models.User
	for _, handle := range []string{"alice", "bob", "carol"} {
		h := handle
		u, err := f.CreateUser(func(u *models.User) {
			u.Username = h
			u.FullName = capitalize(h)
			u.Email = h + "@example.com"
		})
		if err != nil {
			return nil, nil, fmt.Errorf("seed: create %s: %w", h, err)
		}
		users = append(users, *u)
	}
	g, err := f.CreateGroup(ctx, users[0], users[1:], "Trip Squad")
	if err != nil {
		return nil, nil, fmt.Errorf("seed: create Trip Squad: %w", err)
	}
	if _, err := f.CreateDirect(ctx, users[0], users[1]); err != nil {
		return nil, nil, fmt.Errorf("seed: create direct: %w", err)
	}
	return users, g, nil
}
