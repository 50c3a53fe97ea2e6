// Command seed fills the database with demo conversations, circles and invites.
package main

import (
	"context"
	"flag"
	"log"

	"wayfarer/internal/bootstrap"
	"wayfarer/internal/config"
	"wayfarer/internal/seed"
)

func main() {
	def := seed.DefaultOptions()
	users := flag.Int("users", def.Users, "Number of users to create")
	groups := flag.Int("groups", def.Groups, "Number of groups to create")
	communities := flag.Int("communities", def.Communities, "Number of communities to create")
	directs := flag.Int("directs", def.Directs, "Number of direct conversations to open")
	invites := flag.Int("invites", def.Invites, "Number of invites to issue")
	clean := flag.Bool("clean", def.Clean, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	tripSquad := flag.Bool("trip-squad", false, "Only create the alice/bob/carol Trip Squad fixture")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	rt, err := bootstrap.InitRuntime(cfg, bootstrap.Options{ServiceName: "wayfarer-seed", SkipRedis: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	ctx := context.Background()
	defer rt.Close(ctx)

	if *tripSquad {
		if *clean {
			if err := seed.ClearAll(rt.DB); err != nil {
				log.Fatalf("Cleanup failed: %v", err)
			}
		}
		users, g, err := seed.TripSquad(ctx, rt.DB)
		if err != nil {
			log.Fatalf("Trip Squad seeding failed: %v", err)
		}
		log.Printf("Created %q (id %d) with %d users", g.Name, g.ID, len(users))
		return
	}

	sum, err := seed.Seed(ctx, rt.DB, seed.Options{
		Users:       *users,
		Groups:      *groups,
		Communities: *communities,
		Directs:     *directs,
		Invites:     *invites,
		Clean:       *clean,
		RandSeed:    *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d groups, %d communities, %d direct conversations, %d invites",
		sum.Users, sum.Groups, sum.Communities, sum.Directs, sum.Invites)
}
