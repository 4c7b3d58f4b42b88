// Command seed populates a development database with demo staff and ideas.
package main

import (
	"context"
	"flag"
	"log"

	"kenhavate/internal/config"
	"kenhavate/internal/database"
	"kenhavate/internal/observability"
	"kenhavate/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of staff accounts to create")
	numIdeas := flag.Int("ideas", 40, "Number of ideas to submit")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Store plain passwords instead of bcrypt hashes")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d ideas, clean=%v\n", *numUsers, *numIdeas, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}
	observability.InitLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("❌ Schema apply failed: %v", err)
	}

	res, err := seed.Seed(ctx, db, seed.Options{
		NumUsers:    *numUsers,
		NumIdeas:    *numIdeas,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *fast,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! %d users, %d ideas, %d comments.", res.Users, res.Ideas, res.Comments)
	log.Printf("📧 All seeded users have the password: %s", seed.DefaultPassword)
}
