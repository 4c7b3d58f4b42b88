package seed

import (
	"context"
	"fmt"
	"log/slog"

	"kenhavate/internal/models"
	"kenhavate/internal/observability"
	"kenhavate/internal/repository"
	"kenhavate/internal/service"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumIdeas    int
	ShouldClean bool
	SkipBcrypt  bool
}

// Result counts what a Seed run created.
type Result struct {
	Users    int
	Areas    int
	Ideas    int
	Comments int
}

// seededTables are cleared children first.
var seededTables = []string{
	"comments",
	"idea_revisions",
	"collaboration_requests",
	"idea_collaborators",
	"ideas",
	"thematic_areas",
	"users",
}

// Seed populates the database with demo staff, thematic areas and submitted
// ideas. Ideas go through the idea and comment services so every seeded row
// satisfies the same rules as live traffic.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	logger := observability.Logger.With(slog.String("component", "seed"))
	logger.Info("🌱 Starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("ideas", opts.NumIdeas),
	)

	if opts.ShouldClean {
		if err := clearData(ctx, db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	areas, err := EnsureThematicAreas(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to create thematic areas: %w", err)
	}
	logger.Info("✓ thematic areas available", slog.Int("count", len(areas)))

	factory := NewFactory(db, SeedOptions{SkipBcrypt: opts.SkipBcrypt})
	reviewer, err := factory.CreateUser(ctx, func(u *models.User) {
		u.IsAdmin = true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create reviewer: %w", err)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	logger.Info("✓ staff accounts created", slog.Int("count", len(users)+1))

	res := &Result{Users: len(users) + 1, Areas: len(areas)}
	if len(users) == 0 || opts.NumIdeas <= 0 {
		return res, nil
	}

	store := repository.NewStore(db, nil)
	isAdmin := service.UserAdminCheck(store.Users)
	ideas := service.NewIdeaService(store, service.Effects{}, isAdmin)
	comments := service.NewCommentService(store, service.Effects{}, isAdmin)

	for i := 0; i < opts.NumIdeas; i++ {
		owner := users[i%len(users)]
		area := areas[i%len(areas)]

		idea, err := ideas.Submit(ctx, service.SubmitInput{
			ActorID: owner.ID,
			Fields:  factory.IdeaFields(area.ID),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to submit idea: %w", err)
		}
		res.Ideas++

		if _, err := comments.AddComment(ctx, service.AddCommentInput{
			ActorID: reviewer.ID,
			IdeaID:  idea.ID,
			Content: factory.CommentText(),
		}); err != nil {
			return nil, fmt.Errorf("failed to comment on idea %d: %w", idea.ID, err)
		}
		res.Comments++
	}
	logger.Info("✓ ideas submitted", slog.Int("ideas", res.Ideas), slog.Int("comments", res.Comments))

	logger.Info("🎉 Database seeding completed successfully!")
	return res, nil
}

func clearData(ctx context.Context, db *gorm.DB) error {
	observability.Logger.Info("🗑️  Clearing existing data...")
	if db.Dialector.Name() == "postgres" {
		return db.WithContext(ctx).Exec(
			"TRUNCATE TABLE comments, idea_revisions, collaboration_requests, idea_collaborators, ideas, thematic_areas, users RESTART IDENTITY CASCADE",
		).Error
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range seededTables {
			if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
