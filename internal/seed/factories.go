// Package seed provides helpers to create demo data for development and
// testing. Nothing here runs in production.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kenhavate/internal/models"
	"kenhavate/internal/observability"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account signs in with.
const DefaultPassword = "password123"

// SeedOptions tune how the factory persists what it builds.
type SeedOptions struct {
	// DryRun assigns synthetic IDs instead of writing rows.
	DryRun bool
	// SkipBcrypt stores the plain password. Development only.
	SkipBcrypt bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	// synthetic ID counter when running in DryRun mode
	nextID uint
	seq    int
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db, opts: opts, nextID: 1000}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CreateUser constructs and persists a staff account with a generated name.
// Optional override functions may modify the user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	user := &models.User{
		Name:  first + " " + last,
		Email: fmt.Sprintf("%s.%s.%d@kenha.example", strings.ToLower(first), strings.ToLower(last), f.seq),
	}

	password, err := f.password()
	if err != nil {
		return nil, err
	}
	user.Password = password

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		observability.Logger.Info("[dry-run] CreateUser", "email", user.Email)
		return user, nil
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateThematicArea persists an active thematic area with a generated name.
func (f *Factory) CreateThematicArea(ctx context.Context, overrides ...func(*models.ThematicArea)) (*models.ThematicArea, error) {
	area := &models.ThematicArea{
		Name:        gofakeit.BuzzWord() + " " + gofakeit.HackerNoun(),
		Description: gofakeit.Sentence(12),
		Active:      true,
	}
	for _, override := range overrides {
		override(area)
	}

	if f.opts.DryRun {
		f.nextID++
		area.ID = f.nextID
		return area, nil
	}
	if err := f.db.WithContext(ctx).Create(area).Error; err != nil {
		return nil, err
	}
	return area, nil
}

// IdeaFields generates complete, submittable idea content.
func (f *Factory) IdeaFields(areaID uint) models.IdeaFields {
	id := areaID
	return models.IdeaFields{
		Title:                  strings.TrimSuffix(gofakeit.Sentence(6), "."),
		ThematicAreaID:         &id,
		Abstract:               gofakeit.Paragraph(1, 3, 12, " "),
		ProblemStatement:       gofakeit.Paragraph(1, 4, 14, " "),
		ProposedSolution:       gofakeit.Paragraph(1, 4, 14, " "),
		CostBenefitAnalysis:    gofakeit.Paragraph(1, 3, 12, " "),
		DeclarationOfInterests: "I have no conflicting interests to declare.",
		OriginalIdeaDisclaimer: true,
	}
}

// CommentText generates a short reviewer-style comment.
func (f *Factory) CommentText() string {
	return gofakeit.Sentence(gofakeit.Number(6, 18))
}
