package repository

import (
	"context"
	"errors"
	"time"

	"kenhavate/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdeaRepository defines persistence operations for ideas.
type IdeaRepository interface {
	Create(ctx context.Context, idea *models.Idea) error
	GetByID(ctx context.Context, id uint) (*models.Idea, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Idea, error)
	GetBySlug(ctx context.Context, slug string) (*models.Idea, error)
	FindDraftByUser(ctx context.Context, userID uint) (*models.Idea, error)
	UpdateContent(ctx context.Context, idea *models.Idea) error
	TransitionStatus(ctx context.Context, id uint, from, to models.IdeaStatus, submittedAt *time.Time) error
	AdvanceRevision(ctx context.Context, id uint, number int) error
	SetCollaboration(ctx context.Context, id uint, enabled bool, deadline *time.Time) error
	Delete(ctx context.Context, id uint) error
	ListForUser(ctx context.Context, userID uint, status models.IdeaStatus, limit, offset int) ([]models.Idea, error)
}

type ideaRepository struct {
	db *gorm.DB
}

// NewIdeaRepository creates a new IdeaRepository
func NewIdeaRepository(db *gorm.DB) IdeaRepository {
	return &ideaRepository{db: db}
}

// contentColumns are the columns written when an idea's editable content
// changes. The revision counter only moves through AdvanceRevision.
var contentColumns = append(append([]string{}, models.RevisableFields...),
	"attachment_data",
	"attachment_filename",
	"attachment_mime",
	"attachment_size",
	"updated_at",
)

func (r *ideaRepository) Create(ctx context.Context, idea *models.Idea) error {
	return r.db.WithContext(ctx).Create(idea).Error
}

func (r *ideaRepository) GetByID(ctx context.Context, id uint) (*models.Idea, error) {
	return r.first(r.db.WithContext(ctx).Preload("User").Preload("ThematicArea"), "id = ?", id)
}

// GetForUpdate loads the idea with a row lock for the rest of the transaction.
// SQLite has no row locks and serializes writers instead.
func (r *ideaRepository) GetForUpdate(ctx context.Context, id uint) (*models.Idea, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// GetBySlug resolves the public permalink of an idea.
func (r *ideaRepository) GetBySlug(ctx context.Context, slug string) (*models.Idea, error) {
	return r.first(r.db.WithContext(ctx).Preload("User").Preload("ThematicArea"), "slug = ?", slug)
}

func (r *ideaRepository) first(q *gorm.DB, cond string, arg any) (*models.Idea, error) {
	var idea models.Idea
	if err := q.Where(cond, arg).First(&idea).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Idea", arg)
		}
		return nil, models.NewInternalError(err)
	}
	return &idea, nil
}

// FindDraftByUser returns the user's single draft, or nil when there is none.
func (r *ideaRepository) FindDraftByUser(ctx context.Context, userID uint) (*models.Idea, error) {
	var idea models.Idea
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.IdeaStatusDraft).
		Take(&idea).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &idea, nil
}

// UpdateContent writes the editable fields and attachment.
func (r *ideaRepository) UpdateContent(ctx context.Context, idea *models.Idea) error {
	return r.db.WithContext(ctx).
		Model(idea).
		Omit(clause.Associations).
		Select(contentColumns).
		Updates(idea).Error
}

// TransitionStatus moves the idea from one status to another in a single
// conditional update. A concurrent change makes it fail with InvalidState.
func (r *ideaRepository) TransitionStatus(ctx context.Context, id uint, from, to models.IdeaStatus, submittedAt *time.Time) error {
	updates := map[string]any{"status": to}
	if submittedAt != nil {
		updates["submitted_at"] = *submittedAt
	}

	result := r.db.WithContext(ctx).
		Model(&models.Idea{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewInvalidStateError("idea is no longer " + string(from))
	}
	return nil
}

// AdvanceRevision raises current_revision_number to number. It never lowers it.
func (r *ideaRepository) AdvanceRevision(ctx context.Context, id uint, number int) error {
	return r.db.WithContext(ctx).
		Model(&models.Idea{}).
		Where("id = ? AND current_revision_number < ?", id, number).
		Update("current_revision_number", number).Error
}

func (r *ideaRepository) SetCollaboration(ctx context.Context, id uint, enabled bool, deadline *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Idea{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"collaboration_enabled":  enabled,
			"collaboration_deadline": deadline,
		}).Error
}

// Delete removes the idea and every record it owns. Callers run it inside a
// transaction.
func (r *ideaRepository) Delete(ctx context.Context, id uint) error {
	db := r.db.WithContext(ctx)
	dependents := []any{
		&models.Comment{},
		&models.IdeaRevision{},
		&models.CollaborationRequest{},
		&models.IdeaCollaborator{},
	}
	for _, model := range dependents {
		if err := db.Unscoped().Where("idea_id = ?", id).Delete(model).Error; err != nil {
			return err
		}
	}
	return db.Delete(&models.Idea{}, id).Error
}

// ListForUser returns ideas the user owns or actively collaborates on, newest
// first. An empty status lists every status.
func (r *ideaRepository) ListForUser(ctx context.Context, userID uint, status models.IdeaStatus, limit, offset int) ([]models.Idea, error) {
	q := r.db.WithContext(ctx).
		Preload("ThematicArea").
		Where("(user_id = ? OR id IN (?))", userID,
			r.db.Model(&models.IdeaCollaborator{}).
				Select("idea_id").
				Where("user_id = ? AND active = ?", userID, true),
		)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var ideas []models.Idea
	err := q.Order("updated_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&ideas).Error
	return ideas, err
}
