package repository

import (
	"context"
	"errors"
	"time"

	"kenhavate/internal/models"

	"gorm.io/gorm"
)

// RevisionRepository defines persistence operations for idea revisions.
type RevisionRepository interface {
	NextNumber(ctx context.Context, ideaID uint) (int, error)
	Create(ctx context.Context, rev *models.IdeaRevision) error
	GetByNumber(ctx context.Context, ideaID uint, number int) (*models.IdeaRevision, error)
	Resolve(ctx context.Context, id uint, to models.RevisionStatus, reviewerID uint, reason string, at time.Time) error
	HasPendingAfter(ctx context.Context, ideaID uint, number int) (bool, error)
	List(ctx context.Context, ideaID uint, status models.RevisionStatus) ([]models.IdeaRevision, error)
}

type revisionRepository struct {
	db *gorm.DB
}

// NewRevisionRepository creates a new RevisionRepository
func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{db: db}
}

// NextNumber returns the next idea-scoped revision number. Callers hold the
// idea row lock; the (idea_id, revision_number) unique index backs it up.
func (r *revisionRepository) NextNumber(ctx context.Context, ideaID uint) (int, error) {
	var highest int
	err := r.db.WithContext(ctx).
		Model(&models.IdeaRevision{}).
		Where("idea_id = ?", ideaID).
		Select("COALESCE(MAX(revision_number), 0)").
		Scan(&highest).Error
	if err != nil {
		return 0, err
	}
	return highest + 1, nil
}

func (r *revisionRepository) Create(ctx context.Context, rev *models.IdeaRevision) error {
	return r.db.WithContext(ctx).Omit("CreatedBy").Create(rev).Error
}

func (r *revisionRepository) GetByNumber(ctx context.Context, ideaID uint, number int) (*models.IdeaRevision, error) {
	var rev models.IdeaRevision
	err := r.db.WithContext(ctx).
		Preload("CreatedBy").
		Where("idea_id = ? AND revision_number = ?", ideaID, number).
		Take(&rev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Revision", number)
		}
		return nil, models.NewInternalError(err)
	}
	return &rev, nil
}

// Resolve moves a pending revision to accepted or rejected. Zero affected rows
// means it was already reviewed.
func (r *revisionRepository) Resolve(
	ctx context.Context,
	id uint,
	to models.RevisionStatus,
	reviewerID uint,
	reason string,
	at time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&models.IdeaRevision{}).
		Where("id = ? AND status = ?", id, models.RevisionStatusPending).
		Updates(map[string]any{
			"status":         to,
			"reviewed_by_id": reviewerID,
			"review_reason":  reason,
			"reviewed_at":    at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewInvalidStateError("Revision is no longer pending")
	}
	return nil
}

func (r *revisionRepository) HasPendingAfter(ctx context.Context, ideaID uint, number int) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.IdeaRevision{}).
		Where("idea_id = ? AND status = ? AND revision_number > ?", ideaID, models.RevisionStatusPending, number).
		Count(&count).Error
	return count > 0, err
}

// List returns revisions newest first. An empty status lists all.
func (r *revisionRepository) List(ctx context.Context, ideaID uint, status models.RevisionStatus) ([]models.IdeaRevision, error) {
	q := r.db.WithContext(ctx).Preload("CreatedBy").Where("idea_id = ?", ideaID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var revs []models.IdeaRevision
	err := q.Order("revision_number DESC").Find(&revs).Error
	return revs, err
}
