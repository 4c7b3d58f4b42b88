package repository

import (
	"context"
	"errors"
	"time"

	"kenhavate/internal/database"
	"kenhavate/internal/models"

	"gorm.io/gorm"
)

// CollaborationRepository defines persistence operations for collaborators
// and collaboration requests.
type CollaborationRepository interface {
	CreateRequest(ctx context.Context, req *models.CollaborationRequest) error
	GetRequest(ctx context.Context, id uint) (*models.CollaborationRequest, error)
	ResolveRequest(ctx context.Context, id uint, to models.CollaborationRequestStatus, responderID uint, message string, at time.Time) error
	ListPendingForIdea(ctx context.Context, ideaID uint) ([]models.CollaborationRequest, error)
	ListPendingInvitations(ctx context.Context, userID uint) ([]models.CollaborationRequest, error)

	GetCollaborator(ctx context.Context, id uint) (*models.IdeaCollaborator, error)
	FindActiveCollaborator(ctx context.Context, ideaID, userID uint) (*models.IdeaCollaborator, error)
	ActivateCollaborator(ctx context.Context, ideaID, userID uint, level models.PermissionLevel, at time.Time) (*models.IdeaCollaborator, error)
	DeactivateCollaborator(ctx context.Context, id uint, reason string, at time.Time) error
	UpdatePermission(ctx context.Context, id uint, level models.PermissionLevel) error
	ListCollaborators(ctx context.Context, ideaID uint, activeOnly bool) ([]models.IdeaCollaborator, error)
}

type collaborationRepository struct {
	db *gorm.DB
}

// NewCollaborationRepository creates a new CollaborationRepository
func NewCollaborationRepository(db *gorm.DB) CollaborationRepository {
	return &collaborationRepository{db: db}
}

// CreateRequest stores a pending request. A second pending request for the
// same idea and user violates the partial unique index and maps to InvalidState.
func (r *collaborationRepository) CreateRequest(ctx context.Context, req *models.CollaborationRequest) error {
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return models.NewInvalidStateError("A pending collaboration request already exists for this user")
		}
		return err
	}
	return nil
}

func (r *collaborationRepository) GetRequest(ctx context.Context, id uint) (*models.CollaborationRequest, error) {
	var req models.CollaborationRequest
	if err := r.db.WithContext(ctx).Preload("Idea").Preload("User").First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("CollaborationRequest", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &req, nil
}

// ResolveRequest flips a pending request to a terminal status. Zero affected
// rows means another writer resolved it first.
func (r *collaborationRepository) ResolveRequest(
	ctx context.Context,
	id uint,
	to models.CollaborationRequestStatus,
	responderID uint,
	message string,
	at time.Time,
) error {
	result := r.db.WithContext(ctx).
		Model(&models.CollaborationRequest{}).
		Where("id = ? AND status = ?", id, models.CollaborationStatusPending).
		Updates(map[string]any{
			"status":           to,
			"response_message": message,
			"response_at":      at,
			"responded_by_id":  responderID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewInvalidStateError("Collaboration request has already been resolved")
	}
	return nil
}

func (r *collaborationRepository) ListPendingForIdea(ctx context.Context, ideaID uint) ([]models.CollaborationRequest, error) {
	var reqs []models.CollaborationRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("idea_id = ? AND status = ?", ideaID, models.CollaborationStatusPending).
		Order("requested_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *collaborationRepository) ListPendingInvitations(ctx context.Context, userID uint) ([]models.CollaborationRequest, error) {
	var reqs []models.CollaborationRequest
	err := r.db.WithContext(ctx).
		Preload("Idea").
		Preload("Inviter").
		Where("user_id = ? AND kind = ? AND status = ?", userID, models.CollaborationKindInvitation, models.CollaborationStatusPending).
		Order("requested_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *collaborationRepository) GetCollaborator(ctx context.Context, id uint) (*models.IdeaCollaborator, error) {
	var c models.IdeaCollaborator
	if err := r.db.WithContext(ctx).Preload("User").First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Collaborator", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &c, nil
}

// FindActiveCollaborator returns nil when the user is not an active collaborator.
func (r *collaborationRepository) FindActiveCollaborator(ctx context.Context, ideaID, userID uint) (*models.IdeaCollaborator, error) {
	var c models.IdeaCollaborator
	err := r.db.WithContext(ctx).
		Where("idea_id = ? AND user_id = ? AND active = ?", ideaID, userID, true).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ActivateCollaborator creates the (idea, user) row or reactivates a removed
// one. An already active row yields DuplicateCollaborator.
func (r *collaborationRepository) ActivateCollaborator(
	ctx context.Context,
	ideaID, userID uint,
	level models.PermissionLevel,
	at time.Time,
) (*models.IdeaCollaborator, error) {
	db := r.db.WithContext(ctx)

	var existing models.IdeaCollaborator
	err := db.Where("idea_id = ? AND user_id = ?", ideaID, userID).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c := &models.IdeaCollaborator{
			IdeaID:          ideaID,
			UserID:          userID,
			PermissionLevel: level,
			Active:          true,
			JoinedAt:        at,
		}
		if err := db.Create(c).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return nil, models.NewDuplicateCollaboratorError("User is already a collaborator on this idea")
			}
			return nil, err
		}
		return c, nil
	case err != nil:
		return nil, err
	}

	result := db.Model(&models.IdeaCollaborator{}).
		Where("id = ? AND active = ?", existing.ID, false).
		Updates(map[string]any{
			"active":           true,
			"permission_level": level,
			"joined_at":        at,
			"removed_at":       nil,
			"removal_reason":   "",
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, models.NewDuplicateCollaboratorError("User is already a collaborator on this idea")
	}

	existing.Active = true
	existing.PermissionLevel = level
	existing.JoinedAt = at
	existing.RemovedAt = nil
	existing.RemovalReason = ""
	return &existing, nil
}

func (r *collaborationRepository) DeactivateCollaborator(ctx context.Context, id uint, reason string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.IdeaCollaborator{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]any{
			"active":         false,
			"removed_at":     at,
			"removal_reason": reason,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewInvalidStateError("Collaborator is no longer active")
	}
	return nil
}

func (r *collaborationRepository) UpdatePermission(ctx context.Context, id uint, level models.PermissionLevel) error {
	result := r.db.WithContext(ctx).
		Model(&models.IdeaCollaborator{}).
		Where("id = ? AND active = ?", id, true).
		Update("permission_level", level)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewInvalidStateError("Collaborator is no longer active")
	}
	return nil
}

func (r *collaborationRepository) ListCollaborators(ctx context.Context, ideaID uint, activeOnly bool) ([]models.IdeaCollaborator, error) {
	q := r.db.WithContext(ctx).Preload("User").Where("idea_id = ?", ideaID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []models.IdeaCollaborator
	err := q.Order("joined_at ASC").Find(&out).Error
	return out, err
}
