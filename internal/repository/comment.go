package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"kenhavate/internal/models"

	"gorm.io/gorm"
)

// CommentQuery filters top-level comments on one idea.
type CommentQuery struct {
	IdeaID uint
	Search string
	Filter models.CommentReadFilter
	Limit  int
	Offset int
}

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	Delete(ctx context.Context, id uint) error
	MarkRead(ctx context.Context, id uint, at time.Time) (bool, error)
	SetRepliesDisabled(ctx context.Context, id uint, disabled bool) error
	Search(ctx context.Context, q CommentQuery) ([]models.Comment, int64, error)
	Thread(ctx context.Context, ideaID uint) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Omit("User", "Replies").Create(comment).Error
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

// Delete soft-deletes the comment together with its replies.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Where("id = ? OR parent_id = ?", id, id).
		Delete(&models.Comment{}).Error
}

// MarkRead sets read_at once. It reports whether this call set it.
func (r *commentRepository) MarkRead(ctx context.Context, id uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	return result.RowsAffected > 0, result.Error
}

func (r *commentRepository) SetRepliesDisabled(ctx context.Context, id uint, disabled bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Update("comment_is_disabled", disabled).Error
}

// Search matches top-level comments by content or commenter name, newest first.
func (r *commentRepository) Search(ctx context.Context, q CommentQuery) ([]models.Comment, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("comments.idea_id = ? AND comments.parent_id IS NULL", q.IdeaID)

	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		base = base.
			Joins("LEFT JOIN users ON users.id = comments.user_id").
			Where(`(LOWER(comments.content) LIKE ? ESCAPE '\' OR LOWER(users.name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	switch q.Filter {
	case models.CommentFilterRead:
		base = base.Where("comments.read_at IS NOT NULL")
	case models.CommentFilterUnread:
		base = base.Where("comments.read_at IS NULL")
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := base.
		Preload("User").
		Select("comments.*").
		Order("comments.created_at DESC").
		Order("comments.id DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&comments).Error
	return comments, total, err
}

// Thread returns top-level comments oldest first, each with its replies.
func (r *commentRepository) Thread(ctx context.Context, ideaID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Replies.User").
		Where("idea_id = ? AND parent_id IS NULL", ideaID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
