package repository

import (
	"context"
	"errors"

	"kenhavate/internal/cache"
	"kenhavate/internal/models"

	"gorm.io/gorm"
)

// ThematicAreaRepository defines persistence operations for thematic areas.
type ThematicAreaRepository interface {
	GetByID(ctx context.Context, id uint) (*models.ThematicArea, error)
	ListActive(ctx context.Context) ([]models.ThematicArea, error)
	Create(ctx context.Context, area *models.ThematicArea) error
}

type thematicAreaRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewThematicAreaRepository returns a new ThematicAreaRepository implementation.
func NewThematicAreaRepository(db *gorm.DB, c *cache.Cache) ThematicAreaRepository {
	return &thematicAreaRepository{db: db, cache: c}
}

func (r *thematicAreaRepository) GetByID(ctx context.Context, id uint) (*models.ThematicArea, error) {
	var area models.ThematicArea
	if err := r.db.WithContext(ctx).First(&area, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("ThematicArea", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &area, nil
}

func (r *thematicAreaRepository) ListActive(ctx context.Context) ([]models.ThematicArea, error) {
	var areas []models.ThematicArea
	err := r.cache.Aside(ctx, cache.ThematicAreasKey, &areas, cache.ThematicAreasTTL, func() error {
		return r.db.WithContext(ctx).Where("active = ?", true).Order("name ASC").Find(&areas).Error
	})
	return areas, err
}

func (r *thematicAreaRepository) Create(ctx context.Context, area *models.ThematicArea) error {
	if err := r.db.WithContext(ctx).Create(area).Error; err != nil {
		return err
	}
	r.cache.Invalidate(ctx, cache.ThematicAreasKey)
	return nil
}
