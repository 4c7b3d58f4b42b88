// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"time"

	"kenhavate/internal/cache"
	"kenhavate/internal/observability"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle. Inside
// Transaction every repository is rebound to the transaction.
type Store struct {
	db    *gorm.DB
	cache *cache.Cache

	Users          UserRepository
	ThematicAreas  ThematicAreaRepository
	Ideas          IdeaRepository
	Collaborations CollaborationRepository
	Revisions      RevisionRepository
	Comments       CommentRepository
}

// NewStore binds all repositories to db. c may be nil.
func NewStore(db *gorm.DB, c *cache.Cache) *Store {
	return &Store{
		db:             db,
		cache:          c,
		Users:          NewUserRepository(db, c),
		ThematicAreas:  NewThematicAreaRepository(db, c),
		Ideas:          NewIdeaRepository(db),
		Collaborations: NewCollaborationRepository(db),
		Revisions:      NewRevisionRepository(db),
		Comments:       NewCommentRepository(db),
	}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn in one database transaction. Returning an error from fn
// rolls back every write made through the transactional store.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	span, ctx := observability.NewSpan(ctx, "store.transaction")
	defer span.End()

	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx, s.cache))
	})
	observability.ObserveTransaction(start, err)
	if err != nil {
		span.SetError(err)
	}
	return err
}
