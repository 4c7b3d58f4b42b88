package service

import (
	"context"

	"kenhavate/internal/models"
	"kenhavate/internal/repository"
)

// AdminCheck reports whether a user holds the reviewer/admin role.
type AdminCheck func(ctx context.Context, userID uint) (bool, error)

// UserAdminCheck resolves the admin flag from the user record.
func UserAdminCheck(users repository.UserRepository) AdminCheck {
	return func(ctx context.Context, userID uint) (bool, error) {
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return false, nil
			}
			return false, err
		}
		return user.IsAdmin, nil
	}
}

func (a AdminCheck) check(ctx context.Context, userID uint) (bool, error) {
	if a == nil {
		return false, nil
	}
	return a(ctx, userID)
}

// canView applies the visibility rule: drafts are visible to their author and
// active collaborators, every other status to any authenticated user. Admins
// see everything.
func canView(ctx context.Context, store *repository.Store, isAdmin AdminCheck, idea *models.Idea, viewerID uint) (bool, error) {
	if idea.IsOwnedBy(viewerID) || idea.Status != models.IdeaStatusDraft {
		return true, nil
	}
	collab, err := store.Collaborations.FindActiveCollaborator(ctx, idea.ID, viewerID)
	if err != nil {
		return false, err
	}
	if collab != nil {
		return true, nil
	}
	return isAdmin.check(ctx, viewerID)
}

// loadVisibleIdea fetches an idea and enforces canView.
func loadVisibleIdea(ctx context.Context, store *repository.Store, isAdmin AdminCheck, ideaID, viewerID uint) (*models.Idea, error) {
	idea, err := store.Ideas.GetByID(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	return requireVisible(ctx, store, isAdmin, idea, viewerID)
}

func requireVisible(ctx context.Context, store *repository.Store, isAdmin AdminCheck, idea *models.Idea, viewerID uint) (*models.Idea, error) {
	ok, err := canView(ctx, store, isAdmin, idea, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewPermissionDeniedError("You do not have access to this idea")
	}
	return idea, nil
}

func requireOwner(idea *models.Idea, actorID uint, action string) error {
	if !idea.IsOwnedBy(actorID) {
		return models.NewPermissionDeniedError("Only the idea author can " + action)
	}
	return nil
}

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// checkThematicArea rejects a missing or retired thematic area. A nil id passes.
func checkThematicArea(ctx context.Context, areas repository.ThematicAreaRepository, id *uint) error {
	if id == nil {
		return nil
	}
	area, err := areas.GetByID(ctx, *id)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return models.NewFieldValidationError(map[string]string{
				models.FieldThematicAreaID: "The selected thematic area is invalid.",
			})
		}
		return err
	}
	if !area.Active {
		return models.NewFieldValidationError(map[string]string{
			models.FieldThematicAreaID: "The selected thematic area is no longer available.",
		})
	}
	return nil
}
