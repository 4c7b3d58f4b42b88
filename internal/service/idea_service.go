package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"kenhavate/internal/database"
	"kenhavate/internal/models"
	"kenhavate/internal/observability"
	"kenhavate/internal/repository"
	"kenhavate/internal/validation"

	"gorm.io/datatypes"
)

const slugAttempts = 3

// IdeaService owns the idea lifecycle: drafts, submission and status changes.
type IdeaService struct {
	store   *repository.Store
	effects Effects
	isAdmin AdminCheck
}

type SaveDraftInput struct {
	ActorID    uint
	Fields     models.IdeaFields
	Attachment *AttachmentInput
}

type SubmitInput struct {
	ActorID    uint
	Fields     models.IdeaFields
	Attachment *AttachmentInput
}

type IdeaActionInput struct {
	ActorID uint
	IdeaID  uint
}

type AdvanceStatusInput struct {
	ActorID uint
	IdeaID  uint
	To      models.IdeaStatus
}

type ListIdeasInput struct {
	ActorID uint
	Status  models.IdeaStatus
	Page    Page
}

func NewIdeaService(store *repository.Store, effects Effects, isAdmin AdminCheck) *IdeaService {
	return &IdeaService{
		store:   store,
		effects: effects,
		isAdmin: isAdmin,
	}
}

// SaveDraft creates or updates the caller's single draft. Only the title is
// required. An unreadable attachment is logged and skipped.
func (s *IdeaService) SaveDraft(ctx context.Context, in SaveDraftInput) (idea *models.Idea, err error) {
	defer finish(ctx, "idea.save_draft", &err)

	fields := validation.NormalizeIdeaFields(in.Fields)
	if err := validation.ValidateDraft(fields); err != nil {
		return nil, err
	}
	if err := checkThematicArea(ctx, s.store.ThematicAreas, fields.ThematicAreaID); err != nil {
		return nil, err
	}

	att, attErr := readAttachment(in.Attachment)
	if attErr != nil {
		observability.Logger.WarnContext(ctx, "draft attachment skipped",
			slog.Uint64("user_id", uint64(in.ActorID)),
			slog.String("error", attErr.Error()),
		)
		att = nil
	}

	var saved *models.Idea
	err = s.withSlugRetry(ctx, func(tx *repository.Store) error {
		draft, err := tx.Ideas.FindDraftByUser(ctx, in.ActorID)
		if err != nil {
			return err
		}
		if draft == nil {
			draft = &models.Idea{
				Slug:   validation.NewSlug(fields.Title),
				Status: models.IdeaStatusDraft,
				UserID: in.ActorID,
			}
			draft.SetFields(fields)
			att.applyTo(draft)
			if err := tx.Ideas.Create(ctx, draft); err != nil {
				return err
			}
			saved = draft
			return nil
		}

		draft.SetFields(fields)
		att.applyTo(draft)
		if err := tx.Ideas.UpdateContent(ctx, draft); err != nil {
			return err
		}
		saved = draft
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: in.ActorID,
		Kind:   models.NotificationInfo,
		Title:  "Draft saved",
		Body:   fmt.Sprintf("Your draft %q has been saved.", saved.Title),
		Link:   ideaLink(saved),
	})
	s.effects.audit(ctx, "idea.draft_saved", in.ActorID, "idea", saved.ID, datatypes.JSONMap{"title": saved.Title})

	return s.store.Ideas.GetByID(ctx, saved.ID)
}

// Submit validates the full field set and moves the caller's draft (or a new
// idea) to submitted. An attachment read failure aborts without saving. Every
// submission records an accepted author revision with the submitted fields.
func (s *IdeaService) Submit(ctx context.Context, in SubmitInput) (idea *models.Idea, err error) {
	defer finish(ctx, "idea.submit", &err)

	fields := validation.NormalizeIdeaFields(in.Fields)
	if err := validation.ValidateSubmission(fields); err != nil {
		return nil, err
	}
	if err := checkThematicArea(ctx, s.store.ThematicAreas, fields.ThematicAreaID); err != nil {
		return nil, err
	}
	att, err := readAttachment(in.Attachment)
	if err != nil {
		return nil, err
	}

	var submitted *models.Idea
	err = s.withSlugRetry(ctx, func(tx *repository.Store) error {
		now := nowUTC()

		draft, err := tx.Ideas.FindDraftByUser(ctx, in.ActorID)
		if err != nil {
			return err
		}

		if draft == nil {
			submitted = &models.Idea{
				Slug:        validation.NewSlug(fields.Title),
				Status:      models.IdeaStatusSubmitted,
				UserID:      in.ActorID,
				SubmittedAt: &now,
			}
			submitted.SetFields(fields)
			att.applyTo(submitted)
			if err := tx.Ideas.Create(ctx, submitted); err != nil {
				return err
			}
		} else {
			locked, err := tx.Ideas.GetForUpdate(ctx, draft.ID)
			if err != nil {
				return err
			}
			locked.SetFields(fields)
			att.applyTo(locked)
			if err := tx.Ideas.UpdateContent(ctx, locked); err != nil {
				return err
			}
			if err := tx.Ideas.TransitionStatus(ctx, locked.ID, models.IdeaStatusDraft, models.IdeaStatusSubmitted, &now); err != nil {
				return err
			}
			locked.Status = models.IdeaStatusSubmitted
			locked.SubmittedAt = &now
			submitted = locked
		}

		snapshot, err := fields.ChangedFields()
		if err != nil {
			return err
		}
		_, err = recordAuthorRevision(ctx, tx, submitted, in.ActorID, snapshot, "Submitted for review", nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: in.ActorID,
		Kind:   models.NotificationSuccess,
		Title:  "Idea submitted",
		Body:   fmt.Sprintf("Your idea %q has been submitted for review.", submitted.Title),
		Link:   ideaLink(submitted),
	})
	s.effects.audit(ctx, "idea.submitted", in.ActorID, "idea", submitted.ID, datatypes.JSONMap{
		"title":    submitted.Title,
		"revision": submitted.CurrentRevisionNumber,
	})

	return s.store.Ideas.GetByID(ctx, submitted.ID)
}

// ReopenForEdit demotes a submitted idea back to draft. Drafts are returned
// unchanged; anything past submitted is locked.
func (s *IdeaService) ReopenForEdit(ctx context.Context, in IdeaActionInput) (idea *models.Idea, err error) {
	defer finish(ctx, "idea.reopen", &err)

	idea, err = s.store.Ideas.GetByID(ctx, in.IdeaID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(idea, in.ActorID, "edit this idea"); err != nil {
		return nil, err
	}

	switch idea.Status {
	case models.IdeaStatusDraft:
		return idea, nil
	case models.IdeaStatusSubmitted:
	default:
		return nil, models.NewStageLockedError("This idea can no longer be edited")
	}

	if err := s.store.Ideas.TransitionStatus(ctx, idea.ID, models.IdeaStatusSubmitted, models.IdeaStatusDraft, nil); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, models.NewInvalidStateError("You already have a draft in progress; submit or delete it first")
		}
		return nil, err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: in.ActorID,
		Kind:   models.NotificationInfo,
		Title:  "Idea reopened",
		Body:   fmt.Sprintf("%q is back in draft for editing.", idea.Title),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "idea.reopened", in.ActorID, "idea", idea.ID, nil)

	return s.store.Ideas.GetByID(ctx, idea.ID)
}

// DeleteDraft removes a draft and everything attached to it.
func (s *IdeaService) DeleteDraft(ctx context.Context, in IdeaActionInput) (err error) {
	defer finish(ctx, "idea.delete_draft", &err)

	var title string
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		idea, err := tx.Ideas.GetForUpdate(ctx, in.IdeaID)
		if err != nil {
			return err
		}
		if err := requireOwner(idea, in.ActorID, "delete this idea"); err != nil {
			return err
		}
		if idea.Status != models.IdeaStatusDraft {
			return models.NewStageLockedError("Only drafts can be deleted")
		}
		title = idea.Title
		return tx.Ideas.Delete(ctx, idea.ID)
	})
	if err != nil {
		return err
	}

	s.effects.audit(ctx, "idea.draft_deleted", in.ActorID, "idea", in.IdeaID, datatypes.JSONMap{"title": title})
	return nil
}

// AdvanceStatus moves an idea along the review path. Admins only.
func (s *IdeaService) AdvanceStatus(ctx context.Context, in AdvanceStatusInput) (idea *models.Idea, err error) {
	defer finish(ctx, "idea.advance_status", &err)

	admin, err := s.isAdmin.check(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, models.NewPermissionDeniedError("Only reviewers can change an idea's review status")
	}

	idea, err = s.store.Ideas.GetByID(ctx, in.IdeaID)
	if err != nil {
		return nil, err
	}
	if in.To == models.IdeaStatusDraft || !idea.Status.CanTransition(in.To) {
		return nil, models.NewInvalidStateError(fmt.Sprintf("Cannot move an idea from %s to %s", idea.Status, in.To))
	}
	if err := s.store.Ideas.TransitionStatus(ctx, idea.ID, idea.Status, in.To, nil); err != nil {
		return nil, err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: idea.UserID,
		Kind:   models.NotificationInfo,
		Title:  "Review status updated",
		Body:   fmt.Sprintf("%q is now %s.", idea.Title, in.To),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "idea.status_changed", in.ActorID, "idea", idea.ID, datatypes.JSONMap{
		"from": string(idea.Status),
		"to":   string(in.To),
	})

	return s.store.Ideas.GetByID(ctx, idea.ID)
}

// GetIdea returns an idea the viewer is allowed to see.
func (s *IdeaService) GetIdea(ctx context.Context, in IdeaActionInput) (idea *models.Idea, err error) {
	defer finish(ctx, "idea.get", &err)
	return loadVisibleIdea(ctx, s.store, s.isAdmin, in.IdeaID, in.ActorID)
}

// GetIdeaBySlug resolves an idea permalink for a viewer allowed to see it.
func (s *IdeaService) GetIdeaBySlug(ctx context.Context, actorID uint, slug string) (idea *models.Idea, err error) {
	defer finish(ctx, "idea.get_by_slug", &err)
	idea, err = s.store.Ideas.GetBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, err
	}
	return requireVisible(ctx, s.store, s.isAdmin, idea, actorID)
}

// ListMyIdeas lists ideas the caller owns or collaborates on.
func (s *IdeaService) ListMyIdeas(ctx context.Context, in ListIdeasInput) (ideas []models.Idea, err error) {
	defer finish(ctx, "idea.list_mine", &err)
	page := in.Page.normalized()
	return s.store.Ideas.ListForUser(ctx, in.ActorID, in.Status, page.Limit, page.Offset)
}

// ListThematicAreas returns the active thematic areas ideas can be filed under.
func (s *IdeaService) ListThematicAreas(ctx context.Context) (areas []models.ThematicArea, err error) {
	defer finish(ctx, "idea.list_thematic_areas", &err)
	return s.store.ThematicAreas.ListActive(ctx)
}

// withSlugRetry reruns fn in a fresh transaction when it fails on a unique
// index: either a slug collision or a concurrent first draft by the same user,
// which the next attempt then finds and updates.
func (s *IdeaService) withSlugRetry(ctx context.Context, fn func(tx *repository.Store) error) error {
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		err = s.store.Transaction(ctx, fn)
		if err == nil || !database.IsUniqueViolation(err) {
			return err
		}
	}
	return models.NewInvalidStateError("The idea could not be saved because of a concurrent change; please retry")
}
