package service

import (
	"context"
	"fmt"
	"strings"

	"kenhavate/internal/models"
	"kenhavate/internal/repository"
	"kenhavate/internal/validation"

	"gorm.io/datatypes"
)

const maxReviewReasonLength = 500

// RevisionService records, reviews, compares and rolls back idea revisions.
type RevisionService struct {
	store   *repository.Store
	effects Effects
	isAdmin AdminCheck
}

type CreateRevisionInput struct {
	ActorID       uint
	IdeaID        uint
	Type          models.RevisionType
	ChangedFields datatypes.JSONMap
	Summary       string
}

type ReviewRevisionInput struct {
	ActorID uint
	IdeaID  uint
	Number  int
	Reason  string
}

type RevisionRef struct {
	ActorID uint
	IdeaID  uint
	Number  int
}

type CompareRevisionsInput struct {
	ActorID uint
	IdeaID  uint
	From    int
	To      int
}

type RollbackInput struct {
	ActorID uint
	IdeaID  uint
	Number  int
	Summary string
}

// RevisionPreview shows a pending proposal against the idea's live values.
type RevisionPreview struct {
	Revision    *models.IdeaRevision     `json:"revision"`
	Differences []models.FieldDifference `json:"differences"`
}

func NewRevisionService(store *repository.Store, effects Effects, isAdmin AdminCheck) *RevisionService {
	return &RevisionService{
		store:   store,
		effects: effects,
		isAdmin: isAdmin,
	}
}

// CreateRevision stores a set of field changes under the next revision number.
// Author revisions are applied at once; collaborator revisions wait for review.
func (s *RevisionService) CreateRevision(ctx context.Context, in CreateRevisionInput) (rev *models.IdeaRevision, err error) {
	defer finish(ctx, "revision.create", &err)

	if err := validation.ValidateRevisionFields(in.ChangedFields); err != nil {
		return nil, err
	}
	summary := strings.TrimSpace(in.Summary)

	var idea *models.Idea
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		idea, err = tx.Ideas.GetForUpdate(ctx, in.IdeaID)
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, idea, in.ActorID, in.Type); err != nil {
			return err
		}
		if !idea.Status.Editable() {
			return models.NewStageLockedError("Revisions are closed once an idea is under review")
		}
		changes, err := prepareChanges(ctx, tx, idea, in.ChangedFields)
		if err != nil {
			return err
		}

		if in.Type == models.RevisionTypeAuthor {
			rev, err = recordAuthorRevision(ctx, tx, idea, in.ActorID, changes, summary, nil)
			return err
		}

		number, err := tx.Revisions.NextNumber(ctx, idea.ID)
		if err != nil {
			return err
		}
		rev = &models.IdeaRevision{
			IdeaID:         idea.ID,
			RevisionNumber: number,
			RevisionType:   models.RevisionTypeCollaborator,
			ChangedFields:  changes,
			ChangeSummary:  summary,
			Status:         models.RevisionStatusPending,
			CreatedByID:    in.ActorID,
		}
		return tx.Revisions.Create(ctx, rev)
	})
	if err != nil {
		return nil, err
	}

	if rev.Status == models.RevisionStatusPending {
		s.effects.notify(ctx, models.Notification{
			UserID: idea.UserID,
			Kind:   models.NotificationInfo,
			Title:  "New revision suggested",
			Body:   fmt.Sprintf("Revision #%d on %q is waiting for your review.", rev.RevisionNumber, idea.Title),
			Link:   ideaLink(idea),
		})
	}
	s.effects.audit(ctx, "revision.created", in.ActorID, "idea_revision", rev.ID, datatypes.JSONMap{
		"idea_id":         idea.ID,
		"revision_number": rev.RevisionNumber,
		"revision_type":   string(rev.RevisionType),
		"fields":          models.FieldKeys(rev.ChangedFields),
	})
	return rev, nil
}

func (s *RevisionService) authorize(ctx context.Context, tx *repository.Store, idea *models.Idea, actorID uint, typ models.RevisionType) error {
	switch typ {
	case models.RevisionTypeAuthor:
		return requireOwner(idea, actorID, "make author revisions")
	case models.RevisionTypeCollaborator:
		if idea.IsOwnedBy(actorID) {
			return models.NewPermissionDeniedError("Idea authors revise their ideas directly")
		}
		collab, err := tx.Collaborations.FindActiveCollaborator(ctx, idea.ID, actorID)
		if err != nil {
			return err
		}
		if collab == nil {
			return models.NewPermissionDeniedError("Only active collaborators can suggest revisions")
		}
		return nil
	default:
		return models.NewFieldValidationError(map[string]string{
			"revision_type": "The selected revision type is invalid.",
		})
	}
}

// prepareChanges applies changes to a copy of idea and validates the result
// against the rules of the idea's stage. It returns the changes in the form
// the idea stores them, so later diffs against live values compare like with like.
func prepareChanges(ctx context.Context, tx *repository.Store, idea *models.Idea, changes datatypes.JSONMap) (datatypes.JSONMap, error) {
	next := *idea
	if err := next.Apply(changes); err != nil {
		return nil, models.NewFieldValidationError(map[string]string{
			"changed_fields": err.Error(),
		})
	}
	fields := validation.NormalizeIdeaFields(next.Fields())
	if idea.Status == models.IdeaStatusDraft {
		if err := validation.ValidateDraft(fields); err != nil {
			return nil, err
		}
	} else if err := validation.ValidateSubmission(fields); err != nil {
		return nil, err
	}
	if _, ok := changes[models.FieldThematicAreaID]; ok {
		if err := checkThematicArea(ctx, tx.ThematicAreas, fields.ThematicAreaID); err != nil {
			return nil, err
		}
	}
	next.SetFields(fields)
	return next.Snapshot(models.FieldKeys(changes))
}

// recordAuthorRevision stores an accepted author revision and applies it to
// the locked idea. Callers hold the idea row lock inside tx.
func recordAuthorRevision(
	ctx context.Context,
	tx *repository.Store,
	idea *models.Idea,
	actorID uint,
	changes datatypes.JSONMap,
	summary string,
	restores *int,
) (*models.IdeaRevision, error) {
	number, err := tx.Revisions.NextNumber(ctx, idea.ID)
	if err != nil {
		return nil, err
	}
	now := nowUTC()
	reviewer := actorID
	rev := &models.IdeaRevision{
		IdeaID:         idea.ID,
		RevisionNumber: number,
		RevisionType:   models.RevisionTypeAuthor,
		ChangedFields:  changes,
		ChangeSummary:  summary,
		Status:         models.RevisionStatusAccepted,
		CreatedByID:    actorID,
		ReviewedByID:   &reviewer,
		ReviewedAt:     &now,
		RestoresNumber: restores,
	}
	if err := tx.Revisions.Create(ctx, rev); err != nil {
		return nil, err
	}
	if err := applyRevision(ctx, tx, idea, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// applyRevision writes the revision's fields onto the idea and raises the
// current revision number. Accepting an older revision never lowers it.
func applyRevision(ctx context.Context, tx *repository.Store, idea *models.Idea, rev *models.IdeaRevision) error {
	if err := idea.Apply(rev.ChangedFields); err != nil {
		return models.NewFieldValidationError(map[string]string{"changed_fields": err.Error()})
	}
	if err := tx.Ideas.UpdateContent(ctx, idea); err != nil {
		return err
	}
	if err := tx.Ideas.AdvanceRevision(ctx, idea.ID, rev.RevisionNumber); err != nil {
		return err
	}
	if rev.RevisionNumber > idea.CurrentRevisionNumber {
		idea.CurrentRevisionNumber = rev.RevisionNumber
	}
	return nil
}

// AcceptRevision applies a pending revision. Author only.
func (s *RevisionService) AcceptRevision(ctx context.Context, in ReviewRevisionInput) (rev *models.IdeaRevision, err error) {
	defer finish(ctx, "revision.accept", &err)

	var idea *models.Idea
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		idea, rev, err = s.loadForReview(ctx, tx, in, "accept revisions")
		if err != nil {
			return err
		}
		// The idea may have moved on since the suggestion was made.
		if rev.ChangedFields, err = prepareChanges(ctx, tx, idea, rev.ChangedFields); err != nil {
			return err
		}
		now := nowUTC()
		if err := tx.Revisions.Resolve(ctx, rev.ID, models.RevisionStatusAccepted, in.ActorID, "", now); err != nil {
			return err
		}
		rev.Status = models.RevisionStatusAccepted
		rev.ReviewedByID = &in.ActorID
		rev.ReviewedAt = &now
		return applyRevision(ctx, tx, idea, rev)
	})
	if err != nil {
		return nil, err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: rev.CreatedByID,
		Kind:   models.NotificationSuccess,
		Title:  "Revision accepted",
		Body:   fmt.Sprintf("Your revision #%d on %q was accepted.", rev.RevisionNumber, idea.Title),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "revision.accepted", in.ActorID, "idea_revision", rev.ID, datatypes.JSONMap{
		"idea_id":         idea.ID,
		"revision_number": rev.RevisionNumber,
	})
	return rev, nil
}

// RejectRevision marks a pending revision rejected. Its fields are never applied.
func (s *RevisionService) RejectRevision(ctx context.Context, in ReviewRevisionInput) (rev *models.IdeaRevision, err error) {
	defer finish(ctx, "revision.reject", &err)

	reason := strings.TrimSpace(in.Reason)
	if len([]rune(reason)) > maxReviewReasonLength {
		return nil, models.NewFieldValidationError(map[string]string{
			"review_reason": fmt.Sprintf("The review reason field must not be greater than %d characters.", maxReviewReasonLength),
		})
	}

	var idea *models.Idea
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		idea, rev, err = s.loadForReview(ctx, tx, in, "reject revisions")
		if err != nil {
			return err
		}
		now := nowUTC()
		if err := tx.Revisions.Resolve(ctx, rev.ID, models.RevisionStatusRejected, in.ActorID, reason, now); err != nil {
			return err
		}
		rev.Status = models.RevisionStatusRejected
		rev.ReviewedByID = &in.ActorID
		rev.ReviewReason = reason
		rev.ReviewedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("Your revision #%d on %q was not accepted.", rev.RevisionNumber, idea.Title)
	if reason != "" {
		body += " Reason: " + reason
	}
	s.effects.notify(ctx, models.Notification{
		UserID: rev.CreatedByID,
		Kind:   models.NotificationInfo,
		Title:  "Revision rejected",
		Body:   body,
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "revision.rejected", in.ActorID, "idea_revision", rev.ID, datatypes.JSONMap{
		"idea_id":         idea.ID,
		"revision_number": rev.RevisionNumber,
		"reason":          reason,
	})
	return rev, nil
}

func (s *RevisionService) loadForReview(ctx context.Context, tx *repository.Store, in ReviewRevisionInput, action string) (*models.Idea, *models.IdeaRevision, error) {
	idea, err := tx.Ideas.GetForUpdate(ctx, in.IdeaID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOwner(idea, in.ActorID, action); err != nil {
		return nil, nil, err
	}
	rev, err := tx.Revisions.GetByNumber(ctx, idea.ID, in.Number)
	if err != nil {
		return nil, nil, err
	}
	if rev.Status != models.RevisionStatusPending {
		return nil, nil, models.NewInvalidStateError("Revision is no longer pending")
	}
	if !idea.Status.Editable() {
		return nil, nil, models.NewStageLockedError("Revisions are closed once an idea is under review")
	}
	return idea, rev, nil
}

// Compare reports the fields whose values differ between two revisions, with
// a's values as Current and b's as Proposed.
func Compare(a, b *models.IdeaRevision) []models.FieldDifference {
	return models.DiffFields(a.ChangedFields, b.ChangedFields)
}

// CompareRevisions compares two revisions of the same idea by number.
func (s *RevisionService) CompareRevisions(ctx context.Context, in CompareRevisionsInput) (diffs []models.FieldDifference, err error) {
	defer finish(ctx, "revision.compare", &err)

	if _, err := loadVisibleIdea(ctx, s.store, s.isAdmin, in.IdeaID, in.ActorID); err != nil {
		return nil, err
	}
	from, err := s.store.Revisions.GetByNumber(ctx, in.IdeaID, in.From)
	if err != nil {
		return nil, err
	}
	to, err := s.store.Revisions.GetByNumber(ctx, in.IdeaID, in.To)
	if err != nil {
		return nil, err
	}
	return Compare(from, to), nil
}

// PreviewRevision diffs a revision against the idea's live values for the
// fields it touches.
func (s *RevisionService) PreviewRevision(ctx context.Context, in RevisionRef) (preview *RevisionPreview, err error) {
	defer finish(ctx, "revision.preview", &err)

	idea, err := loadVisibleIdea(ctx, s.store, s.isAdmin, in.IdeaID, in.ActorID)
	if err != nil {
		return nil, err
	}
	rev, err := s.store.Revisions.GetByNumber(ctx, idea.ID, in.Number)
	if err != nil {
		return nil, err
	}
	live, err := idea.Snapshot(models.FieldKeys(rev.ChangedFields))
	if err != nil {
		return nil, err
	}
	return &RevisionPreview{
		Revision:    rev,
		Differences: models.DiffFields(live, rev.ChangedFields),
	}, nil
}

// RollbackToRevision restores an earlier accepted revision by recording a new
// accepted revision with its values. It refuses while a newer revision is
// still pending, since accepting that one later would silently undo the rollback.
func (s *RevisionService) RollbackToRevision(ctx context.Context, in RollbackInput) (rev *models.IdeaRevision, err error) {
	defer finish(ctx, "revision.rollback", &err)

	var idea *models.Idea
	err = s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		idea, err = tx.Ideas.GetForUpdate(ctx, in.IdeaID)
		if err != nil {
			return err
		}
		if err := requireOwner(idea, in.ActorID, "roll back revisions"); err != nil {
			return err
		}
		if !idea.Status.Editable() {
			return models.NewStageLockedError("Revisions are closed once an idea is under review")
		}

		target, err := tx.Revisions.GetByNumber(ctx, idea.ID, in.Number)
		if err != nil {
			return err
		}
		if target.Status != models.RevisionStatusAccepted {
			return models.NewInvalidStateError("Only accepted revisions can be restored")
		}
		if target.RevisionNumber >= idea.CurrentRevisionNumber {
			return models.NewInvalidStateError(fmt.Sprintf("Revision #%d is already current", target.RevisionNumber))
		}
		pending, err := tx.Revisions.HasPendingAfter(ctx, idea.ID, target.RevisionNumber)
		if err != nil {
			return err
		}
		if pending {
			return models.NewInvalidStateError("Resolve newer pending revisions before rolling back")
		}

		summary := strings.TrimSpace(in.Summary)
		if summary == "" {
			summary = fmt.Sprintf("Rolled back to revision #%d", target.RevisionNumber)
		}
		restores := target.RevisionNumber
		changes, err := prepareChanges(ctx, tx, idea, target.ChangedFields)
		if err != nil {
			return err
		}
		rev, err = recordAuthorRevision(ctx, tx, idea, in.ActorID, changes, summary, &restores)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: in.ActorID,
		Kind:   models.NotificationSuccess,
		Title:  "Idea rolled back",
		Body:   fmt.Sprintf("%q was restored to revision #%d.", idea.Title, in.Number),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "revision.rolled_back", in.ActorID, "idea_revision", rev.ID, datatypes.JSONMap{
		"idea_id":         idea.ID,
		"revision_number": rev.RevisionNumber,
		"restores":        in.Number,
	})
	return rev, nil
}

// ListRevisions returns an idea's revisions newest first. An empty status lists all.
func (s *RevisionService) ListRevisions(ctx context.Context, actorID, ideaID uint, status models.RevisionStatus) (revs []models.IdeaRevision, err error) {
	defer finish(ctx, "revision.list", &err)

	if _, err := loadVisibleIdea(ctx, s.store, s.isAdmin, ideaID, actorID); err != nil {
		return nil, err
	}
	return s.store.Revisions.List(ctx, ideaID, status)
}

func (s *RevisionService) GetRevision(ctx context.Context, in RevisionRef) (rev *models.IdeaRevision, err error) {
	defer finish(ctx, "revision.get", &err)

	if _, err := loadVisibleIdea(ctx, s.store, s.isAdmin, in.IdeaID, in.ActorID); err != nil {
		return nil, err
	}
	return s.store.Revisions.GetByNumber(ctx, in.IdeaID, in.Number)
}
