package service

import (
	"context"
	"strings"
	"testing"

	"kenhavate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func (e *env) authorRevision(t *testing.T, idea *models.Idea, changes datatypes.JSONMap) *models.IdeaRevision {
	t.Helper()
	rev, err := e.revisions.CreateRevision(context.Background(), CreateRevisionInput{
		ActorID:       idea.UserID,
		IdeaID:        idea.ID,
		Type:          models.RevisionTypeAuthor,
		ChangedFields: changes,
	})
	require.NoError(t, err)
	return rev
}

func (e *env) suggestion(t *testing.T, idea *models.Idea, user *models.User, changes datatypes.JSONMap) *models.IdeaRevision {
	t.Helper()
	rev, err := e.revisions.CreateRevision(context.Background(), CreateRevisionInput{
		ActorID:       user.ID,
		IdeaID:        idea.ID,
		Type:          models.RevisionTypeCollaborator,
		ChangedFields: changes,
		Summary:       "Tighter wording",
	})
	require.NoError(t, err)
	return rev
}

func TestRevisionService_AuthorRevisionAppliesImmediately(t *testing.T) {
	e := newEnv(t)
	idea := e.submitted(t)

	rev := e.authorRevision(t, idea, datatypes.JSONMap{models.FieldTitle: "Solar studs on the A2"})
	assert.Equal(t, 2, rev.RevisionNumber, "the submission snapshot is revision 1")
	assert.Equal(t, models.RevisionStatusAccepted, rev.Status)

	live := e.reload(t, idea.ID)
	assert.Equal(t, "Solar studs on the A2", live.Title)
	assert.Equal(t, 2, live.CurrentRevisionNumber)
	assert.Equal(t, idea.Abstract, live.Abstract, "untouched fields are kept")
}

func TestRevisionService_CreateRevision_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)

	_, err := e.revisions.CreateRevision(ctx, CreateRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Type: models.RevisionTypeAuthor})
	assertFieldError(t, err, "changed_fields")

	_, err = e.revisions.CreateRevision(ctx, CreateRevisionInput{
		ActorID:       e.owner.ID,
		IdeaID:        idea.ID,
		Type:          models.RevisionTypeAuthor,
		ChangedFields: datatypes.JSONMap{"titel": "typo"},
	})
	assertFieldError(t, err, "changed_fields.titel")

	_, err = e.revisions.CreateRevision(ctx, CreateRevisionInput{
		ActorID:       e.owner.ID,
		IdeaID:        idea.ID,
		Type:          models.RevisionTypeAuthor,
		ChangedFields: datatypes.JSONMap{models.FieldTeamEffort: "yes"},
	})
	assertFieldError(t, err, "changed_fields")

	_, err = e.revisions.CreateRevision(ctx, CreateRevisionInput{
		ActorID:       e.owner.ID,
		IdeaID:        idea.ID,
		Type:          "reviewer",
		ChangedFields: datatypes.JSONMap{models.FieldTitle: "x"},
	})
	assertFieldError(t, err, "revision_type")

	assert.Equal(t, 1, e.reload(t, idea.ID).CurrentRevisionNumber)
}

func TestRevisionService_CreateRevision_Authorization(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.openIdea(t)
	changes := datatypes.JSONMap{models.FieldTitle: "Hijacked"}

	_, err := e.revisions.CreateRevision(ctx, CreateRevisionInput{ActorID: e.peer.ID, IdeaID: idea.ID, Type: models.RevisionTypeAuthor, ChangedFields: changes})
	assertCode(t, err, models.CodePermissionDenied)

	_, err = e.revisions.CreateRevision(ctx, CreateRevisionInput{ActorID: e.peer.ID, IdeaID: idea.ID, Type: models.RevisionTypeCollaborator, ChangedFields: changes})
	assertCode(t, err, models.CodePermissionDenied)

	_, err = e.revisions.CreateRevision(ctx, CreateRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Type: models.RevisionTypeCollaborator, ChangedFields: changes})
	assertCode(t, err, models.CodePermissionDenied)

	assert.EqualValues(t, 1, e.count(t, &models.IdeaRevision{}, "idea_id = ?", idea.ID))
}

func TestRevisionService_StageLocked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)
	_, err := e.ideas.AdvanceStatus(ctx, AdvanceStatusInput{ActorID: e.admin.ID, IdeaID: idea.ID, To: models.IdeaStatusInReview})
	require.NoError(t, err)

	_, err = e.revisions.CreateRevision(ctx, CreateRevisionInput{
		ActorID:       e.owner.ID,
		IdeaID:        idea.ID,
		Type:          models.RevisionTypeAuthor,
		ChangedFields: datatypes.JSONMap{models.FieldTitle: "Too late"},
	})
	assertCode(t, err, models.CodeStageLocked)
}

func TestRevisionService_SuggestionWaitsForReview(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.openIdea(t)
	e.collaborate(t, idea, e.peer, models.PermissionSuggest)

	rev := e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldAbstract: "Sharper abstract"})
	assert.Equal(t, models.RevisionStatusPending, rev.Status)
	assert.Equal(t, models.RevisionTypeCollaborator, rev.RevisionType)
	assert.Contains(t, e.notifier.titlesFor(e.owner.ID), "New revision suggested")

	live := e.reload(t, idea.ID)
	assert.Equal(t, idea.Abstract, live.Abstract, "pending revisions are not applied")
	assert.Equal(t, 1, live.CurrentRevisionNumber)

	_, err := e.revisions.AcceptRevision(ctx, ReviewRevisionInput{ActorID: e.peer.ID, IdeaID: idea.ID, Number: rev.RevisionNumber})
	assertCode(t, err, models.CodePermissionDenied)

	stored, err := e.store.Revisions.GetByNumber(ctx, idea.ID, rev.RevisionNumber)
	require.NoError(t, err)
	assert.Equal(t, models.RevisionStatusPending, stored.Status)

	preview, err := e.revisions.PreviewRevision(ctx, RevisionRef{ActorID: e.owner.ID, IdeaID: idea.ID, Number: rev.RevisionNumber})
	require.NoError(t, err)
	require.Len(t, preview.Differences, 1)
	assert.Equal(t, models.FieldAbstract, preview.Differences[0].Field)
	assert.Equal(t, idea.Abstract, preview.Differences[0].Current)
	assert.Equal(t, "Sharper abstract", preview.Differences[0].Proposed)
}

func TestRevisionService_EditLevelStillNeedsReview(t *testing.T) {
	e := newEnv(t)
	idea := e.openIdea(t)
	collab := e.collaborate(t, idea, e.peer, models.PermissionEdit)
	assert.Equal(t, models.PermissionEdit, collab.PermissionLevel)

	rev := e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldTitle: "Co-author title"})
	assert.Equal(t, models.RevisionStatusPending, rev.Status)
	assert.Nil(t, rev.ReviewedByID)

	live := e.reload(t, idea.ID)
	assert.Equal(t, idea.Title, live.Title)
	assert.Equal(t, 1, live.CurrentRevisionNumber)
}

func TestRevisionService_AcceptRevision(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.openIdea(t)
	e.collaborate(t, idea, e.peer, models.PermissionEdit)
	rev := e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldAbstract: "Sharper abstract"})

	accepted, err := e.revisions.AcceptRevision(ctx, ReviewRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: rev.RevisionNumber})
	require.NoError(t, err)
	assert.Equal(t, models.RevisionStatusAccepted, accepted.Status)
	assert.Contains(t, e.notifier.titlesFor(e.peer.ID), "Revision accepted")

	live := e.reload(t, idea.ID)
	assert.Equal(t, "Sharper abstract", live.Abstract)
	assert.Equal(t, rev.RevisionNumber, live.CurrentRevisionNumber)

	_, err = e.revisions.AcceptRevision(ctx, ReviewRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: rev.RevisionNumber})
	assertCode(t, err, models.CodeInvalidState)

	_, err = e.revisions.RejectRevision(ctx, ReviewRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: rev.RevisionNumber})
	assertCode(t, err, models.CodeInvalidState)

	_, err = e.revisions.AcceptRevision(ctx, ReviewRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: 99})
	assertCode(t, err, models.CodeNotFound)
}

func TestRevisionService_AcceptOlderRevisionKeepsCounter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.openIdea(t)
	e.collaborate(t, idea, e.peer, models.PermissionSuggest)

	older := e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldAbstract: "From the collaborator"})
	newer := e.authorRevision(t, idea, datatypes.JSONMap{models.FieldTitle: "Author edit"})
	require.Greater(t, newer.RevisionNumber, older.RevisionNumber)

	_, err := e.revisions.AcceptRevision(ctx, ReviewRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: older.RevisionNumber})
	require.NoError(t, err)

	live := e.reload(t, idea.ID)
	assert.Equal(t, newer.RevisionNumber, live.CurrentRevisionNumber, "current revision never decreases")
	assert.Equal(t, "From the collaborator", live.Abstract)
	assert.Equal(t, "Author edit", live.Title)
}

func TestRevisionService_RejectRevision(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.openIdea(t)
	e.collaborate(t, idea, e.peer, models.PermissionSuggest)
	rev := e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldTitle: "Worse title"})

	rejected, err := e.revisions.RejectRevision(ctx, ReviewRevisionInput{
		ActorID: e.owner.ID,
		IdeaID:  idea.ID,
		Number:  rev.RevisionNumber,
		Reason:  "  Keep the original  ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RevisionStatusRejected, rejected.Status)
	assert.Equal(t, "Keep the original", rejected.ReviewReason)
	assert.Contains(t, e.notifier.titlesFor(e.peer.ID), "Revision rejected")

	live := e.reload(t, idea.ID)
	assert.Equal(t, idea.Title, live.Title)
	assert.Equal(t, 1, live.CurrentRevisionNumber)

	stored, err := e.store.Revisions.GetByNumber(ctx, idea.ID, rev.RevisionNumber)
	require.NoError(t, err)
	assert.Equal(t, "Keep the original", stored.ReviewReason)
	require.NotNil(t, stored.ReviewedByID)
	assert.Equal(t, e.owner.ID, *stored.ReviewedByID)
}

// buildHistory creates revisions #2..#5 on top of the submission snapshot,
// with #3 = {title: A} and #5 = {title: B, abstract: X}.
func buildHistory(t *testing.T, e *env, idea *models.Idea) {
	t.Helper()
	e.authorRevision(t, idea, datatypes.JSONMap{models.FieldAbstract: "First pass"})
	e.authorRevision(t, idea, datatypes.JSONMap{models.FieldTitle: "A"})
	e.authorRevision(t, idea, datatypes.JSONMap{models.FieldProblemStatement: "Clearer problem"})
	e.authorRevision(t, idea, datatypes.JSONMap{models.FieldTitle: "B", models.FieldAbstract: "X"})
}

func TestRevisionService_CompareRevisions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)
	buildHistory(t, e, idea)

	diffs, err := e.revisions.CompareRevisions(ctx, CompareRevisionsInput{ActorID: e.stranger.ID, IdeaID: idea.ID, From: 3, To: 5})
	require.NoError(t, err)
	assert.Equal(t, []models.FieldDifference{
		{Field: models.FieldTitle, Current: "A", Proposed: "B"},
		{Field: models.FieldAbstract, Current: models.NotSet, Proposed: "X"},
	}, diffs)

	reversed, err := e.revisions.CompareRevisions(ctx, CompareRevisionsInput{ActorID: e.stranger.ID, IdeaID: idea.ID, From: 5, To: 3})
	require.NoError(t, err)
	require.Len(t, reversed, len(diffs))
	for i := range diffs {
		assert.Equal(t, diffs[i].Field, reversed[i].Field)
		assert.Equal(t, diffs[i].Current, reversed[i].Proposed)
		assert.Equal(t, diffs[i].Proposed, reversed[i].Current)
	}

	same, err := e.revisions.CompareRevisions(ctx, CompareRevisionsInput{ActorID: e.owner.ID, IdeaID: idea.ID, From: 3, To: 3})
	require.NoError(t, err)
	assert.Empty(t, same)

	_, err = e.revisions.CompareRevisions(ctx, CompareRevisionsInput{ActorID: e.owner.ID, IdeaID: idea.ID, From: 3, To: 42})
	assertCode(t, err, models.CodeNotFound)
}

func TestCompare_Pure(t *testing.T) {
	a := &models.IdeaRevision{ChangedFields: datatypes.JSONMap{
		models.FieldTitle:       "A",
		models.FieldTeamMembers: []any{map[string]any{"name": "Esther", "role": "", "organization": ""}},
	}}
	b := &models.IdeaRevision{ChangedFields: datatypes.JSONMap{
		models.FieldTitle:       "A",
		models.FieldTeamMembers: []models.TeamMember{{Name: "Esther"}},
	}}
	assert.Empty(t, Compare(a, b), "typed and decoded values compare by content")
	assert.Empty(t, Compare(b, a))
}

func TestRevisionService_RollbackToRevision(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)
	buildHistory(t, e, idea)

	_, err := e.revisions.RollbackToRevision(ctx, RollbackInput{ActorID: e.peer.ID, IdeaID: idea.ID, Number: 3})
	assertCode(t, err, models.CodePermissionDenied)

	_, err = e.revisions.RollbackToRevision(ctx, RollbackInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: 5})
	assertCode(t, err, models.CodeInvalidState)

	rev, err := e.revisions.RollbackToRevision(ctx, RollbackInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: 3})
	require.NoError(t, err)
	assert.Equal(t, 6, rev.RevisionNumber)
	assert.Equal(t, models.RevisionStatusAccepted, rev.Status)
	require.NotNil(t, rev.RestoresNumber)
	assert.Equal(t, 3, *rev.RestoresNumber)
	assert.Equal(t, "Rolled back to revision #3", rev.ChangeSummary)

	live := e.reload(t, idea.ID)
	assert.Equal(t, 6, live.CurrentRevisionNumber)

	target, err := e.store.Revisions.GetByNumber(ctx, idea.ID, 3)
	require.NoError(t, err)
	snapshot, err := live.Snapshot(models.FieldKeys(target.ChangedFields))
	require.NoError(t, err)
	assert.Empty(t, models.DiffFields(snapshot, target.ChangedFields), "live values match the restored revision")
	assert.Equal(t, "X", live.Abstract, "fields outside the restored revision are kept")

	full, err := e.revisions.RollbackToRevision(ctx, RollbackInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: 1, Summary: "Back to submission"})
	require.NoError(t, err)
	assert.Equal(t, "Back to submission", full.ChangeSummary)
	live = e.reload(t, idea.ID)
	assert.Equal(t, idea.Title, live.Title)
	assert.Equal(t, idea.Abstract, live.Abstract)
}

func TestRevisionService_RollbackRejections(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.openIdea(t)
	e.collaborate(t, idea, e.peer, models.PermissionSuggest)

	e.authorRevision(t, idea, datatypes.JSONMap{models.FieldTitle: "Second"})
	rejected := e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldTitle: "Rejected idea"})
	_, err := e.revisions.RejectRevision(ctx, ReviewRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: rejected.RevisionNumber})
	require.NoError(t, err)
	e.authorRevision(t, idea, datatypes.JSONMap{models.FieldTitle: "Fourth"})

	_, err = e.revisions.RollbackToRevision(ctx, RollbackInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: rejected.RevisionNumber})
	assertCode(t, err, models.CodeInvalidState)

	e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldAbstract: "Still pending"})
	_, err = e.revisions.RollbackToRevision(ctx, RollbackInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: 2})
	assertCode(t, err, models.CodeInvalidState)

	assert.Equal(t, "Fourth", e.reload(t, idea.ID).Title)
}

func TestRevisionService_NumbersAreContiguous(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.openIdea(t)
	e.collaborate(t, idea, e.peer, models.PermissionSuggest)

	e.authorRevision(t, idea, datatypes.JSONMap{models.FieldTitle: "Two"})
	pending := e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldTitle: "Three"})
	e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldTitle: "Four"})
	_, err := e.revisions.RejectRevision(ctx, ReviewRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: pending.RevisionNumber})
	require.NoError(t, err)
	e.authorRevision(t, idea, datatypes.JSONMap{models.FieldTitle: "Five"})

	revs, err := e.revisions.ListRevisions(ctx, e.owner.ID, idea.ID, "")
	require.NoError(t, err)
	require.Len(t, revs, 5)
	highestAccepted := 0
	for i, rev := range revs {
		assert.Equal(t, len(revs)-i, rev.RevisionNumber, "newest first without gaps")
		if rev.Status == models.RevisionStatusAccepted && rev.RevisionNumber > highestAccepted {
			highestAccepted = rev.RevisionNumber
		}
	}
	assert.LessOrEqual(t, e.reload(t, idea.ID).CurrentRevisionNumber, highestAccepted)

	pendingOnly, err := e.revisions.ListRevisions(ctx, e.owner.ID, idea.ID, models.RevisionStatusPending)
	require.NoError(t, err)
	require.Len(t, pendingOnly, 1)
	assert.Equal(t, 4, pendingOnly[0].RevisionNumber)

	got, err := e.revisions.GetRevision(ctx, RevisionRef{ActorID: e.stranger.ID, IdeaID: idea.ID, Number: 2})
	require.NoError(t, err)
	require.NotNil(t, got.CreatedBy)
	assert.Equal(t, e.owner.ID, got.CreatedBy.ID)
}

func TestRevisionService_StoresChangesInIdeaForm(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)

	first := e.authorRevision(t, idea, datatypes.JSONMap{
		models.FieldTitle:       "  Solar studs  ",
		models.FieldTeamMembers: []any{map[string]any{"name": "Amina", "role": "Lead"}},
	})
	assert.Equal(t, "Solar studs", first.ChangedFields[models.FieldTitle])
	assert.Equal(t, []any{map[string]any{"name": "Amina", "role": "Lead", "organization": ""}},
		first.ChangedFields[models.FieldTeamMembers])

	e.authorRevision(t, idea, datatypes.JSONMap{
		models.FieldTitle:       "Solar studs on the A2",
		models.FieldTeamMembers: []any{},
	})
	_, err := e.revisions.RollbackToRevision(ctx, RollbackInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: first.RevisionNumber})
	require.NoError(t, err)

	preview, err := e.revisions.PreviewRevision(ctx, RevisionRef{ActorID: e.owner.ID, IdeaID: idea.ID, Number: first.RevisionNumber})
	require.NoError(t, err)
	assert.Empty(t, preview.Differences, "live idea matches the restored revision")

	live := e.reload(t, idea.ID)
	require.Len(t, live.TeamMembers, 1)
	assert.Equal(t, models.TeamMember{Name: "Amina", Role: "Lead"}, live.TeamMembers[0])
}

func TestRevisionService_CreateRevision_EnforcesIdeaRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)

	_, err := e.revisions.CreateRevision(ctx, CreateRevisionInput{
		ActorID: e.owner.ID,
		IdeaID:  idea.ID,
		Type:    models.RevisionTypeAuthor,
		ChangedFields: datatypes.JSONMap{
			models.FieldTitle:                  "",
			models.FieldAbstract:               strings.Repeat("a", 1001),
			models.FieldOriginalIdeaDisclaimer: false,
		},
	})
	assertFieldError(t, err, models.FieldTitle)
	assertFieldError(t, err, models.FieldAbstract)
	assertFieldError(t, err, models.FieldOriginalIdeaDisclaimer)

	_, err = e.revisions.CreateRevision(ctx, CreateRevisionInput{
		ActorID:       e.owner.ID,
		IdeaID:        idea.ID,
		Type:          models.RevisionTypeAuthor,
		ChangedFields: datatypes.JSONMap{models.FieldThematicAreaID: 9999},
	})
	assertFieldError(t, err, models.FieldThematicAreaID)

	_, err = e.revisions.CreateRevision(ctx, CreateRevisionInput{
		ActorID:       e.owner.ID,
		IdeaID:        idea.ID,
		Type:          models.RevisionTypeAuthor,
		ChangedFields: datatypes.JSONMap{models.FieldProblemStatement: "   "},
	})
	assertFieldError(t, err, models.FieldProblemStatement)

	live := e.reload(t, idea.ID)
	assert.Equal(t, idea.Title, live.Title)
	assert.Equal(t, idea.Abstract, live.Abstract)
	assert.True(t, live.OriginalIdeaDisclaimer)
	assert.Equal(t, idea.ThematicAreaID, live.ThematicAreaID)
	assert.Equal(t, 1, live.CurrentRevisionNumber)
	assert.Equal(t, int64(1), e.count(t, &models.IdeaRevision{}, "idea_id = ?", idea.ID))
}

func TestRevisionService_DraftRevisionsUseDraftRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea, err := e.ideas.SaveDraft(ctx, SaveDraftInput{ActorID: e.owner.ID, Fields: models.IdeaFields{Title: "Pothole sensors"}})
	require.NoError(t, err)

	rev := e.authorRevision(t, idea, datatypes.JSONMap{models.FieldAbstract: ""})
	assert.Equal(t, models.RevisionStatusAccepted, rev.Status)

	_, err = e.revisions.CreateRevision(ctx, CreateRevisionInput{
		ActorID:       e.owner.ID,
		IdeaID:        idea.ID,
		Type:          models.RevisionTypeAuthor,
		ChangedFields: datatypes.JSONMap{models.FieldTitle: " "},
	})
	assertFieldError(t, err, models.FieldTitle)
	assert.Equal(t, "Pothole sensors", e.reload(t, idea.ID).Title)
}

func TestRevisionService_AcceptRechecksSuggestion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.openIdea(t)
	e.collaborate(t, idea, e.peer, models.PermissionSuggest)

	transport := &models.ThematicArea{Name: "Transport Planning", Active: true}
	require.NoError(t, e.store.ThematicAreas.Create(ctx, transport))
	rev := e.suggestion(t, idea, e.peer, datatypes.JSONMap{models.FieldThematicAreaID: transport.ID})

	require.NoError(t, e.db.Model(transport).Update("active", false).Error)

	_, err := e.revisions.AcceptRevision(ctx, ReviewRevisionInput{ActorID: e.owner.ID, IdeaID: idea.ID, Number: rev.RevisionNumber})
	assertFieldError(t, err, models.FieldThematicAreaID)

	stored, err := e.store.Revisions.GetByNumber(ctx, idea.ID, rev.RevisionNumber)
	require.NoError(t, err)
	assert.Equal(t, models.RevisionStatusPending, stored.Status)
	assert.Equal(t, idea.ThematicAreaID, e.reload(t, idea.ID).ThematicAreaID)
}
