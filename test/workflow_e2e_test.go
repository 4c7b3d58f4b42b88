package test

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"kenhavate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func TestReadinessWithRedis(t *testing.T) {
	k := newTestkit(t)

	var body map[string]any
	require.Equal(t, http.StatusOK, k.call(t, authUser{}, http.MethodGet, "/health/ready", nil, &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, map[string]any{"database": "healthy", "redis": "healthy"}, body["checks"])
}

func TestIdeaCollaborationReviewFlow(t *testing.T) {
	k := newTestkit(t)
	owner := k.user(t, false)
	peer := k.user(t, false)
	reviewer := k.user(t, true)

	peerInbox := k.inbox(t, peer.ID)
	ownerInbox := k.inbox(t, owner.ID)

	// 1. Draft then submit; the draft row becomes the submitted idea.
	var draft models.Idea
	require.Equal(t, http.StatusOK, k.call(t, owner, http.MethodPut, "/api/ideas/draft",
		map[string]any{"title": "Recycled asphalt"}, &draft))

	var idea models.Idea
	require.Equal(t, http.StatusCreated, k.call(t, owner, http.MethodPost, "/api/ideas/submit", k.submission(), &idea))
	require.Equal(t, draft.ID, idea.ID)
	assert.Equal(t, 1, idea.CurrentRevisionNumber)
	assert.Equal(t, "Draft saved", nextNotification(t, ownerInbox)["title"])
	assert.Equal(t, "Idea submitted", nextNotification(t, ownerInbox)["title"])

	ideaPath := fmt.Sprintf("/api/ideas/%d", idea.ID)

	// 2. Enable collaboration and invite the peer.
	require.Equal(t, http.StatusOK, k.call(t, owner, http.MethodPut, ideaPath+"/collaboration",
		map[string]any{"enabled": true}, nil))

	var invitation models.CollaborationRequest
	require.Equal(t, http.StatusCreated, k.call(t, owner, http.MethodPost, ideaPath+"/invitations",
		map[string]any{"email": peer.Email, "permission_level": "edit", "message": "Join me"}, &invitation))
	assert.Equal(t, "Collaboration invitation", nextNotification(t, peerInbox)["title"])

	require.Equal(t, http.StatusOK, k.call(t, peer, http.MethodPost,
		fmt.Sprintf("/api/invitations/%d/accept", invitation.ID), nil, nil))

	var roster []models.IdeaCollaborator
	require.Equal(t, http.StatusOK, k.call(t, owner, http.MethodGet, ideaPath+"/collaborators", nil, &roster))
	require.Len(t, roster, 1)
	assert.Equal(t, peer.ID, roster[0].UserID)

	// 3. The collaborator proposes a change and the author accepts it.
	var rev models.IdeaRevision
	require.Equal(t, http.StatusCreated, k.call(t, peer, http.MethodPost, ideaPath+"/revisions", map[string]any{
		"revision_type":  "collaborator",
		"changed_fields": map[string]any{"abstract": "Stabilise shoulders with reclaimed asphalt."},
		"change_summary": "Tighter abstract",
	}, &rev))
	require.Equal(t, 2, rev.RevisionNumber)

	require.Equal(t, http.StatusOK, k.call(t, owner, http.MethodPost,
		fmt.Sprintf("%s/revisions/%d/accept", ideaPath, rev.RevisionNumber), nil, nil))

	var current models.Idea
	require.Equal(t, http.StatusOK, k.call(t, peer, http.MethodGet, ideaPath, nil, &current))
	assert.Equal(t, "Stabilise shoulders with reclaimed asphalt.", current.Abstract)
	assert.Equal(t, 2, current.CurrentRevisionNumber)

	// 4. Discussion.
	var comment models.Comment
	require.Equal(t, http.StatusCreated, k.call(t, reviewer, http.MethodPost, ideaPath+"/comments",
		map[string]any{"content": "What is the expected shoulder lifespan?"}, &comment))

	var reply models.Comment
	require.Equal(t, http.StatusCreated, k.call(t, owner, http.MethodPost,
		fmt.Sprintf("/api/comments/%d/replies", comment.ID), map[string]any{"content": "About eight years."}, &reply))
	assert.Equal(t, comment.ID, *reply.ParentID)

	// 5. Review locks the content.
	require.Equal(t, http.StatusOK, k.call(t, reviewer, http.MethodPost, ideaPath+"/status",
		map[string]any{"status": "in_review"}, nil))

	var locked models.ErrorResponse
	assert.Equal(t, http.StatusLocked, k.call(t, owner, http.MethodPost, ideaPath+"/revisions", map[string]any{
		"revision_type":  "author",
		"changed_fields": map[string]any{"title": "Too late"},
		"change_summary": "Late edit",
	}, &locked))
	assert.Equal(t, models.CodeStageLocked, locked.Code)

	var reopen models.ErrorResponse
	assert.Equal(t, http.StatusLocked, k.call(t, owner, http.MethodPost, ideaPath+"/reopen", nil, &reopen))
}

func TestDraftVisibility(t *testing.T) {
	k := newTestkit(t)
	owner := k.user(t, false)
	stranger := k.user(t, false)
	reviewer := k.user(t, true)

	var draft models.Idea
	require.Equal(t, http.StatusOK, k.call(t, owner, http.MethodPut, "/api/ideas/draft",
		map[string]any{"title": "Unfinished thought"}, &draft))
	ideaPath := fmt.Sprintf("/api/ideas/%d", draft.ID)

	assert.Equal(t, http.StatusForbidden, k.call(t, stranger, http.MethodGet, ideaPath+"/comments", nil, nil))
	assert.Equal(t, http.StatusOK, k.call(t, reviewer, http.MethodGet, ideaPath+"/comments", nil, nil))

	assert.Equal(t, http.StatusNoContent, k.call(t, owner, http.MethodDelete, ideaPath, nil, nil))
	assert.Equal(t, http.StatusNotFound, k.call(t, owner, http.MethodGet, ideaPath, nil, nil))
}
