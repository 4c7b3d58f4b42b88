package service

import (
	"context"
	"strings"
	"testing"

	"kenhavate/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *env) comment(t *testing.T, idea *models.Idea, user *models.User, content string) *models.Comment {
	t.Helper()
	c, err := e.comments.AddComment(context.Background(), AddCommentInput{ActorID: user.ID, IdeaID: idea.ID, Content: content})
	require.NoError(t, err)
	return c
}

func TestCommentService_AddComment(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)

	_, err := e.comments.AddComment(ctx, AddCommentInput{ActorID: e.peer.ID, IdeaID: idea.ID, Content: "   "})
	assertFieldError(t, err, "content")

	_, err = e.comments.AddComment(ctx, AddCommentInput{ActorID: e.peer.ID, IdeaID: idea.ID, Content: strings.Repeat("c", models.MaxCommentLength+1)})
	assertFieldError(t, err, "content")

	c, err := e.comments.AddComment(ctx, AddCommentInput{ActorID: e.peer.ID, IdeaID: idea.ID, Content: "  Great idea  "})
	require.NoError(t, err)
	assert.Equal(t, "Great idea", c.Content)
	assert.Nil(t, c.ParentID)
	require.NotNil(t, c.User)
	assert.Equal(t, e.peer.Name, c.User.Name)
	assert.Contains(t, e.notifier.titlesFor(e.owner.ID), "New comment")

	e.comment(t, idea, e.owner, "Thanks")
	assert.Len(t, e.notifier.titlesFor(e.owner.ID), 2, "authors are not notified of their own comments")
}

func TestCommentService_DraftVisibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	draft, err := e.ideas.SaveDraft(ctx, SaveDraftInput{ActorID: e.owner.ID, Fields: models.IdeaFields{Title: "Private"}})
	require.NoError(t, err)

	_, err = e.comments.AddComment(ctx, AddCommentInput{ActorID: e.stranger.ID, IdeaID: draft.ID, Content: "Peek"})
	assertCode(t, err, models.CodePermissionDenied)

	_, err = e.comments.Thread(ctx, e.stranger.ID, draft.ID)
	assertCode(t, err, models.CodePermissionDenied)

	e.comment(t, draft, e.owner, "Note to self")
}

func TestCommentService_AddReply(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)
	top := e.comment(t, idea, e.owner, "What about maintenance?")

	reply, err := e.comments.AddReply(ctx, AddReplyInput{ActorID: e.peer.ID, ParentID: top.ID, Content: "Panels last ten years"})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)
	assert.Equal(t, idea.ID, reply.IdeaID)
	assert.Contains(t, e.notifier.titlesFor(e.owner.ID), "New reply")

	_, err = e.comments.AddReply(ctx, AddReplyInput{ActorID: e.owner.ID, ParentID: reply.ID, Content: "Nested"})
	assertCode(t, err, models.CodeValidation)

	_, err = e.comments.AddReply(ctx, AddReplyInput{ActorID: e.owner.ID, ParentID: 999, Content: "Orphan"})
	assertCode(t, err, models.CodeNotFound)
}

func TestCommentService_SetRepliesDisabled(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)
	top := e.comment(t, idea, e.peer, "Open question")

	_, err := e.comments.SetRepliesDisabled(ctx, SetRepliesDisabledInput{ActorID: e.peer.ID, CommentID: top.ID, Disabled: true})
	assertCode(t, err, models.CodePermissionDenied)

	updated, err := e.comments.SetRepliesDisabled(ctx, SetRepliesDisabledInput{ActorID: e.owner.ID, CommentID: top.ID, Disabled: true})
	require.NoError(t, err)
	assert.True(t, updated.CommentIsDisabled)

	_, err = e.comments.AddReply(ctx, AddReplyInput{ActorID: e.stranger.ID, ParentID: top.ID, Content: "Blocked"})
	assertCode(t, err, models.CodeStageLocked)

	_, err = e.comments.SetRepliesDisabled(ctx, SetRepliesDisabledInput{ActorID: e.owner.ID, CommentID: top.ID, Disabled: false})
	require.NoError(t, err)
	reply, err := e.comments.AddReply(ctx, AddReplyInput{ActorID: e.stranger.ID, ParentID: top.ID, Content: "Allowed again"})
	require.NoError(t, err)

	_, err = e.comments.SetRepliesDisabled(ctx, SetRepliesDisabledInput{ActorID: e.owner.ID, CommentID: reply.ID, Disabled: true})
	assertCode(t, err, models.CodeValidation)
}

func TestCommentService_MarkAsRead(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)
	c := e.comment(t, idea, e.peer, "Please review")

	own, err := e.comments.MarkAsRead(ctx, CommentActionInput{ActorID: e.peer.ID, CommentID: c.ID})
	require.NoError(t, err)
	assert.Nil(t, own.ReadAt, "authors cannot mark their own comments read")

	first, err := e.comments.MarkAsRead(ctx, CommentActionInput{ActorID: e.owner.ID, CommentID: c.ID})
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	second, err := e.comments.MarkAsRead(ctx, CommentActionInput{ActorID: e.stranger.ID, CommentID: c.ID})
	require.NoError(t, err)
	require.NotNil(t, second.ReadAt)
	assert.True(t, first.ReadAt.Equal(*second.ReadAt), "read_at is set once")
}

func TestCommentService_DeleteOnlyByAuthor(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)
	actors := []*models.User{e.owner, e.peer, e.stranger, e.admin}

	for _, author := range actors {
		for _, actor := range actors {
			c := e.comment(t, idea, author, "by "+author.Name)
			err := e.comments.Delete(ctx, CommentActionInput{ActorID: actor.ID, CommentID: c.ID})
			if actor.ID == author.ID {
				require.NoError(t, err)
				_, err = e.store.Comments.GetByID(ctx, c.ID)
				assertCode(t, err, models.CodeNotFound)
			} else {
				assertCode(t, err, models.CodePermissionDenied)
				_, err = e.store.Comments.GetByID(ctx, c.ID)
				require.NoError(t, err)
			}
		}
	}
}

func TestCommentService_DeleteRemovesReplies(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)
	top := e.comment(t, idea, e.peer, "Thread root")
	reply, err := e.comments.AddReply(ctx, AddReplyInput{ActorID: e.owner.ID, ParentID: top.ID, Content: "Reply"})
	require.NoError(t, err)

	require.NoError(t, e.comments.Delete(ctx, CommentActionInput{ActorID: e.peer.ID, CommentID: top.ID}))

	_, err = e.store.Comments.GetByID(ctx, reply.ID)
	assertCode(t, err, models.CodeNotFound)
	thread, err := e.comments.Thread(ctx, e.owner.ID, idea.ID)
	require.NoError(t, err)
	assert.Empty(t, thread)
}

func TestCommentService_Search(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)

	oldest := e.comment(t, idea, e.peer, "Consider drainage along the verge")
	e.comment(t, idea, e.stranger, "Budget looks 50% too low")
	newest := e.comment(t, idea, e.peer, "Drainage again")
	_, err := e.comments.AddReply(ctx, AddReplyInput{ActorID: e.owner.ID, ParentID: oldest.ID, Content: "drainage reply"})
	require.NoError(t, err)
	_, err = e.comments.MarkAsRead(ctx, CommentActionInput{ActorID: e.owner.ID, CommentID: oldest.ID})
	require.NoError(t, err)

	page, err := e.comments.Search(ctx, SearchCommentsInput{ActorID: e.owner.ID, IdeaID: idea.ID, Query: "DRAINAGE"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total, "replies are not listed")
	require.Len(t, page.Comments, 2)
	assert.Equal(t, newest.ID, page.Comments[0].ID, "newest first")
	assert.Equal(t, oldest.ID, page.Comments[1].ID)

	page, err = e.comments.Search(ctx, SearchCommentsInput{ActorID: e.owner.ID, IdeaID: idea.ID, Query: "carol"})
	require.NoError(t, err)
	require.Len(t, page.Comments, 1, "matches the commenter name")
	assert.Equal(t, e.stranger.ID, page.Comments[0].UserID)

	page, err = e.comments.Search(ctx, SearchCommentsInput{ActorID: e.owner.ID, IdeaID: idea.ID, Query: "50%"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total, "LIKE wildcards are escaped")

	page, err = e.comments.Search(ctx, SearchCommentsInput{ActorID: e.owner.ID, IdeaID: idea.ID, Filter: models.CommentFilterRead})
	require.NoError(t, err)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, oldest.ID, page.Comments[0].ID)

	page, err = e.comments.Search(ctx, SearchCommentsInput{ActorID: e.owner.ID, IdeaID: idea.ID, Filter: models.CommentFilterUnread, Page: Page{Limit: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	require.Len(t, page.Comments, 1)
	assert.Equal(t, 1, page.Limit)

	_, err = e.comments.Search(ctx, SearchCommentsInput{ActorID: e.owner.ID, IdeaID: idea.ID, Filter: "starred"})
	assertFieldError(t, err, "filter")
}

func TestCommentService_Thread(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	idea := e.submitted(t)

	first := e.comment(t, idea, e.peer, "First")
	second := e.comment(t, idea, e.stranger, "Second")
	r1, err := e.comments.AddReply(ctx, AddReplyInput{ActorID: e.owner.ID, ParentID: first.ID, Content: "Reply one"})
	require.NoError(t, err)
	r2, err := e.comments.AddReply(ctx, AddReplyInput{ActorID: e.stranger.ID, ParentID: first.ID, Content: "Reply two"})
	require.NoError(t, err)

	thread, err := e.comments.Thread(ctx, e.stranger.ID, idea.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, first.ID, thread[0].ID, "oldest first")
	assert.Equal(t, second.ID, thread[1].ID)
	require.Len(t, thread[0].Replies, 2)
	assert.Equal(t, r1.ID, thread[0].Replies[0].ID)
	assert.Equal(t, r2.ID, thread[0].Replies[1].ID)
	require.NotNil(t, thread[0].Replies[0].User)
	assert.Equal(t, e.owner.Name, thread[0].Replies[0].User.Name)
	assert.Empty(t, thread[1].Replies)
}
