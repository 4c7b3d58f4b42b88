package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReply(t *testing.T) {
	top := NewTopLevelComment(4, 1, "Top level")
	top.ID = 10
	assert.False(t, top.IsReply())

	reply, err := NewReply(top, 2, "A reply")
	require.NoError(t, err)
	assert.True(t, reply.IsReply())
	assert.Equal(t, uint(10), *reply.ParentID)
	assert.Equal(t, uint(4), reply.IdeaID)

	reply.ID = 11
	_, err = NewReply(reply, 3, "Nested")
	assert.True(t, HasCode(err, CodeValidation))

	_, err = NewReply(nil, 3, "Orphan")
	assert.Error(t, err)
}

func TestCommentReadFilter_Valid(t *testing.T) {
	assert.True(t, CommentReadFilter("").Valid())
	assert.True(t, CommentFilterUnread.Valid())
	assert.False(t, CommentReadFilter("archived").Valid())
}

func TestCollaborationRequest_Responder(t *testing.T) {
	req := &CollaborationRequest{UserID: 7, Kind: CollaborationKindRequest}
	assert.Equal(t, uint(1), req.Responder(1))

	req.Kind = CollaborationKindInvitation
	assert.Equal(t, uint(7), req.Responder(1))

	assert.True(t, PermissionEdit.Valid())
	assert.False(t, PermissionLevel("owner").Valid())
}
