package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxCommentLength is the content limit for comments and replies.
const MaxCommentLength = 1000

// Comment represents a discussion entry on an idea. Threads are one level deep:
// a comment with a ParentID is a reply and never has replies of its own.
type Comment struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	IdeaID            uint           `gorm:"not null;index" json:"idea_id"`
	UserID            uint           `gorm:"not null;index" json:"user_id"`
	User              *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Content           string         `gorm:"type:text;not null" json:"content"`
	ParentID          *uint          `gorm:"index" json:"parent_id"`
	Replies           []Comment      `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
	ReadAt            *time.Time     `json:"read_at"`
	CommentIsDisabled bool           `gorm:"not null" json:"comment_is_disabled"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsReply reports whether the comment belongs to another comment's thread.
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// NewTopLevelComment builds a comment that starts a thread on an idea.
func NewTopLevelComment(ideaID, userID uint, content string) *Comment {
	return &Comment{IdeaID: ideaID, UserID: userID, Content: content}
}

// NewReply builds a reply to parent. Replies to replies are rejected so threads
// stay one level deep regardless of the caller.
func NewReply(parent *Comment, userID uint, content string) (*Comment, error) {
	if parent == nil {
		return nil, NewValidationError("reply requires a parent comment")
	}
	if parent.IsReply() {
		return nil, NewValidationError("cannot reply to a reply")
	}
	parentID := parent.ID
	return &Comment{
		IdeaID:   parent.IdeaID,
		UserID:   userID,
		Content:  content,
		ParentID: &parentID,
	}, nil
}

// CommentReadFilter narrows comment searches by read state.
type CommentReadFilter string

const (
	CommentFilterAll    CommentReadFilter = "all"
	CommentFilterRead   CommentReadFilter = "read"
	CommentFilterUnread CommentReadFilter = "unread"
)

// Valid reports whether f is a known filter. The empty filter means all.
func (f CommentReadFilter) Valid() bool {
	switch f {
	case "", CommentFilterAll, CommentFilterRead, CommentFilterUnread:
		return true
	}
	return false
}
