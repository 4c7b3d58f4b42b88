package service

import (
	"context"
	"fmt"

	"kenhavate/internal/models"
	"kenhavate/internal/repository"
	"kenhavate/internal/validation"

	"gorm.io/datatypes"
)

type CommentService struct {
	store   *repository.Store
	effects Effects
	isAdmin AdminCheck
}

type AddCommentInput struct {
	ActorID uint
	IdeaID  uint
	Content string
}

type AddReplyInput struct {
	ActorID  uint
	ParentID uint
	Content  string
}

type CommentActionInput struct {
	ActorID   uint
	CommentID uint
}

type SearchCommentsInput struct {
	ActorID uint
	IdeaID  uint
	Query   string
	Filter  models.CommentReadFilter
	Page    Page
}

type SetRepliesDisabledInput struct {
	ActorID   uint
	CommentID uint
	Disabled  bool
}

// CommentPage is one page of search results plus the total match count.
type CommentPage struct {
	Comments []models.Comment `json:"comments"`
	Total    int64            `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

func NewCommentService(store *repository.Store, effects Effects, isAdmin AdminCheck) *CommentService {
	return &CommentService{
		store:   store,
		effects: effects,
		isAdmin: isAdmin,
	}
}

func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (comment *models.Comment, err error) {
	defer finish(ctx, "comment.add", &err)

	content, err := validation.ValidateComment(in.Content)
	if err != nil {
		return nil, err
	}
	idea, err := loadVisibleIdea(ctx, s.store, s.isAdmin, in.IdeaID, in.ActorID)
	if err != nil {
		return nil, err
	}

	comment = models.NewTopLevelComment(idea.ID, in.ActorID, content)
	if err := s.store.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if !idea.IsOwnedBy(in.ActorID) {
		s.effects.notify(ctx, models.Notification{
			UserID: idea.UserID,
			Kind:   models.NotificationInfo,
			Title:  "New comment",
			Body:   fmt.Sprintf("There is a new comment on %q.", idea.Title),
			Link:   ideaLink(idea),
		})
	}
	s.effects.audit(ctx, "comment.created", in.ActorID, "comment", comment.ID, datatypes.JSONMap{"idea_id": idea.ID})

	return s.store.Comments.GetByID(ctx, comment.ID)
}

// AddReply answers a top-level comment. Replies to replies are rejected and a
// thread with replies disabled is locked.
func (s *CommentService) AddReply(ctx context.Context, in AddReplyInput) (reply *models.Comment, err error) {
	defer finish(ctx, "comment.reply", &err)

	content, err := validation.ValidateComment(in.Content)
	if err != nil {
		return nil, err
	}
	parent, err := s.store.Comments.GetByID(ctx, in.ParentID)
	if err != nil {
		return nil, err
	}
	idea, err := loadVisibleIdea(ctx, s.store, s.isAdmin, parent.IdeaID, in.ActorID)
	if err != nil {
		return nil, err
	}

	reply, err = models.NewReply(parent, in.ActorID, content)
	if err != nil {
		return nil, err
	}
	if parent.CommentIsDisabled {
		return nil, models.NewStageLockedError("Replies are disabled for this comment")
	}
	if err := s.store.Comments.Create(ctx, reply); err != nil {
		return nil, err
	}

	if parent.UserID != in.ActorID {
		s.effects.notify(ctx, models.Notification{
			UserID: parent.UserID,
			Kind:   models.NotificationInfo,
			Title:  "New reply",
			Body:   fmt.Sprintf("Someone replied to your comment on %q.", idea.Title),
			Link:   ideaLink(idea),
		})
	}
	s.effects.audit(ctx, "comment.replied", in.ActorID, "comment", reply.ID, datatypes.JSONMap{
		"idea_id":   idea.ID,
		"parent_id": parent.ID,
	})

	return s.store.Comments.GetByID(ctx, reply.ID)
}

// MarkAsRead stamps read_at the first time a non-author views the comment.
// Authors reading their own comments, and repeat reads, change nothing.
func (s *CommentService) MarkAsRead(ctx context.Context, in CommentActionInput) (comment *models.Comment, err error) {
	defer finish(ctx, "comment.mark_read", &err)

	comment, err = s.store.Comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if _, err := loadVisibleIdea(ctx, s.store, s.isAdmin, comment.IdeaID, in.ActorID); err != nil {
		return nil, err
	}
	if comment.UserID == in.ActorID {
		return comment, nil
	}

	updated, err := s.store.Comments.MarkRead(ctx, comment.ID, nowUTC())
	if err != nil {
		return nil, err
	}
	if !updated {
		return comment, nil
	}
	return s.store.Comments.GetByID(ctx, comment.ID)
}

// Delete removes a comment, and its replies, on behalf of its author.
func (s *CommentService) Delete(ctx context.Context, in CommentActionInput) (err error) {
	defer finish(ctx, "comment.delete", &err)

	comment, err := s.store.Comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if comment.UserID != in.ActorID {
		return models.NewPermissionDeniedError("You can only delete your own comments")
	}
	if err := s.store.Comments.Delete(ctx, comment.ID); err != nil {
		return err
	}

	s.effects.audit(ctx, "comment.deleted", in.ActorID, "comment", comment.ID, datatypes.JSONMap{"idea_id": comment.IdeaID})
	return nil
}

// Search lists top-level comments newest first, matching content or author
// name, filtered by read state.
func (s *CommentService) Search(ctx context.Context, in SearchCommentsInput) (page *CommentPage, err error) {
	defer finish(ctx, "comment.search", &err)

	if !in.Filter.Valid() {
		return nil, models.NewFieldValidationError(map[string]string{
			"filter": "The selected filter is invalid.",
		})
	}
	if _, err := loadVisibleIdea(ctx, s.store, s.isAdmin, in.IdeaID, in.ActorID); err != nil {
		return nil, err
	}

	p := in.Page.normalized()
	comments, total, err := s.store.Comments.Search(ctx, repository.CommentQuery{
		IdeaID: in.IdeaID,
		Search: in.Query,
		Filter: in.Filter,
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return nil, err
	}
	return &CommentPage{Comments: comments, Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

// Thread returns the full discussion oldest first for reading.
func (s *CommentService) Thread(ctx context.Context, actorID, ideaID uint) (comments []models.Comment, err error) {
	defer finish(ctx, "comment.thread", &err)

	if _, err := loadVisibleIdea(ctx, s.store, s.isAdmin, ideaID, actorID); err != nil {
		return nil, err
	}
	return s.store.Comments.Thread(ctx, ideaID)
}

// SetRepliesDisabled lets the idea owner close or reopen a thread to replies.
func (s *CommentService) SetRepliesDisabled(ctx context.Context, in SetRepliesDisabledInput) (comment *models.Comment, err error) {
	defer finish(ctx, "comment.set_replies_disabled", &err)

	comment, err = s.store.Comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.IsReply() {
		return nil, models.NewValidationError("Replies can only be disabled on top-level comments")
	}
	idea, err := s.store.Ideas.GetByID(ctx, comment.IdeaID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(idea, in.ActorID, "moderate replies"); err != nil {
		return nil, err
	}
	if err := s.store.Comments.SetRepliesDisabled(ctx, comment.ID, in.Disabled); err != nil {
		return nil, err
	}
	comment.CommentIsDisabled = in.Disabled

	s.effects.audit(ctx, "comment.replies_toggled", in.ActorID, "comment", comment.ID, datatypes.JSONMap{"disabled": in.Disabled})
	return comment, nil
}
