package server

import (
	"kenhavate/internal/models"
	"kenhavate/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// AddComment handles POST /api/ideas/:id/comments
func (s *Server) AddComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		ActorID: actor(c),
		IdeaID:  id,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// AddReply handles POST /api/comments/:commentId/replies
func (s *Server) AddReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	reply, err := s.commentService.AddReply(c.UserContext(), service.AddReplyInput{
		ActorID:  actor(c),
		ParentID: id,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(reply)
}

// CommentThread handles GET /api/ideas/:id/comments
func (s *Server) CommentThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	comments, err := s.commentService.Thread(c.UserContext(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// SearchComments handles GET /api/ideas/:id/comments/search?q=&filter=
func (s *Server) SearchComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := s.commentService.Search(c.UserContext(), service.SearchCommentsInput{
		ActorID: actor(c),
		IdeaID:  id,
		Query:   c.Query("q"),
		Filter:  models.CommentReadFilter(c.Query("filter")),
		Page:    parsePagination(c, defaultPaginationLimit).page(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// MarkCommentRead handles POST /api/comments/:commentId/read
func (s *Server) MarkCommentRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	comment, err := s.commentService.MarkAsRead(c.UserContext(), service.CommentActionInput{ActorID: actor(c), CommentID: id})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// SetRepliesDisabled handles PUT /api/comments/:commentId/replies-disabled
func (s *Server) SetRepliesDisabled(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req struct {
		Disabled bool `json:"disabled"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	comment, err := s.commentService.SetRepliesDisabled(c.UserContext(), service.SetRepliesDisabledInput{
		ActorID:   actor(c),
		CommentID: id,
		Disabled:  req.Disabled,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	if err := s.commentService.Delete(c.UserContext(), service.CommentActionInput{ActorID: actor(c), CommentID: id}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
