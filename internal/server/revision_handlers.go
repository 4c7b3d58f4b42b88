package server

import (
	"kenhavate/internal/models"
	"kenhavate/internal/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

// revisionPath parses :id and :number.
func (s *Server) revisionPath(c *fiber.Ctx) (uint, int, error) {
	ideaID, err := s.parseID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	number, err := parseNumber(c, "number", false)
	if err != nil {
		return 0, 0, err
	}
	return ideaID, number, nil
}

// CreateRevision handles POST /api/ideas/:id/revisions
func (s *Server) CreateRevision(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		RevisionType  models.RevisionType `json:"revision_type"`
		ChangedFields datatypes.JSONMap   `json:"changed_fields"`
		Summary       string              `json:"change_summary"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	rev, err := s.revisionService.CreateRevision(c.UserContext(), service.CreateRevisionInput{
		ActorID:       actor(c),
		IdeaID:        id,
		Type:          req.RevisionType,
		ChangedFields: req.ChangedFields,
		Summary:       req.Summary,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rev)
}

// ListRevisions handles GET /api/ideas/:id/revisions?status=
func (s *Server) ListRevisions(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	revs, err := s.revisionService.ListRevisions(c.UserContext(), actor(c), id, models.RevisionStatus(c.Query("status")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(revs)
}

// GetRevision handles GET /api/ideas/:id/revisions/:number
func (s *Server) GetRevision(c *fiber.Ctx) error {
	id, number, err := s.revisionPath(c)
	if err != nil {
		return nil
	}
	rev, err := s.revisionService.GetRevision(c.UserContext(), service.RevisionRef{ActorID: actor(c), IdeaID: id, Number: number})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rev)
}

// PreviewRevision handles GET /api/ideas/:id/revisions/:number/preview
func (s *Server) PreviewRevision(c *fiber.Ctx) error {
	id, number, err := s.revisionPath(c)
	if err != nil {
		return nil
	}
	preview, err := s.revisionService.PreviewRevision(c.UserContext(), service.RevisionRef{ActorID: actor(c), IdeaID: id, Number: number})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(preview)
}

// CompareRevisions handles GET /api/ideas/:id/revisions/compare?from=&to=
func (s *Server) CompareRevisions(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	from, err := parseNumber(c, "from", true)
	if err != nil {
		return nil
	}
	to, err := parseNumber(c, "to", true)
	if err != nil {
		return nil
	}
	diffs, err := s.revisionService.CompareRevisions(c.UserContext(), service.CompareRevisionsInput{
		ActorID: actor(c),
		IdeaID:  id,
		From:    from,
		To:      to,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"from": from, "to": to, "differences": diffs})
}

func (s *Server) reviewInput(c *fiber.Ctx) (service.ReviewRevisionInput, error) {
	id, number, err := s.revisionPath(c)
	if err != nil {
		return service.ReviewRevisionInput{}, err
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := optionalBody(c, &req); err != nil {
		return service.ReviewRevisionInput{}, err
	}
	return service.ReviewRevisionInput{ActorID: actor(c), IdeaID: id, Number: number, Reason: req.Reason}, nil
}

// AcceptRevision handles POST /api/ideas/:id/revisions/:number/accept
func (s *Server) AcceptRevision(c *fiber.Ctx) error {
	in, err := s.reviewInput(c)
	if err != nil {
		return nil
	}
	rev, err := s.revisionService.AcceptRevision(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rev)
}

// RejectRevision handles POST /api/ideas/:id/revisions/:number/reject
func (s *Server) RejectRevision(c *fiber.Ctx) error {
	in, err := s.reviewInput(c)
	if err != nil {
		return nil
	}
	rev, err := s.revisionService.RejectRevision(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rev)
}

// RollbackToRevision handles POST /api/ideas/:id/revisions/:number/rollback
func (s *Server) RollbackToRevision(c *fiber.Ctx) error {
	id, number, err := s.revisionPath(c)
	if err != nil {
		return nil
	}
	var req struct {
		Summary string `json:"change_summary"`
	}
	if err := optionalBody(c, &req); err != nil {
		return nil
	}
	rev, err := s.revisionService.RollbackToRevision(c.UserContext(), service.RollbackInput{
		ActorID: actor(c),
		IdeaID:  id,
		Number:  number,
		Summary: req.Summary,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(rev)
}
