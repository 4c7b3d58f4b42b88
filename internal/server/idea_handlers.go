package server

import (
	"encoding/json"
	"strings"

	"kenhavate/internal/models"
	"kenhavate/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ideaPayload reads the idea fields and optional attachment. JSON bodies carry
// the fields directly; multipart bodies carry them as a "payload" JSON part
// next to an "attachment" file part.
func ideaPayload(c *fiber.Ctx) (models.IdeaFields, *service.AttachmentInput, func(), error) {
	var fields models.IdeaFields
	noop := func() {}

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if err := bindJSON(c, &fields); err != nil {
			return fields, nil, noop, err
		}
		return fields, nil, noop, nil
	}

	if raw := c.FormValue("payload"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid payload"))
			return fields, nil, noop, errResponseWritten
		}
	}

	fh, err := c.FormFile("attachment")
	if err != nil {
		// No file part is fine.
		return fields, nil, noop, nil
	}
	file, err := fh.Open()
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusUnprocessableEntity, models.NewAttachmentError(err))
		return fields, nil, noop, errResponseWritten
	}
	return fields, &service.AttachmentInput{
		Filename: fh.Filename,
		MimeType: fh.Header.Get(fiber.HeaderContentType),
		Reader:   file,
	}, func() { _ = file.Close() }, nil
}

// SaveDraft handles PUT /api/ideas/draft
func (s *Server) SaveDraft(c *fiber.Ctx) error {
	fields, att, done, err := ideaPayload(c)
	if err != nil {
		return nil
	}
	defer done()

	idea, err := s.ideaService.SaveDraft(c.UserContext(), service.SaveDraftInput{
		ActorID:    actor(c),
		Fields:     fields,
		Attachment: att,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(idea)
}

// SubmitIdea handles POST /api/ideas/submit
func (s *Server) SubmitIdea(c *fiber.Ctx) error {
	fields, att, done, err := ideaPayload(c)
	if err != nil {
		return nil
	}
	defer done()

	idea, err := s.ideaService.Submit(c.UserContext(), service.SubmitInput{
		ActorID:    actor(c),
		Fields:     fields,
		Attachment: att,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(idea)
}

// GetIdea handles GET /api/ideas/:id
func (s *Server) GetIdea(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	idea, err := s.ideaService.GetIdea(c.UserContext(), service.IdeaActionInput{ActorID: actor(c), IdeaID: id})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(idea)
}

// GetIdeaBySlug handles GET /api/ideas/slug/:slug
func (s *Server) GetIdeaBySlug(c *fiber.Ctx) error {
	idea, err := s.ideaService.GetIdeaBySlug(c.UserContext(), actor(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(idea)
}

// ListMyIdeas handles GET /api/ideas?status=&limit=&offset=
func (s *Server) ListMyIdeas(c *fiber.Ctx) error {
	ideas, err := s.ideaService.ListMyIdeas(c.UserContext(), service.ListIdeasInput{
		ActorID: actor(c),
		Status:  models.IdeaStatus(c.Query("status")),
		Page:    parsePagination(c, defaultPaginationLimit).page(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ideas)
}

// ReopenForEdit handles POST /api/ideas/:id/reopen
func (s *Server) ReopenForEdit(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	idea, err := s.ideaService.ReopenForEdit(c.UserContext(), service.IdeaActionInput{ActorID: actor(c), IdeaID: id})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(idea)
}

// DeleteDraft handles DELETE /api/ideas/:id
func (s *Server) DeleteDraft(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.ideaService.DeleteDraft(c.UserContext(), service.IdeaActionInput{ActorID: actor(c), IdeaID: id}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdvanceStatus handles POST /api/ideas/:id/status (reviewers)
func (s *Server) AdvanceStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status models.IdeaStatus `json:"status"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	idea, err := s.ideaService.AdvanceStatus(c.UserContext(), service.AdvanceStatusInput{
		ActorID: actor(c),
		IdeaID:  id,
		To:      req.Status,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(idea)
}

// ListThematicAreas handles GET /api/thematic-areas
func (s *Server) ListThematicAreas(c *fiber.Ctx) error {
	areas, err := s.ideaService.ListThematicAreas(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(areas)
}
