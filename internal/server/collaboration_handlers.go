package server

import (
	"time"

	"kenhavate/internal/models"
	"kenhavate/internal/service"
	"kenhavate/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type respondRequest struct {
	Message string `json:"message"`
}

// optionalBody parses a body only when one was sent.
func optionalBody(c *fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return bindJSON(c, dst)
}

// ToggleCollaboration handles PUT /api/ideas/:id/collaboration
func (s *Server) ToggleCollaboration(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Enabled  bool       `json:"enabled"`
		Deadline *time.Time `json:"deadline"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	idea, err := s.collaborationService.ToggleCollaboration(c.UserContext(), service.ToggleCollaborationInput{
		ActorID:  actor(c),
		IdeaID:   id,
		Enabled:  req.Enabled,
		Deadline: req.Deadline,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(idea)
}

// SendInvitation handles POST /api/ideas/:id/invitations
func (s *Server) SendInvitation(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Email           string                 `json:"email"`
		PermissionLevel models.PermissionLevel `json:"permission_level"`
		Message         string                 `json:"message"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	invitation, err := s.collaborationService.SendInvitation(c.UserContext(), service.SendInvitationInput{
		ActorID:         actor(c),
		IdeaID:          id,
		InviteeEmail:    req.Email,
		PermissionLevel: req.PermissionLevel,
		Message:         req.Message,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invitation)
}

// SubmitCollaborationRequest handles POST /api/ideas/:id/collaboration-requests
func (s *Server) SubmitCollaborationRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req validation.CollaborationRequestInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	created, err := s.collaborationService.SubmitCollaborationRequest(c.UserContext(), service.CollaborationRequestInput{
		ActorID:                   actor(c),
		IdeaID:                    id,
		CollaborationRequestInput: req,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListPendingRequests handles GET /api/ideas/:id/collaboration-requests (idea author)
func (s *Server) ListPendingRequests(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	reqs, err := s.collaborationService.ListPendingRequests(c.UserContext(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reqs)
}

// ListCollaborators handles GET /api/ideas/:id/collaborators
func (s *Server) ListCollaborators(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	collabs, err := s.collaborationService.ListCollaborators(c.UserContext(), actor(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(collabs)
}

// ListMyInvitations handles GET /api/invitations
func (s *Server) ListMyInvitations(c *fiber.Ctx) error {
	reqs, err := s.collaborationService.ListMyInvitations(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reqs)
}

func (s *Server) respondInput(c *fiber.Ctx) (service.RespondInput, error) {
	id, err := s.parseID(c, "requestId")
	if err != nil {
		return service.RespondInput{}, err
	}
	var req respondRequest
	if err := optionalBody(c, &req); err != nil {
		return service.RespondInput{}, err
	}
	return service.RespondInput{ActorID: actor(c), RequestID: id, Message: req.Message}, nil
}

// AcceptRequest handles POST /api/collaboration-requests/:requestId/accept (idea author)
func (s *Server) AcceptRequest(c *fiber.Ctx) error {
	in, err := s.respondInput(c)
	if err != nil {
		return nil
	}
	collab, err := s.collaborationService.AcceptRequest(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(collab)
}

// DeclineRequest handles POST /api/collaboration-requests/:requestId/decline (idea author)
func (s *Server) DeclineRequest(c *fiber.Ctx) error {
	in, err := s.respondInput(c)
	if err != nil {
		return nil
	}
	if err := s.collaborationService.DeclineRequest(c.UserContext(), in); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AcceptInvitation handles POST /api/invitations/:requestId/accept (invitee)
func (s *Server) AcceptInvitation(c *fiber.Ctx) error {
	in, err := s.respondInput(c)
	if err != nil {
		return nil
	}
	collab, err := s.collaborationService.AcceptInvitation(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(collab)
}

// DeclineInvitation handles POST /api/invitations/:requestId/decline (invitee)
func (s *Server) DeclineInvitation(c *fiber.Ctx) error {
	in, err := s.respondInput(c)
	if err != nil {
		return nil
	}
	if err := s.collaborationService.DeclineInvitation(c.UserContext(), in); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// UpdatePermissions handles PUT /api/collaborators/:collaboratorId
func (s *Server) UpdatePermissions(c *fiber.Ctx) error {
	id, err := s.parseID(c, "collaboratorId")
	if err != nil {
		return nil
	}
	var req struct {
		PermissionLevel models.PermissionLevel `json:"permission_level"`
	}
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	collab, err := s.collaborationService.UpdatePermissions(c.UserContext(), service.UpdatePermissionsInput{
		ActorID:         actor(c),
		CollaboratorID:  id,
		PermissionLevel: req.PermissionLevel,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(collab)
}

// RemoveCollaborator handles DELETE /api/collaborators/:collaboratorId
func (s *Server) RemoveCollaborator(c *fiber.Ctx) error {
	id, err := s.parseID(c, "collaboratorId")
	if err != nil {
		return nil
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := optionalBody(c, &req); err != nil {
		return nil
	}
	if err := s.collaborationService.RemoveCollaborator(c.UserContext(), service.RemoveCollaboratorInput{
		ActorID:        actor(c),
		CollaboratorID: id,
		Reason:         req.Reason,
	}); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
