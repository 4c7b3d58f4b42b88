package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kenhavate/internal/models"
	"kenhavate/internal/repository"
	"kenhavate/internal/validation"

	"gorm.io/datatypes"
)

// CollaborationService manages invitations, requests to join and the
// collaborator roster of an idea.
type CollaborationService struct {
	store   *repository.Store
	effects Effects
	isAdmin AdminCheck
	now     func() time.Time
}

type ToggleCollaborationInput struct {
	ActorID  uint
	IdeaID   uint
	Enabled  bool
	Deadline *time.Time
}

type SendInvitationInput struct {
	ActorID         uint
	IdeaID          uint
	InviteeEmail    string
	PermissionLevel models.PermissionLevel
	Message         string
}

type CollaborationRequestInput struct {
	ActorID uint
	IdeaID  uint
	validation.CollaborationRequestInput
}

type RespondInput struct {
	ActorID   uint
	RequestID uint
	Message   string
}

type RemoveCollaboratorInput struct {
	ActorID        uint
	CollaboratorID uint
	Reason         string
}

type UpdatePermissionsInput struct {
	ActorID         uint
	CollaboratorID  uint
	PermissionLevel models.PermissionLevel
}

func NewCollaborationService(store *repository.Store, effects Effects, isAdmin AdminCheck) *CollaborationService {
	return &CollaborationService{
		store:   store,
		effects: effects,
		isAdmin: isAdmin,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ToggleCollaboration opens or closes an idea to new collaborators. Closing it
// keeps the current roster; it only stops new acceptances.
func (s *CollaborationService) ToggleCollaboration(ctx context.Context, in ToggleCollaborationInput) (idea *models.Idea, err error) {
	defer finish(ctx, "collaboration.toggle", &err)

	idea, err = s.store.Ideas.GetByID(ctx, in.IdeaID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(idea, in.ActorID, "change collaboration settings"); err != nil {
		return nil, err
	}
	if idea.Status.Terminal() {
		return nil, models.NewStageLockedError("Collaboration cannot be changed once an idea has been decided")
	}

	deadline := in.Deadline
	if in.Enabled && deadline != nil && !deadline.After(s.now()) {
		return nil, models.NewFieldValidationError(map[string]string{
			"collaboration_deadline": "The collaboration deadline must be a date in the future.",
		})
	}
	if !in.Enabled {
		deadline = idea.CollaborationDeadline
	}

	if err := s.store.Ideas.SetCollaboration(ctx, idea.ID, in.Enabled, deadline); err != nil {
		return nil, err
	}

	title := "Collaboration disabled"
	if in.Enabled {
		title = "Collaboration enabled"
	}
	s.effects.notify(ctx, models.Notification{
		UserID: in.ActorID,
		Kind:   models.NotificationInfo,
		Title:  title,
		Body:   fmt.Sprintf("Collaboration settings for %q were updated.", idea.Title),
		Link:   ideaLink(idea),
	})
	payload := datatypes.JSONMap{"enabled": in.Enabled}
	if deadline != nil {
		payload["deadline"] = deadline.Format(time.RFC3339)
	}
	s.effects.audit(ctx, "collaboration.toggled", in.ActorID, "idea", idea.ID, payload)

	return s.store.Ideas.GetByID(ctx, idea.ID)
}

// SendInvitation invites a registered user, by email, to collaborate.
func (s *CollaborationService) SendInvitation(ctx context.Context, in SendInvitationInput) (req *models.CollaborationRequest, err error) {
	defer finish(ctx, "collaboration.invite", &err)

	if err := validation.ValidateInvitation(in.InviteeEmail, in.PermissionLevel, in.Message); err != nil {
		return nil, err
	}

	idea, err := s.store.Ideas.GetByID(ctx, in.IdeaID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(idea, in.ActorID, "invite collaborators"); err != nil {
		return nil, err
	}
	if err := s.checkOpen(idea); err != nil {
		return nil, err
	}

	invitee, err := s.store.Users.GetByEmail(ctx, strings.TrimSpace(in.InviteeEmail))
	if err != nil {
		return nil, err
	}
	if invitee.ID == in.ActorID {
		return nil, models.NewFieldValidationError(map[string]string{
			"email": "You cannot invite yourself to collaborate.",
		})
	}
	if err := s.rejectActive(ctx, s.store, idea.ID, invitee.ID); err != nil {
		return nil, err
	}

	inviterID := in.ActorID
	req = &models.CollaborationRequest{
		IdeaID:          idea.ID,
		UserID:          invitee.ID,
		InviterID:       &inviterID,
		Kind:            models.CollaborationKindInvitation,
		Status:          models.CollaborationStatusPending,
		PermissionLevel: in.PermissionLevel,
		RequestMessage:  strings.TrimSpace(in.Message),
		RequestedAt:     s.now(),
	}
	if err := s.store.Collaborations.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: invitee.ID,
		Kind:   models.NotificationInfo,
		Title:  "Collaboration invitation",
		Body:   fmt.Sprintf("You have been invited to collaborate on %q.", idea.Title),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "collaboration.invitation_sent", in.ActorID, "collaboration_request", req.ID, datatypes.JSONMap{
		"idea_id":          idea.ID,
		"invitee_id":       invitee.ID,
		"permission_level": string(in.PermissionLevel),
	})
	return req, nil
}

// SubmitCollaborationRequest lets a non-owner ask to join an idea. Requests are
// filed at suggest level; the owner can raise it after accepting.
func (s *CollaborationService) SubmitCollaborationRequest(ctx context.Context, in CollaborationRequestInput) (req *models.CollaborationRequest, err error) {
	defer finish(ctx, "collaboration.request", &err)

	form, err := validation.ValidateCollaborationRequest(in.CollaborationRequestInput)
	if err != nil {
		return nil, err
	}

	idea, err := loadVisibleIdea(ctx, s.store, s.isAdmin, in.IdeaID, in.ActorID)
	if err != nil {
		return nil, err
	}
	if idea.IsOwnedBy(in.ActorID) {
		return nil, models.NewPermissionDeniedError("You cannot request to collaborate on your own idea")
	}
	if err := s.checkOpen(idea); err != nil {
		return nil, err
	}
	if err := s.rejectActive(ctx, s.store, idea.ID, in.ActorID); err != nil {
		return nil, err
	}

	req = &models.CollaborationRequest{
		IdeaID:               idea.ID,
		UserID:               in.ActorID,
		Kind:                 models.CollaborationKindRequest,
		Status:               models.CollaborationStatusPending,
		PermissionLevel:      models.PermissionSuggest,
		RequestMessage:       form.RequestMessage,
		ProposedContribution: form.ProposedContribution,
		RequesterExperience:  form.RequesterExperience,
		RequestedAt:          s.now(),
	}
	if err := s.store.Collaborations.CreateRequest(ctx, req); err != nil {
		return nil, err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: idea.UserID,
		Kind:   models.NotificationInfo,
		Title:  "New collaboration request",
		Body:   fmt.Sprintf("Someone has asked to collaborate on %q.", idea.Title),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "collaboration.request_submitted", in.ActorID, "collaboration_request", req.ID, datatypes.JSONMap{
		"idea_id": idea.ID,
	})
	return req, nil
}

// AcceptRequest is the owner accepting a request to join.
func (s *CollaborationService) AcceptRequest(ctx context.Context, in RespondInput) (collab *models.IdeaCollaborator, err error) {
	defer finish(ctx, "collaboration.accept_request", &err)
	return s.accept(ctx, in, models.CollaborationKindRequest)
}

// AcceptInvitation is the invitee accepting an invitation.
func (s *CollaborationService) AcceptInvitation(ctx context.Context, in RespondInput) (collab *models.IdeaCollaborator, err error) {
	defer finish(ctx, "collaboration.accept_invitation", &err)
	return s.accept(ctx, in, models.CollaborationKindInvitation)
}

// DeclineRequest is the owner turning down a request to join.
func (s *CollaborationService) DeclineRequest(ctx context.Context, in RespondInput) (err error) {
	defer finish(ctx, "collaboration.decline_request", &err)
	return s.decline(ctx, in, models.CollaborationKindRequest)
}

// DeclineInvitation is the invitee turning down an invitation.
func (s *CollaborationService) DeclineInvitation(ctx context.Context, in RespondInput) (err error) {
	defer finish(ctx, "collaboration.decline_invitation", &err)
	return s.decline(ctx, in, models.CollaborationKindInvitation)
}

// accept resolves the request and activates the collaborator in one
// transaction. The conditional resolve makes a concurrent second accept fail
// with InvalidState before any collaborator row is touched.
func (s *CollaborationService) accept(ctx context.Context, in RespondInput, kind models.CollaborationRequestKind) (*models.IdeaCollaborator, error) {
	if err := validation.ValidateResponseMessage(in.Message); err != nil {
		return nil, err
	}

	var (
		collab *models.IdeaCollaborator
		req    *models.CollaborationRequest
		idea   *models.Idea
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		req, idea, err = s.loadForResponse(ctx, tx, in, kind)
		if err != nil {
			return err
		}
		if !idea.CollaborationEnabled {
			return models.NewPermissionDeniedError("Collaboration is not enabled for this idea")
		}
		now := s.now()
		if !idea.CollaborationOpen(now) {
			return models.NewInvalidStateError("The collaboration deadline for this idea has passed")
		}

		if err := tx.Collaborations.ResolveRequest(ctx, req.ID, models.CollaborationStatusAccepted, in.ActorID, strings.TrimSpace(in.Message), now); err != nil {
			return err
		}
		collab, err = tx.Collaborations.ActivateCollaborator(ctx, idea.ID, req.UserID, req.PermissionLevel, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: s.counterparty(req, idea, in.ActorID),
		Kind:   models.NotificationSuccess,
		Title:  "Collaboration accepted",
		Body:   fmt.Sprintf("Collaboration on %q has been accepted.", idea.Title),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "collaboration."+string(kind)+"_accepted", in.ActorID, "collaboration_request", req.ID, datatypes.JSONMap{
		"idea_id":          idea.ID,
		"collaborator_id":  collab.ID,
		"user_id":          req.UserID,
		"permission_level": string(collab.PermissionLevel),
	})
	return collab, nil
}

func (s *CollaborationService) decline(ctx context.Context, in RespondInput, kind models.CollaborationRequestKind) error {
	if err := validation.ValidateResponseMessage(in.Message); err != nil {
		return err
	}

	var (
		req  *models.CollaborationRequest
		idea *models.Idea
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		req, idea, err = s.loadForResponse(ctx, tx, in, kind)
		if err != nil {
			return err
		}
		return tx.Collaborations.ResolveRequest(ctx, req.ID, models.CollaborationStatusDeclined, in.ActorID, strings.TrimSpace(in.Message), s.now())
	})
	if err != nil {
		return err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: s.counterparty(req, idea, in.ActorID),
		Kind:   models.NotificationInfo,
		Title:  "Collaboration declined",
		Body:   fmt.Sprintf("Collaboration on %q was declined.", idea.Title),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "collaboration."+string(kind)+"_declined", in.ActorID, "collaboration_request", req.ID, datatypes.JSONMap{
		"idea_id": idea.ID,
		"user_id": req.UserID,
	})
	return nil
}

// loadForResponse locks the idea and checks that the actor is the party
// entitled to resolve a still-pending request of the given kind.
func (s *CollaborationService) loadForResponse(
	ctx context.Context,
	tx *repository.Store,
	in RespondInput,
	kind models.CollaborationRequestKind,
) (*models.CollaborationRequest, *models.Idea, error) {
	req, err := tx.Collaborations.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, nil, err
	}
	if req.Kind != kind {
		return nil, nil, models.NewInvalidStateError(fmt.Sprintf("This collaboration request is not an %s", article(kind)))
	}
	idea, err := tx.Ideas.GetForUpdate(ctx, req.IdeaID)
	if err != nil {
		return nil, nil, err
	}
	if req.Responder(idea.UserID) != in.ActorID {
		return nil, nil, models.NewPermissionDeniedError("You cannot respond to this collaboration request")
	}
	if req.Status != models.CollaborationStatusPending {
		return nil, nil, models.NewInvalidStateError("Collaboration request has already been resolved")
	}
	return req, idea, nil
}

func article(kind models.CollaborationRequestKind) string {
	if kind == models.CollaborationKindInvitation {
		return "invitation"
	}
	return "open request"
}

// counterparty is whoever did not act: the requester or invitee when the owner
// responds, the owner when the invitee responds.
func (s *CollaborationService) counterparty(req *models.CollaborationRequest, idea *models.Idea, actorID uint) uint {
	if actorID == idea.UserID {
		return req.UserID
	}
	return idea.UserID
}

// RemoveCollaborator deactivates a collaborator; the row is kept for history.
func (s *CollaborationService) RemoveCollaborator(ctx context.Context, in RemoveCollaboratorInput) (err error) {
	defer finish(ctx, "collaboration.remove", &err)

	collab, idea, err := s.ownedCollaborator(ctx, in.CollaboratorID, in.ActorID, "remove collaborators")
	if err != nil {
		return err
	}
	reason := strings.TrimSpace(in.Reason)
	if err := s.store.Collaborations.DeactivateCollaborator(ctx, collab.ID, reason, s.now()); err != nil {
		return err
	}

	s.effects.notify(ctx, models.Notification{
		UserID: collab.UserID,
		Kind:   models.NotificationInfo,
		Title:  "Removed from collaboration",
		Body:   fmt.Sprintf("You are no longer a collaborator on %q.", idea.Title),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "collaboration.collaborator_removed", in.ActorID, "idea_collaborator", collab.ID, datatypes.JSONMap{
		"idea_id": idea.ID,
		"user_id": collab.UserID,
		"reason":  reason,
	})
	return nil
}

// UpdatePermissions changes an active collaborator's permission level.
func (s *CollaborationService) UpdatePermissions(ctx context.Context, in UpdatePermissionsInput) (collab *models.IdeaCollaborator, err error) {
	defer finish(ctx, "collaboration.update_permissions", &err)

	if err := validation.ValidatePermissionLevel(in.PermissionLevel); err != nil {
		return nil, err
	}
	collab, idea, err := s.ownedCollaborator(ctx, in.CollaboratorID, in.ActorID, "change collaborator permissions")
	if err != nil {
		return nil, err
	}
	previous := collab.PermissionLevel
	if err := s.store.Collaborations.UpdatePermission(ctx, collab.ID, in.PermissionLevel); err != nil {
		return nil, err
	}
	collab.PermissionLevel = in.PermissionLevel

	s.effects.notify(ctx, models.Notification{
		UserID: collab.UserID,
		Kind:   models.NotificationInfo,
		Title:  "Collaboration permissions updated",
		Body:   fmt.Sprintf("Your permission on %q is now %s.", idea.Title, in.PermissionLevel),
		Link:   ideaLink(idea),
	})
	s.effects.audit(ctx, "collaboration.permissions_updated", in.ActorID, "idea_collaborator", collab.ID, datatypes.JSONMap{
		"from": string(previous),
		"to":   string(in.PermissionLevel),
	})
	return collab, nil
}

func (s *CollaborationService) ownedCollaborator(ctx context.Context, collaboratorID, actorID uint, action string) (*models.IdeaCollaborator, *models.Idea, error) {
	collab, err := s.store.Collaborations.GetCollaborator(ctx, collaboratorID)
	if err != nil {
		return nil, nil, err
	}
	idea, err := s.store.Ideas.GetByID(ctx, collab.IdeaID)
	if err != nil {
		return nil, nil, err
	}
	if err := requireOwner(idea, actorID, action); err != nil {
		return nil, nil, err
	}
	if !collab.Active {
		return nil, nil, models.NewInvalidStateError("Collaborator is no longer active")
	}
	return collab, idea, nil
}

// ListCollaborators returns the active roster of an idea the actor can see.
func (s *CollaborationService) ListCollaborators(ctx context.Context, actorID, ideaID uint) (collabs []models.IdeaCollaborator, err error) {
	defer finish(ctx, "collaboration.list", &err)

	if _, err := loadVisibleIdea(ctx, s.store, s.isAdmin, ideaID, actorID); err != nil {
		return nil, err
	}
	return s.store.Collaborations.ListCollaborators(ctx, ideaID, true)
}

// ListPendingRequests returns pending requests and invitations on the actor's idea.
func (s *CollaborationService) ListPendingRequests(ctx context.Context, actorID, ideaID uint) (reqs []models.CollaborationRequest, err error) {
	defer finish(ctx, "collaboration.list_pending", &err)

	idea, err := s.store.Ideas.GetByID(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(idea, actorID, "view collaboration requests"); err != nil {
		return nil, err
	}
	return s.store.Collaborations.ListPendingForIdea(ctx, ideaID)
}

// ListMyInvitations returns invitations awaiting the actor's answer.
func (s *CollaborationService) ListMyInvitations(ctx context.Context, actorID uint) (reqs []models.CollaborationRequest, err error) {
	defer finish(ctx, "collaboration.list_invitations", &err)
	return s.store.Collaborations.ListPendingInvitations(ctx, actorID)
}

// checkOpen gates new requests and invitations.
func (s *CollaborationService) checkOpen(idea *models.Idea) error {
	if idea.Status.Terminal() {
		return models.NewStageLockedError("This idea is no longer open for collaboration")
	}
	if !idea.CollaborationEnabled {
		return models.NewPermissionDeniedError("Collaboration is not enabled for this idea")
	}
	if !idea.CollaborationOpen(s.now()) {
		return models.NewInvalidStateError("The collaboration deadline for this idea has passed")
	}
	return nil
}

func (s *CollaborationService) rejectActive(ctx context.Context, store *repository.Store, ideaID, userID uint) error {
	existing, err := store.Collaborations.FindActiveCollaborator(ctx, ideaID, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return models.NewDuplicateCollaboratorError("User is already a collaborator on this idea")
	}
	return nil
}
