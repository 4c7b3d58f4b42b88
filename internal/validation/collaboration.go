package validation

import (
	"strings"

	"kenhavate/internal/models"
)

// CollaborationRequestInput is what a non-owner submits when asking to join an idea.
type CollaborationRequestInput struct {
	RequestMessage       string `json:"request_message" validate:"required,min=50,max=2000"`
	ProposedContribution string `json:"proposed_contribution" validate:"required,min=20,max=2000"`
	RequesterExperience  string `json:"requester_experience" validate:"required,min=20,max=2000"`
	TermsAccepted        bool   `json:"terms_accepted" validate:"required"`
}

// ValidateCollaborationRequest trims and checks a request to collaborate.
func ValidateCollaborationRequest(in CollaborationRequestInput) (CollaborationRequestInput, error) {
	in.RequestMessage = strings.TrimSpace(in.RequestMessage)
	in.ProposedContribution = strings.TrimSpace(in.ProposedContribution)
	in.RequesterExperience = strings.TrimSpace(in.RequesterExperience)
	return in, structError(validate.Struct(in))
}

type invitationInput struct {
	Email           string `json:"email" validate:"required,email,max=255"`
	PermissionLevel string `json:"permission_level" validate:"required,oneof=suggest edit"`
	Message         string `json:"message" validate:"max=500"`
}

// ValidateInvitation checks the invitee address, permission level and optional message.
func ValidateInvitation(email string, level models.PermissionLevel, message string) error {
	return structError(validate.Struct(invitationInput{
		Email:           strings.TrimSpace(email),
		PermissionLevel: string(level),
		Message:         strings.TrimSpace(message),
	}))
}

type responseInput struct {
	ResponseMessage string `json:"response_message" validate:"max=500"`
}

// ValidateResponseMessage limits the optional note attached to a decline.
func ValidateResponseMessage(message string) error {
	return structError(validate.Struct(responseInput{ResponseMessage: strings.TrimSpace(message)}))
}

type permissionInput struct {
	PermissionLevel string `json:"permission_level" validate:"required,oneof=suggest edit"`
}

// ValidatePermissionLevel accepts only suggest or edit.
func ValidatePermissionLevel(level models.PermissionLevel) error {
	return structError(validate.Struct(permissionInput{PermissionLevel: string(level)}))
}

type commentInput struct {
	Content string `json:"content" validate:"required,max=1000"`
}

// ValidateComment requires non-blank content within the comment length limit.
func ValidateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	return content, structError(validate.Struct(commentInput{Content: content}))
}
