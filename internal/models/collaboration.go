package models

import "time"

// PermissionLevel records the access an author granted a collaborator. It is
// shown on invitations and collaborator lists; both levels submit revisions
// that wait for the author's review.
type PermissionLevel string

const (
	// PermissionSuggest is granted to collaborators who propose wording changes.
	PermissionSuggest PermissionLevel = "suggest"
	// PermissionEdit is granted to co-authors. Their revisions are still pending
	// until the author accepts them.
	PermissionEdit PermissionLevel = "edit"
)

// Valid reports whether p is a known permission level.
func (p PermissionLevel) Valid() bool {
	return p == PermissionSuggest || p == PermissionEdit
}

// IdeaCollaborator is an accepted participant on an idea. Rows are deactivated,
// never deleted, so (idea, user) has at most one row and at most one active row.
type IdeaCollaborator struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	IdeaID          uint            `gorm:"not null;uniqueIndex:idx_collaborators_idea_user" json:"idea_id"`
	Idea            *Idea           `gorm:"foreignKey:IdeaID" json:"idea,omitempty"`
	UserID          uint            `gorm:"not null;uniqueIndex:idx_collaborators_idea_user" json:"user_id"`
	User            *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PermissionLevel PermissionLevel `gorm:"type:varchar(20);not null" json:"permission_level"`
	Active          bool            `gorm:"not null;index" json:"active"`
	JoinedAt        time.Time       `json:"joined_at"`
	RemovedAt       *time.Time      `json:"removed_at,omitempty"`
	RemovalReason   string          `gorm:"type:text" json:"removal_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CollaborationRequestKind tells which party initiated a collaboration request.
type CollaborationRequestKind string

const (
	// CollaborationKindRequest is a non-owner asking to join; the owner resolves it.
	CollaborationKindRequest CollaborationRequestKind = "request"
	// CollaborationKindInvitation is the owner inviting a user; the invitee resolves it.
	CollaborationKindInvitation CollaborationRequestKind = "invitation"
)

// CollaborationRequestStatus defines lifecycle states for collaboration requests.
type CollaborationRequestStatus string

const (
	// CollaborationStatusPending indicates the request awaits a response.
	CollaborationStatusPending CollaborationRequestStatus = "pending"
	// CollaborationStatusAccepted indicates the request was accepted.
	CollaborationStatusAccepted CollaborationRequestStatus = "accepted"
	// CollaborationStatusDeclined indicates the request was declined.
	CollaborationStatusDeclined CollaborationRequestStatus = "declined"
)

// CollaborationRequest is an invitation or an application to collaborate on an idea.
// UserID is always the non-owner party (requester or invitee).
type CollaborationRequest struct {
	ID                   uint                       `gorm:"primaryKey" json:"id"`
	IdeaID               uint                       `gorm:"not null;index;uniqueIndex:idx_collaboration_requests_pending,where:status = 'pending'" json:"idea_id"`
	Idea                 *Idea                      `gorm:"foreignKey:IdeaID" json:"idea,omitempty"`
	UserID               uint                       `gorm:"not null;index;uniqueIndex:idx_collaboration_requests_pending,where:status = 'pending'" json:"user_id"`
	User                 *User                      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	InviterID            *uint                      `json:"inviter_id"`
	Inviter              *User                      `gorm:"foreignKey:InviterID" json:"inviter,omitempty"`
	Kind                 CollaborationRequestKind   `gorm:"type:varchar(20);not null" json:"kind"`
	Status               CollaborationRequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PermissionLevel      PermissionLevel            `gorm:"type:varchar(20);not null" json:"permission_level"`
	RequestMessage       string                     `gorm:"type:text" json:"request_message"`
	ProposedContribution string                     `gorm:"type:text" json:"proposed_contribution"`
	RequesterExperience  string                     `gorm:"type:text" json:"requester_experience"`
	ResponseMessage      string                     `gorm:"type:text" json:"response_message"`
	RequestedAt          time.Time                  `json:"requested_at"`
	ResponseAt           *time.Time                 `json:"response_at"`
	RespondedByID        *uint                      `json:"responded_by_id"`
	CreatedAt            time.Time                  `json:"created_at"`
	UpdatedAt            time.Time                  `json:"updated_at"`
}

// Responder returns the user entitled to resolve the request.
func (r *CollaborationRequest) Responder(ideaOwnerID uint) uint {
	if r.Kind == CollaborationKindInvitation {
		return r.UserID
	}
	return ideaOwnerID
}
