package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// IdeaStatus defines the lifecycle state of an idea.
type IdeaStatus string

const (
	// IdeaStatusDraft is an editable, unsubmitted idea.
	IdeaStatusDraft IdeaStatus = "draft"
	// IdeaStatusSubmitted is an idea whose required fields passed validation.
	IdeaStatusSubmitted IdeaStatus = "submitted"
	// IdeaStatusInReview is an idea picked up by reviewers.
	IdeaStatusInReview IdeaStatus = "in_review"
	// IdeaStatusApproved is a terminal accepted idea.
	IdeaStatusApproved IdeaStatus = "approved"
	// IdeaStatusRejected is a terminal declined idea.
	IdeaStatusRejected IdeaStatus = "rejected"
)

// forwardTransitions lists the permitted status edges; submitted -> draft is the
// only backwards edge.
var forwardTransitions = map[IdeaStatus][]IdeaStatus{
	IdeaStatusDraft:     {IdeaStatusSubmitted},
	IdeaStatusSubmitted: {IdeaStatusInReview, IdeaStatusDraft},
	IdeaStatusInReview:  {IdeaStatusApproved, IdeaStatusRejected},
}

// CanTransition reports whether an idea may move from s to next.
func (s IdeaStatus) CanTransition(next IdeaStatus) bool {
	for _, allowed := range forwardTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether the idea content may still be changed by its author.
func (s IdeaStatus) Editable() bool {
	return s == IdeaStatusDraft || s == IdeaStatusSubmitted
}

// Terminal reports whether no further transitions exist.
func (s IdeaStatus) Terminal() bool {
	return s == IdeaStatusApproved || s == IdeaStatusRejected
}

// TeamMember is one entry of an idea's ordered team list.
type TeamMember struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Organization string `json:"organization"`
}

// Revisable idea field names. These double as column names and as the keys of
// a revision's changed fields.
const (
	FieldTitle                  = "title"
	FieldThematicAreaID         = "thematic_area_id"
	FieldAbstract               = "abstract"
	FieldProblemStatement       = "problem_statement"
	FieldProposedSolution       = "proposed_solution"
	FieldCostBenefitAnalysis    = "cost_benefit_analysis"
	FieldDeclarationOfInterests = "declaration_of_interests"
	FieldOriginalIdeaDisclaimer = "original_idea_disclaimer"
	FieldTeamEffort             = "team_effort"
	FieldTeamMembers            = "team_members"
)

// RevisableFields is the canonical field order used when presenting revisions.
var RevisableFields = []string{
	FieldTitle,
	FieldThematicAreaID,
	FieldAbstract,
	FieldProblemStatement,
	FieldProposedSolution,
	FieldCostBenefitAnalysis,
	FieldDeclarationOfInterests,
	FieldOriginalIdeaDisclaimer,
	FieldTeamEffort,
	FieldTeamMembers,
}

// IsRevisableField reports whether name is a known idea field.
func IsRevisableField(name string) bool {
	for _, f := range RevisableFields {
		if f == name {
			return true
		}
	}
	return false
}

// TeamMemberList is stored as a JSON array column.
type TeamMemberList = datatypes.JSONSlice[TeamMember]

// Idea is the central proposal record.
type Idea struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	Title                  string         `gorm:"size:255;not null" json:"title"`
	Slug                   string         `gorm:"size:160;not null;uniqueIndex" json:"slug"`
	ThematicAreaID         *uint          `gorm:"index" json:"thematic_area_id"`
	ThematicArea           *ThematicArea  `gorm:"foreignKey:ThematicAreaID" json:"thematic_area,omitempty"`
	Abstract               string         `gorm:"type:text" json:"abstract"`
	ProblemStatement       string         `gorm:"type:text" json:"problem_statement"`
	ProposedSolution       string         `gorm:"type:text" json:"proposed_solution"`
	CostBenefitAnalysis    string         `gorm:"type:text" json:"cost_benefit_analysis"`
	DeclarationOfInterests string         `gorm:"type:text" json:"declaration_of_interests"`
	OriginalIdeaDisclaimer bool           `gorm:"not null" json:"original_idea_disclaimer"`
	CollaborationEnabled   bool           `gorm:"not null" json:"collaboration_enabled"`
	CollaborationDeadline  *time.Time     `json:"collaboration_deadline"`
	TeamEffort             bool           `gorm:"not null" json:"team_effort"`
	TeamMembers            TeamMemberList `json:"team_members"`
	Status                 IdeaStatus     `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CurrentRevisionNumber  int            `gorm:"not null;default:0" json:"current_revision_number"`
	AttachmentData         []byte         `json:"-"`
	AttachmentFilename     string         `gorm:"size:255" json:"attachment_filename,omitempty"`
	AttachmentMime         string         `gorm:"size:120" json:"attachment_mime,omitempty"`
	AttachmentSize         int64          `json:"attachment_size,omitempty"`
	UserID                 uint           `gorm:"not null;uniqueIndex:idx_ideas_single_draft,where:status = 'draft'" json:"user_id"`
	User                   *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SubmittedAt            *time.Time     `json:"submitted_at"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// IsOwnedBy reports whether userID authored the idea.
func (i *Idea) IsOwnedBy(userID uint) bool {
	return i.UserID == userID
}

// CollaborationOpen reports whether new collaborators may join at time now.
func (i *Idea) CollaborationOpen(now time.Time) bool {
	if !i.CollaborationEnabled {
		return false
	}
	return i.CollaborationDeadline == nil || now.Before(*i.CollaborationDeadline)
}

// IdeaFields is the user-editable content of an idea.
type IdeaFields struct {
	Title                  string       `json:"title"`
	ThematicAreaID         *uint        `json:"thematic_area_id"`
	Abstract               string       `json:"abstract"`
	ProblemStatement       string       `json:"problem_statement"`
	ProposedSolution       string       `json:"proposed_solution"`
	CostBenefitAnalysis    string       `json:"cost_benefit_analysis"`
	DeclarationOfInterests string       `json:"declaration_of_interests"`
	OriginalIdeaDisclaimer bool         `json:"original_idea_disclaimer"`
	TeamEffort             bool         `json:"team_effort"`
	TeamMembers            []TeamMember `json:"team_members"`
}

// Fields returns the idea's current editable content.
func (i *Idea) Fields() IdeaFields {
	members := make([]TeamMember, len(i.TeamMembers))
	copy(members, i.TeamMembers)
	return IdeaFields{
		Title:                  i.Title,
		ThematicAreaID:         i.ThematicAreaID,
		Abstract:               i.Abstract,
		ProblemStatement:       i.ProblemStatement,
		ProposedSolution:       i.ProposedSolution,
		CostBenefitAnalysis:    i.CostBenefitAnalysis,
		DeclarationOfInterests: i.DeclarationOfInterests,
		OriginalIdeaDisclaimer: i.OriginalIdeaDisclaimer,
		TeamEffort:             i.TeamEffort,
		TeamMembers:            members,
	}
}

// SetFields overwrites the idea's editable content.
func (i *Idea) SetFields(f IdeaFields) {
	i.Title = f.Title
	i.ThematicAreaID = f.ThematicAreaID
	i.Abstract = f.Abstract
	i.ProblemStatement = f.ProblemStatement
	i.ProposedSolution = f.ProposedSolution
	i.CostBenefitAnalysis = f.CostBenefitAnalysis
	i.DeclarationOfInterests = f.DeclarationOfInterests
	i.OriginalIdeaDisclaimer = f.OriginalIdeaDisclaimer
	i.TeamEffort = f.TeamEffort
	i.TeamMembers = TeamMemberList(f.TeamMembers)
}

// ChangedFields renders f as a revision field map holding every revisable field.
func (f IdeaFields) ChangedFields() (datatypes.JSONMap, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	out := datatypes.JSONMap{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshot returns the idea's live values for the given field names.
func (i *Idea) Snapshot(keys []string) (datatypes.JSONMap, error) {
	all, err := i.Fields().ChangedFields()
	if err != nil {
		return nil, err
	}
	out := datatypes.JSONMap{}
	for _, k := range keys {
		if v, ok := all[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// Apply writes revision field values onto the idea. Unknown keys are rejected.
func (i *Idea) Apply(changes datatypes.JSONMap) error {
	current, err := i.Fields().ChangedFields()
	if err != nil {
		return err
	}
	for k, v := range changes {
		if !IsRevisableField(k) {
			return fmt.Errorf("unknown idea field %q", k)
		}
		current[k] = v
	}

	raw, err := json.Marshal(current)
	if err != nil {
		return err
	}
	var next IdeaFields
	if err := json.Unmarshal(raw, &next); err != nil {
		return fmt.Errorf("decode revision fields: %w", err)
	}
	i.SetFields(next)
	return nil
}
