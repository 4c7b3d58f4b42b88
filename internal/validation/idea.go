// Package validation holds input rules for the idea workflow.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"kenhavate/internal/models"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

// Field limits enforced on idea content.
const (
	MaxTitleLength       = 255
	MaxAbstractLength    = 1000
	MaxLongTextLength    = 2000
	MaxDeclarationLength = 1000
	MaxResponseLength    = 500
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type submissionInput struct {
	Title                  string            `json:"title" validate:"required,max=255"`
	ThematicAreaID         *uint             `json:"thematic_area_id" validate:"required"`
	Abstract               string            `json:"abstract" validate:"required,max=1000"`
	ProblemStatement       string            `json:"problem_statement" validate:"required,max=2000"`
	ProposedSolution       string            `json:"proposed_solution" validate:"required,max=2000"`
	CostBenefitAnalysis    string            `json:"cost_benefit_analysis" validate:"required,max=2000"`
	DeclarationOfInterests string            `json:"declaration_of_interests" validate:"required,max=1000"`
	OriginalIdeaDisclaimer bool              `json:"original_idea_disclaimer" validate:"required"`
	TeamEffort             bool              `json:"team_effort"`
	TeamMembers            []teamMemberInput `json:"team_members" validate:"required_if=TeamEffort true,dive"`
}

type draftInput struct {
	Title                  string            `json:"title" validate:"required,max=255"`
	Abstract               string            `json:"abstract" validate:"max=1000"`
	ProblemStatement       string            `json:"problem_statement" validate:"max=2000"`
	ProposedSolution       string            `json:"proposed_solution" validate:"max=2000"`
	CostBenefitAnalysis    string            `json:"cost_benefit_analysis" validate:"max=2000"`
	DeclarationOfInterests string            `json:"declaration_of_interests" validate:"max=1000"`
	TeamMembers            []teamMemberInput `json:"team_members" validate:"dive"`
}

type teamMemberInput struct {
	Name         string `json:"name" validate:"required,max=160"`
	Role         string `json:"role" validate:"max=160"`
	Organization string `json:"organization" validate:"max=160"`
}

func teamInputs(members []models.TeamMember) []teamMemberInput {
	if len(members) == 0 {
		return nil
	}
	out := make([]teamMemberInput, len(members))
	for i, m := range members {
		out[i] = teamMemberInput{
			Name:         strings.TrimSpace(m.Name),
			Role:         strings.TrimSpace(m.Role),
			Organization: strings.TrimSpace(m.Organization),
		}
	}
	return out
}

// NormalizeIdeaFields trims surrounding whitespace from every text field.
func NormalizeIdeaFields(f models.IdeaFields) models.IdeaFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Abstract = strings.TrimSpace(f.Abstract)
	f.ProblemStatement = strings.TrimSpace(f.ProblemStatement)
	f.ProposedSolution = strings.TrimSpace(f.ProposedSolution)
	f.CostBenefitAnalysis = strings.TrimSpace(f.CostBenefitAnalysis)
	f.DeclarationOfInterests = strings.TrimSpace(f.DeclarationOfInterests)
	members := make([]models.TeamMember, len(f.TeamMembers))
	for i, m := range teamInputs(f.TeamMembers) {
		members[i] = models.TeamMember{Name: m.Name, Role: m.Role, Organization: m.Organization}
	}
	f.TeamMembers = members
	return f
}

// ValidateSubmission checks the full required-field set needed to submit an idea.
func ValidateSubmission(f models.IdeaFields) error {
	f = NormalizeIdeaFields(f)
	return structError(validate.Struct(submissionInput{
		Title:                  f.Title,
		ThematicAreaID:         f.ThematicAreaID,
		Abstract:               f.Abstract,
		ProblemStatement:       f.ProblemStatement,
		ProposedSolution:       f.ProposedSolution,
		CostBenefitAnalysis:    f.CostBenefitAnalysis,
		DeclarationOfInterests: f.DeclarationOfInterests,
		OriginalIdeaDisclaimer: f.OriginalIdeaDisclaimer,
		TeamEffort:             f.TeamEffort,
		TeamMembers:            teamInputs(f.TeamMembers),
	}))
}

// ValidateDraft only requires a title; the remaining fields keep their limits.
func ValidateDraft(f models.IdeaFields) error {
	f = NormalizeIdeaFields(f)
	return structError(validate.Struct(draftInput{
		Title:                  f.Title,
		Abstract:               f.Abstract,
		ProblemStatement:       f.ProblemStatement,
		ProposedSolution:       f.ProposedSolution,
		CostBenefitAnalysis:    f.CostBenefitAnalysis,
		DeclarationOfInterests: f.DeclarationOfInterests,
		TeamMembers:            teamInputs(f.TeamMembers),
	}))
}

// ValidateRevisionFields rejects empty change sets and unknown field names.
func ValidateRevisionFields(changes datatypes.JSONMap) error {
	if len(changes) == 0 {
		return models.NewFieldValidationError(map[string]string{
			"changed_fields": "At least one field must be changed",
		})
	}
	fields := map[string]string{}
	for key := range changes {
		if !models.IsRevisableField(key) {
			fields["changed_fields."+key] = fmt.Sprintf("Unknown idea field %q", key)
		}
	}
	if len(fields) > 0 {
		return models.NewFieldValidationError(fields)
	}
	return nil
}

// structError converts validator output into a field validation AppError.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return models.NewValidationError(err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe)
		if _, seen := fields[key]; !seen {
			fields[key] = fieldMessage(fe)
		}
	}
	return models.NewFieldValidationError(fields)
}

// fieldKey strips the root struct name: "submissionInput.team_members[0].name"
// becomes "team_members.0.name".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	ns = strings.NewReplacer("[", ".", "]", "").Replace(ns)
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required", "required_if":
		if fe.Kind() == reflect.Bool {
			return fmt.Sprintf("The %s must be accepted.", label)
		}
		return fmt.Sprintf("The %s field is required.", label)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", label, fe.Param())
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
