package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"gorm.io/datatypes"
)

// RevisionType records who proposed a revision.
type RevisionType string

const (
	// RevisionTypeAuthor revisions are applied immediately.
	RevisionTypeAuthor RevisionType = "author"
	// RevisionTypeCollaborator revisions wait for the author's review.
	RevisionTypeCollaborator RevisionType = "collaborator"
)

// RevisionStatus defines the review state of a revision.
type RevisionStatus string

const (
	// RevisionStatusPending awaits review by the idea author.
	RevisionStatusPending RevisionStatus = "pending"
	// RevisionStatusAccepted has been applied to the idea and is immutable.
	RevisionStatusAccepted RevisionStatus = "accepted"
	// RevisionStatusRejected is kept for audit and never applied.
	RevisionStatusRejected RevisionStatus = "rejected"
)

// NotSet stands in for a field a revision does not touch.
const NotSet = "not set"

// IdeaRevision is a proposed or historical set of field changes.
// RevisionNumber is idea-scoped, starts at 1 and never repeats.
type IdeaRevision struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	IdeaID         uint              `gorm:"not null;uniqueIndex:idx_revisions_idea_number" json:"idea_id"`
	RevisionNumber int               `gorm:"not null;uniqueIndex:idx_revisions_idea_number" json:"revision_number"`
	RevisionType   RevisionType      `gorm:"type:varchar(20);not null" json:"revision_type"`
	ChangedFields  datatypes.JSONMap `gorm:"not null" json:"changed_fields"`
	ChangeSummary  string            `gorm:"type:text" json:"change_summary"`
	Status         RevisionStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedByID    uint              `gorm:"not null;index" json:"created_by_id"`
	CreatedBy      *User             `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	ReviewedByID   *uint             `json:"reviewed_by_id"`
	ReviewReason   string            `gorm:"type:text" json:"review_reason,omitempty"`
	ReviewedAt     *time.Time        `json:"reviewed_at"`
	RestoresNumber *int              `json:"restores_revision_number,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// FieldDifference is one field whose value differs between two field maps.
type FieldDifference struct {
	Field    string `json:"field"`
	Current  any    `json:"current"`
	Proposed any    `json:"proposed"`
}

// DiffFields returns every field present with a different value on either side,
// ordered by RevisableFields followed by unknown keys alphabetically. Missing
// values are reported as NotSet.
func DiffFields(current, proposed datatypes.JSONMap) []FieldDifference {
	var diffs []FieldDifference
	for _, key := range unionKeys(current, proposed) {
		cv, cok := current[key]
		pv, pok := proposed[key]
		if cok && pok && sameValue(cv, pv) {
			continue
		}
		d := FieldDifference{Field: key, Current: NotSet, Proposed: NotSet}
		if cok {
			d.Current = cv
		}
		if pok {
			d.Proposed = pv
		}
		diffs = append(diffs, d)
	}
	return diffs
}

// FieldKeys returns the keys of m in presentation order.
func FieldKeys(m datatypes.JSONMap) []string {
	return unionKeys(m, nil)
}

func unionKeys(a, b datatypes.JSONMap) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for _, k := range RevisableFields {
		if _, ok := seen[k]; ok {
			keys = append(keys, k)
			delete(seen, k)
		}
	}
	extra := make([]string, 0, len(seen))
	for k := range seen {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// sameValue compares two JSON-compatible values by their canonical encoding, so
// a typed slice and its decoded []interface{} form compare equal.
func sameValue(a, b any) bool {
	ca, errA := canonicalJSON(a)
	cb, errB := canonicalJSON(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

func canonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	return json.Marshal(decoded)
}
