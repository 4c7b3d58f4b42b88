package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationKind classifies a user-facing notification.
type NotificationKind string

const (
	NotificationInfo    NotificationKind = "info"
	NotificationSuccess NotificationKind = "success"
)

// Notification is a user-facing message produced by a workflow operation.
type Notification struct {
	UserID uint             `json:"-"`
	Kind   NotificationKind `json:"kind"`
	Title  string           `json:"title"`
	Body   string           `json:"body"`
	Link   string           `json:"link,omitempty"`
}

// AuditEntry records a successful mutation for later review.
type AuditEntry struct {
	Event       string            `json:"event"`
	ActorID     uint              `json:"actor_id"`
	SubjectType string            `json:"subject_type"`
	SubjectID   uint              `json:"subject_id"`
	Payload     datatypes.JSONMap `json:"payload,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}
