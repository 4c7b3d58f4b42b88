// Package service implements the idea workflow: lifecycle, collaboration,
// revisions and comment threads.
package service

import (
	"context"
	"log/slog"
	"time"

	"kenhavate/internal/models"
	"kenhavate/internal/observability"

	"gorm.io/datatypes"
)

// Notifier delivers user-facing notifications.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Auditor records audit entries for successful mutations.
type Auditor interface {
	Record(ctx context.Context, e models.AuditEntry) error
}

// Effects are the fire-and-forget side channels a mutation reports to. Either
// field may be nil. Failures are logged and counted, never returned.
type Effects struct {
	Notifier Notifier
	Auditor  Auditor
}

func (e Effects) notify(ctx context.Context, n models.Notification) {
	if e.Notifier == nil || n.UserID == 0 {
		return
	}
	if err := e.Notifier.Notify(ctx, n); err != nil {
		observability.SideEffectFailures.WithLabelValues("notification").Inc()
		observability.Logger.WarnContext(ctx, "notification delivery failed",
			slog.Uint64("recipient_id", uint64(n.UserID)),
			slog.String("title", n.Title),
			slog.String("error", err.Error()),
		)
	}
}

func (e Effects) audit(ctx context.Context, event string, actorID uint, subjectType string, subjectID uint, payload datatypes.JSONMap) {
	if e.Auditor == nil {
		return
	}
	entry := models.AuditEntry{
		Event:       event,
		ActorID:     actorID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Payload:     payload,
		OccurredAt:  time.Now().UTC(),
	}
	if err := e.Auditor.Record(ctx, entry); err != nil {
		observability.SideEffectFailures.WithLabelValues("audit").Inc()
		observability.Logger.WarnContext(ctx, "audit record failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}

// finish is deferred by every operation. It counts the outcome and turns
// unexpected errors into a logged INTERNAL_ERROR so callers only ever see
// AppErrors.
func finish(ctx context.Context, operation string, errp *error) {
	err := *errp
	if err == nil {
		observability.RecordOperation(operation, "ok")
		return
	}

	code := models.ErrorCode(err)
	if code == models.CodeInternal {
		observability.Logger.ErrorContext(ctx, "workflow operation failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		if !models.HasCode(err, models.CodeInternal) {
			*errp = models.NewInternalError(err)
		}
	}
	observability.RecordOperation(operation, code)
}

func ideaLink(idea *models.Idea) string {
	return "/ideas/" + idea.Slug
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
