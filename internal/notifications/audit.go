package notifications

import (
	"context"
	"log/slog"

	"kenhavate/internal/models"
)

// AuditLog writes audit entries as structured records on a dedicated logger.
type AuditLog struct {
	logger *slog.Logger
}

// NewAuditLog tags every record written through l with channel=audit.
func NewAuditLog(l *slog.Logger) *AuditLog {
	return &AuditLog{logger: l.With(slog.String("channel", "audit"))}
}

func (a *AuditLog) Record(ctx context.Context, e models.AuditEntry) error {
	attrs := []slog.Attr{
		slog.String("event", e.Event),
		slog.Uint64("actor_id", uint64(e.ActorID)),
		slog.String("subject_type", e.SubjectType),
		slog.Uint64("subject_id", uint64(e.SubjectID)),
		slog.Time("occurred_at", e.OccurredAt),
	}
	if len(e.Payload) > 0 {
		attrs = append(attrs, slog.Any("payload", map[string]any(e.Payload)))
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, "audit", attrs...)
	return nil
}
