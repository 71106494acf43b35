package logger

import (
	"context"
	"log/slog"
)

// AuditEvent is a register or login attempt.
type AuditEvent struct {
	EventType     string
	UserID        string
	Email         string
	IPAddress     string
	Success       bool
	FailureReason string
}

// StatusChange is an administrator moving an account or a mill to a new status.
type StatusChange struct {
	Kind     string
	ActorID  string
	TargetID string
	Status   string
}

// AuditLogger writes security-relevant events to the structured log under the
// "audit" message, so they can be filtered from request logs. Events are not
// persisted.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.With(slog.String("component", "audit"))}
}

// LogAuthAttempt records an attempt at warn level when it failed. Emails are masked.
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
	}
	attrs = appendNonEmpty(attrs,
		"user_id", event.UserID,
		"ip_address", event.IPAddress,
		"failure_reason", event.FailureReason,
	)
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", MaskEmail(event.Email)))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

func (al *AuditLogger) LogStatusChange(ctx context.Context, change StatusChange) {
	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("audit_type", "status"),
		slog.String("event_type", change.Kind),
		slog.String("actor_id", change.ActorID),
		slog.String("target_id", change.TargetID),
		slog.String("status", change.Status),
	)
}

// appendNonEmpty adds key/value pairs whose value is set.
func appendNonEmpty(attrs []slog.Attr, kv ...string) []slog.Attr {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] != "" {
			attrs = append(attrs, slog.String(kv[i], kv[i+1]))
		}
	}
	return attrs
}
