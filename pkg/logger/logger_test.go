package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "f******@*******.com", MaskEmail("farmer1@example.com"))
	assert.Equal(t, "a@*****.lk", MaskEmail("a@paddy.lk"))
	assert.Equal(t, "m*****@****.***.lk", MaskEmail("miller@mill.gov.lk"))
	assert.Equal(t, "[invalid-email]", MaskEmail("not-an-email"))
	assert.Equal(t, "[invalid-email]", MaskEmail("@example.com"))
}

func TestRedactQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"token=abc", "token=REDACTED"},
		{"Email=x@y.z", "Email=REDACTED"},
		{"riceVariety=Red+Rice&district=Kandy", "district=Kandy&riceVariety=Red+Rice"},
		{"district=Kandy&auth_token=xyz", "auth_token=REDACTED&district=Kandy"},
		{"%zz=1", "[REDACTED]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactQuery(tt.in))
		})
	}
}

func TestAuditLogger_LogAuthAttempt(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(New(&buf, "debug"))

	al.LogAuthAttempt(context.Background(), AuditEvent{
		EventType:     "login",
		Email:         "farmer1@example.com",
		Success:       false,
		FailureReason: "invalid_credentials",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "login", entry["event_type"])
	assert.Equal(t, "f******@*******.com", entry["email"])
	assert.Equal(t, "invalid_credentials", entry["failure_reason"])
	assert.NotContains(t, buf.String(), "farmer1@example.com")
}

func TestAuditLogger_LogStatusChange(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(New(&buf, "info"))

	al.LogStatusChange(context.Background(), StatusChange{
		Kind: "account_status_changed", ActorID: "admin-1", TargetID: "user-2", Status: "Active",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "admin-1", entry["actor_id"])
	assert.Equal(t, "user-2", entry["target_id"])
	assert.Equal(t, "Active", entry["status"])
}
