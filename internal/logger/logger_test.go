package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatFromEnvironment(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{"production uses json", "production", true},
		{"development uses pretty", "development", false},
		{"staging uses pretty", "staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Writer: &buf, Environment: tt.environment, Level: slog.LevelInfo})
			log.Info("book created")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"book created"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.Contains(t, buf.String(), "book created")
			}
		})
	}
}

func TestNew_ExplicitFormatWins(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Environment: "development", Format: FormatJSON})
	log.Info("hello")

	assert.Contains(t, buf.String(), `"level":"INFO"`)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatPretty, Level: slog.LevelWarn})

	log.Info("dropped")
	log.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "kept")
}

func TestPrettyHandler_AttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)
	log := slog.New(h).With("component", "auth").WithGroup("req")

	log.Info("login", "username", "me1", "status", 302)

	out := buf.String()
	assert.Contains(t, out, "component=auth")
	assert.Contains(t, out, "req.username=me1")
	assert.Contains(t, out, "req.status=302")
}

func TestPrettyHandler_QuotesStringsWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewPrettyHandler(&buf, nil)).Info("book", "title", "The Bell Jar")

	assert.Contains(t, buf.String(), `title="The Bell Jar"`)
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})

	assert.False(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	defaults := NewPrettyHandler(&bytes.Buffer{}, nil)
	assert.False(t, defaults.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, defaults.Enabled(context.Background(), slog.LevelInfo))
}

func TestLevelLabel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
		{slog.LevelError + 4, "ERR"},
	}
	for _, tt := range tests {
		label, _ := levelLabel(tt.level)
		assert.Equal(t, tt.want, label)
	}
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, "2024-01-02T03:04:05Z", formatValue(slog.TimeValue(ts)))
	assert.Equal(t, "1.5s", formatValue(slog.DurationValue(1500*time.Millisecond)))
	assert.Equal(t, "42", formatValue(slog.IntValue(42)))
	assert.Equal(t, "plain", formatValue(slog.StringValue("plain")))
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Writer: &buf, Format: FormatJSON})

	log.WithError(errors.New("boom")).WithField("user_id", "user-1").Info("failed")
	log.Component("catalog").Info("seeded")

	out := buf.String()
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"user_id":"user-1"`)
	assert.Contains(t, out, `"component":"catalog"`)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	require.NotNil(t, log)
	log.Error("nothing happens")
}
