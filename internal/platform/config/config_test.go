package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigWarnsThroughSlog(t *testing.T) {
	t.Setenv("JWT_EXPIRY_DURATION", "not-a-duration")
	t.Setenv("PORT", "9191")

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.Port)
	assert.Equal(t, time.Hour, cfg.JWTExpiryDuration)

	// Config warnings come out as structured records on the default logger.
	out := buf.String()
	assert.Contains(t, out, `"level":"WARN"`)
	assert.Contains(t, out, "JWT_EXPIRY_DURATION")
}
