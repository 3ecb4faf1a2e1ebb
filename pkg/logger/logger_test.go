package logx

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/health-assistant-core/server/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Production, Output: &buf})
	defer Init(LoggerOpts{Environment: core.Testing, Level: "disabled"})

	Debug().Msg("hidden")
	Info().Str("session_id", "s-1").Msg("turn finished")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "turn finished", entry["message"])
	assert.Equal(t, "s-1", entry["session_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestInitLevelOverride(t *testing.T) {
	var buf bytes.Buffer
	Init(LoggerOpts{Environment: core.Development, Level: "warn", Output: &buf})
	defer Init(LoggerOpts{Environment: core.Testing, Level: "disabled"})

	Info().Msg("quiet")
	Warn().Msg("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}
