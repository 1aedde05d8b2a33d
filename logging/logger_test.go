package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "meshgen", "warn")
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Int("leaves", 28).Msg("refined")
	out := buf.String()
	t.Log(out)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "refined")
	assert.Contains(t, out, "meshgen")
	assert.Contains(t, out, "28")
}

func TestInitLogger(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	logger, err := InitLogger("meshgen", "debug")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	assert.Equal(t, zerolog.DebugLevel, log.Logger.GetLevel())

	logger, err = InitLogger("meshgen", "")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())

	_, err = InitLogger("meshgen", "chatty")
	assert.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())
}
