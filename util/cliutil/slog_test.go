package cliutil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupSlog(t *testing.T) {
	assert := assert.New(t)
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger, err := SetupSlog(LogOptions{LogLevel: "warn", LogFormat: "json", Out: &buf})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "peer", 5)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal("shown", line["msg"])
	assert.Equal(float64(5), line["peer"])
}

func TestSetupSlogEnv(t *testing.T) {
	assert := assert.New(t)
	defer slog.SetDefault(slog.Default())

	t.Setenv("VKMOD_LOG_LEVEL", "debug")
	var buf bytes.Buffer
	logger, err := SetupSlog(LogOptions{Out: &buf})
	require.NoError(t, err)
	logger.Debug("details")
	assert.Contains(buf.String(), "msg=details")
}

func TestSetupSlogErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := SetupSlog(LogOptions{LogLevel: "loud"})
	assert.Error(err)
	_, err = SetupSlog(LogOptions{LogFormat: "xml"})
	assert.Error(err)
}
