package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCheck(t *testing.T, conf string, args ...string) string {
	var buf bytes.Buffer
	app := newApp()
	app.Writer = &buf
	require.NoError(t, app.Run(append([]string{"vkmod", "--config", conf, "--log-level", "error", "check"}, args...)))
	return buf.String()
}

func TestCheckCommand(t *testing.T) {
	assert := assert.New(t)
	defer slog.SetDefault(slog.Default())

	conf := filepath.Join(t.TempDir(), "vkmod.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("banned_patterns: [spam]\nbanned_repost_groups: [100]\nsticker_cooldown:\n  enabled: true\n"), 0o600))

	assert.Equal("delete (banned-pattern)\n", runCheck(t, conf, "--text", "Buy SPAM"))
	assert.Equal("delete (banned-pattern)\n", runCheck(t, conf, "buy spam"))
	assert.Equal("allow\n", runCheck(t, conf, "--text", "hello"))
	assert.Equal("delete (banned-repost)\n", runCheck(t, conf, "--repost-from", "100"))
	assert.Equal("allow\n", runCheck(t, conf, "--repost-from", "200"))
	// a fresh engine per run, so the first sticker is always accepted
	assert.Equal("allow (sticker-allowed)\n", runCheck(t, conf, "--sticker", "--text", "spam"))
}

func TestCheckCommandBadConfig(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	conf := filepath.Join(t.TempDir(), "vkmod.yaml")
	require.NoError(t, os.WriteFile(conf, []byte("banned_patterns: [\"(unclosed\"]\n"), 0o600))

	app := newApp()
	app.Writer = &bytes.Buffer{}
	assert.Error(t, app.Run([]string{"vkmod", "--config", conf, "check", "--text", "hi"}))
}
