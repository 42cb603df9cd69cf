package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Kore", cfg.Voice)
	assert.Equal(t, 1500*time.Millisecond, cfg.Playback.AdvancePause)
	assert.Equal(t, 3500*time.Millisecond, cfg.Playback.FallbackTimeout)
	assert.True(t, cfg.Playback.AwaitFirstAudio)
	assert.Equal(t, 3, cfg.Narration.Workers)
	assert.Equal(t, "unix", cfg.IPC.Network)
	assert.Empty(t, cfg.API.Key)

	e := cfg.Engine()
	assert.Equal(t, 3, e.Workers)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gateway().TextModel)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
voice: Puck
playback:
  advance_pause: 2s
  await_first_audio: false
narration:
  workers: 0
ipc:
  network: tcp
  address: 127.0.0.1:7000
`), 0o600))
	t.Setenv("TUTORBOARD_LOG_LEVEL", "debug")
	t.Setenv("API_KEY", "from-env")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Puck", cfg.Voice)
	assert.Equal(t, 2*time.Second, cfg.Playback.AdvancePause)
	assert.False(t, cfg.Playback.AwaitFirstAudio)
	assert.Equal(t, 1, cfg.Narration.Workers)
	assert.Equal(t, "tcp", cfg.IPC.Network)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-env", cfg.API.Key)
}

func TestUnknownVoiceFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("voice: Robot\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Kore", cfg.Voice)
}

func TestExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
