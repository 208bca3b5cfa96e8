package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDefaults tests the configuration defaults
func TestDefaults(t *testing.T) {
	t.Setenv("SOUNDBITE_BIND", "")
	t.Setenv("SOUNDBITE_PORT", "")
	t.Setenv("SOUNDBITE_AUDIO_DIR", "")
	t.Setenv("SOUNDBITE_ADMIN_PORT", "")
	t.Setenv("SOUNDBITE_HOST", "")
	t.Setenv("SOUNDBITE_LEGACY_PLAIN", "")

	assert.Equal(t, "0.0.0.0", GetBindAddress())
	assert.Equal(t, 5000, GetPort())
	assert.Equal(t, "audio_files", GetAudioDir())
	assert.Equal(t, 0, GetAdminPort())
	assert.Equal(t, "127.0.0.1", GetServerHost())
	assert.False(t, LegacyPlainReplies())
}

// TestEnvOverrides tests environment variable overrides
func TestEnvOverrides(t *testing.T) {
	t.Setenv("SOUNDBITE_BIND", "127.0.0.1")
	t.Setenv("SOUNDBITE_PORT", "6000")
	t.Setenv("SOUNDBITE_AUDIO_DIR", "/srv/audio")
	t.Setenv("SOUNDBITE_ADMIN_PORT", "8081")
	t.Setenv("SOUNDBITE_HOST", "audio.internal")
	t.Setenv("SOUNDBITE_LEGACY_PLAIN", "true")

	assert.Equal(t, "127.0.0.1", GetBindAddress())
	assert.Equal(t, 6000, GetPort())
	assert.Equal(t, "/srv/audio", GetAudioDir())
	assert.Equal(t, 8081, GetAdminPort())
	assert.Equal(t, "audio.internal", GetServerHost())
	assert.True(t, LegacyPlainReplies())
}

// TestInvalidNumericEnv tests that unparseable values fall back to defaults
func TestInvalidNumericEnv(t *testing.T) {
	t.Setenv("SOUNDBITE_PORT", "not-a-port")
	t.Setenv("SOUNDBITE_LEGACY_PLAIN", "maybe")

	assert.Equal(t, 5000, GetPort())
	assert.False(t, LegacyPlainReplies())
}
