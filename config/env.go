package config

import (
	"os"
	"strconv"
)

// GetBindAddress returns the address the TCP server listens on.
func GetBindAddress() string {
	if bind := os.Getenv("SOUNDBITE_BIND"); bind != "" {
		return bind
	}
	return "0.0.0.0"
}

// GetPort returns the TCP command port.
func GetPort() int {
	return envInt("SOUNDBITE_PORT", 5000)
}

// GetAudioDir returns the directory scanned for audio files at startup.
func GetAudioDir() string {
	if dir := os.Getenv("SOUNDBITE_AUDIO_DIR"); dir != "" {
		return dir
	}
	return "audio_files"
}

// GetAdminPort returns the port for the HTTP admin surface, 0 disables it.
func GetAdminPort() int {
	return envInt("SOUNDBITE_ADMIN_PORT", 0)
}

// GetServerHost returns the host the client connects to.
func GetServerHost() string {
	if host := os.Getenv("SOUNDBITE_HOST"); host != "" {
		return host
	}
	return "127.0.0.1"
}

// LegacyPlainReplies reports whether LIST replies and generic errors are
// sent unframed, matching the original protocol revision. The default
// frames every response.
func LegacyPlainReplies() bool {
	v, err := strconv.ParseBool(os.Getenv("SOUNDBITE_LEGACY_PLAIN"))
	if err != nil {
		return false
	}
	return v
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
