// Package cliconfig loads cmd/flow's process configuration from
// environment variables (optionally seeded from a .env file), the way
// Conceptual-Machines-magda-api's internal/config package does for its own
// server: a flat struct filled by getEnv-with-default, read once at
// startup. Flags set by the CLI take precedence over anything here.
package cliconfig

import "os"

// Config holds the environment-sourced defaults cmd/flow falls back to
// when a flag isn't given.
type Config struct {
	StdlibDir  string // FLOW_STDLIB_DIR
	SampleRate int    // FLOW_SAMPLE_RATE
	Device     string // FLOW_AUDIO_DEVICE
	SentryDSN  string // FLOW_SENTRY_DSN
}

// Load reads Config from the environment.
func Load() *Config {
	return &Config{
		StdlibDir:  getEnv("FLOW_STDLIB_DIR", "stdlib"),
		SampleRate: getEnvInt("FLOW_SAMPLE_RATE", 44100),
		Device:     getEnv("FLOW_AUDIO_DEVICE", ""),
		SentryDSN:  getEnv("FLOW_SENTRY_DSN", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}
