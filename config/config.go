package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the selection monitor and the
// resident demo application around it.
type Config struct {
	// Debug enables verbose diagnostic logging. Off by default.
	Debug bool

	// EnableFileLogging mirrors log output into a rotating file.
	EnableFileLogging bool

	// SettleDelay is how long a selection must stay unchanged before it is
	// reported.
	SettleDelay time.Duration

	// PollInterval is the debounce worker's check period.
	PollInterval time.Duration

	// Hotkey optionally pauses/resumes monitoring, e.g. "Ctrl+Alt+S".
	// Empty disables the hotkey.
	Hotkey string

	// ClipboardEcho copies every settled selection to the clipboard.
	ClipboardEcho bool
}

// Load reads .env (current directory, then the executable's directory) and
// the process environment.
func Load() (*Config, error) {
	envPaths := []string{".env"}
	if execPath, err := os.Executable(); err == nil {
		envPaths = append(envPaths, filepath.Join(filepath.Dir(execPath), ".env"))
	}
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			godotenv.Load(envPath)
			break
		}
	}

	cfg := &Config{
		Debug:             os.Getenv("SELECTION_DEBUG") == "1",
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		SettleDelay:       getEnvDurationMs("DEBOUNCE_DELAY_MS", 500*time.Millisecond),
		PollInterval:      getEnvDurationMs("POLL_INTERVAL_MS", 50*time.Millisecond),
		Hotkey:            os.Getenv("HOTKEY"),
		ClipboardEcho:     strings.ToLower(os.Getenv("CLIPBOARD_ECHO")) == "true",
	}
	return cfg, nil
}

func getEnvDurationMs(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Invalid %s=%q, using default %v", key, v, defaultValue)
		return defaultValue
	}
	return time.Duration(n) * time.Millisecond
}
