package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs the process-wide slog logger. Called once at startup; the
// chosen format never changes for the process lifetime.
//
// When scope is "prod" the process is assumed to run behind a log collector
// and emits JSON with a severity field; otherwise it emits human-readable
// text.
func Init(cfg Config) {
	level := levelFromString(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if IsCloud(cfg.Scope) {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				a.Key = "severity"
			}
			return a
		}
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// Config holds logging configuration.
type Config struct {
	Level string // debug, info, warn, error
	Scope string // "prod" selects JSON output
}

// IsCloud reports whether the scope designates a managed environment.
func IsCloud(scope string) bool {
	return strings.EqualFold(strings.TrimSpace(scope), "prod")
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
