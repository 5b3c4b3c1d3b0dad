package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

// DefaultRedactions masks the personal data of contact submissions and credentials.
var DefaultRedactions = []string{`(?i)^(email|phone|reply_to)$`, `(?i)(api_key|token|authorization|password)`}

// Option configures a logger.
type Option func(*options)

type options struct {
	patterns []*regexp.Regexp
}

// WithRedaction replaces the value of every attribute whose key matches one of the patterns with "***".
func WithRedaction(patterns ...string) Option {
	return func(o *options) {
		for _, p := range patterns {
			o.patterns = append(o.patterns, regexp.MustCompile(p))
		}
	}
}

// New creates the application logger.
// It writes to Stderr so that preview frames and MCP stdio traffic own Stdout.
// It standardizes common keys (e.g., "error" -> "err") and masks DefaultRedactions.
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stderr, level, WithRedaction(DefaultRedactions...))
}

// NewWithWriter is New with an explicit destination and no redaction unless asked for.
func NewWithWriter(w io.Writer, level slog.Level, opts ...Option) *slog.Logger {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Standardize 'error' key to 'err'
			if a.Key == "error" {
				a.Key = "err"
			}
			for _, p := range o.patterns {
				if p.MatchString(a.Key) {
					return slog.String(a.Key, "***")
				}
			}
			return a
		},
	}))
}

// NewNop returns a no-op logger.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps the config/flag spelling of a level ("debug", "info", "warn", "error") to slog.
// An empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
