// Package redact strips secrets from log output: configured credential
// values and well-known platform token formats never reach the log sink.
package redact

import (
	"regexp"
	"strings"
	"sync"
)

// Placeholder is the replacement string for redacted secrets.
const Placeholder = "***REDACTED***"

// Redactor replaces secret values in strings with Placeholder. It
// matches both regex patterns (known platform token formats) and
// literal values (credentials taken from configuration). All methods
// are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// New creates a Redactor pre-loaded with patterns for common chat
// platform token formats.
func New() *Redactor {
	return &Redactor{
		patterns: defaultPatterns(),
	}
}

// AddLiteral adds a literal secret value that should be redacted on
// sight. Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact replaces all known secret patterns and literal values in s
// with Placeholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, p := range patterns {
		s = p.ReplaceAllString(s, Placeholder)
	}

	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, Placeholder)
		}
	}

	return s
}

// defaultPatterns returns compiled patterns for token formats used by
// the chat platforms hivepace channels typically bridge to.
func defaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Telegram bot token
		regexp.MustCompile(`\d{8,10}:[A-Za-z0-9_-]{35}`),
		// Discord bot token (three dot-separated base64 groups)
		regexp.MustCompile(`[A-Za-z0-9_-]{23,28}\.[A-Za-z0-9_-]{6,7}\.[A-Za-z0-9_-]{27,}`),
		// Slack bot and user tokens
		regexp.MustCompile(`xoxb-[0-9]+-[a-zA-Z0-9-]+`),
		regexp.MustCompile(`xoxp-[0-9]+-[a-zA-Z0-9-]+`),
	}
}
