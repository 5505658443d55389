package pacing

import (
	"regexp"
	"strings"
)

// Segment is one deliverable chunk of a reply, sent as a separate
// platform message. Segments are created fresh per delivery and
// discarded after send.
type Segment struct {
	Index       int
	Text        string
	BulletGroup bool
}

// SegmentOptions controls SplitReply.
type SegmentOptions struct {
	// PreserveEmpty keeps lines verbatim: no trimming, no quote
	// stripping, and empty lines become empty segments.
	PreserveEmpty bool

	// MaxSegments caps the number of emitted segments; the tail beyond
	// the cap is silently discarded. Zero or negative means no cap.
	MaxSegments int
}

var (
	// bulletPattern matches "- item", "* item", "• item" and "1. item".
	bulletPattern = regexp.MustCompile(`^(?:[-*•]|\d+\.)\s`)

	whitespaceRun  = regexp.MustCompile(`\s+`)
	spaceThenPunct = regexp.MustCompile(`\s+([.,!?;:])`)

	// curlyQuotes maps typographic quote glyphs to their ASCII forms so
	// an LLM restating itself with different quoting still deduplicates.
	curlyQuotes = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	)
)

// SplitReply splits raw reply text into ordered, deduplicated segments.
// Lines are split on \r\n, \r, \n, and the literal two-character "\n"
// escape some models emit. Consecutive bullet lines merge into one
// multi-line segment. A segment is dropped when its normalized form was
// already emitted earlier in the same call (stutter collapse); the
// first occurrence of any content is always kept.
func SplitReply(raw string, opts SegmentOptions) []Segment {
	if raw == "" {
		return nil
	}

	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	normalized = strings.ReplaceAll(normalized, `\n`, "\n")
	lines := strings.Split(normalized, "\n")

	var (
		out       []Segment
		bulletRun []string
		seen      = make(map[string]struct{})
	)

	emit := func(text string, bullets bool) {
		key := normalizeForDedup(text)
		if key != "" {
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
		}
		out = append(out, Segment{Text: text, BulletGroup: bullets})
	}

	flushBullets := func() {
		if len(bulletRun) == 0 {
			return
		}
		emit(strings.Join(bulletRun, "\n"), true)
		bulletRun = nil
	}

	for _, line := range lines {
		text := line
		if !opts.PreserveEmpty {
			text = stripWrappingQuotes(strings.TrimSpace(line))
			if text == "" {
				flushBullets()
				continue
			}
		}

		if bulletPattern.MatchString(strings.TrimSpace(text)) {
			bulletRun = append(bulletRun, text)
			continue
		}

		flushBullets()
		emit(text, false)
	}
	flushBullets()

	if opts.MaxSegments > 0 && len(out) > opts.MaxSegments {
		out = out[:opts.MaxSegments]
	}

	for i := range out {
		out[i].Index = i
	}
	return out
}

// normalizeForDedup canonicalizes a segment for repeat detection: trim,
// collapse whitespace, straighten quotes, drop space before punctuation,
// lowercase.
func normalizeForDedup(s string) string {
	s = strings.TrimSpace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = curlyQuotes.Replace(s)
	s = spaceThenPunct.ReplaceAllString(s, "$1")
	return strings.ToLower(s)
}

// stripWrappingQuotes removes one layer of quote characters wrapping the
// whole line, then re-trims. Unbalanced quotes are left alone.
func stripWrappingQuotes(s string) string {
	runes := []rune(s)
	if len(runes) < 2 {
		return s
	}
	if isQuoteRune(runes[0]) && isQuoteRune(runes[len(runes)-1]) {
		return strings.TrimSpace(string(runes[1 : len(runes)-1]))
	}
	return s
}

func isQuoteRune(r rune) bool {
	switch r {
	case '"', '\'', '“', '”', '‘', '’':
		return true
	}
	return false
}
