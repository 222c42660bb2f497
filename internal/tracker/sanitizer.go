package tracker

import "regexp"

// Sanitizer redacts PII-looking substrings from free-text fields before
// they are recorded. Redaction is silent: this is defense in depth, not a
// user-facing failure.
type Sanitizer struct {
	patterns []*regexp.Regexp
}

const redacted = "[redacted]"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
)

func NewSanitizer() *Sanitizer {
	return &Sanitizer{patterns: []*regexp.Regexp{emailPattern, phonePattern}}
}

// Redact replaces every email- or phone-like substring.
func (s *Sanitizer) Redact(text string) string {
	for _, p := range s.patterns {
		text = p.ReplaceAllString(text, redacted)
	}
	return text
}
