package sanitize

import (
	"regexp"
	"strings"
)

// Prompt-injection fragments stripped from user text before it reaches a
// model prompt.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(previous|above|prior)\s+instructions?`),
	regexp.MustCompile(`(?i)you\s+are\s+now\s+a`),
	regexp.MustCompile(`(?i)act\s+as\s+(a|an)\s`),
	regexp.MustCompile(`(?i)forget\s+(everything|all|previous)`),
	regexp.MustCompile(`(?i)new\s+system\s+prompt`),
	regexp.MustCompile(`(?i)jailbreak`),
	regexp.MustCompile(`(?i)dan\s+mode`),
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`\{\{.*?\}\}`),
	regexp.MustCompile(`(?i)__import__`),
	regexp.MustCompile(`(?i)eval\s*\(`),
	regexp.MustCompile(`(?i)exec\s*\(`),
}

var controlChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
var excessWhitespace = regexp.MustCompile(`\s+`)

const maxInputLen = 1000

// UserInput cleans raw free text from a patient for inclusion in a prompt:
// length cap, injection-pattern removal, control-character removal,
// whitespace collapse.
func UserInput(text string) string {
	if text == "" {
		return ""
	}
	if len(text) > maxInputLen {
		text = text[:maxInputLen]
	}
	for _, pattern := range injectionPatterns {
		text = pattern.ReplaceAllString(text, "")
	}
	text = controlChars.ReplaceAllString(text, "")
	return strings.TrimSpace(excessWhitespace.ReplaceAllString(text, " "))
}
