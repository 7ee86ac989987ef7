package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// MaxLogStringLength defines the maximum length for user-provided strings in logs
const MaxLogStringLength = 200

// MaxNotesLength is the longest booking note that is stored
const MaxNotesLength = 500

// unprintable matches anything that is not a letter, number, punctuation, symbol or space
var unprintable = regexp.MustCompile(`[^\p{L}\p{N}\p{P}\p{S}\p{Z}]`)

// SanitizeLogString sanitizes a user-controlled string for safe logging.
// It replaces control characters with spaces and limits the length.
func SanitizeLogString(input string) string {
	if input == "" {
		return ""
	}

	input, truncated := truncateRunes(input, MaxLogStringLength)

	sanitized := unprintable.ReplaceAllString(replaceControl(input), "")
	if truncated {
		sanitized += "... (truncated)"
	}
	return sanitized
}

// SanitizeNotes normalizes a free-text booking note before it is stored:
// control characters become spaces, runs of whitespace collapse and the result is trimmed
// to MaxNotesLength runes.
func SanitizeNotes(input string) string {
	cleaned := unprintable.ReplaceAllString(replaceControl(input), "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned, _ = truncateRunes(cleaned, MaxNotesLength)
	return cleaned
}

func replaceControl(input string) string {
	// Pre-process CRLF to avoid double spaces
	input = strings.ReplaceAll(input, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, input)
}

func truncateRunes(input string, limit int) (string, bool) {
	if len(input) <= limit {
		return input, false
	}
	runes := []rune(input)
	if len(runes) <= limit {
		return input, false
	}
	return string(runes[:limit]), true
}
