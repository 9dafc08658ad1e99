package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinEventNameLength is the shortest accepted event name, counted in
// characters after trimming.
const MinEventNameLength = 3

// CleanName trims raw and checks it is non-empty and made only of
// letters and spaces. Used for client names and room names alike.
func CleanName(field, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", Invalid(KindInvalidName, field, "must not be empty")
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && r != ' ' {
			return "", Invalid(KindInvalidName, field, "must contain only letters and spaces")
		}
	}
	return s, nil
}

// CleanEventName trims raw and enforces the non-blank / minimum length rule
// used both at creation and on rename.
func CleanEventName(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", Invalid(KindInvalidEventName, "event_name", "must not be empty")
	}
	if utf8.RuneCountInString(s) < MinEventNameLength {
		return "", Invalid(KindInvalidEventName, "event_name", "must be at least 3 characters long")
	}
	return s, nil
}
