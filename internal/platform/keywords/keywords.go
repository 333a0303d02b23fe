// Package keywords matches whole words and phrases against spoken text.
//
// Recognized speech is lower-cased and stripped of punctuation so that
// "Hi, emergency!" and "hi emergency" match the same phrases. Matching is on
// word boundaries: "hi" does not match "this", and "quiet" does not match
// "quieter".
package keywords

import (
	"strings"
	"unicode"
)

// Text is a normalized utterance.
type Text struct {
	padded string
}

// Normalize lower-cases s and collapses every run of characters that are not
// letters, digits or apostrophes into a single space.
func Normalize(s string) Text {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return Text{padded: b.String()}
}

// Empty reports whether the utterance had no words at all.
func (t Text) Empty() bool {
	return strings.TrimSpace(t.padded) == ""
}

// String returns the normalized words separated by single spaces.
func (t Text) String() string {
	return strings.TrimSpace(t.padded)
}

// Contains reports whether phrase occurs in t as whole words.
func (t Text) Contains(phrase string) bool {
	p := Normalize(phrase).padded
	if strings.TrimSpace(p) == "" {
		return false
	}
	return strings.Contains(t.padded, p)
}

// ContainsAny reports whether any of phrases occurs in t.
func (t Text) ContainsAny(phrases []string) bool {
	for _, p := range phrases {
		if t.Contains(p) {
			return true
		}
	}
	return false
}
