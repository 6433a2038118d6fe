package textutil

import (
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds text into plain ASCII: it applies compatibility
// decomposition, drops every rune that has no ASCII form and collapses
// whitespace runs into single spaces.
func Normalize(text string) string {
	decomposed := norm.NFKD.String(text)
	ascii := strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf {
			return r
		}
		return -1
	}, decomposed)
	return strings.Join(strings.Fields(ascii), " ")
}

var delimiterReplacer = strings.NewReplacer(",", " ", ";", " ")

// StripDelimiters replaces the csv delimiters "," and ";" with spaces.
func StripDelimiters(text string) string {
	return delimiterReplacer.Replace(text)
}

// Clean is StripDelimiters followed by Normalize.
func Clean(text string) string {
	return Normalize(StripDelimiters(text))
}

// Slug returns a lowercase, hyphenated token that is safe to use in a filename.
func Slug(text string) string {
	return slug.Make(text)
}
