package plan

import (
	"regexp"
	"strings"
	"unicode"
)

// categoryDigitRe matches a star count written as a digit followed by
// a star symbol or a "stars"/"estrellas" word. A digit alone is not
// enough here; hotel names carry stray numbers ("Primera 2021").
var categoryDigitRe = regexp.MustCompile(`([1-9])\s*(?:\*|⭐|stars?|estrellas?)`)

// categoryBareDigitRe matches a category that is nothing but a single
// digit, e.g. "4".
var categoryBareDigitRe = regexp.MustCompile(`^\s*([1-9])\s*$`)

// categoryWords maps spelled-out star counts in English and Spanish to
// their digit. Supplier documents mix both languages freely. Matched
// against whole words only, so "Luna" never reads as "una".
var categoryWords = map[string]string{
	"one": "1", "two": "2", "three": "3", "four": "4", "five": "5",
	"uno": "1", "una": "1", "dos": "2", "tres": "3", "cuatro": "4", "cinco": "5",
}

// NormalizeCategory maps any recognizable hotel category spelling to
// the compact "<digit>*" form: "4", "4*", "4 stars", "cuatro
// estrellas" all become "4*". Unrecognized values are preserved
// verbatim, truncated to maxLen, never dropped.
func NormalizeCategory(raw string, maxLen int) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)

	for _, token := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if digit, ok := categoryWords[token]; ok {
			return digit + "*"
		}
	}

	if m := categoryDigitRe.FindStringSubmatch(lower); m != nil {
		return m[1] + "*"
	}
	if m := categoryBareDigitRe.FindStringSubmatch(lower); m != nil {
		return m[1] + "*"
	}

	return truncate(s, maxLen)
}
