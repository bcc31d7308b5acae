// Package heuristic implements the rule-based extraction path: a pure,
// deterministic line classifier plus section assembly that turns plain
// document text into a provisional tour plan without any external
// service.
package heuristic

import (
	"regexp"
	"strconv"
	"strings"
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineProse
	lineBullet
	lineDayHeader
	lineHotelHeader
	lineInclusionHeader
	lineExclusionHeader
)

// line is one classified input line. For day headers, dayNum holds the
// parsed number and rest the text after the header up to line end. For
// bullets, text has the bullet marker stripped.
type line struct {
	kind   lineKind
	text   string
	dayNum int
	rest   string
}

var (
	dayHeaderRe = regexp.MustCompile(`(?i)^\s*(?:d[ií]a|day)\s+(\d{1,2})\b[\s:.–\-]*(.*)$`)

	// Exclusion headers are matched before inclusion headers so that
	// "No incluye" never reads as an inclusions section.
	exclusionHeaderRe = regexp.MustCompile(`(?i)^\s*(?:el\s+precio\s+)?(?:no\s+incluye|not\s+included|does\s+not\s+include|exclusion(?:s|es)?)\b`)
	inclusionHeaderRe = regexp.MustCompile(`(?i)^\s*(?:el\s+precio\s+)?(?:incluye|incluido|includes?|included|inclusi(?:ons?|ones))\b`)

	// A hotel header is a short label line ("Hoteles previstos:",
	// "Alojamiento"), never a hotel data line such as
	// "Hotel Plaza - 4 estrellas - Estambul, 3 noches".
	hotelHeaderRe = regexp.MustCompile(`(?i)^\s*(?:(?:hoteles|hotels|alojamientos?|accommodations?|hospedajes?|lodging)\b[^,\n]{0,40}|hotel)\s*:?\s*$`)

	bulletRe = regexp.MustCompile(`^\s*[-–•*·✓✔]\s+`)
)

// classifyLines tags every input line before section assembly. Keeping
// classification separate from assembly makes section-boundary policy
// testable independent of text content.
func classifyLines(text string) []line {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, "\n")
	lines := make([]line, 0, len(raw))

	for _, r := range raw {
		trimmed := strings.TrimSpace(r)
		switch {
		case trimmed == "":
			lines = append(lines, line{kind: lineBlank})

		case dayHeaderRe.MatchString(trimmed):
			m := dayHeaderRe.FindStringSubmatch(trimmed)
			n, _ := strconv.Atoi(m[1])
			lines = append(lines, line{
				kind:   lineDayHeader,
				text:   trimmed,
				dayNum: n,
				rest:   strings.TrimSpace(m[2]),
			})

		case exclusionHeaderRe.MatchString(trimmed):
			lines = append(lines, line{kind: lineExclusionHeader, text: trimmed})

		case inclusionHeaderRe.MatchString(trimmed):
			lines = append(lines, line{kind: lineInclusionHeader, text: trimmed})

		case hotelHeaderRe.MatchString(trimmed):
			lines = append(lines, line{kind: lineHotelHeader, text: trimmed})

		case bulletRe.MatchString(trimmed):
			lines = append(lines, line{
				kind: lineBullet,
				text: strings.TrimSpace(bulletRe.ReplaceAllString(trimmed, "")),
			})

		default:
			lines = append(lines, line{kind: lineProse, text: trimmed})
		}
	}

	return lines
}

// isHeader reports whether k opens a new section.
func isHeader(k lineKind) bool {
	switch k {
	case lineDayHeader, lineHotelHeader, lineInclusionHeader, lineExclusionHeader:
		return true
	}
	return false
}
