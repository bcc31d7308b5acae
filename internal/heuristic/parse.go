package heuristic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/planora/planora/internal/plan"
)

var (
	countryLabelRe = regexp.MustCompile(`(?i)^\s*(?:pa[ií]s|destino|destination|country)\s*[:\-–]\s*(.+)$`)
	nameLabelRe    = regexp.MustCompile(`(?i)^\s*(?:plan|tour|paquete|programa|t[ií]tulo|title)\s*[:\-–]\s*(.+)$`)

	durationRe = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:d[ií]as?|days?)\b`)
	nightsRe   = regexp.MustCompile(`(?i)(\d{1,2})\s*(?:noches?|nights?)\b`)
	compactRe  = regexp.MustCompile(`(?i)\b(\d{1,2})\s*D\s*/\s*(\d{1,2})\s*N\b`)

	labeledPriceRe  = regexp.MustCompile(`(?i)(?:desde|precio|price|from)\s*:?\s*(?:US\$|USD|EUR|[$€£])?\s*(\d[\d.,]*)`)
	currencyPriceRe = regexp.MustCompile(`(?:US\$|USD|EUR|[$€£])\s*(\d[\d.,]*)`)
	decimalTailRe   = regexp.MustCompile(`^(.*?)[.,](\d{1,2})$`)

	timeLineRe = regexp.MustCompile(`^\s*\d{1,2}:\d{2}`)
	markupRe   = regexp.MustCompile(`\*\*|__|[*_#]`)

	locationLabelRe = regexp.MustCompile(`(?i)^\s*(?:ubicaci[oó]n|location)\s*[:\-–]\s*(.+)$`)
	dayDescLabelRe  = regexp.MustCompile(`(?i)^\s*(?:descripci[oó]n|description)\s*[:\-–]\s*(.+)$`)
	mealsLabelRe    = regexp.MustCompile(`(?i)^\s*(?:comidas?|meals?|alimentaci[oó]n)\s*[:\-–]\s*(.+)$`)
	accomLabelRe    = regexp.MustCompile(`(?i)^\s*(?:alojamiento|accommodation|hospedaje)\s*[:\-–]\s*(.+)$`)

	// Tiered hotel line patterns: full "name - category - location[, N
	// noches]" first, then "name - category", then bare name.
	hotelFullRe = regexp.MustCompile(`(?i)^(.{2,120}?)\s*[-–]\s*([^-–]{1,25}?(?:\*|estrellas?|stars?))\s*[-–]\s*([^,\n]{2,80}?)(?:\s*,\s*(\d{1,2})\s*(?:noches?|nights?))?\s*$`)
	hotelCatRe  = regexp.MustCompile(`(?i)^(.{2,120}?)\s*[-–,]\s*([^-–,]{1,25}?(?:\*|estrellas?|stars?))\s*$`)
)

// titleKeywords are the word endings that make a first line look like a
// commercial tour title rather than ordinary prose.
var titleKeywords = []string{
	"tour", "viaje", "travel", "trip", "aventura", "express",
	"mágico", "mágica", "magico", "magica", "dorado", "dorada",
	"clásico", "clásica", "clasico", "clasica", "imperial", "esencial",
	"fantástico", "fantástica", "maravilloso", "maravillosa",
	"premium", "deluxe", "completo", "completa", "total",
	"soñado", "soñada", "encanto", "paraíso", "paraiso",
}

// Parse turns plain document text into a provisional tour plan. It is a
// pure function: same text in, same plan out, no I/O.
func Parse(text string, opts Options) plan.Plan {
	limits := plan.DefaultLimits()
	if opts.MaxDayDescription > 0 {
		limits.MaxDayDescription = opts.MaxDayDescription
	}
	aliases := opts.aliases()
	lines := classifyLines(text)

	var p plan.Plan

	// Country first: an explicit destination label must win before the
	// title heuristic can misread the destination as the plan name.
	p.Country = detectCountry(lines, aliases)
	p.Name = detectName(lines, aliases)
	if p.Country == "" && p.Name != "" {
		if c, ok := containsCountry(aliases, p.Name); ok {
			p.Country = c
		}
	}

	p.Duration, p.Nights = detectDuration(text)
	p.BasePrice = detectPrice(text)
	p.Description = detectDescription(lines)
	p.Inclusions, p.Exclusions = collectItems(lines)
	p.Itinerary = collectItinerary(lines, limits)
	p.Hotels = collectHotels(lines, limits)

	return plan.NormalizePlan(p, limits)
}

func detectCountry(lines []line, aliases map[string]string) string {
	for _, ln := range lines {
		if ln.kind != lineProse && ln.kind != lineBullet {
			continue
		}
		if m := countryLabelRe.FindStringSubmatch(ln.text); m != nil {
			value := strings.TrimSpace(m[1])
			if c, ok := lookupCountry(aliases, value); ok {
				return c
			}
			if c, ok := containsCountry(aliases, value); ok {
				return c
			}
			return value
		}
	}
	return ""
}

func detectName(lines []line, aliases map[string]string) string {
	// Explicit plan/tour/title labels win.
	for _, ln := range lines {
		if ln.kind != lineProse && ln.kind != lineBullet {
			continue
		}
		if m := nameLabelRe.FindStringSubmatch(ln.text); m != nil {
			value := strings.TrimSpace(m[1])
			// A bare country name is the destination, not a title.
			if _, isCountry := lookupCountry(aliases, value); !isCountry && value != "" {
				return value
			}
		}
	}

	// Fallback: a title-shaped line near the top of the document.
	seen := 0
	for _, ln := range lines {
		if ln.kind == lineBlank {
			continue
		}
		seen++
		if seen > 10 {
			break
		}
		if ln.kind != lineProse {
			continue
		}
		if isTitleShaped(ln.text, aliases) {
			return ln.text
		}
	}
	return ""
}

func isTitleShaped(s string, aliases map[string]string) bool {
	runes := []rune(s)
	if len(runes) < 5 || len(runes) > 120 {
		return false
	}
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	if _, isCountry := lookupCountry(aliases, s); isCountry {
		return false
	}
	words := strings.Fields(strings.ToLower(s))
	if len(words) == 0 {
		return false
	}
	last := strings.Trim(words[len(words)-1], ".,:;!¡¿?")
	for _, kw := range titleKeywords {
		if last == kw {
			return true
		}
	}
	return false
}

// detectDuration finds "<N> días/noches" or the compact "<N>D/<N>N"
// notation. Nights derive from duration when absent, and vice versa.
func detectDuration(text string) (duration, nights int) {
	if m := compactRe.FindStringSubmatch(text); m != nil {
		duration, _ = strconv.Atoi(m[1])
		nights, _ = strconv.Atoi(m[2])
		return duration, nights
	}

	if m := durationRe.FindStringSubmatch(text); m != nil {
		duration, _ = strconv.Atoi(m[1])
	}
	if m := nightsRe.FindStringSubmatch(text); m != nil {
		nights, _ = strconv.Atoi(m[1])
	} else if duration > 0 {
		nights = duration - 1
	}
	if duration == 0 {
		if nights > 0 {
			duration = nights + 1
		} else {
			duration = 1
		}
	}
	return duration, nights
}

func detectPrice(text string) string {
	var raw string
	if m := labeledPriceRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	} else if m := currencyPriceRe.FindStringSubmatch(text); m != nil {
		raw = m[1]
	}
	if raw == "" {
		return ""
	}
	// Drop a 1-2 digit decimal tail, then strip separators.
	if m := decimalTailRe.FindStringSubmatch(raw); m != nil {
		raw = m[1]
	}
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// detectDescription returns the first paragraph before the inclusions
// marker (and before the first day block) that is longer than 40 runes.
func detectDescription(lines []line) string {
	end := len(lines)
	for i, ln := range lines {
		if ln.kind == lineInclusionHeader || ln.kind == lineDayHeader {
			end = i
			break
		}
	}

	// Anchor on the first prose line longer than 40 runes (short lines
	// are titles, durations, price rows), then extend through the rest
	// of its paragraph.
	for i := 0; i < end; i++ {
		if lines[i].kind != lineProse || len([]rune(lines[i].text)) <= 40 {
			continue
		}
		para := []string{lines[i].text}
		for j := i + 1; j < end && lines[j].kind == lineProse; j++ {
			para = append(para, lines[j].text)
		}
		return strings.Join(para, " ")
	}
	return ""
}

// collectItems walks the classified stream with a section flag. The
// first inclusion/exclusion header opens its section; repeats of the
// same header are no-ops until the opposite section (or a day/hotel
// header) closes it.
func collectItems(lines []line) (inclusions, exclusions []plan.LineItem) {
	const (
		sectionNone = iota
		sectionInclusions
		sectionExclusions
	)
	section := sectionNone

	for _, ln := range lines {
		switch ln.kind {
		case lineInclusionHeader:
			section = sectionInclusions
		case lineExclusionHeader:
			section = sectionExclusions
		case lineDayHeader, lineHotelHeader:
			section = sectionNone
		case lineBullet, lineProse:
			if section == sectionNone {
				continue
			}
			item := strings.TrimSpace(ln.text)
			n := len([]rune(item))
			if n <= 2 || n > 300 {
				continue
			}
			if section == sectionInclusions {
				inclusions = append(inclusions, plan.LineItem{Item: item})
			} else {
				exclusions = append(exclusions, plan.LineItem{Item: item})
			}
		}
	}
	return inclusions, exclusions
}

// dayBlock accumulates one itinerary day during assembly.
type dayBlock struct {
	num         int
	title       string
	location    string
	description string
	accom       string
	meals       []string
	timed       []string
	body        []string
}

// collectItinerary splits the stream at day headers and assembles one
// itinerary entry per block. Day numbers are kept in document order;
// duplicates are preserved, never merged or re-sorted.
func collectItinerary(lines []line, limits plan.Limits) []plan.ItineraryDay {
	var blocks []*dayBlock
	var cur *dayBlock

	for _, ln := range lines {
		switch ln.kind {
		case lineDayHeader:
			cur = &dayBlock{num: ln.dayNum, title: ln.rest}
			if cur.num < 1 {
				cur.num = len(blocks) + 1
			}
			blocks = append(blocks, cur)
		case lineHotelHeader, lineInclusionHeader, lineExclusionHeader:
			cur = nil
		case lineBullet, lineProse:
			if cur == nil {
				continue
			}
			switch {
			case locationLabelRe.MatchString(ln.text):
				cur.location = locationLabelRe.FindStringSubmatch(ln.text)[1]
			case dayDescLabelRe.MatchString(ln.text):
				cur.description = dayDescLabelRe.FindStringSubmatch(ln.text)[1]
			case mealsLabelRe.MatchString(ln.text):
				for _, meal := range strings.Split(mealsLabelRe.FindStringSubmatch(ln.text)[1], ",") {
					if meal = strings.TrimSpace(meal); meal != "" {
						cur.meals = append(cur.meals, meal)
					}
				}
			case accomLabelRe.MatchString(ln.text):
				cur.accom = accomLabelRe.FindStringSubmatch(ln.text)[1]
			default:
				if timeLineRe.MatchString(ln.text) {
					cur.timed = append(cur.timed, markupRe.ReplaceAllString(ln.text, ""))
				}
				cur.body = append(cur.body, ln.text)
			}
		}
	}

	days := make([]plan.ItineraryDay, 0, len(blocks))
	for _, b := range blocks {
		placeholder := fmt.Sprintf("Día %d", b.num)
		title := strings.TrimSpace(b.title)
		if title == "" {
			title = placeholder
		}

		body := strings.Join(b.body, "\n")
		if len([]rune(body)) <= 20 && title == placeholder {
			continue
		}

		day := plan.ItineraryDay{
			DayNumber:     b.num,
			Title:         title,
			Location:      strings.TrimSpace(b.location),
			Meals:         b.meals,
			Accommodation: strings.TrimSpace(b.accom),
		}
		if len(b.timed) > 0 {
			// Timestamped sub-lines replace the day body outright.
			day.Description = strings.Join(b.timed, "\n")
			day.Activities = b.timed
		} else if b.description != "" {
			day.Description = strings.TrimSpace(b.description)
		} else {
			day.Description = body
		}
		days = append(days, day)
	}
	return days
}

// collectHotels captures hotel lines after a hotel/lodging header,
// pattern-matching "name - category - location, N noches" with partial
// matches kept and unmatched lines stored as bare hotel names.
func collectHotels(lines []line, limits plan.Limits) []plan.Hotel {
	inSection := false
	var hotels []plan.Hotel

	for _, ln := range lines {
		switch ln.kind {
		case lineHotelHeader:
			inSection = true
		case lineDayHeader, lineInclusionHeader, lineExclusionHeader:
			inSection = false
		case lineBullet, lineProse:
			if !inSection {
				continue
			}
			text := strings.TrimSpace(ln.text)
			if len([]rune(text)) <= 3 {
				continue
			}
			hotels = append(hotels, parseHotelLine(text, limits))
		}
	}
	return hotels
}

func parseHotelLine(text string, limits plan.Limits) plan.Hotel {
	if m := hotelFullRe.FindStringSubmatch(text); m != nil {
		h := plan.Hotel{
			Name:     strings.TrimSpace(m[1]),
			Category: strings.TrimSpace(m[2]),
			Location: strings.TrimSpace(m[3]),
		}
		if m[4] != "" {
			h.Nights, _ = strconv.Atoi(m[4])
		}
		return h
	}
	if m := hotelCatRe.FindStringSubmatch(text); m != nil {
		return plan.Hotel{
			Name:     strings.TrimSpace(m[1]),
			Category: strings.TrimSpace(m[2]),
		}
	}
	return plan.Hotel{Name: truncateRunes(text, limits.MaxHotelName)}
}

func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
