package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// timestampRe matches an activity line that starts with a clock time,
// e.g. "09:00 - Visita al museo".
var timestampRe = regexp.MustCompile(`^\s*\d{1,2}:\d{2}`)

// Normalize coerces an arbitrary decoded JSON object into a Plan that
// satisfies every schema constraint: missing fields become zero values,
// wrong types are coerced best-effort, strings are truncated to their
// caps, and integers are clamped into range. It never fails; garbage in
// yields an empty-but-valid Plan out.
func Normalize(candidate map[string]any, limits Limits) Plan {
	p := Plan{
		Name:        truncate(asString(candidate["name"]), limits.MaxName),
		Country:     truncate(asString(candidate["country"]), limits.MaxCountry),
		Description: truncate(asString(candidate["description"]), limits.MaxDescription),
		BasePrice:   truncate(digitsOnly(asString(candidate["basePrice"])), limits.MaxBasePrice),
		Itinerary:   make([]ItineraryDay, 0),
		Hotels:      make([]Hotel, 0),
		Inclusions:  make([]LineItem, 0),
		Exclusions:  make([]LineItem, 0),
		PriceTiers:  make([]PriceTier, 0),
		Upgrades:    make([]Upgrade, 0),
	}

	p.Duration = clampInt(asInt(candidate["duration"], 1), 1, limits.MaxDuration)
	nights, ok := asIntOK(candidate["nights"])
	if !ok {
		nights = p.Duration - 1
	}
	p.Nights = clampInt(nights, 0, limits.MaxNights)

	for _, v := range asSlice(candidate["itinerary"]) {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		p.Itinerary = append(p.Itinerary, normalizeDay(m, len(p.Itinerary)+1, limits))
	}

	for _, v := range asSlice(candidate["hotels"]) {
		switch h := v.(type) {
		case map[string]any:
			p.Hotels = append(p.Hotels, Hotel{
				Name:     truncate(asString(h["name"]), limits.MaxHotelName),
				Category: NormalizeCategory(asString(h["category"]), limits.MaxCategory),
				Location: truncate(asString(h["location"]), limits.MaxHotelName),
				Nights:   clampInt(asInt(h["nights"], 0), 0, limits.MaxNights),
			})
		case string:
			// Some models emit hotels as bare name strings.
			if name := strings.TrimSpace(h); name != "" {
				p.Hotels = append(p.Hotels, Hotel{Name: truncate(name, limits.MaxHotelName)})
			}
		}
	}

	p.Inclusions = normalizeItems(candidate["inclusions"], limits.MaxItem)
	p.Exclusions = normalizeItems(candidate["exclusions"], limits.MaxItem)

	for _, v := range asSlice(candidate["priceTiers"]) {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		p.PriceTiers = append(p.PriceTiers, PriceTier{
			StartDate:   strings.TrimSpace(asString(m["startDate"])),
			EndDate:     strings.TrimSpace(asString(m["endDate"])),
			Price:       truncate(digitsOnly(asString(m["price"])), limits.MaxTierPrice),
			IsFlightDay: asBool(m["isFlightDay"]),
			FlightLabel: truncate(asString(m["flightLabel"]), limits.MaxUpgradeName),
		})
	}

	for _, v := range asSlice(candidate["upgrades"]) {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		p.Upgrades = append(p.Upgrades, Upgrade{
			Code:        truncate(asString(m["code"]), limits.MaxUpgradeCode),
			Name:        truncate(asString(m["name"]), limits.MaxUpgradeName),
			Description: truncate(asString(m["description"]), limits.MaxDescription),
			Price:       asFloat(m["price"]),
		})
	}

	return p
}

// NormalizePlan applies the same caps and clamps to an already-typed
// Plan. The heuristic parser builds typed values directly and runs them
// through here so both paths share one set of schema rules.
func NormalizePlan(p Plan, limits Limits) Plan {
	out := p
	out.Name = truncate(strings.TrimSpace(p.Name), limits.MaxName)
	out.Country = truncate(strings.TrimSpace(p.Country), limits.MaxCountry)
	out.Description = truncate(strings.TrimSpace(p.Description), limits.MaxDescription)
	out.BasePrice = truncate(digitsOnly(p.BasePrice), limits.MaxBasePrice)
	out.Duration = clampInt(p.Duration, 1, limits.MaxDuration)
	out.Nights = clampInt(p.Nights, 0, limits.MaxNights)

	out.Itinerary = make([]ItineraryDay, 0, len(p.Itinerary))
	for i, d := range p.Itinerary {
		day := d
		if day.DayNumber < 1 {
			day.DayNumber = i + 1
		}
		day.Title = truncate(strings.TrimSpace(day.Title), limits.MaxDayTitle)
		day.Description = deriveDayDescription(day.Description, day.Activities, limits.MaxDayDescription)
		day.Location = truncate(strings.TrimSpace(day.Location), limits.MaxDayTitle)
		day.Accommodation = truncate(strings.TrimSpace(day.Accommodation), limits.MaxHotelName)
		out.Itinerary = append(out.Itinerary, day)
	}

	out.Hotels = make([]Hotel, 0, len(p.Hotels))
	for _, h := range p.Hotels {
		h.Name = truncate(strings.TrimSpace(h.Name), limits.MaxHotelName)
		h.Category = NormalizeCategory(h.Category, limits.MaxCategory)
		h.Location = truncate(strings.TrimSpace(h.Location), limits.MaxHotelName)
		h.Nights = clampInt(h.Nights, 0, limits.MaxNights)
		if h.Name == "" {
			continue
		}
		out.Hotels = append(out.Hotels, h)
	}

	out.Inclusions = normalizeLineItems(p.Inclusions, limits.MaxItem)
	out.Exclusions = normalizeLineItems(p.Exclusions, limits.MaxItem)

	if out.PriceTiers == nil {
		out.PriceTiers = make([]PriceTier, 0)
	}
	if out.Upgrades == nil {
		out.Upgrades = make([]Upgrade, 0)
	}
	return out
}

func normalizeDay(m map[string]any, fallbackNum int, limits Limits) ItineraryDay {
	day := ItineraryDay{
		DayNumber:     asInt(m["dayNumber"], fallbackNum),
		Title:         truncate(asString(m["title"]), limits.MaxDayTitle),
		Location:      truncate(asString(m["location"]), limits.MaxDayTitle),
		Accommodation: truncate(asString(m["accommodation"]), limits.MaxHotelName),
	}
	if day.DayNumber < 1 {
		day.DayNumber = fallbackNum
	}
	for _, a := range asSlice(m["activities"]) {
		if s := strings.TrimSpace(asString(a)); s != "" {
			day.Activities = append(day.Activities, s)
		}
	}
	for _, meal := range asSlice(m["meals"]) {
		if s := strings.TrimSpace(asString(meal)); s != "" {
			day.Meals = append(day.Meals, s)
		}
	}
	day.Description = deriveDayDescription(asString(m["description"]), day.Activities, limits.MaxDayDescription)
	return day
}

// deriveDayDescription keeps the description consistent with the
// activity list: timestamped activities win, then the supplied
// description, then the plain activities join.
func deriveDayDescription(desc string, activities []string, maxLen int) string {
	timestamped := make([]string, 0, len(activities))
	for _, a := range activities {
		if timestampRe.MatchString(a) {
			timestamped = append(timestamped, strings.TrimSpace(a))
		}
	}
	switch {
	case len(timestamped) > 0:
		desc = strings.Join(timestamped, "\n")
	case strings.TrimSpace(desc) != "":
		desc = strings.TrimSpace(desc)
	case len(activities) > 0:
		desc = strings.Join(activities, "\n")
	}
	return truncate(desc, maxLen)
}

func normalizeItems(v any, maxLen int) []LineItem {
	items := make([]LineItem, 0)
	for _, raw := range asSlice(v) {
		var s string
		switch t := raw.(type) {
		case map[string]any:
			s = asString(t["item"])
		default:
			s = asString(raw)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		items = append(items, LineItem{Item: truncate(s, maxLen)})
	}
	return items
}

func normalizeLineItems(in []LineItem, maxLen int) []LineItem {
	items := make([]LineItem, 0, len(in))
	for _, it := range in {
		s := strings.TrimSpace(it.Item)
		if s == "" {
			continue
		}
		items = append(items, LineItem{Item: truncate(s, maxLen)})
	}
	return items
}

// Coercion helpers. AI output is semi-trusted: any field may arrive as
// the wrong JSON type, so every accessor accepts `any`.

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asInt(v any, fallback int) int {
	if n, ok := asIntOK(v); ok {
		return n
	}
	return fallback
}

func asIntOK(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		s = strings.TrimLeft(s, "$€£ ")
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return 0
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	}
	return false
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}

// digitsOnly strips everything but digits, dropping currency symbols
// and thousands separators.
func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// truncate caps s at maxLen runes.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
