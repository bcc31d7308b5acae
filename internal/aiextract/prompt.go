package aiextract

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// buildSystemPrompt composes the extraction instructions. Tour
// documents are predominantly Spanish-language, so field conventions
// follow the source language rather than forcing translation.
func buildSystemPrompt() string {
	parts := []string{
		"You are a travel tour document parser. Return ONLY JSON that matches the provided JSON Schema.",
		"The documents are tour itineraries from travel agencies, often in Spanish. Keep extracted text in the document's language.",
		"For 'name', use the commercial tour title without duration or price decorations.",
		"For 'country', use the destination country's display name as written in the document's language.",
		"'duration' is the total number of days and 'nights' the number of nights; both are integers.",
		"For 'description', always write a fresh, evocative, persuasive summary of at most 3 lines; never copy a paragraph from the document.",
		"For 'basePrice', use the lowest per-person price, digits only (no currency symbols or thousands separators).",
		"For 'itinerary', number days sequentially with 'dayNumber'; 'title' is a short location label for the day.",
		"When the document separates a brief route summary from a detailed narrative for a day, use the route for 'title' and the narrative for 'description'.",
		"When a day lists timed activities like '09:00 - Visita', keep those lines verbatim in the day's 'description', one per line.",
		"Hotel 'category' must be a digit followed by '*' (e.g. '4*'); convert words like 'cuatro estrellas' accordingly.",
		"Each 'priceTiers' entry is a departure window: 'startDate' and 'endDate' (endDate is required), 'price' digits only, 'isFlightDay' true when the window marks a flight day, and 'flightLabel' with the flight annotation if any.",
		"Never output null. If a field is not present in the document, omit it.",
	}
	return strings.Join(parts, " ")
}

// buildUserPrompt packages the document text plus the schema. Text is
// truncated to the budget so oversized documents still fit provider
// request limits.
func buildUserPrompt(text string, budget int) string {
	text = strings.TrimSpace(text)
	truncated := false
	// The budget counts characters, not bytes: slicing bytes could cut
	// a multi-byte rune in half.
	if budget > 0 && utf8.RuneCountInString(text) > budget {
		runes := []rune(text)
		text = string(runes[:budget])
		truncated = true
	}

	var b strings.Builder
	b.WriteString("Document text")
	if truncated {
		fmt.Fprintf(&b, " (first %d chars)", budget)
	}
	b.WriteString(":\n")
	b.WriteString(text)
	if truncated {
		b.WriteString("\n…(truncated)")
	}
	b.WriteString("\n\nReturn ONLY JSON that matches this schema:\n")
	b.WriteString(mustJSON(planJSONSchema()))
	return b.String()
}

// planJSONSchema returns the response contract as a JSON-Schema map.
// Scalar fields tolerate both string and number forms; normalization
// coerces them afterward, so validation only rejects structural
// nonsense (wrong containers, non-object roots).
func planJSONSchema() map[string]any {
	stringOrNumber := map[string]any{"type": []string{"string", "number", "integer"}}

	dayProps := map[string]any{
		"dayNumber":     stringOrNumber,
		"title":         map[string]any{"type": "string"},
		"description":   map[string]any{"type": "string"},
		"location":      map[string]any{"type": "string"},
		"activities":    stringArray(),
		"meals":         stringArray(),
		"accommodation": map[string]any{"type": "string"},
	}
	hotelProps := map[string]any{
		"name":     map[string]any{"type": "string"},
		"category": map[string]any{"type": "string"},
		"location": map[string]any{"type": "string"},
		"nights":   stringOrNumber,
	}
	tierProps := map[string]any{
		"startDate":   map[string]any{"type": "string"},
		"endDate":     map[string]any{"type": "string"},
		"price":       stringOrNumber,
		"isFlightDay": map[string]any{"type": []string{"boolean", "string"}},
		"flightLabel": map[string]any{"type": "string"},
	}
	upgradeProps := map[string]any{
		"code":        map[string]any{"type": "string"},
		"name":        map[string]any{"type": "string"},
		"price":       stringOrNumber,
		"description": map[string]any{"type": "string"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":        map[string]any{"type": "string"},
			"country":     map[string]any{"type": "string"},
			"duration":    stringOrNumber,
			"nights":      stringOrNumber,
			"description": map[string]any{"type": "string"},
			"basePrice":   stringOrNumber,
			"itinerary": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object", "properties": dayProps},
			},
			"hotels": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":       []string{"object", "string"},
					"properties": hotelProps,
				},
			},
			"inclusions": stringArray(),
			"exclusions": stringArray(),
			"priceTiers": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object", "properties": tierProps},
			},
			"upgrades": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object", "properties": upgradeProps},
			},
		},
	}
}

func stringArray() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
