package plan

import (
	"strings"
	"testing"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"3*", "3*"},
		{"3 *", "3*"},
		{"3", "3*"},
		{"3 stars", "3*"},
		{"3 star", "3*"},
		{"three stars", "3*"},
		{"Three Stars", "3*"},
		{"3 estrellas", "3*"},
		{"tres estrellas", "3*"},
		{"cuatro estrellas", "4*"},
		{"5 Estrellas Gran Lujo", "5*"},
		{"", ""},
		{"Boutique", "Boutique"},
		{"Categoría turista superior premium plus", "Categoría turista su"},
		// Unrecognized names survive verbatim: no substring word hits
		// ("una" inside "Luna"), no stray-digit hits ("2021").
		{"Luna Boutique", "Luna Boutique"},
		{"Pensión Dosmil", "Pensión Dosmil"},
		{"Primera 2021", "Primera 2021"},
		{"Gran Turismo", "Gran Turismo"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeCategory(tt.in, 20)
			if got != tt.want {
				t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeCategoryAgreement(t *testing.T) {
	// Spellings of the same category must converge on one form.
	forms := []string{"three stars", "3 estrellas", "3*", "tres estrellas"}
	for _, f := range forms {
		if got := NormalizeCategory(f, 20); got != "3*" {
			t.Errorf("NormalizeCategory(%q) = %q, want 3*", f, got)
		}
	}
}

func TestNormalizeEmptyCandidate(t *testing.T) {
	p := Normalize(map[string]any{}, DefaultLimits())

	if p.Duration != 1 {
		t.Errorf("duration = %d, want 1", p.Duration)
	}
	if p.Nights != 0 {
		t.Errorf("nights = %d, want 0", p.Nights)
	}
	if p.BasePrice != "" {
		t.Errorf("basePrice = %q, want empty", p.BasePrice)
	}
	// Arrays must be non-nil so they serialize as [] rather than null.
	if p.Itinerary == nil || p.Hotels == nil || p.Inclusions == nil ||
		p.Exclusions == nil || p.PriceTiers == nil || p.Upgrades == nil {
		t.Error("expected all slices to be non-nil")
	}
}

func TestNormalizeCoercesWrongTypes(t *testing.T) {
	candidate := map[string]any{
		"name":      42.0,
		"country":   true,
		"duration":  "7",
		"nights":    "6.0",
		"basePrice": "USD 1,299",
		"itinerary": []any{
			map[string]any{"dayNumber": "2", "title": 1.5, "description": nil},
			"not a day object",
		},
		"hotels": []any{
			map[string]any{"name": "Hotel Plaza", "category": "cuatro estrellas", "nights": 3.0},
			"Hostal del Mar",
		},
		"inclusions": []any{"Desayuno", map[string]any{"item": "  Traslados  "}, "", "  "},
		"upgrades": []any{
			map[string]any{"code": "UPG1", "name": "Suite", "price": "250.50"},
			map[string]any{"code": "UPG2", "name": "Spa", "price": nil},
		},
	}

	p := Normalize(candidate, DefaultLimits())

	if p.Name != "42" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Duration != 7 || p.Nights != 6 {
		t.Errorf("duration/nights = %d/%d, want 7/6", p.Duration, p.Nights)
	}
	if p.BasePrice != "1299" {
		t.Errorf("basePrice = %q, want 1299", p.BasePrice)
	}
	if len(p.Itinerary) != 1 || p.Itinerary[0].DayNumber != 2 {
		t.Fatalf("itinerary = %+v", p.Itinerary)
	}
	if len(p.Hotels) != 2 {
		t.Fatalf("hotels = %+v", p.Hotels)
	}
	if p.Hotels[0].Category != "4*" || p.Hotels[0].Nights != 3 {
		t.Errorf("hotel[0] = %+v", p.Hotels[0])
	}
	if p.Hotels[1].Name != "Hostal del Mar" {
		t.Errorf("hotel[1] = %+v", p.Hotels[1])
	}
	if len(p.Inclusions) != 2 || p.Inclusions[1].Item != "Traslados" {
		t.Errorf("inclusions = %+v", p.Inclusions)
	}
	if len(p.Upgrades) != 2 || p.Upgrades[0].Price != 250.50 || p.Upgrades[1].Price != 0 {
		t.Errorf("upgrades = %+v", p.Upgrades)
	}
}

func TestNormalizeEnforcesCaps(t *testing.T) {
	long := strings.Repeat("x", 5000)
	candidate := map[string]any{
		"name":        long,
		"country":     long,
		"description": long,
		"duration":    500.0,
		"nights":      -3.0,
		"basePrice":   strings.Repeat("9", 40),
		"itinerary": []any{
			map[string]any{"dayNumber": 1, "title": long, "description": long},
		},
		"hotels":     []any{map[string]any{"name": long, "category": long, "nights": 1000.0}},
		"inclusions": []any{long},
	}

	limits := DefaultLimits()
	p := Normalize(candidate, limits)

	checks := []struct {
		field string
		got   int
		max   int
	}{
		{"name", len(p.Name), limits.MaxName},
		{"country", len(p.Country), limits.MaxCountry},
		{"description", len(p.Description), limits.MaxDescription},
		{"basePrice", len(p.BasePrice), limits.MaxBasePrice},
		{"day title", len(p.Itinerary[0].Title), limits.MaxDayTitle},
		{"day description", len(p.Itinerary[0].Description), limits.MaxDayDescription},
		{"hotel name", len(p.Hotels[0].Name), limits.MaxHotelName},
		{"hotel category", len(p.Hotels[0].Category), limits.MaxCategory},
		{"inclusion item", len(p.Inclusions[0].Item), limits.MaxItem},
	}
	for _, c := range checks {
		if c.got > c.max {
			t.Errorf("%s length %d exceeds cap %d", c.field, c.got, c.max)
		}
	}

	if p.Duration != limits.MaxDuration {
		t.Errorf("duration = %d, want clamped to %d", p.Duration, limits.MaxDuration)
	}
	if p.Nights != 0 {
		t.Errorf("nights = %d, want clamped to 0", p.Nights)
	}
	if p.Hotels[0].Nights != limits.MaxNights {
		t.Errorf("hotel nights = %d, want %d", p.Hotels[0].Nights, limits.MaxNights)
	}
}

func TestNormalizeDerivesNightsFromDuration(t *testing.T) {
	p := Normalize(map[string]any{"duration": 8.0}, DefaultLimits())
	if p.Nights != 7 {
		t.Errorf("nights = %d, want 7", p.Nights)
	}
}

func TestDeriveDayDescription(t *testing.T) {
	t.Run("timestamped activities replace description", func(t *testing.T) {
		day := normalizeDay(map[string]any{
			"dayNumber":   1,
			"description": "resumen largo del día",
			"activities":  []any{"09:00 - Museo", "14:00 - Almuerzo"},
		}, 1, DefaultLimits())

		want := "09:00 - Museo\n14:00 - Almuerzo"
		if day.Description != want {
			t.Errorf("description = %q, want %q", day.Description, want)
		}
	})

	t.Run("plain activities fill empty description", func(t *testing.T) {
		day := normalizeDay(map[string]any{
			"dayNumber":  1,
			"activities": []any{"Museo", "Almuerzo"},
		}, 1, DefaultLimits())

		if day.Description != "Museo\nAlmuerzo" {
			t.Errorf("description = %q", day.Description)
		}
	})

	t.Run("supplied description kept when activities lack times", func(t *testing.T) {
		day := normalizeDay(map[string]any{
			"dayNumber":   1,
			"description": "Día libre en la ciudad",
			"activities":  []any{"Paseo opcional"},
		}, 1, DefaultLimits())

		if day.Description != "Día libre en la ciudad" {
			t.Errorf("description = %q", day.Description)
		}
	})
}

func TestNormalizePlanRoundTrip(t *testing.T) {
	p := Plan{
		Name:       "  Turquía Mágica  ",
		Country:    "Turquía",
		Duration:   0,
		Nights:     -1,
		BasePrice:  "$1.299",
		Hotels:     []Hotel{{Name: " Hotel Plaza ", Category: "4 estrellas"}, {Name: "   "}},
		Inclusions: []LineItem{{Item: " Desayuno "}, {Item: ""}},
	}

	out := NormalizePlan(p, DefaultLimits())

	if out.Name != "Turquía Mágica" {
		t.Errorf("name = %q", out.Name)
	}
	if out.Duration != 1 || out.Nights != 0 {
		t.Errorf("duration/nights = %d/%d", out.Duration, out.Nights)
	}
	if out.BasePrice != "1299" {
		t.Errorf("basePrice = %q", out.BasePrice)
	}
	if len(out.Hotels) != 1 || out.Hotels[0].Category != "4*" {
		t.Errorf("hotels = %+v", out.Hotels)
	}
	if len(out.Inclusions) != 1 {
		t.Errorf("inclusions = %+v", out.Inclusions)
	}
	if out.PriceTiers == nil || out.Upgrades == nil {
		t.Error("expected non-nil tier/upgrade slices")
	}
}
