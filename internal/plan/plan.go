// Package plan defines the normalized tour plan schema produced by the
// extraction pipeline, and the normalization layer that coerces any
// candidate value (heuristic output or semi-trusted AI output) into it.
package plan

// Plan is the single output contract of the extraction pipeline.
// Both extraction paths produce the same shape; consumers cannot tell
// the origin apart except via the source tag carried alongside.
type Plan struct {
	Name        string         `json:"name"`
	Country     string         `json:"country"`
	Duration    int            `json:"duration"`
	Nights      int            `json:"nights"`
	Description string         `json:"description"`
	BasePrice   string         `json:"basePrice"`
	Itinerary   []ItineraryDay `json:"itinerary"`
	Hotels      []Hotel        `json:"hotels"`
	Inclusions  []LineItem     `json:"inclusions"`
	Exclusions  []LineItem     `json:"exclusions"`
	PriceTiers  []PriceTier    `json:"priceTiers"`
	Upgrades    []Upgrade      `json:"upgrades"`
}

// ItineraryDay is one day of the itinerary. Title is a short location
// label used for the compact route view; Description holds the full day
// narrative. When activities carry clock times, Description is the
// newline-join of those timestamped lines.
type ItineraryDay struct {
	DayNumber     int      `json:"dayNumber"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Location      string   `json:"location,omitempty"`
	Activities    []string `json:"activities,omitempty"`
	Meals         []string `json:"meals,omitempty"`
	Accommodation string   `json:"accommodation,omitempty"`
}

// Hotel describes one lodging option. Category is normalized to the
// compact "<digit>*" form when recognized.
type Hotel struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
	Nights   int    `json:"nights,omitempty"`
}

// LineItem is a single inclusion or exclusion entry.
type LineItem struct {
	Item string `json:"item"`
}

// PriceTier is a dated price row, optionally flagged as a flight day.
type PriceTier struct {
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate"`
	Price       string `json:"price"`
	IsFlightDay bool   `json:"isFlightDay,omitempty"`
	FlightLabel string `json:"flightLabel,omitempty"`
}

// Upgrade is an optional paid add-on to the base plan.
type Upgrade struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

// Limits holds the string/number caps applied during normalization.
// The day description cap is configurable; the rest are schema
// constants shared by both extraction paths.
type Limits struct {
	MaxName           int
	MaxCountry        int
	MaxDescription    int
	MaxBasePrice      int
	MaxDayTitle       int
	MaxDayDescription int
	MaxHotelName      int
	MaxCategory       int
	MaxItem           int
	MaxTierPrice      int
	MaxUpgradeCode    int
	MaxUpgradeName    int
	MaxDuration       int
	MaxNights         int
}

// DefaultLimits returns the schema caps.
func DefaultLimits() Limits {
	return Limits{
		MaxName:           120,
		MaxCountry:        80,
		MaxDescription:    1000,
		MaxBasePrice:      10,
		MaxDayTitle:       200,
		MaxDayDescription: 3000,
		MaxHotelName:      120,
		MaxCategory:       20,
		MaxItem:           300,
		MaxTierPrice:      10,
		MaxUpgradeCode:    30,
		MaxUpgradeName:    100,
		MaxDuration:       99,
		MaxNights:         99,
	}
}
