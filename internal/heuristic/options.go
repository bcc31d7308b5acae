package heuristic

import (
	"sort"
	"strings"
)

// Options configures the parser. The country alias table and the day
// description cap are deliberate configuration inputs rather than
// hardcoded constants: documents outside the default ES/EN market need
// their own alias tables.
type Options struct {
	// CountryAliases maps lowercased aliases to display names. When
	// nil, DefaultCountryAliases is used; a non-nil map is merged over
	// the defaults.
	CountryAliases map[string]string

	// MaxDayDescription caps each itinerary day description (runes).
	// Zero means the schema default.
	MaxDayDescription int
}

// DefaultCountryAliases covers the destinations that show up in the
// supplier documents this parser was tuned on, in both Spanish and
// English spellings.
func DefaultCountryAliases() map[string]string {
	return map[string]string{
		"turquía": "Turquía", "turquia": "Turquía", "turkey": "Turquía",
		"egipto": "Egipto", "egypt": "Egipto",
		"perú": "Perú", "peru": "Perú",
		"méxico": "México", "mexico": "México",
		"españa": "España", "spain": "España",
		"italia": "Italia", "italy": "Italia",
		"francia": "Francia", "france": "Francia",
		"grecia": "Grecia", "greece": "Grecia",
		"portugal": "Portugal",
		"marruecos": "Marruecos", "morocco": "Marruecos",
		"japón": "Japón", "japon": "Japón", "japan": "Japón",
		"china": "China",
		"india": "India",
		"tailandia": "Tailandia", "thailand": "Tailandia",
		"vietnam": "Vietnam",
		"indonesia": "Indonesia", "bali": "Indonesia",
		"jordania": "Jordania", "jordan": "Jordania",
		"dubái": "Emiratos Árabes", "dubai": "Emiratos Árabes",
		"emiratos árabes": "Emiratos Árabes",
		"colombia": "Colombia",
		"argentina": "Argentina",
		"brasil": "Brasil", "brazil": "Brasil",
		"chile": "Chile",
		"ecuador": "Ecuador",
		"bolivia": "Bolivia",
		"cuba": "Cuba",
		"panamá": "Panamá", "panama": "Panamá",
		"costa rica": "Costa Rica",
		"guatemala": "Guatemala",
		"croacia": "Croacia", "croatia": "Croacia",
		"alemania": "Alemania", "germany": "Alemania",
		"suiza": "Suiza", "switzerland": "Suiza",
		"austria": "Austria",
		"inglaterra": "Inglaterra", "england": "Inglaterra",
		"reino unido": "Reino Unido", "united kingdom": "Reino Unido",
		"estados unidos": "Estados Unidos", "usa": "Estados Unidos",
		"canadá": "Canadá", "canada": "Canadá",
		"sudáfrica": "Sudáfrica", "south africa": "Sudáfrica",
		"kenia": "Kenia", "kenya": "Kenia",
		"tanzania": "Tanzania",
		"australia": "Australia",
	}
}

// aliases returns the effective alias table for these options.
func (o Options) aliases() map[string]string {
	defaults := DefaultCountryAliases()
	if len(o.CountryAliases) == 0 {
		return defaults
	}
	merged := make(map[string]string, len(defaults)+len(o.CountryAliases))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range o.CountryAliases {
		merged[strings.ToLower(k)] = v
	}
	return merged
}

// lookupCountry returns the canonical name when s case-insensitively
// equals a known alias.
func lookupCountry(aliases map[string]string, s string) (string, bool) {
	c, ok := aliases[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// containsCountry scans s for any known country token and returns its
// canonical name. Aliases are tried longest-first, then
// lexicographically, so the result is deterministic when several match.
func containsCountry(aliases map[string]string, s string) (string, bool) {
	lower := strings.ToLower(s)
	keys := make([]string, 0, len(aliases))
	for alias := range aliases {
		keys = append(keys, alias)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, alias := range keys {
		if containsWord(lower, alias) {
			return aliases[alias], true
		}
	}
	return "", false
}

// containsWord reports whether word occurs in s on word boundaries.
func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordByte(s[start-1])
		afterOK := end == len(s) || !isWordByte(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
