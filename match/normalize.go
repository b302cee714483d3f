package match

// Normalizer maps upstream display names to the canonical names the
// downstream system stores, scoped by league. The same club can carry
// different display names between league types (the Academy side of a club
// is a distinct entity downstream), so lookups are exact-match within a
// league scope. Names absent from the table pass through unchanged.
//
// The table is injected into the scrape capability at construction — it is
// configuration, not ambient package state.
type Normalizer map[string]map[string]string

// Normalize returns the canonical name for a display name within a league
// scope, or the display name itself when no override exists.
func (n Normalizer) Normalize(league, name string) string {
	if overrides, ok := n[league]; ok {
		if canonical, ok := overrides[name]; ok {
			return canonical
		}
	}
	return name
}

// DefaultNormalizer covers the display-name drift observed on the upstream
// site. The Academy entry maps to a different canonical name than the
// Homegrown one for the same club.
func DefaultNormalizer() Normalizer {
	return Normalizer{
		"Homegrown": {
			"Intercontinental Football Academy of New England": "IFA",
			"Intercontinental Football Academy":                "IFA",
		},
		"Academy": {
			"Intercontinental Football Academy of New England": "IFA Academy",
			"Intercontinental Football Academy":                "IFA Academy",
		},
	}
}
