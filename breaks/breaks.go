// Package breaks defines the closed set of break types the team can take and
// the rules for matching free-form chat text against them.
package breaks

import (
	"sort"
	"strings"
)

// Type describes one configured break type.
type Type struct {
	Code            string // chat code, e.g. "wc", "cf+1"
	Name            string
	DurationMinutes int // expected duration
	DailyLimit      int // advisory per-member per-day quota
}

// Catalog is the closed set of break types, keyed by code.
type Catalog map[string]Type

// Default returns the standard break catalogue.
func Default() Catalog {
	return Catalog{
		"wc":   {Code: "wc", Name: "Waste Control", DurationMinutes: 10, DailyLimit: 5},
		"cy":   {Code: "cy", Name: "Smoking Break", DurationMinutes: 10, DailyLimit: 3},
		"bwc":  {Code: "bwc", Name: "Big Waste Control", DurationMinutes: 20, DailyLimit: 3},
		"cf+1": {Code: "cf+1", Name: "Breakfast", DurationMinutes: 25, DailyLimit: 1},
		"cf+2": {Code: "cf+2", Name: "Lunch", DurationMinutes: 30, DailyLimit: 1},
		"cf+3": {Code: "cf+3", Name: "Dinner", DurationMinutes: 30, DailyLimit: 1},
	}
}

// Get looks up a break type by code.
func (c Catalog) Get(code string) (Type, bool) {
	t, ok := c[code]
	return t, ok
}

// Codes returns all configured codes, longest first so that overlapping codes
// (bwc vs wc) match correctly during parsing.
func (c Catalog) Codes() []string {
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i]) != len(codes[j]) {
			return len(codes[i]) > len(codes[j])
		}
		return codes[i] < codes[j]
	})
	return codes
}

// Normalize lowercases text and strips everything except letters, digits and
// '+' so that "C F + 1!" still matches "cf+1".
func Normalize(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var backKeywords = map[string]bool{
	"back":       true,
	"b":          true,
	"1":          true,
	"btw":        true,
	"backtowork": true,
}

// IsBack reports whether text is one of the punch-back keywords.
func IsBack(text string) bool {
	return backKeywords[Normalize(text)]
}

// IsCancel reports whether text asks to cancel the current break.
func IsCancel(text string) bool {
	clean := Normalize(text)
	return clean == "c" || strings.Contains(clean, "cancel") || strings.Contains(clean, "reset")
}

// ParseCode matches free-form text against the catalogue. Matching is
// substring-based after normalization, longest code first; '+' is optional in
// the input so "cf1" matches "cf+1".
func (c Catalog) ParseCode(text string) (Type, bool) {
	clean := Normalize(text)
	if clean == "" {
		return Type{}, false
	}
	cleanNoPlus := strings.ReplaceAll(clean, "+", "")
	for _, code := range c.Codes() {
		normCode := Normalize(code)
		if strings.Contains(clean, normCode) || strings.Contains(cleanNoPlus, strings.ReplaceAll(normCode, "+", "")) {
			return c[code], true
		}
	}
	return Type{}, false
}
