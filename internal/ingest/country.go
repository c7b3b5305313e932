package ingest

import (
	"regexp"
	"strings"
)

// DefaultCountry is used when a request names no valid country.
const DefaultCountry = "us"

var countryPattern = regexp.MustCompile(`^[a-z]{2}$`)

// NormalizeCountry lowercases raw and returns it when it is a two-letter code, else DefaultCountry.
func NormalizeCountry(raw string) string {
	country := strings.ToLower(strings.TrimSpace(raw))
	if !countryPattern.MatchString(country) {
		return DefaultCountry
	}
	return country
}
