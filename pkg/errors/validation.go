package errors

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// Year bounds accepted by indicator queries.
const (
	MinYear = 1960
	MaxYear = 2100
)

// ValidateRequired rejects empty or whitespace-only values.
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Invalid(field, "%s is required", field)
	}
	return nil
}

// ValidateIdentifier validates an upstream identifier (table id, indicator
// code, dataset id) for safety. It rejects control characters and path
// traversal sequences and caps the length at 256.
func ValidateIdentifier(field, value string) error {
	if err := ValidateRequired(field, value); err != nil {
		return err
	}
	if len(value) > 256 {
		return Invalid(field, "%s too long (max 256 characters)", field)
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return Invalid(field, "%s contains invalid control characters", field)
		}
	}
	if strings.Contains(value, "..") || strings.Contains(value, "\\") {
		return Invalid(field, "%s contains invalid characters", field)
	}
	return nil
}

// ValidateRange checks min <= value <= max.
func ValidateRange(field string, value, min, max int) error {
	if value < min || value > max {
		return Invalid(field, "%s must be between %d and %d", field, min, max)
	}
	return nil
}

// countryCodeRegex matches one ISO2/ISO3 or aggregate code.
var countryCodeRegex = regexp.MustCompile(`^[A-Za-z0-9]{1,3}$`)

// ValidateCountryCode accepts a single 1-3 character code or a
// semicolon-joined list of such codes ("JP;US;DE").
func ValidateCountryCode(field, value string) error {
	if err := ValidateRequired(field, value); err != nil {
		return err
	}
	for _, code := range strings.Split(value, ";") {
		if !countryCodeRegex.MatchString(code) {
			return Invalid(field, "invalid country code %q (expected 1-3 characters or a semicolon-separated list)", code)
		}
	}
	return nil
}

// ValidateYearRange checks optional start and end years. Zero means unset.
func ValidateYearRange(startField string, start int, endField string, end int) error {
	if start != 0 {
		if err := ValidateRange(startField, start, MinYear, MaxYear); err != nil {
			return err
		}
	}
	if end != 0 {
		if err := ValidateRange(endField, end, MinYear, MaxYear); err != nil {
			return err
		}
	}
	if start != 0 && end != 0 && start > end {
		return Invalid(startField, "%s must be less than or equal to %s", startField, endField)
	}
	return nil
}

// ValidateOneOf checks value against an allowed set.
func ValidateOneOf(field, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return Invalid(field, "%s must be one of: %s", field, strings.Join(allowed, ", "))
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(field, rawURL string) error {
	if rawURL == "" {
		return Invalid(field, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return Invalid(field, "URL must use http or https scheme")
	}
	return nil
}
