// utils/validation.go
package utils

import (
	"regexp"
	"strings"
	"time"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	return phonePattern.MatchString(cleaned)
}

// NormalizeWeekday returns the canonical weekday name ("Monday") for any casing.
func NormalizeWeekday(day string) (string, bool) {
	day = strings.TrimSpace(day)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), day) {
			return d.String(), true
		}
	}
	return "", false
}

// NormalizeOfferCode trims and uppercases an offer code.
func NormalizeOfferCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
