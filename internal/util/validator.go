package util

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDuration reads Plivo's Duration field. Missing, non-numeric and
// negative values count as zero.
func ParseDuration(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ValidateDigits accepts what a keypad can send: 0-9, * and #.
func ValidateDigits(digits string) error {
	if digits == "" {
		return fmt.Errorf("digits are empty")
	}
	if len(digits) > 32 {
		return fmt.Errorf("too many digits, got %d", len(digits))
	}
	for _, r := range digits {
		if (r < '0' || r > '9') && r != '*' && r != '#' {
			return fmt.Errorf("invalid keypad character %q", r)
		}
	}
	return nil
}

// NormalizePhone restores the leading + that URL paths tend to lose.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	if strings.HasPrefix(phone, "sip:") {
		return phone
	}
	return "+" + phone
}
