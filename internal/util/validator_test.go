package util

import (
	"testing"
)

func TestParseDuration(t *testing.T) {
	cases := map[string]int{
		"120":  120,
		" 30 ": 30,
		"0":    0,
		"":     0,
		"abc":  0,
		"-5":   0,
		"12.5": 0,
	}
	for in, want := range cases {
		if got := ParseDuration(in); got != want {
			t.Errorf("ParseDuration(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestValidateDigits_Valid(t *testing.T) {
	for _, d := range []string{"1", "0", "*", "#", "1234#"} {
		if err := ValidateDigits(d); err != nil {
			t.Errorf("ValidateDigits(%q) error = %v, want nil", d, err)
		}
	}
}

func TestValidateDigits_Invalid(t *testing.T) {
	for _, d := range []string{"", "a", "1 2", "<1>", "123456789012345678901234567890123"} {
		if err := ValidateDigits(d); err == nil {
			t.Errorf("ValidateDigits(%q) error = nil, want error", d)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"15551230000":  "+15551230000",
		"+15551230000": "+15551230000",
		" 4420 ":       "+4420",
		"":             "",
		"sip:alice@x":  "sip:alice@x",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}
