package format

import "strings"

const (
	cpfPattern   = "000.000.000-00"
	phonePattern = "(00) 00000-0000"
)

// UnmaskDigits strips everything but ASCII digits.
func UnmaskDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// applyPattern fills the '0' slots of pattern with digits. Literals are
// emitted only while digits remain, so partial input yields a partial
// mask. Extra digits are dropped.
func applyPattern(pattern, digits string) string {
	var b strings.Builder
	i := 0
	for _, p := range pattern {
		if i >= len(digits) {
			break
		}
		if p == '0' {
			b.WriteByte(digits[i])
			i++
			continue
		}
		b.WriteRune(p)
	}
	return b.String()
}

// CPF masks a CPF as 000.000.000-00.
func CPF(value string) string {
	if value == "" {
		return ""
	}
	return applyPattern(cpfPattern, UnmaskDigits(value))
}

// Phone masks a mobile number as (00) 00000-0000.
func Phone(value string) string {
	if value == "" {
		return ""
	}
	return applyPattern(phonePattern, UnmaskDigits(value))
}
