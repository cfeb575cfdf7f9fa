package api

import "strings"

// MaskCardNumber hides all but the last four digits of a card number at the
// API boundary. Digits are extracted ignoring separators; fewer than four
// digits masks to a bare "****". Empty input stays nil.
func MaskCardNumber(ccNumber *string) *string {
	if ccNumber == nil || *ccNumber == "" {
		return nil
	}

	var digits strings.Builder
	for _, ch := range *ccNumber {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}

	masked := "****"
	if digits.Len() >= 4 {
		d := digits.String()
		masked = "**** **** **** " + d[len(d)-4:]
	}
	return &masked
}
