package validation

import "net/mail"

// ValidEmail returns true if the address parses as RFC 5322 and has no
// display name. The store compares emails exact-match; no normalization
// happens here beyond what the caller trims.
func ValidEmail(addr string) bool {
	if addr == "" {
		return false
	}
	a, err := mail.ParseAddress(addr)
	if err != nil {
		return false
	}
	return a.Address == addr
}

// ValidOTPCode returns true for a 6-digit decimal code.
func ValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
