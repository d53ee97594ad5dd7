package utils

import "regexp"

// Mainland mobile numbers: 11 digits, starting 13x-19x.
var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

// ValidPhone reports whether s is a well-formed mobile number. Every
// phone-carrying request is checked before any store access.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}
