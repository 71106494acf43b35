package models

import (
	"regexp"
	"unicode/utf8"
)

const (
	MinMillNameLen = 2
	MaxMillNameLen = 100
)

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	// Address format accepted by the existing web client.
	mailPattern = regexp.MustCompile(`^\w+([\.-]?\w+)*@\w+([\.-]?\w+)*(\.\w{2,3})+$`)
)

// ValidPhone reports whether s is a ten digit phone number.
func ValidPhone(s string) bool { return phonePattern.MatchString(s) }

// ValidEmail reports whether s is an address the web client accepts.
func ValidEmail(s string) bool { return mailPattern.MatchString(s) }

// ValidMillName checks the name length in characters.
func ValidMillName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= MinMillNameLen && n <= MaxMillNameLen
}
