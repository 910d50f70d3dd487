package contact

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// local@domain.tld with no whitespace and no second @ in any part. RE2's \s
// is ASCII only, so Unicode separators and BOM are listed as well.
var emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)

type lengthRule struct {
	label string
	min   int
}

var lengthRules = map[Field]lengthRule{
	FieldName:    {label: "Name", min: 2},
	FieldSubject: {label: "Subject", min: 5},
	FieldMessage: {label: "Message", min: 10},
}

// ValidateField checks a single value and returns the user-facing message,
// or "" when the value is acceptable. Unknown fields always pass.
func ValidateField(field Field, value string) string {
	trimmed := strings.TrimSpace(value)

	if field == FieldEmail {
		if trimmed == "" {
			return "Email is required"
		}
		if !emailPattern.MatchString(value) {
			return "Please enter a valid email address"
		}
		return ""
	}

	rule, ok := lengthRules[field]
	if !ok {
		return ""
	}
	if trimmed == "" {
		return rule.label + " is required"
	}
	// Counted in characters (runes), not UTF-16 units.
	if utf8.RuneCountInString(trimmed) < rule.min {
		return rule.label + " must be at least " + strconv.Itoa(rule.min) + " characters"
	}
	return ""
}

// Validate runs every field and returns the complete error set.
func Validate(form Form) Errors {
	errs := Errors{}
	for _, f := range Fields() {
		if msg := ValidateField(f, form.Value(f)); msg != "" {
			errs[f] = msg
		}
	}
	return errs
}
