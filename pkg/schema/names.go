package schema

import (
	"regexp"
	"strings"
)

var nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// FieldName derives the payload key for a label: lower-cased, every run of
// non-word characters collapsed to "_", leading/trailing "_" trimmed.
// "Full Name" becomes "full_name".
func FieldName(label string) string {
	return joinWords(label, "_")
}

// Slug derives a URL-friendly identifier from a form name using "-" as the
// separator. "Employee Intake 2024" becomes "employee-intake-2024".
func Slug(name string) string {
	slug := joinWords(name, "-")
	return strings.ReplaceAll(slug, "_", "-")
}

func joinWords(input, sep string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return ""
	}
	replaced := nonWordPattern.ReplaceAllString(lower, sep)
	return strings.Trim(replaced, sep+"_")
}
