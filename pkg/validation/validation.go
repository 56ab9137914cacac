package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

var (
	// ErrInvalidInput indicates the input failed validation
	ErrInvalidInput = errors.New("invalid input")

	// Resource ids are alphanumeric with hyphens/underscores/dots, 1-128 chars
	resourceIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

	// Metric names follow the exposition format naming rules
	metricNameRegex = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

	// Label names, same as metric names but without colons
	labelNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

// SanitizeString removes potentially dangerous characters and trims whitespace
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	var builder strings.Builder
	for _, r := range input {
		if !unicode.IsControl(r) || r == '\n' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// ValidateResourceID checks if a monitored resource identifier is valid
func ValidateResourceID(id string) error {
	if !resourceIDRegex.MatchString(id) {
		return errors.New("resource id must be alphanumeric with ._- and 1-128 characters")
	}
	return nil
}

// ValidateMetricName checks if a metric name is valid for exposition
func ValidateMetricName(name string) error {
	if !metricNameRegex.MatchString(name) {
		return errors.New("metric name must match [a-zA-Z_:][a-zA-Z0-9_:]*")
	}
	return nil
}

// ValidateLabelName checks if a metric label name is valid
func ValidateLabelName(name string) error {
	if strings.HasPrefix(name, "__") {
		return errors.New("label names beginning with __ are reserved")
	}
	if !labelNameRegex.MatchString(name) {
		return errors.New("label name must match [a-zA-Z_][a-zA-Z0-9_]*")
	}
	return nil
}
