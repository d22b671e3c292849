package validation

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	aliasRegex    = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9.\-]*$`)
	fileNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]*$`)
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ValidateURLPrefix checks that prefix is an absolute http(s) URL ending
// in a slash, so that appending a file name yields the file URL.
func ValidateURLPrefix(prefix string) error {
	if prefix == "" {
		return NewValidationError("url_prefix", "URL prefix is required")
	}
	u, err := url.Parse(prefix)
	if err != nil || u.Host == "" {
		return NewValidationError("url_prefix", "invalid URL format")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return NewValidationError("url_prefix", "scheme must be http or https")
	}
	if !strings.HasSuffix(prefix, "/") {
		return NewValidationError("url_prefix", "URL prefix must end with /")
	}
	return nil
}

// ValidateImageFileName validates an image file name
func ValidateImageFileName(name string) error {
	if name == "" {
		return NewValidationError("file", "image file name is required")
	}
	if !fileNameRegex.MatchString(name) {
		return NewValidationError("file", "invalid image file name")
	}
	return nil
}

// ValidateAliases requires at least one alias, each well formed
func ValidateAliases(aliases []string) error {
	if len(aliases) == 0 {
		return NewValidationError("aliases", "at least one alias is required")
	}
	for _, alias := range aliases {
		if !aliasRegex.MatchString(alias) {
			return NewValidationError("aliases", "invalid alias "+alias)
		}
	}
	return nil
}

// ValidateRequired fails if value is blank
func ValidateRequired(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, field+" is required")
	}
	return nil
}
