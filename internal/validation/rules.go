package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Rule validates a single resolved value. Rules are pure and synchronous:
// no network, no timers, no panics. A value of an unexpected type is
// reported as an error, never thrown.
type Rule func(value any) Result

var patternValidator = validator.New()

// Required rejects nil values and empty strings.
func Required() Rule {
	return func(value any) Result {
		var result Result
		if value == nil {
			result.addError(CodeRequired, "value is required")
			return result
		}
		if s, ok := value.(string); ok && s == "" {
			result.addError(CodeRequired, "value is required")
		}
		return result
	}
}

// NotWhitespaceOnly rejects strings that contain nothing but whitespace.
// Empty strings are left to Required.
func NotWhitespaceOnly() Rule {
	return func(value any) Result {
		var result Result
		s, ok := value.(string)
		if !ok {
			return result
		}
		if s != "" && strings.TrimSpace(s) == "" {
			result.addError(CodeWhitespaceOnly, "value must not be whitespace only")
		}
		return result
	}
}

// Length bounds the rune count of a string to [min, max]. When the remaining
// capacity drops under 10% of max a warning is emitted so the user can be
// nudged before hitting the hard limit.
func Length(min, max int) Rule {
	return func(value any) Result {
		var result Result
		s, ok := value.(string)
		if !ok {
			result.addError(CodeInvalidFormat, "expected a text value")
			return result
		}
		n := utf8.RuneCountInString(s)
		if n < min {
			result.addError(CodeMinLength, fmt.Sprintf("must be at least %d characters (got %d)", min, n))
			return result
		}
		if max > 0 && n > max {
			result.addError(CodeMaxLength, fmt.Sprintf("must be at most %d characters (got %d)", max, n))
			return result
		}
		if max > 0 && max-n < max/10 {
			result.addWarning(CodeNearLimit, fmt.Sprintf("approaching the %d character limit", max))
		}
		return result
	}
}

// Pattern validates a string against a named format. Supported formats are
// "email" and "url", checked with go-playground/validator.
func Pattern(format string) Rule {
	var tag string
	switch format {
	case "email":
		tag = "email"
	case "url":
		tag = "url"
	}
	return func(value any) Result {
		var result Result
		s, ok := value.(string)
		if !ok {
			result.addError(CodeInvalidFormat, "expected a text value")
			return result
		}
		if s == "" {
			return result
		}
		if tag == "" {
			result.addError(CodeInvalidFormat, fmt.Sprintf("unknown format %q", format))
			return result
		}
		if err := patternValidator.Var(s, tag); err != nil {
			result.addError(CodeInvalidFormat, fmt.Sprintf("not a valid %s", format))
		}
		return result
	}
}
