package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequired(t *testing.T) {
	tests := []struct {
		name       string
		value      any
		shouldFail bool
	}{
		{name: "nil value fails", value: nil, shouldFail: true},
		{name: "empty string fails", value: "", shouldFail: true},
		{name: "non empty string passes", value: "hello", shouldFail: false},
		{name: "non string value passes", value: 42, shouldFail: false},
	}

	rule := Required()
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := rule(test.value)
			assert.Equal(t, test.shouldFail, !result.Valid())
			if test.shouldFail {
				assert.True(t, result.HasCode(CodeRequired))
			}
		})
	}
}

func TestNotWhitespaceOnly(t *testing.T) {
	rule := NotWhitespaceOnly()

	result := rule("   \t\n ")
	assert.False(t, result.Valid())
	assert.True(t, result.HasCode(CodeWhitespaceOnly))

	assert.True(t, rule("").Valid())
	assert.True(t, rule("  a  ").Valid())
}

func TestLength(t *testing.T) {
	tests := []struct {
		name     string
		min, max int
		value    any
		wantCode string
		isError  bool
	}{
		{name: "below minimum", min: 50, max: 10000, value: strings.Repeat("a", 40), wantCode: CodeMinLength, isError: true},
		{name: "at minimum", min: 50, max: 10000, value: strings.Repeat("a", 50)},
		{name: "above maximum", min: 0, max: 100, value: strings.Repeat("a", 101), wantCode: CodeMaxLength, isError: true},
		{name: "near the limit warns", min: 0, max: 100, value: strings.Repeat("a", 95), wantCode: CodeNearLimit},
		{name: "well under the limit", min: 0, max: 100, value: strings.Repeat("a", 50)},
		{name: "non string input is an error, not a panic", min: 1, max: 10, value: 3.14, wantCode: CodeInvalidFormat, isError: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Length(test.min, test.max)(test.value)
			assert.Equal(t, test.isError, !result.Valid())
			if test.wantCode != "" {
				assert.True(t, result.HasCode(test.wantCode), "expected code %s", test.wantCode)
			}
		})
	}
}

func TestLengthMinimumMessageNamesTheBound(t *testing.T) {
	result := Length(50, 10000)(strings.Repeat("x", 40))
	assert.False(t, result.Valid())
	assert.Contains(t, result.Errors[0].Message, "50")
}

func TestPattern(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		value      any
		shouldFail bool
	}{
		{name: "valid email", format: "email", value: "jane@example.com"},
		{name: "invalid email", format: "email", value: "not-an-email", shouldFail: true},
		{name: "valid url", format: "url", value: "https://example.com/jobs/42"},
		{name: "invalid url", format: "url", value: "::not a url::", shouldFail: true},
		{name: "empty value left to required", format: "email", value: ""},
		{name: "unknown format fails closed", format: "phone", value: "555", shouldFail: true},
		{name: "non string input", format: "email", value: 1, shouldFail: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Pattern(test.format)(test.value)
			assert.Equal(t, test.shouldFail, !result.Valid())
		})
	}
}
