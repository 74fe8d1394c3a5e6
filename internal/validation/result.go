// Package validation contains the schema driven field validators and the
// debounced form state that gates analysis submission.
package validation

// Validation message codes. Stable identifiers consumers can match on; the
// human readable text may change.
const (
	CodeRequired            = "REQUIRED"
	CodeMinLength           = "MIN_LENGTH"
	CodeMaxLength           = "MAX_LENGTH"
	CodeNearLimit           = "NEAR_LIMIT"
	CodeWhitespaceOnly      = "WHITESPACE_ONLY"
	CodeInvalidFormat       = "INVALID_FORMAT"
	CodeFileRequired        = "FILE_REQUIRED"
	CodeFileEmpty           = "FILE_EMPTY"
	CodeFileTooLarge        = "FILE_TOO_LARGE"
	CodeInvalidFileType     = "INVALID_FILE_TYPE"
	CodeSuspiciousExtension = "SUSPICIOUS_EXTENSION"
	CodeUnexpectedMimeType  = "UNEXPECTED_MIME_TYPE"
	CodeInvalidFilename     = "INVALID_FILENAME"
	CodeInvalidContent      = "INVALID_CONTENT"
	CodeSecurityViolation   = "SECURITY_VIOLATION"
	CodeShortContent        = "SHORT_CONTENT"
	CodeIncompleteContent   = "INCOMPLETE_CONTENT"
	CodeRepetitiveContent   = "REPETITIVE_CONTENT"
)

// Message is a single validation finding.
type Message struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of validating one value. Warnings never block
// submission; errors do.
type Result struct {
	Errors   []Message `json:"errors"`
	Warnings []Message `json:"warnings"`
}

func (r *Result) addError(code, message string) {
	r.Errors = append(r.Errors, Message{Code: code, Message: message})
}

func (r *Result) addWarning(code, message string) {
	r.Warnings = append(r.Warnings, Message{Code: code, Message: message})
}

func (r *Result) merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Valid reports whether the result carries no errors.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// HasCode reports whether any error or warning carries the given code.
func (r Result) HasCode(code string) bool {
	for _, m := range r.Errors {
		if m.Code == code {
			return true
		}
	}
	for _, m := range r.Warnings {
		if m.Code == code {
			return true
		}
	}
	return false
}
