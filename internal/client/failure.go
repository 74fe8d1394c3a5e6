package client

import "fmt"

// Operation names a transport call, used by the error classifier to decide
// how a failure should be treated (a 404 only means "not yet created" when it
// comes from a status poll).
type Operation string

const (
	OpUpload Operation = "upload"
	OpSubmit Operation = "submit"
	OpStatus Operation = "status"
	OpHealth Operation = "health"
)

// Failure is the typed failure returned by every transport operation. It
// carries the HTTP status when a response was received, the service error
// message when one could be decoded, and the original cause otherwise.
type Failure struct {
	Op         Operation
	StatusCode int
	Message    string
	Details    string
	Cause      error
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("%s failed: status %d: %s", f.Op, f.StatusCode, f.Message)
	}
	return fmt.Sprintf("%s failed: %s", f.Op, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}
