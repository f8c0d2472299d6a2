// Package rejection defines the exhaustive, structured error taxonomy
// returned at the admission boundary.
//
// Modeled directly on the teacher's single structured error type
// (Kind/RuleID/Message/Cause with errors.As-based inspection helpers):
// callers are expected to branch on Reason, never on the error string.
package rejection

import "errors"

// Reason is a stable category for programmatic rejection handling.
type Reason string

const (
	ReasonInvalidInput      Reason = "InvalidInput"
	ReasonBufferOverflow    Reason = "BufferOverflow"
	ReasonInvalidUTF8       Reason = "InvalidUtf8InCanonicalStream"
	ReasonUnnormalized      Reason = "Unnormalized"
	ReasonNoMatch           Reason = "NoMatch"
	ReasonBudgetExceeded    Reason = "BudgetExceeded"
	ReasonRegistryFull      Reason = "RegistryFull"
	ReasonRegistryExhausted Reason = "RegistryExhausted"
	ReasonInvalidPattern    Reason = "InvalidPattern"
	ReasonUnsupportedFormat Reason = "UnsupportedFormat"
)

// Error is the engine's structured rejection type. Position and StateID are
// -1 when not applicable to the Reason.
type Error struct {
	Reason   Reason
	Position int
	StateID  int
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New builds a rejection with no position/state context.
func New(reason Reason, msg string) error {
	return &Error{Reason: reason, Position: -1, StateID: -1, Message: msg}
}

// NewAt builds a rejection anchored to a byte offset and DFA state.
func NewAt(reason Reason, position, stateID int, msg string) error {
	return &Error{Reason: reason, Position: position, StateID: stateID, Message: msg}
}

// Wrap builds a rejection that preserves a lower-layer cause (e.g. a uscn
// normalization failure) via errors.Unwrap.
func Wrap(reason Reason, msg string, cause error) error {
	return &Error{Reason: reason, Position: -1, StateID: -1, Message: msg, Cause: cause}
}

// IsReason reports whether err is (or wraps) an *Error with the given
// Reason.
func IsReason(err error, reason Reason) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Reason == reason
}

// PositionOf returns the byte offset carried by a structured rejection, or
// -1 if err is not a rejection or carries no position.
func PositionOf(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return -1
	}
	return e.Position
}

// ReasonOf returns the Reason carried by a structured rejection, or "" if
// err is not a rejection.
func ReasonOf(err error) Reason {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Reason
}
