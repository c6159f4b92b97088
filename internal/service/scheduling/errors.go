package scheduling

import "fmt"

// ValidationError reports user-correctable input: malformed date or time
// text, empty names, off-grid or out-of-hours slots, past slots. The message
// is safe to show to the end user verbatim.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// ConflictError reports a (doctor, slot) pair that already holds a booked
// appointment. Callers cannot tell whether the advisory pre-check or the
// storage constraint caught it; both surface identically.
type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string {
	return e.msg
}

func conflictError(msg string) error {
	return &ConflictError{msg: msg}
}

// StorageError wraps an unexpected store failure. It is rendered generically
// to end users; the cause stays reachable through Unwrap for logging.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
