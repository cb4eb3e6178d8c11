package chat

import "fmt"

// StoreError reports a failed membership store or message log operation.
// It is caught at the session boundary and reported to the requester as an
// error event; it never crashes the process.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err with the failed operation name
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// ValidationError reports a missing or malformed required field in an
// inbound event payload. No state is mutated when one is raised.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid field %q", e.Field)
}

// FanoutError reports an unreachable fan-out bus. Local delivery still
// proceeds when one is raised; delivery degrades to single-process until
// the bus recovers.
type FanoutError struct {
	Err error
}

func (e *FanoutError) Error() string {
	return fmt.Sprintf("fanout: %v", e.Err)
}

func (e *FanoutError) Unwrap() error { return e.Err }
