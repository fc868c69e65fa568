package storage

import "fmt"

// StoreError wraps a connectivity or query failure with the name of the
// operation that hit it. Its message deliberately omits the underlying
// cause; that stays in the logs, not in anything shown to end users.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: operation failed", e.Op)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}
