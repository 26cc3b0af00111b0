// errors.go - Error taxonomy for the transaction pipeline.
//
// Failures split three ways: SchemeError for cryptographic component
// failures, LedgerError for ledger reads, and panics for programmer errors
// such as wrong record arity. A transaction that merely fails verification
// is not an error at all; Verify returns false.

package dpc

import (
	"fmt"

	"github.com/pkg/errors"
)

// SchemeError wraps a failure inside a cryptographic component.
type SchemeError struct {
	Op  string
	Err error
}

func (e *SchemeError) Error() string {
	return fmt.Sprintf("dpc: %s: %v", e.Op, e.Err)
}

func (e *SchemeError) Unwrap() error { return e.Err }

func schemeError(err error, op string) error {
	if err == nil {
		return nil
	}
	return &SchemeError{Op: op, Err: err}
}

func schemeErrorf(op, format string, args ...interface{}) error {
	return &SchemeError{Op: op, Err: errors.Errorf(format, args...)}
}

// LedgerError wraps a failure reading from the ledger.
type LedgerError struct {
	Op  string
	Err error
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("dpc: ledger %s: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error { return e.Err }

func ledgerError(err error, op string) error {
	if err == nil {
		return nil
	}
	return &LedgerError{Op: op, Err: err}
}

// preconditionf panics on caller contract violations, e.g. passing the
// wrong number of input records.
func preconditionf(format string, args ...interface{}) {
	panic(fmt.Sprintf("dpc: precondition violated: "+format, args...))
}
