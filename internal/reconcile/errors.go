package reconcile

import (
    "errors"
    "fmt"
)

// ReferenceNotFoundError means the event names an entity that does not
// exist.  It is terminal: retrying will not make the student appear, so
// the notification is acknowledged and left for manual reconciliation.
type ReferenceNotFoundError struct {
    Entity string
    ID     string
}

func (e *ReferenceNotFoundError) Error() string {
    return fmt.Sprintf("%s %q referenced by payment event not found", e.Entity, e.ID)
}

// InvalidMetadataError means a signed payment event lacks metadata its
// purpose needs, such as a lesson without a studentId.  The processor would
// redeliver the same metadata forever, so it is terminal like
// ReferenceNotFoundError.
type InvalidMetadataError struct {
    Reason string
}

func (e *InvalidMetadataError) Error() string { return "payment event metadata: " + e.Reason }

// StoreError wraps a store failure.  It is retryable and must withhold the
// acknowledgment so the processor redelivers.
type StoreError struct {
    Op  string
    Err error
}

func (e *StoreError) Error() string { return "store " + e.Op + ": " + e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

// IsTerminal reports whether err should still be acknowledged.
func IsTerminal(err error) bool {
    return TerminalOutcome(err) != ""
}

// TerminalOutcome names the acknowledged outcome for a terminal error, or
// returns "" when err is not terminal.
func TerminalOutcome(err error) Outcome {
    var (
        rnf *ReferenceNotFoundError
        ime *InvalidMetadataError
    )
    switch {
    case errors.As(err, &rnf):
        return OutcomeReferenceNotFound
    case errors.As(err, &ime):
        return OutcomeInvalidMetadata
    }
    return ""
}

// IsRetryable reports whether err is a StoreError.
func IsRetryable(err error) bool {
    var se *StoreError
    return errors.As(err, &se)
}
