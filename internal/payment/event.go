// Package payment wraps the Stripe integration: verifying webhook
// signatures, turning verified notifications into Event values, and
// creating payment intents for lessons and sponsorships.
package payment

import (
    "errors"
    "fmt"

    "github.com/shopspring/decimal"
)

// Event kinds the reconciliation flow acts on.
const (
    KindSucceeded = "payment_intent.succeeded"
    KindFailed    = "payment_intent.payment_failed"
)

// Purposes written into intent metadata under the "type" key.
const (
    PurposePrivateLesson = "private-lesson"
    PurposeSponsorship   = "sponsorship"
)

// Metadata keys written by CreateLessonIntent and CreateSponsorshipIntent.
const (
    MetaPurpose         = "type"
    MetaPurposeFallback = "purpose"
    MetaStudentID       = "studentId"
    MetaLessonDate      = "lessonDate"
    MetaLessonTime      = "lessonTime"
    MetaSponsorshipType = "sponsorshipType"
    MetaSponsorName     = "sponsorName"
    MetaSponsorEmail    = "sponsorEmail"
)

// Event is a verified payment notification.  For kinds other than the
// payment intent ones only ID and Kind are set.
type Event struct {
    ID        string
    Kind      string
    PaymentID string // payment intent id, e.g. "pi_..."
    Amount    int64  // minor currency units
    Currency  string
    Metadata  map[string]string
}

// Purpose returns the purpose tag from the metadata.
func (e Event) Purpose() string {
    if p := e.Metadata[MetaPurpose]; p != "" {
        return p
    }
    return e.Metadata[MetaPurposeFallback]
}

// Meta returns a metadata value or "".
func (e Event) Meta(key string) string { return e.Metadata[key] }

// MajorAmount converts Amount from minor to major units exactly.
func (e Event) MajorAmount() decimal.Decimal { return MinorToMajor(e.Amount) }

// MinorToMajor divides a minor unit amount by 100 without rounding.
func MinorToMajor(minor int64) decimal.Decimal { return decimal.New(minor, -2) }

// MajorToMinor converts a major unit amount into minor units.  Fractions
// of a cent are rejected.
func MajorToMinor(major decimal.Decimal) (int64, error) {
    minor := major.Shift(2)
    if !minor.Equal(minor.Truncate(0)) {
        return 0, fmt.Errorf("amount %s has more than two decimal places", major)
    }
    return minor.IntPart(), nil
}

// AuthenticationError means the webhook signature was missing, malformed,
// stale or did not match.  Nothing in the payload may be trusted.
type AuthenticationError struct {
    Err error
}

func (e *AuthenticationError) Error() string {
    return "webhook signature verification failed: " + e.Err.Error()
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// ValidationError means a signed payload did not have the shape a payment
// event needs, such as a missing object id or missing required metadata.
type ValidationError struct {
    Reason string
    Err    error
}

func (e *ValidationError) Error() string {
    if e.Err != nil {
        return "invalid payment event: " + e.Reason + ": " + e.Err.Error()
    }
    return "invalid payment event: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsAuthentication reports whether err is an AuthenticationError.
func IsAuthentication(err error) bool {
    var ae *AuthenticationError
    return errors.As(err, &ae)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
    var ve *ValidationError
    return errors.As(err, &ve)
}
