package payment

import (
    "encoding/json"
    "errors"
    "strings"
    "time"

    "github.com/stripe/stripe-go/v76"
    "github.com/stripe/stripe-go/v76/webhook"
)

// Verifier checks Stripe-Signature headers against the endpoint secret.
type Verifier struct {
    secret    string
    tolerance time.Duration
}

// NewVerifier returns a Verifier using Stripe's default timestamp
// tolerance of five minutes.
func NewVerifier(secret string) *Verifier {
    return &Verifier{secret: secret, tolerance: webhook.DefaultTolerance}
}

// WithTolerance returns a copy of v accepting timestamps up to d old.
func (v *Verifier) WithTolerance(d time.Duration) *Verifier {
    cp := *v
    cp.tolerance = d
    return &cp
}

// signatureErrors are the errors the webhook package returns when the
// header itself is the problem.
var signatureErrors = []error{
    webhook.ErrNotSigned,
    webhook.ErrInvalidHeader,
    webhook.ErrNoValidSignature,
    webhook.ErrTooOld,
}

// Verify authenticates payload and decodes it.  The signature is checked
// before any field of the body is read.
func (v *Verifier) Verify(payload []byte, header string) (Event, error) {
    if strings.TrimSpace(header) == "" {
        return Event{}, &AuthenticationError{Err: webhook.ErrNotSigned}
    }
    if v.secret == "" {
        return Event{}, &AuthenticationError{Err: errors.New("webhook secret not configured")}
    }
    // API version mismatches are tolerated: only the payment intent fields
    // read below are relied on and they are stable across versions.
    raw, err := webhook.ConstructEventWithOptions(payload, header, v.secret, webhook.ConstructEventOptions{
        Tolerance:                v.tolerance,
        IgnoreAPIVersionMismatch: true,
    })
    if err != nil {
        for _, se := range signatureErrors {
            if errors.Is(err, se) {
                return Event{}, &AuthenticationError{Err: err}
            }
        }
        return Event{}, &ValidationError{Reason: "malformed event body", Err: err}
    }
    return decode(raw)
}

// decode converts a verified stripe.Event into an Event.
func decode(raw stripe.Event) (Event, error) {
    if raw.ID == "" {
        return Event{}, &ValidationError{Reason: "event id missing"}
    }
    ev := Event{ID: raw.ID, Kind: string(raw.Type)}
    if !strings.HasPrefix(ev.Kind, "payment_intent.") {
        return ev, nil
    }
    if raw.Data == nil || len(raw.Data.Raw) == 0 {
        return Event{}, &ValidationError{Reason: "event data missing"}
    }
    var pi stripe.PaymentIntent
    if err := json.Unmarshal(raw.Data.Raw, &pi); err != nil {
        return Event{}, &ValidationError{Reason: "payment intent undecodable", Err: err}
    }
    if pi.ID == "" {
        return Event{}, &ValidationError{Reason: "payment intent id missing"}
    }
    ev.PaymentID = pi.ID
    ev.Amount = pi.Amount
    ev.Currency = string(pi.Currency)
    ev.Metadata = pi.Metadata
    if ev.Metadata == nil {
        ev.Metadata = map[string]string{}
    }
    return ev, nil
}
