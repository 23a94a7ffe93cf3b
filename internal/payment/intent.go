package payment

import (
    "context"
    "errors"
    "strings"

    "github.com/shopspring/decimal"
    "github.com/stripe/stripe-go/v76"
    "github.com/stripe/stripe-go/v76/paymentintent"
)

// IntentAPI is the subset of the Stripe payment intent client used here.
// paymentintent.Client satisfies it.
type IntentAPI interface {
    New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Intents creates payment intents tagged with the metadata the webhook
// reconciler needs to route the eventual notification.
type Intents struct {
    api      IntentAPI
    currency string
}

// NewIntents returns an Intents backed by the live Stripe API.
func NewIntents(secretKey, currency string) *Intents {
    api := &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey}
    return NewIntentsWithAPI(api, currency)
}

// NewIntentsWithAPI is NewIntents with an injected client.
func NewIntentsWithAPI(api IntentAPI, currency string) *Intents {
    if currency == "" {
        currency = string(stripe.CurrencyUSD)
    }
    return &Intents{api: api, currency: strings.ToLower(currency)}
}

// Intent is what the client needs to confirm a payment.
type Intent struct {
    ClientSecret string `json:"clientSecret"`
    PaymentID    string `json:"paymentIntentId"`
}

// LessonRequest describes a private lesson payment.
type LessonRequest struct {
    Amount     decimal.Decimal
    StudentID  string
    LessonDate string
    LessonTime string
}

// SponsorshipRequest describes a sponsorship payment.
type SponsorshipRequest struct {
    Amount          decimal.Decimal
    SponsorshipType string
    SponsorName     string
    SponsorEmail    string
    StudentID       string
}

// ErrInvalidAmount is returned for non-positive or sub-cent amounts.
var ErrInvalidAmount = errors.New("amount must be positive with at most two decimal places")

// CreateLessonIntent creates an intent for a private lesson.
func (i *Intents) CreateLessonIntent(ctx context.Context, req LessonRequest) (Intent, error) {
    return i.create(ctx, req.Amount, map[string]string{
        MetaPurpose:    PurposePrivateLesson,
        MetaStudentID:  req.StudentID,
        MetaLessonDate: req.LessonDate,
        MetaLessonTime: req.LessonTime,
    })
}

// CreateSponsorshipIntent creates an intent for a sponsorship.
func (i *Intents) CreateSponsorshipIntent(ctx context.Context, req SponsorshipRequest) (Intent, error) {
    return i.create(ctx, req.Amount, map[string]string{
        MetaPurpose:         PurposeSponsorship,
        MetaSponsorshipType: req.SponsorshipType,
        MetaSponsorName:     req.SponsorName,
        MetaSponsorEmail:    req.SponsorEmail,
        MetaStudentID:       req.StudentID,
    })
}

func (i *Intents) create(ctx context.Context, amount decimal.Decimal, meta map[string]string) (Intent, error) {
    if !amount.IsPositive() {
        return Intent{}, ErrInvalidAmount
    }
    minor, err := MajorToMinor(amount)
    if err != nil {
        return Intent{}, ErrInvalidAmount
    }
    params := &stripe.PaymentIntentParams{
        Amount:   stripe.Int64(minor),
        Currency: stripe.String(i.currency),
        AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
            Enabled: stripe.Bool(true),
        },
    }
    params.Context = ctx
    for k, v := range meta {
        if v != "" {
            params.AddMetadata(k, v)
        }
    }
    pi, err := i.api.New(params)
    if err != nil {
        return Intent{}, err
    }
    return Intent{ClientSecret: pi.ClientSecret, PaymentID: pi.ID}, nil
}
