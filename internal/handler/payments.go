package handler

import (
    "context"
    "errors"
    "io"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/neustalgic-grooves/internal/payment"
    "github.com/iliyamo/neustalgic-grooves/internal/reconcile"
)

// IntentCreator creates pending charges.  *payment.Intents satisfies it.
type IntentCreator interface {
    CreateLessonIntent(ctx context.Context, req payment.LessonRequest) (payment.Intent, error)
    CreateSponsorshipIntent(ctx context.Context, req payment.SponsorshipRequest) (payment.Intent, error)
}

// EventApplier applies verified events.  *reconcile.Reconciler satisfies it.
type EventApplier interface {
    Apply(ctx context.Context, ev payment.Event) (reconcile.Outcome, error)
}

// PaymentHandler serves /api/payments.
type PaymentHandler struct {
    Verifier       *payment.Verifier
    Reconciler     EventApplier
    Intents        IntentCreator
    PublishableKey string
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(v *payment.Verifier, r EventApplier, i IntentCreator, publishableKey string) *PaymentHandler {
    return &PaymentHandler{Verifier: v, Reconciler: r, Intents: i, PublishableKey: publishableKey}
}

// Webhook handles POST /api/payments/webhook.
//
// The raw body is verified before anything in it is read.  Authentication
// failures and malformed events get a 400; store failures get a 500 so the
// processor redelivers; everything else, including events that name a
// missing student or lack required metadata, is acknowledged with 200.
func (h *PaymentHandler) Webhook(c echo.Context) error {
    body, err := io.ReadAll(c.Request().Body)
    if err != nil {
        return c.JSON(http.StatusBadRequest, errorBody("could not read body"))
    }
    ev, err := h.Verifier.Verify(body, c.Request().Header.Get("Stripe-Signature"))
    if err != nil {
        c.Logger().Warnf("webhook: rejected: %v", err)
        return c.JSON(http.StatusBadRequest, errorBody("Webhook Error: "+err.Error()))
    }

    outcome, err := h.Reconciler.Apply(c.Request().Context(), ev)
    switch {
    case err == nil:
    case reconcile.IsTerminal(err):
        outcome = reconcile.TerminalOutcome(err)
    case payment.IsValidation(err):
        return c.JSON(http.StatusBadRequest, errorBody("Webhook Error: "+err.Error()))
    default:
        c.Logger().Errorf("webhook: event %s: %v", ev.ID, err)
        return c.JSON(http.StatusInternalServerError, errorBody("temporary failure, retry later"))
    }
    return c.JSON(http.StatusOK, map[string]any{"received": true, "outcome": outcome})
}

type lessonIntentRequest struct {
    Amount     decimal.Decimal `json:"amount"`
    StudentID  string          `json:"studentId" validate:"required"`
    LessonDate string          `json:"lessonDate" validate:"required"`
    LessonTime string          `json:"lessonTime" validate:"required"`
}

// CreateLessonIntent handles POST /api/payments/create-payment-intent.
func (h *PaymentHandler) CreateLessonIntent(c echo.Context) error {
    var req lessonIntentRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    in, err := h.Intents.CreateLessonIntent(c.Request().Context(), payment.LessonRequest{
        Amount:     req.Amount,
        StudentID:  req.StudentID,
        LessonDate: req.LessonDate,
        LessonTime: req.LessonTime,
    })
    return h.intentResponse(c, in, err, "Payment intent creation failed")
}

type sponsorInfo struct {
    Name  string `json:"name" validate:"required"`
    Email string `json:"email" validate:"required,email"`
}

type sponsorshipIntentRequest struct {
    Amount          decimal.Decimal `json:"amount"`
    SponsorshipType string          `json:"sponsorshipType" validate:"required,oneof=student-sponsor dance-bag-kit general-donation"`
    SponsorInfo     sponsorInfo     `json:"sponsorInfo"`
    StudentID       string          `json:"studentId" validate:"required_if=SponsorshipType student-sponsor"`
}

// CreateSponsorshipIntent handles POST /api/payments/create-sponsorship-intent.
func (h *PaymentHandler) CreateSponsorshipIntent(c echo.Context) error {
    var req sponsorshipIntentRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    in, err := h.Intents.CreateSponsorshipIntent(c.Request().Context(), payment.SponsorshipRequest{
        Amount:          req.Amount,
        SponsorshipType: req.SponsorshipType,
        SponsorName:     strings.TrimSpace(req.SponsorInfo.Name),
        SponsorEmail:    strings.ToLower(strings.TrimSpace(req.SponsorInfo.Email)),
        StudentID:       req.StudentID,
    })
    return h.intentResponse(c, in, err, "Sponsorship payment intent creation failed")
}

func (h *PaymentHandler) intentResponse(c echo.Context, in payment.Intent, err error, failure string) error {
    if errors.Is(err, payment.ErrInvalidAmount) {
        return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
    }
    if err != nil {
        c.Logger().Errorf("payments: %s: %v", failure, err)
        return c.JSON(http.StatusInternalServerError, errorBody(failure))
    }
    return c.JSON(http.StatusOK, in)
}

// Config handles GET /api/payments/config.
func (h *PaymentHandler) Config(c echo.Context) error {
    return c.JSON(http.StatusOK, map[string]string{"publishableKey": h.PublishableKey})
}
