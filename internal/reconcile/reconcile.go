// Package reconcile applies verified payment notifications to the store.
//
// Every state change for one notification happens inside a single ledger
// transaction that begins by claiming the event id.  A redelivered event
// loses the claim and changes nothing; a failure anywhere rolls back the
// claim together with the mutation so the processor can redeliver.
package reconcile

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/payment"
    "github.com/iliyamo/neustalgic-grooves/internal/queue"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// Outcome describes what Apply did with an event.
type Outcome string

const (
    OutcomeApplied   Outcome = "applied"
    OutcomeDuplicate Outcome = "duplicate"
    OutcomeIgnored   Outcome = "ignored"
    OutcomeNoMatch   Outcome = "no-match"

    // Reported with a terminal error; see TerminalOutcome.
    OutcomeReferenceNotFound Outcome = "reference-not-found"
    OutcomeInvalidMetadata   Outcome = "invalid-metadata"
)

// Notifier announces committed reconciliations.  Failures are logged only.
type Notifier interface {
    PublishPaymentReconciled(ctx context.Context, ev queue.PaymentReconciledEvent) error
}

// Reconciler routes events to their handlers.
type Reconciler struct {
    ledger   store.PaymentLedger
    notifier Notifier
    now      func() time.Time
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithNotifier publishes a notification after every applied event.
func WithNotifier(n Notifier) Option { return func(r *Reconciler) { r.notifier = n } }

// WithClock overrides the processing time source.
func WithClock(now func() time.Time) Option { return func(r *Reconciler) { r.now = now } }

// New returns a Reconciler writing through ledger.
func New(ledger store.PaymentLedger, opts ...Option) *Reconciler {
    r := &Reconciler{ledger: ledger, now: func() time.Time { return time.Now().UTC() }}
    for _, o := range opts {
        o(r)
    }
    return r
}

// effect is the purpose-specific mutation run after the claim.  It fills
// in the notification fields it knows about.
type effect func(ctx context.Context, tx store.LedgerTx, ev payment.Event, at time.Time, note *queue.PaymentReconciledEvent) (Outcome, error)

// Apply reconciles one verified event.
//
// A nil error comes with one of the Outcome values.  A
// *ReferenceNotFoundError or *InvalidMetadataError is terminal and should
// still be acknowledged; a *payment.ValidationError means the event itself
// is malformed; a *StoreError is retryable.
func (r *Reconciler) Apply(ctx context.Context, ev payment.Event) (Outcome, error) {
    var fn effect
    purpose := ev.Purpose()
    switch ev.Kind {
    case payment.KindSucceeded:
        switch purpose {
        case payment.PurposePrivateLesson:
            fn = r.privateLesson
        case payment.PurposeSponsorship:
            fn = r.sponsorship
        }
    case payment.KindFailed:
        // Failed lesson charges leave the student's status untouched; the
        // student is still "pending" from registration.
        if purpose == payment.PurposeSponsorship {
            fn = r.failedSponsorship
        }
    }
    if fn == nil {
        log.Printf("reconcile: ignoring event id=%s kind=%s purpose=%q", ev.ID, ev.Kind, purpose)
        return OutcomeIgnored, nil
    }
    if err := validate(ev); err != nil {
        log.Printf("reconcile: event id=%s payment=%s needs manual reconciliation: %v", ev.ID, ev.PaymentID, err)
        return "", err
    }

    at := r.now()
    note := queue.PaymentReconciledEvent{
        EventID:      ev.ID,
        PaymentID:    ev.PaymentID,
        Kind:         ev.Kind,
        Purpose:      purpose,
        Amount:       ev.MajorAmount().String(),
        Currency:     ev.Currency,
        ReconciledAt: at.Format(time.RFC3339),
    }
    var outcome Outcome
    err := r.ledger.WithinTx(ctx, func(tx store.LedgerTx) error {
        claim := model.ProcessedEvent{
            EventID:     ev.ID,
            PaymentID:   ev.PaymentID,
            Kind:        ev.Kind,
            Purpose:     purpose,
            ProcessedAt: at,
        }
        if err := tx.ClaimEvent(ctx, claim); err != nil {
            if errors.Is(err, store.ErrDuplicate) {
                outcome = OutcomeDuplicate
                return errDuplicate
            }
            return &StoreError{Op: "claim event", Err: err}
        }
        o, err := fn(ctx, tx, ev, at, &note)
        if err != nil {
            return err
        }
        outcome = o
        return nil
    })
    switch {
    case errors.Is(err, errDuplicate):
        log.Printf("reconcile: duplicate event id=%s payment=%s", ev.ID, ev.PaymentID)
        return OutcomeDuplicate, nil
    case err != nil:
        var (
            rnf *ReferenceNotFoundError
            se  *StoreError
        )
        switch {
        case errors.As(err, &rnf):
            log.Printf("reconcile: event id=%s payment=%s needs manual reconciliation: %v", ev.ID, ev.PaymentID, err)
        case errors.As(err, &se):
            log.Printf("reconcile: event id=%s payment=%s failed: %v", ev.ID, ev.PaymentID, err)
        default:
            // Commit and begin failures surface here unwrapped.
            err = &StoreError{Op: "transaction", Err: err}
            log.Printf("reconcile: event id=%s payment=%s failed: %v", ev.ID, ev.PaymentID, err)
        }
        return "", err
    }

    note.Outcome = string(outcome)
    log.Printf("reconcile: event id=%s payment=%s purpose=%s outcome=%s", ev.ID, ev.PaymentID, purpose, outcome)
    if outcome == OutcomeDuplicate {
        return outcome, nil
    }
    r.notify(ctx, note)
    return outcome, nil
}

// errDuplicate aborts the transaction after a lost claim.
var errDuplicate = errors.New("event already processed")

func (r *Reconciler) notify(ctx context.Context, note queue.PaymentReconciledEvent) {
    if r.notifier == nil {
        return
    }
    if err := r.notifier.PublishPaymentReconciled(ctx, note); err != nil {
        log.Printf("reconcile: notify event id=%s failed: %v", note.EventID, err)
    }
}

// validate checks the metadata a handler cannot do without.  Nothing is
// claimed when it fails.
func validate(ev payment.Event) error {
    if ev.PaymentID == "" {
        return &payment.ValidationError{Reason: "payment id missing"}
    }
    if ev.Kind != payment.KindSucceeded {
        return nil
    }
    switch ev.Purpose() {
    case payment.PurposePrivateLesson:
        if ev.Meta(payment.MetaStudentID) == "" {
            return &InvalidMetadataError{Reason: "private lesson without studentId"}
        }
    case payment.PurposeSponsorship:
        if !model.SponsorshipType(ev.Meta(payment.MetaSponsorshipType)).Valid() {
            return &InvalidMetadataError{Reason: "unknown sponsorshipType " + ev.Meta(payment.MetaSponsorshipType)}
        }
        if ev.Meta(payment.MetaSponsorEmail) == "" {
            return &InvalidMetadataError{Reason: "sponsorship without sponsorEmail"}
        }
    }
    if ev.Amount <= 0 {
        return &InvalidMetadataError{Reason: "non-positive amount"}
    }
    return nil
}

func (r *Reconciler) privateLesson(ctx context.Context, tx store.LedgerTx, ev payment.Event, at time.Time, note *queue.PaymentReconciledEvent) (Outcome, error) {
    studentID := ev.Meta(payment.MetaStudentID)
    note.StudentID = studentID
    rec := model.PaymentRecord{
        Amount:            ev.MajorAmount(),
        Date:              at,
        ExternalPaymentID: ev.PaymentID,
        Description:       "Private lesson - " + ev.Meta(payment.MetaLessonDate) + " " + ev.Meta(payment.MetaLessonTime),
    }
    if err := tx.AppendStudentPayment(ctx, studentID, rec); err != nil {
        if errors.Is(err, store.ErrNotFound) {
            return "", &ReferenceNotFoundError{Entity: "student", ID: studentID}
        }
        return "", &StoreError{Op: "append student payment", Err: err}
    }
    return OutcomeApplied, nil
}

func (r *Reconciler) sponsorship(ctx context.Context, tx store.LedgerTx, ev payment.Event, at time.Time, note *queue.PaymentReconciledEvent) (Outcome, error) {
    kind := model.SponsorshipType(ev.Meta(payment.MetaSponsorshipType))
    studentID := ev.Meta(payment.MetaStudentID)
    attach := kind == model.SponsorshipStudent && studentID != ""
    if attach {
        if err := tx.LockStudent(ctx, studentID); err != nil {
            if errors.Is(err, store.ErrNotFound) {
                return "", &ReferenceNotFoundError{Entity: "student", ID: studentID}
            }
            return "", &StoreError{Op: "lock student", Err: err}
        }
    }

    name := ev.Meta(payment.MetaSponsorName)
    if name == "" {
        name = ev.Meta(payment.MetaSponsorEmail)
    }
    sp := &model.Sponsor{
        Name:              name,
        Email:             ev.Meta(payment.MetaSponsorEmail),
        SponsorshipType:   kind,
        Amount:            ev.MajorAmount(),
        PaymentDate:       at,
        ExternalPaymentID: ev.PaymentID,
        PaymentStatus:     model.SponsorPaymentCompleted,
    }
    // Kits and donations may name a student too; only student-sponsor
    // changes the student record.
    if studentID != "" {
        sp.SponsoredStudentID = studentID
    }
    if err := tx.InsertSponsor(ctx, sp); err != nil {
        if errors.Is(err, store.ErrDuplicate) {
            // Same charge announced under another event id.
            return OutcomeDuplicate, nil
        }
        return "", &StoreError{Op: "insert sponsor", Err: err}
    }
    note.SponsorID = sp.ID
    if !attach {
        return OutcomeApplied, nil
    }
    note.StudentID = studentID
    if err := tx.AttachSponsor(ctx, studentID, sp.ID, sp.Amount); err != nil {
        if errors.Is(err, store.ErrNotFound) {
            return "", &ReferenceNotFoundError{Entity: "student", ID: studentID}
        }
        return "", &StoreError{Op: "attach sponsor", Err: err}
    }
    return OutcomeApplied, nil
}

// failedSponsorship keeps the claim even when nothing matched, so a
// redelivery is reported as a duplicate rather than re-scanned.
func (r *Reconciler) failedSponsorship(ctx context.Context, tx store.LedgerTx, ev payment.Event, at time.Time, note *queue.PaymentReconciledEvent) (Outcome, error) {
    if err := tx.FailSponsor(ctx, ev.PaymentID, at); err != nil {
        if errors.Is(err, store.ErrNotFound) {
            return OutcomeNoMatch, nil
        }
        return "", &StoreError{Op: "fail sponsor", Err: err}
    }
    return OutcomeApplied, nil
}
