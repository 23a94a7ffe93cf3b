package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// Ledger implements store.PaymentLedger.  Each reconciliation runs in one
// InnoDB transaction; the processed_payment_events primary key and the
// unique key on sponsors.external_payment_id make redelivered events fail
// their insert with ER_DUP_ENTRY instead of racing a read-then-write check.
type Ledger struct {
    db  *sql.DB
    now func() time.Time
}

// NewLedger returns a new Ledger bound to the given database.
func NewLedger(db *sql.DB) *Ledger {
    return &Ledger{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithinTx begins a transaction, runs fn and commits only when fn
// succeeds.  Any error from fn, or from the commit, rolls everything back.
func (l *Ledger) WithinTx(ctx context.Context, fn func(tx store.LedgerTx) error) error {
    tx, err := l.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&ledgerTx{tx: tx, now: l.now}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

type ledgerTx struct {
    tx  *sql.Tx
    now func() time.Time
}

// ClaimEvent inserts the idempotency row.  A collision on the primary key
// or on (payment_id, kind) fails with ER_DUP_ENTRY, which translate turns
// into store.ErrDuplicate; every other failure keeps its driver error.
func (t *ledgerTx) ClaimEvent(ctx context.Context, ev model.ProcessedEvent) error {
    if ev.ProcessedAt.IsZero() {
        ev.ProcessedAt = t.now()
    }
    _, err := t.tx.ExecContext(ctx,
        `INSERT INTO processed_payment_events (event_id, payment_id, kind, purpose, processed_at)
         VALUES (?, ?, ?, ?, ?)`,
        ev.EventID, nullString(ev.PaymentID), ev.Kind, ev.Purpose, ev.ProcessedAt)
    return translate(err)
}

// AppendStudentPayment locks the student, records the payment and marks
// the student as paid.
func (t *ledgerTx) AppendStudentPayment(ctx context.Context, studentID string, rec model.PaymentRecord) error {
    if err := t.LockStudent(ctx, studentID); err != nil {
        return err
    }
    if err := insertPayment(ctx, t.tx, studentID, rec); err != nil {
        return translate(err)
    }
    _, err := t.tx.ExecContext(ctx,
        `UPDATE students SET payment_status = ?, updated_at = ? WHERE id = ?`,
        model.PaymentPaid, t.now(), studentID)
    return translate(err)
}

func (t *ledgerTx) LockStudent(ctx context.Context, studentID string) error {
    var one int
    err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM students WHERE id = ? FOR UPDATE`, studentID).Scan(&one)
    return translate(err)
}

func (t *ledgerTx) InsertSponsor(ctx context.Context, sp *model.Sponsor) error {
    if sp.ID == "" {
        sp.ID = uuid.NewString()
    }
    now := t.now()
    sp.CreatedAt, sp.UpdatedAt = now, now
    if sp.PaymentDate.IsZero() {
        sp.PaymentDate = now
    }
    _, err := t.tx.ExecContext(ctx,
        `INSERT INTO sponsors (`+sponsorColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        sp.ID, sp.Name, sp.Email, sp.Phone, sp.OrganizationName,
        sp.SponsorshipType, sp.Amount, sp.PaymentDate, sp.ExternalPaymentID, sp.PaymentStatus,
        nullString(sp.SponsoredStudentID), sp.PublicRecognition, sp.RecognitionName,
        sp.Newsletter, sp.Updates, sp.Notes, sp.IsRecurring, sp.RecurringFrequency,
        sp.CreatedAt, sp.UpdatedAt,
    )
    return translate(err)
}

func (t *ledgerTx) AttachSponsor(ctx context.Context, studentID, sponsorID string, amount decimal.Decimal) error {
    res, err := t.tx.ExecContext(ctx,
        `UPDATE students SET sponsor_id = ?, scholarship_status = ?, scholarship_amount = ?, updated_at = ?
         WHERE id = ?`,
        sponsorID, model.ScholarshipApproved, amount, t.now(), studentID)
    if err != nil {
        return translate(err)
    }
    return requireRow(ctx, t.tx, res, "students", studentID)
}

func (t *ledgerTx) FailSponsor(ctx context.Context, externalPaymentID string, at time.Time) error {
    var id string
    err := t.tx.QueryRowContext(ctx,
        `SELECT id FROM sponsors WHERE external_payment_id = ? FOR UPDATE`, externalPaymentID).Scan(&id)
    if err != nil {
        return translate(err)
    }
    _, err = t.tx.ExecContext(ctx,
        `UPDATE sponsors SET payment_status = ?, updated_at = ? WHERE id = ?`,
        model.SponsorPaymentFailed, at, id)
    return translate(err)
}
