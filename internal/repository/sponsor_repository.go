package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// SponsorRepo implements store.SponsorStore.  Sponsors are written by the
// Ledger only.
type SponsorRepo struct {
    db *sql.DB
}

// NewSponsorRepo returns a new SponsorRepo bound to the given database.
func NewSponsorRepo(db *sql.DB) *SponsorRepo { return &SponsorRepo{db: db} }

const sponsorColumns = `id, name, email, phone, organization_name,
    sponsorship_type, amount, payment_date, external_payment_id, payment_status,
    sponsored_student_id, public_recognition, recognition_name,
    newsletter, updates, notes, is_recurring, recurring_frequency,
    created_at, updated_at`

func scanSponsor(row rowScanner) (*model.Sponsor, error) {
    var (
        sp      model.Sponsor
        student sql.NullString
    )
    err := row.Scan(
        &sp.ID, &sp.Name, &sp.Email, &sp.Phone, &sp.OrganizationName,
        &sp.SponsorshipType, &sp.Amount, &sp.PaymentDate, &sp.ExternalPaymentID, &sp.PaymentStatus,
        &student, &sp.PublicRecognition, &sp.RecognitionName,
        &sp.Newsletter, &sp.Updates, &sp.Notes, &sp.IsRecurring, &sp.RecurringFrequency,
        &sp.CreatedAt, &sp.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    sp.SponsoredStudentID = student.String
    return &sp, nil
}

// GetSponsor returns the sponsor with the given id.
func (r *SponsorRepo) GetSponsor(ctx context.Context, id string) (*model.Sponsor, error) {
    sp, err := scanSponsor(r.db.QueryRowContext(ctx, `SELECT `+sponsorColumns+` FROM sponsors WHERE id = ?`, id))
    if err != nil {
        return nil, translate(err)
    }
    return sp, nil
}

// GetSponsorByPaymentID looks a sponsor up by the processor's payment id.
func (r *SponsorRepo) GetSponsorByPaymentID(ctx context.Context, externalPaymentID string) (*model.Sponsor, error) {
    sp, err := scanSponsor(r.db.QueryRowContext(ctx,
        `SELECT `+sponsorColumns+` FROM sponsors WHERE external_payment_id = ?`, externalPaymentID))
    if err != nil {
        return nil, translate(err)
    }
    return sp, nil
}

// NewStore wires every MySQL repository into a store.Store.
func NewStore(db *sql.DB) store.Store {
    return store.Store{
        Students:     NewStudentRepo(db),
        Scholarships: NewScholarshipRepo(db),
        Contacts:     NewContactRepo(db),
        Gallery:      NewGalleryRepo(db),
        Dashboard:    NewDashboardRepo(db),
        Sponsors:     NewSponsorRepo(db),
        Ledger:       NewLedger(db),
    }
}
