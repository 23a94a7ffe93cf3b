// Package store declares the capability-typed persistence interfaces used by
// handlers and by payment reconciliation.  Two implementations exist: the
// MySQL repositories in internal/repository and the in-memory store in
// internal/store/memory.  Which one is used is decided once at startup.
package store

import (
    "context"
    "errors"
    "time"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/shopspring/decimal"
)

// ErrNotFound is returned when the referenced record does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert would violate a uniqueness rule
// (student email, one scholarship per student, sponsor external payment id,
// processed event id).  Handlers translate it into an HTTP 400/409 response.
var ErrDuplicate = errors.New("duplicate")

// Pagination limits a listing.  Page is 1-based.
type Pagination struct {
    Page  int
    Limit int
}

// MaxLimit caps the page size a client may request.
const MaxLimit = 100

// Normalize fills in defaults and clamps out of range values.
func (p Pagination) Normalize(defLimit int) Pagination {
    if p.Page < 1 {
        p.Page = 1
    }
    if p.Limit < 1 {
        p.Limit = defLimit
    }
    if p.Limit > MaxLimit {
        p.Limit = MaxLimit
    }
    return p
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int { return (p.Page - 1) * p.Limit }

// TotalPages returns ceil(total/limit).
func (p Pagination) TotalPages(total int64) int64 {
    if p.Limit <= 0 {
        return 0
    }
    return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

// StudentFilter selects students.  Search matches first name, last name
// or email, case-insensitively.
type StudentFilter struct {
    Search string
    Pagination
}

// ScholarshipFilter selects applications by review status.
type ScholarshipFilter struct {
    Status model.ReviewStatus
    Pagination
}

// ContactFilter selects contacts.  Search matches name, email,
// organization name or subject.
type ContactFilter struct {
    OrganizationType string
    Status           model.ContactStatus
    Search           string
    Pagination
}

// GalleryFilter selects active gallery items.  Instructor is a substring
// match; Search matches title, description, event name or any tag.
type GalleryFilter struct {
    PublicOnly bool
    Type       string
    ClassType  string
    Instructor string
    Search     string
    Pagination
}

// PaymentUpdate is an administrative change to a student's payment state.
// When Record is non-nil it is appended to the payment history.
type PaymentUpdate struct {
    Status model.PaymentStatus
    Record *model.PaymentRecord
}

// StudentStore manages student records.
type StudentStore interface {
    // CreateStudent inserts s, assigning ID and timestamps.  ErrDuplicate
    // when the email is already registered.
    CreateStudent(ctx context.Context, s *model.Student) error
    GetStudent(ctx context.Context, id string) (*model.Student, error)
    ListStudents(ctx context.Context, f StudentFilter) ([]model.Student, int64, error)
    // MarkFirstClass flags the first class as taken and appends the
    // attendance entry.
    MarkFirstClass(ctx context.Context, id string, class model.ClassAttendance) (*model.Student, error)
    UpdatePaymentStatus(ctx context.Context, id string, u PaymentUpdate) (*model.Student, error)
}

// ScholarshipStore manages scholarship applications.
type ScholarshipStore interface {
    // CreateScholarship inserts the application and marks the student as
    // "applied" in one step.  ErrNotFound when the student does not exist,
    // ErrDuplicate when the student already applied.
    CreateScholarship(ctx context.Context, s *model.Scholarship) error
    GetScholarship(ctx context.Context, id string) (*model.Scholarship, error)
    ListScholarships(ctx context.Context, f ScholarshipFilter) ([]model.Scholarship, int64, error)
    // ReviewScholarship applies the review to the application and mirrors
    // the outcome onto the student.
    ReviewScholarship(ctx context.Context, id string, r model.ScholarshipReview) (*model.Scholarship, error)
    ScholarshipStats(ctx context.Context) (*model.ScholarshipStats, error)
}

// ContactStore manages contact form submissions.
type ContactStore interface {
    CreateContact(ctx context.Context, c *model.Contact) error
    GetContact(ctx context.Context, id string) (*model.Contact, error)
    ListContacts(ctx context.Context, f ContactFilter) ([]model.Contact, int64, error)
    UpdateContactStatus(ctx context.Context, id string, u model.ContactStatusUpdate) (*model.Contact, error)
    AddContactNote(ctx context.Context, id string, n model.ContactNote) (*model.Contact, error)
    ContactStats(ctx context.Context) (*model.ContactStats, error)
}

// GalleryStore manages gallery item metadata.  File contents are kept in
// media storage.
type GalleryStore interface {
    CreateGalleryItem(ctx context.Context, g *model.GalleryItem) error
    GetGalleryItem(ctx context.Context, id string) (*model.GalleryItem, error)
    // ViewGalleryItem increments the view counter and returns the item.
    ViewGalleryItem(ctx context.Context, id string) (*model.GalleryItem, error)
    ListGalleryItems(ctx context.Context, f GalleryFilter) ([]model.GalleryItem, int64, error)
    UpdateGalleryItem(ctx context.Context, id string, u model.GalleryUpdate) (*model.GalleryItem, error)
    DeleteGalleryItem(ctx context.Context, id string) error
    // LikeGalleryItem increments the like counter and returns the new count.
    LikeGalleryItem(ctx context.Context, id string) (int64, error)
}

// DashboardStore computes the admin aggregates.
type DashboardStore interface {
    Overview(ctx context.Context) (*model.Overview, error)
    Monthly(ctx context.Context, year int) ([]model.MonthlyCount, error)
}

// SponsorStore reads sponsor records.  Sponsors are only written through
// the PaymentLedger.
type SponsorStore interface {
    GetSponsor(ctx context.Context, id string) (*model.Sponsor, error)
    GetSponsorByPaymentID(ctx context.Context, externalPaymentID string) (*model.Sponsor, error)
}

// PaymentLedger runs payment reconciliation mutations atomically.
type PaymentLedger interface {
    // WithinTx runs fn inside a transaction.  If fn returns an error every
    // mutation made through tx is discarded; otherwise all of them are
    // committed together.
    WithinTx(ctx context.Context, fn func(tx LedgerTx) error) error
}

// LedgerTx is the set of operations available inside a ledger transaction.
type LedgerTx interface {
    // ClaimEvent records ev as processed.  It is an atomic insert-if-absent:
    // ErrDuplicate is returned when the event id, or the pair of payment id
    // and kind, has already been claimed.
    ClaimEvent(ctx context.Context, ev model.ProcessedEvent) error
    // AppendStudentPayment pushes rec onto the student's payment history
    // and sets the payment status to paid.  ErrNotFound when the student
    // does not exist.
    AppendStudentPayment(ctx context.Context, studentID string, rec model.PaymentRecord) error
    // LockStudent confirms the student exists and holds it until the
    // transaction ends.  ErrNotFound when it does not.
    LockStudent(ctx context.Context, studentID string) error
    // InsertSponsor creates sp, assigning ID and timestamps.  ErrDuplicate
    // when a sponsor with the same external payment id exists.
    InsertSponsor(ctx context.Context, sp *model.Sponsor) error
    // AttachSponsor links the sponsor to the student, approves the
    // student's scholarship and sets its amount.
    AttachSponsor(ctx context.Context, studentID, sponsorID string, amount decimal.Decimal) error
    // FailSponsor marks the sponsor whose external payment id matches as
    // failed.  ErrNotFound when there is none.
    FailSponsor(ctx context.Context, externalPaymentID string, at time.Time) error
}

// Store bundles every capability so it can be injected as one value.
type Store struct {
    Students     StudentStore
    Scholarships ScholarshipStore
    Contacts     ContactStore
    Gallery      GalleryStore
    Dashboard    DashboardStore
    Sponsors     SponsorStore
    Ledger       PaymentLedger
}
