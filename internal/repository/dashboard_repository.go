package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
)

// DashboardRepo implements store.DashboardStore with aggregate queries.
type DashboardRepo struct {
    db *sql.DB
}

// NewDashboardRepo returns a new DashboardRepo bound to the given database.
func NewDashboardRepo(db *sql.DB) *DashboardRepo { return &DashboardRepo{db: db} }

// Overview gathers the dashboard counters.  Each table is read with a
// single aggregate query.
func (r *DashboardRepo) Overview(ctx context.Context) (*model.Overview, error) {
    o := &model.Overview{}
    ctxQ := r.db.QueryRowContext

    if err := ctxQ(ctx, `SELECT COUNT(*),
            COALESCE(SUM(is_active), 0),
            COALESCE(SUM(waiver_signed), 0),
            COALESCE(SUM(first_class_taken), 0),
            COALESCE(SUM(payment_status = 'paid'), 0),
            COALESCE(SUM(payment_status = 'pending'), 0),
            COALESCE(SUM(payment_status = 'overdue'), 0)
        FROM students`).Scan(
        &o.Students.Total, &o.Students.Active, &o.Students.WithWaivers, &o.Students.FirstClassTaken,
        &o.Payments.Paid, &o.Payments.Pending, &o.Payments.Overdue,
    ); err != nil {
        return nil, err
    }

    if err := ctxQ(ctx, `SELECT COUNT(*),
            COALESCE(SUM(status = 'approved'), 0),
            COALESCE(SUM(status = 'pending'), 0)
        FROM scholarships`).Scan(
        &o.Scholarships.Total, &o.Scholarships.Approved, &o.Scholarships.Pending,
    ); err != nil {
        return nil, err
    }

    if err := ctxQ(ctx, `SELECT COUNT(*),
            COALESCE(SUM(status = 'new'), 0),
            COALESCE(SUM(organization_type = 'sponsor'), 0),
            COALESCE(SUM(organization_type = 'nonprofit'), 0)
        FROM contacts`).Scan(
        &o.Contacts.Total, &o.Contacts.New, &o.Contacts.SponsorInquiries, &o.Contacts.NonprofitInquiries,
    ); err != nil {
        return nil, err
    }

    var amount decimal.Decimal
    if err := ctxQ(ctx, `SELECT COUNT(*),
            COALESCE(SUM(sponsorship_type = 'student-sponsor'), 0),
            COALESCE(SUM(CASE WHEN payment_status = 'completed' THEN amount ELSE 0 END), 0)
        FROM sponsors`).Scan(
        &o.Sponsorships.Total, &o.Sponsorships.StudentSponsors, &amount,
    ); err != nil {
        return nil, err
    }
    o.Sponsorships.TotalAmount = amount

    if err := ctxQ(ctx, `SELECT COUNT(*),
            COALESCE(SUM(type = 'photo'), 0),
            COALESCE(SUM(type = 'video'), 0)
        FROM gallery_items WHERE is_active = TRUE`).Scan(
        &o.Gallery.Total, &o.Gallery.Photos, &o.Gallery.Videos,
    ); err != nil {
        return nil, err
    }

    rows, err := r.db.QueryContext(ctx,
        `SELECT id, first_name, last_name, email, phone, parent_name, parent_email, waiver_signed, created_at
         FROM students ORDER BY created_at DESC, id DESC LIMIT 5`)
    if err != nil {
        return nil, err
    }
    o.RecentActivity.Students = make([]model.StudentSummary, 0, 5)
    for rows.Next() {
        var s model.StudentSummary
        if err := rows.Scan(&s.ID, &s.FirstName, &s.LastName, &s.Email, &s.Phone,
            &s.ParentName, &s.ParentEmail, &s.WaiverSigned, &s.CreatedAt); err != nil {
            rows.Close()
            return nil, err
        }
        o.RecentActivity.Students = append(o.RecentActivity.Students, s)
    }
    rows.Close()
    if err := rows.Err(); err != nil {
        return nil, err
    }

    contacts, err := recentContacts(ctx, r.db, 5)
    if err != nil {
        return nil, err
    }
    o.RecentActivity.Contacts = contacts

    o.ComputeRates()
    return o, nil
}

// Monthly returns per-month registrations, applications, contact
// submissions and completed sponsorship revenue for year.
func (r *DashboardRepo) Monthly(ctx context.Context, year int) ([]model.MonthlyCount, error) {
    start, end := model.YearBounds(year)
    series := model.MonthlySeries()

    counts := []struct {
        table string
        set   func(m *model.MonthlyCount, n int64)
    }{
        {"students", func(m *model.MonthlyCount, n int64) { m.StudentsRegistered = n }},
        {"scholarships", func(m *model.MonthlyCount, n int64) { m.ScholarshipApplications = n }},
        {"contacts", func(m *model.MonthlyCount, n int64) { m.ContactSubmissions = n }},
    }
    for _, c := range counts {
        if err := r.perMonth(ctx, `SELECT MONTH(created_at), COUNT(*) FROM `+c.table+`
                WHERE created_at >= ? AND created_at < ? GROUP BY MONTH(created_at)`,
            start, end, func(rows *sql.Rows) error {
                var month int
                var n int64
                if err := rows.Scan(&month, &n); err != nil {
                    return err
                }
                if month >= 1 && month <= 12 {
                    c.set(&series[month-1], n)
                }
                return nil
            }); err != nil {
            return nil, err
        }
    }

    err := r.perMonth(ctx, `SELECT MONTH(created_at), COALESCE(SUM(amount), 0) FROM sponsors
            WHERE payment_status = 'completed' AND created_at >= ? AND created_at < ?
            GROUP BY MONTH(created_at)`,
        start, end, func(rows *sql.Rows) error {
            var month int
            var amount decimal.Decimal
            if err := rows.Scan(&month, &amount); err != nil {
                return err
            }
            if month >= 1 && month <= 12 {
                series[month-1].SponsorshipAmount = amount
            }
            return nil
        })
    if err != nil {
        return nil, err
    }
    return series, nil
}

// perMonth runs a GROUP BY MONTH query and hands every row to scan.
func (r *DashboardRepo) perMonth(ctx context.Context, q string, start, end time.Time, scan func(rows *sql.Rows) error) error {
    rows, err := r.db.QueryContext(ctx, q, start, end)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        if err := scan(rows); err != nil {
            return err
        }
    }
    return rows.Err()
}
