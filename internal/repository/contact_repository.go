package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// ContactRepo implements store.ContactStore.  Follow-up notes are kept in
// the contact_notes table.
type ContactRepo struct {
    db  *sql.DB
    now func() time.Time
}

// NewContactRepo returns a new ContactRepo bound to the given database.
func NewContactRepo(db *sql.DB) *ContactRepo {
    return &ContactRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const contactColumns = `id, name, email, phone, organization_name, organization_type, subject, message,
    status, assigned_to, responded, response_date, created_at, updated_at`

func scanContact(row rowScanner) (*model.Contact, error) {
    var (
        c            model.Contact
        responseDate sql.NullTime
    )
    err := row.Scan(
        &c.ID, &c.Name, &c.Email, &c.Phone, &c.OrganizationName, &c.OrganizationType, &c.Subject, &c.Message,
        &c.Status, &c.AssignedTo, &c.Responded, &responseDate, &c.CreatedAt, &c.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    c.ResponseDate = timePtr(responseDate)
    c.Notes = []model.ContactNote{}
    return &c, nil
}

func loadNotes(ctx context.Context, q queryer, c *model.Contact) error {
    rows, err := q.QueryContext(ctx,
        `SELECT note, added_by, noted_at FROM contact_notes WHERE contact_id = ? ORDER BY id`, c.ID)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        var n model.ContactNote
        if err := rows.Scan(&n.Note, &n.AddedBy, &n.Date); err != nil {
            return err
        }
        c.Notes = append(c.Notes, n)
    }
    return rows.Err()
}

// CreateContact stores a new contact submission.
func (r *ContactRepo) CreateContact(ctx context.Context, c *model.Contact) error {
    if c.ID == "" {
        c.ID = uuid.NewString()
    }
    now := r.now()
    c.CreatedAt, c.UpdatedAt = now, now
    if c.Status == "" {
        c.Status = model.ContactNew
    }
    if c.Notes == nil {
        c.Notes = []model.ContactNote{}
    }
    _, err := r.db.ExecContext(ctx,
        `INSERT INTO contacts (`+contactColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        c.ID, c.Name, c.Email, c.Phone, c.OrganizationName, c.OrganizationType, c.Subject, c.Message,
        c.Status, c.AssignedTo, c.Responded, nullTime(c.ResponseDate), c.CreatedAt, c.UpdatedAt,
    )
    return translate(err)
}

// GetContact returns one contact with its notes.
func (r *ContactRepo) GetContact(ctx context.Context, id string) (*model.Contact, error) {
    c, err := scanContact(r.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id))
    if err != nil {
        return nil, translate(err)
    }
    if err := loadNotes(ctx, r.db, c); err != nil {
        return nil, err
    }
    return c, nil
}

// ListContacts returns one page of contacts, newest first.
func (r *ContactRepo) ListContacts(ctx context.Context, f store.ContactFilter) ([]model.Contact, int64, error) {
    where := []string{}
    args := []any{}
    if f.OrganizationType != "" {
        where = append(where, "organization_type = ?")
        args = append(args, f.OrganizationType)
    }
    if f.Status != "" {
        where = append(where, "status = ?")
        args = append(args, f.Status)
    }
    if f.Search != "" {
        p := likePattern(f.Search)
        where = append(where, "(LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(organization_name) LIKE ? OR LOWER(subject) LIKE ?)")
        args = append(args, p, p, p, p)
    }
    cond := "1=1"
    if len(where) > 0 {
        cond = strings.Join(where, " AND ")
    }

    var total int64
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts WHERE `+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+contactColumns+` FROM contacts WHERE `+cond+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
        append(args, f.Limit, f.Offset())...)
    if err != nil {
        return nil, 0, err
    }
    out := make([]model.Contact, 0, f.Limit)
    for rows.Next() {
        c, err := scanContact(rows)
        if err != nil {
            rows.Close()
            return nil, 0, err
        }
        out = append(out, *c)
    }
    rows.Close()
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    for i := range out {
        if err := loadNotes(ctx, r.db, &out[i]); err != nil {
            return nil, 0, err
        }
    }
    return out, total, nil
}

// UpdateContactStatus applies an administrative status change.
func (r *ContactRepo) UpdateContactStatus(ctx context.Context, id string, u model.ContactStatusUpdate) (*model.Contact, error) {
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        c, err := scanContact(tx.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ? FOR UPDATE`, id))
        if err != nil {
            return err
        }
        c.Apply(u, r.now())
        _, err = tx.ExecContext(ctx,
            `UPDATE contacts SET status = ?, assigned_to = ?, responded = ?, response_date = ?, updated_at = ? WHERE id = ?`,
            c.Status, c.AssignedTo, c.Responded, nullTime(c.ResponseDate), c.UpdatedAt, id)
        return err
    })
    if err != nil {
        return nil, translate(err)
    }
    return r.GetContact(ctx, id)
}

// AddContactNote appends a follow-up note.
func (r *ContactRepo) AddContactNote(ctx context.Context, id string, n model.ContactNote) (*model.Contact, error) {
    now := r.now()
    if n.Date.IsZero() {
        n.Date = now
    }
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        res, err := tx.ExecContext(ctx, `UPDATE contacts SET updated_at = ? WHERE id = ?`, now, id)
        if err != nil {
            return err
        }
        if err := requireRow(ctx, tx, res, "contacts", id); err != nil {
            return err
        }
        _, err = tx.ExecContext(ctx,
            `INSERT INTO contact_notes (contact_id, note, added_by, noted_at) VALUES (?, ?, ?, ?)`,
            id, n.Note, n.AddedBy, n.Date)
        return err
    })
    if err != nil {
        return nil, translate(err)
    }
    return r.GetContact(ctx, id)
}

func recentContacts(ctx context.Context, q queryer, n int) ([]model.ContactSummary, error) {
    rows, err := q.QueryContext(ctx,
        `SELECT id, name, email, organization_type, subject, status, created_at
         FROM contacts ORDER BY created_at DESC, id DESC LIMIT ?`, n)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.ContactSummary, 0, n)
    for rows.Next() {
        var c model.ContactSummary
        if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.OrganizationType, &c.Subject, &c.Status, &c.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

// ContactStats counts contacts and returns the five most recent.
func (r *ContactRepo) ContactStats(ctx context.Context) (*model.ContactStats, error) {
    const q = `SELECT COUNT(*),
            COALESCE(SUM(status = 'new'), 0),
            COALESCE(SUM(organization_type = 'nonprofit'), 0),
            COALESCE(SUM(organization_type = 'sponsor'), 0)
        FROM contacts`
    out := &model.ContactStats{}
    if err := r.db.QueryRowContext(ctx, q).Scan(
        &out.TotalContacts, &out.NewContacts, &out.NonprofitContacts, &out.SponsorContacts,
    ); err != nil {
        return nil, err
    }
    recent, err := recentContacts(ctx, r.db, 5)
    if err != nil {
        return nil, err
    }
    out.RecentContacts = recent
    return out, nil
}
