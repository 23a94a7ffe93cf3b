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

// ScholarshipRepo implements store.ScholarshipStore.  Reads join the
// student so every application carries its applicant summary.
type ScholarshipRepo struct {
    db  *sql.DB
    now func() time.Time
}

// NewScholarshipRepo returns a new ScholarshipRepo bound to the given database.
func NewScholarshipRepo(db *sql.DB) *ScholarshipRepo {
    return &ScholarshipRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const scholarshipSelect = `SELECT sc.id, sc.student_id, sc.application_date, sc.household_income,
        sc.number_of_dependents, sc.why_dance_important, sc.how_will_help_child, sc.additional_info,
        sc.status, sc.reviewed_by, sc.review_date, sc.review_notes, sc.award_amount, sc.award_duration,
        sc.created_at, sc.updated_at,
        st.id, st.first_name, st.last_name, st.email, st.phone, st.parent_name, st.parent_email,
        st.waiver_signed, st.created_at
    FROM scholarships sc
    LEFT JOIN students st ON st.id = sc.student_id`

func scanScholarship(row rowScanner) (*model.Scholarship, error) {
    var (
        sc         model.Scholarship
        reviewDate sql.NullTime
        // student columns are nullable because of the LEFT JOIN
        stID, stFirst, stLast, stEmail, stPhone, stParent, stParentEmail sql.NullString
        stWaiver                                                       sql.NullBool
        stCreated                                                      sql.NullTime
    )
    err := row.Scan(
        &sc.ID, &sc.StudentID, &sc.ApplicationDate, &sc.HouseholdIncome,
        &sc.NumberOfDependents, &sc.WhyDanceImportant, &sc.HowWillHelpChild, &sc.AdditionalInfo,
        &sc.Status, &sc.ReviewedBy, &reviewDate, &sc.ReviewNotes, &sc.AwardAmount, &sc.AwardDuration,
        &sc.CreatedAt, &sc.UpdatedAt,
        &stID, &stFirst, &stLast, &stEmail, &stPhone, &stParent, &stParentEmail,
        &stWaiver, &stCreated,
    )
    if err != nil {
        return nil, err
    }
    sc.ReviewDate = timePtr(reviewDate)
    if stID.Valid {
        sc.Student = &model.StudentSummary{
            ID:           stID.String,
            FirstName:    stFirst.String,
            LastName:     stLast.String,
            Email:        stEmail.String,
            Phone:        stPhone.String,
            ParentName:   stParent.String,
            ParentEmail:  stParentEmail.String,
            WaiverSigned: stWaiver.Bool,
            CreatedAt:    stCreated.Time,
        }
    }
    return &sc, nil
}

func getScholarship(ctx context.Context, q queryer, id string) (*model.Scholarship, error) {
    sc, err := scanScholarship(q.QueryRowContext(ctx, scholarshipSelect+` WHERE sc.id = ?`, id))
    if err != nil {
        return nil, translate(err)
    }
    return sc, nil
}

// CreateScholarship inserts the application and marks the student as
// applied.  The student row is locked first so the existence check and the
// status update see the same row.
func (r *ScholarshipRepo) CreateScholarship(ctx context.Context, sc *model.Scholarship) error {
    if sc.ID == "" {
        sc.ID = uuid.NewString()
    }
    now := r.now()
    sc.CreatedAt, sc.UpdatedAt = now, now
    if sc.ApplicationDate.IsZero() {
        sc.ApplicationDate = now
    }
    if sc.Status == "" {
        sc.Status = model.ReviewPending
    }
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        var one int
        if err := tx.QueryRowContext(ctx, `SELECT 1 FROM students WHERE id = ? FOR UPDATE`, sc.StudentID).Scan(&one); err != nil {
            return err
        }
        const ins = `INSERT INTO scholarships (id, student_id, application_date, household_income,
                number_of_dependents, why_dance_important, how_will_help_child, additional_info,
                status, award_amount, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
        if _, err := tx.ExecContext(ctx, ins,
            sc.ID, sc.StudentID, sc.ApplicationDate, sc.HouseholdIncome,
            sc.NumberOfDependents, sc.WhyDanceImportant, sc.HowWillHelpChild, sc.AdditionalInfo,
            sc.Status, sc.AwardAmount, sc.CreatedAt, sc.UpdatedAt,
        ); err != nil {
            return err
        }
        _, err := tx.ExecContext(ctx,
            `UPDATE students SET scholarship_status = ?, updated_at = ? WHERE id = ?`,
            model.ScholarshipApplied, now, sc.StudentID)
        return err
    })
    return translate(err)
}

// GetScholarship returns one application with its student.
func (r *ScholarshipRepo) GetScholarship(ctx context.Context, id string) (*model.Scholarship, error) {
    return getScholarship(ctx, r.db, id)
}

// ListScholarships returns one page of applications, newest first.
func (r *ScholarshipRepo) ListScholarships(ctx context.Context, f store.ScholarshipFilter) ([]model.Scholarship, int64, error) {
    cond := "1=1"
    args := []any{}
    if f.Status != "" {
        cond = "sc.status = ?"
        args = append(args, f.Status)
    }
    var total int64
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scholarships sc WHERE `+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }
    rows, err := r.db.QueryContext(ctx,
        scholarshipSelect+` WHERE `+cond+` ORDER BY sc.created_at DESC, sc.id DESC LIMIT ? OFFSET ?`,
        append(args, f.Limit, f.Offset())...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    out := make([]model.Scholarship, 0, f.Limit)
    for rows.Next() {
        sc, err := scanScholarship(rows)
        if err != nil {
            return nil, 0, err
        }
        out = append(out, *sc)
    }
    return out, total, rows.Err()
}

// ReviewScholarship records the review and mirrors it on the student.
func (r *ScholarshipRepo) ReviewScholarship(ctx context.Context, id string, rv model.ScholarshipReview) (*model.Scholarship, error) {
    now := r.now()
    var studentID string
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        sc, err := scanScholarship(tx.QueryRowContext(ctx, scholarshipSelect+` WHERE sc.id = ? FOR UPDATE`, id))
        if err != nil {
            return err
        }
        sc.Apply(rv, now)
        studentID = sc.StudentID
        if _, err := tx.ExecContext(ctx,
            `UPDATE scholarships SET status = ?, reviewed_by = ?, review_date = ?, review_notes = ?,
                award_amount = ?, award_duration = ?, updated_at = ? WHERE id = ?`,
            sc.Status, sc.ReviewedBy, nullTime(sc.ReviewDate), sc.ReviewNotes,
            sc.AwardAmount, sc.AwardDuration, sc.UpdatedAt, id,
        ); err != nil {
            return err
        }
        if rv.UpdatesStudentAmount() {
            _, err = tx.ExecContext(ctx,
                `UPDATE students SET scholarship_status = ?, scholarship_amount = ?, updated_at = ? WHERE id = ?`,
                rv.StudentStatus(), rv.AwardAmount, now, studentID)
        } else {
            _, err = tx.ExecContext(ctx,
                `UPDATE students SET scholarship_status = ?, updated_at = ? WHERE id = ?`,
                rv.StudentStatus(), now, studentID)
        }
        return err
    })
    if err != nil {
        return nil, translate(err)
    }
    return r.GetScholarship(ctx, id)
}

// ScholarshipStats counts applications by status and sums approved awards.
func (r *ScholarshipRepo) ScholarshipStats(ctx context.Context) (*model.ScholarshipStats, error) {
    const q = `SELECT COUNT(*),
            COALESCE(SUM(status = 'pending'), 0),
            COALESCE(SUM(status = 'approved'), 0),
            COALESCE(SUM(status = 'denied'), 0),
            COALESCE(SUM(CASE WHEN status = 'approved' THEN award_amount ELSE 0 END), 0)
        FROM scholarships`
    out := &model.ScholarshipStats{}
    var awarded decimal.Decimal
    err := r.db.QueryRowContext(ctx, q).Scan(
        &out.TotalApplications, &out.PendingApplications, &out.ApprovedApplications,
        &out.DeniedApplications, &awarded,
    )
    if err != nil {
        return nil, err
    }
    out.TotalAmountAwarded = awarded
    return out, nil
}
