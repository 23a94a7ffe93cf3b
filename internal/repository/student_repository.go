package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// StudentRepo implements store.StudentStore.  The payment history and
// attendance lists live in the student_payments and student_classes
// tables and are loaded alongside each student.
type StudentRepo struct {
    db  *sql.DB
    now func() time.Time
}

// NewStudentRepo returns a new StudentRepo bound to the given database.
func NewStudentRepo(db *sql.DB) *StudentRepo {
    return &StudentRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const studentColumns = `id, first_name, last_name, email, phone, date_of_birth,
    parent_name, parent_email, parent_phone,
    emergency_contact_name, emergency_contact_phone, emergency_contact_relation,
    waiver_signed, waiver_signed_date, waiver_signature,
    first_class_taken, first_class_date,
    payment_status, scholarship_status, scholarship_amount, sponsor_id,
    is_active, notes, created_at, updated_at`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*model.Student, error) {
    var (
        st                       model.Student
        dob, waiverAt, firstAt   sql.NullTime
        sponsorID                sql.NullString
    )
    err := row.Scan(
        &st.ID, &st.FirstName, &st.LastName, &st.Email, &st.Phone, &dob,
        &st.ParentName, &st.ParentEmail, &st.ParentPhone,
        &st.EmergencyContactName, &st.EmergencyContactPhone, &st.EmergencyContactRelation,
        &st.WaiverSigned, &waiverAt, &st.WaiverSignature,
        &st.FirstClassTaken, &firstAt,
        &st.PaymentStatus, &st.ScholarshipStatus, &st.ScholarshipAmount, &sponsorID,
        &st.IsActive, &st.Notes, &st.CreatedAt, &st.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if dob.Valid {
        st.DateOfBirth = dob.Time.UTC()
    }
    st.WaiverSignedDate = timePtr(waiverAt)
    st.FirstClassDate = timePtr(firstAt)
    st.SponsorID = sponsorID.String
    st.PaymentHistory = []model.PaymentRecord{}
    st.ClassesAttended = []model.ClassAttendance{}
    return &st, nil
}

// loadLists fills the payment history and attendance of st.
func loadLists(ctx context.Context, q queryer, st *model.Student) error {
    rows, err := q.QueryContext(ctx,
        `SELECT amount, paid_at, external_payment_id, description
         FROM student_payments WHERE student_id = ? ORDER BY id`, st.ID)
    if err != nil {
        return err
    }
    for rows.Next() {
        var p model.PaymentRecord
        if err := rows.Scan(&p.Amount, &p.Date, &p.ExternalPaymentID, &p.Description); err != nil {
            rows.Close()
            return err
        }
        st.PaymentHistory = append(st.PaymentHistory, p)
    }
    rows.Close()
    if err := rows.Err(); err != nil {
        return err
    }

    rows, err = q.QueryContext(ctx,
        `SELECT class_name, attended_at, instructor
         FROM student_classes WHERE student_id = ? ORDER BY id`, st.ID)
    if err != nil {
        return err
    }
    defer rows.Close()
    for rows.Next() {
        var c model.ClassAttendance
        if err := rows.Scan(&c.ClassName, &c.Date, &c.Instructor); err != nil {
            return err
        }
        st.ClassesAttended = append(st.ClassesAttended, c)
    }
    return rows.Err()
}

// getStudent reads one student with its lists.
func getStudent(ctx context.Context, q queryer, id string) (*model.Student, error) {
    st, err := scanStudent(q.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id))
    if err != nil {
        return nil, translate(err)
    }
    if err := loadLists(ctx, q, st); err != nil {
        return nil, err
    }
    return st, nil
}

// CreateStudent inserts a new student.  A unique key on email turns a
// second registration into store.ErrDuplicate.
func (r *StudentRepo) CreateStudent(ctx context.Context, st *model.Student) error {
    if st.ID == "" {
        st.ID = uuid.NewString()
    }
    now := r.now()
    st.CreatedAt, st.UpdatedAt = now, now
    if st.PaymentStatus == "" {
        st.PaymentStatus = model.PaymentPending
    }
    if st.ScholarshipStatus == "" {
        st.ScholarshipStatus = model.ScholarshipNone
    }
    if st.PaymentHistory == nil {
        st.PaymentHistory = []model.PaymentRecord{}
    }
    if st.ClassesAttended == nil {
        st.ClassesAttended = []model.ClassAttendance{}
    }
    var dob sql.NullTime
    if !st.DateOfBirth.IsZero() {
        dob = sql.NullTime{Time: st.DateOfBirth, Valid: true}
    }
    const q = `INSERT INTO students (` + studentColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    _, err := r.db.ExecContext(ctx, q,
        st.ID, st.FirstName, st.LastName, st.Email, st.Phone, dob,
        st.ParentName, st.ParentEmail, st.ParentPhone,
        st.EmergencyContactName, st.EmergencyContactPhone, st.EmergencyContactRelation,
        st.WaiverSigned, nullTime(st.WaiverSignedDate), st.WaiverSignature,
        st.FirstClassTaken, nullTime(st.FirstClassDate),
        st.PaymentStatus, st.ScholarshipStatus, st.ScholarshipAmount, nullString(st.SponsorID),
        st.IsActive, st.Notes, st.CreatedAt, st.UpdatedAt,
    )
    return translate(err)
}

// GetStudent returns the student with the given id.
func (r *StudentRepo) GetStudent(ctx context.Context, id string) (*model.Student, error) {
    return getStudent(ctx, r.db, id)
}

// ListStudents returns one page of students, newest first, plus the total
// number of matches.
func (r *StudentRepo) ListStudents(ctx context.Context, f store.StudentFilter) ([]model.Student, int64, error) {
    cond := "1=1"
    args := []any{}
    if f.Search != "" {
        p := likePattern(f.Search)
        cond = "(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?)"
        args = append(args, p, p, p)
    }

    var total int64
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students WHERE `+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }

    dataSQL := `SELECT ` + studentColumns + ` FROM students WHERE ` + cond +
        ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
    rows, err := r.db.QueryContext(ctx, dataSQL, append(args, f.Limit, f.Offset())...)
    if err != nil {
        return nil, 0, err
    }
    out := make([]model.Student, 0, f.Limit)
    for rows.Next() {
        st, err := scanStudent(rows)
        if err != nil {
            rows.Close()
            return nil, 0, err
        }
        out = append(out, *st)
    }
    rows.Close()
    if err := rows.Err(); err != nil {
        return nil, 0, err
    }
    // lists are loaded after the cursor is closed so the pool is not
    // holding two connections per request
    for i := range out {
        if err := loadLists(ctx, r.db, &out[i]); err != nil {
            return nil, 0, err
        }
    }
    return out, total, nil
}

// MarkFirstClass flags the student's first class and records attendance.
func (r *StudentRepo) MarkFirstClass(ctx context.Context, id string, class model.ClassAttendance) (*model.Student, error) {
    now := r.now()
    if class.Date.IsZero() {
        class.Date = now
    }
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        res, err := tx.ExecContext(ctx,
            `UPDATE students SET first_class_taken = TRUE, first_class_date = ?, updated_at = ? WHERE id = ?`,
            now, now, id)
        if err != nil {
            return err
        }
        if err := requireRow(ctx, tx, res, "students", id); err != nil {
            return err
        }
        _, err = tx.ExecContext(ctx,
            `INSERT INTO student_classes (student_id, class_name, attended_at, instructor) VALUES (?, ?, ?, ?)`,
            id, class.ClassName, class.Date, class.Instructor)
        return err
    })
    if err != nil {
        return nil, translate(err)
    }
    return r.GetStudent(ctx, id)
}

// UpdatePaymentStatus sets the payment status and optionally appends a
// manual payment record.
func (r *StudentRepo) UpdatePaymentStatus(ctx context.Context, id string, u store.PaymentUpdate) (*model.Student, error) {
    now := r.now()
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        res, err := tx.ExecContext(ctx,
            `UPDATE students SET payment_status = ?, updated_at = ? WHERE id = ?`, u.Status, now, id)
        if err != nil {
            return err
        }
        if err := requireRow(ctx, tx, res, "students", id); err != nil {
            return err
        }
        if u.Record == nil {
            return nil
        }
        return insertPayment(ctx, tx, id, *u.Record)
    })
    if err != nil {
        return nil, translate(err)
    }
    return r.GetStudent(ctx, id)
}

func insertPayment(ctx context.Context, q queryer, studentID string, rec model.PaymentRecord) error {
    _, err := q.ExecContext(ctx,
        `INSERT INTO student_payments (student_id, amount, paid_at, external_payment_id, description)
         VALUES (?, ?, ?, ?, ?)`,
        studentID, rec.Amount, rec.Date, rec.ExternalPaymentID, rec.Description)
    return err
}

// requireRow distinguishes "no such row" from "row unchanged" after an
// UPDATE.  MySQL reports zero affected rows in both cases, so when nothing
// changed it checks that the id exists.
func requireRow(ctx context.Context, q queryer, res sql.Result, table, id string) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n > 0 {
        return nil
    }
    var one int
    err = q.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
    if err != nil {
        return translate(err)
    }
    return nil
}
