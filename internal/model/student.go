package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// PaymentStatus tracks whether a student is up to date with lesson fees.
type PaymentStatus string

const (
    PaymentPending PaymentStatus = "pending"
    PaymentPaid    PaymentStatus = "paid"
    PaymentOverdue PaymentStatus = "overdue"
)

// Valid reports whether s is one of the known payment statuses.
func (s PaymentStatus) Valid() bool {
    switch s {
    case PaymentPending, PaymentPaid, PaymentOverdue:
        return true
    }
    return false
}

// ScholarshipStatus mirrors the review state of a student's scholarship
// application on the student record itself.
type ScholarshipStatus string

const (
    ScholarshipNone     ScholarshipStatus = "none"
    ScholarshipApplied  ScholarshipStatus = "applied"
    ScholarshipApproved ScholarshipStatus = "approved"
    ScholarshipDenied   ScholarshipStatus = "denied"
)

// PaymentRecord is one entry of a student's append-only payment history.
//
// Fields:
//  Amount            – amount paid in major currency units.
//  Date              – when the payment was recorded.
//  ExternalPaymentID – the payment processor's charge identifier.
//  Description       – human readable label (e.g. the lesson slot).
type PaymentRecord struct {
    Amount            decimal.Decimal `json:"amount"`
    Date              time.Time       `json:"date"`
    ExternalPaymentID string          `json:"externalPaymentId"`
    Description       string          `json:"description"`
}

// ClassAttendance records a class the student attended.
type ClassAttendance struct {
    ClassName  string    `json:"className"`
    Date       time.Time `json:"date"`
    Instructor string    `json:"instructor"`
}

// Student represents a registered dancer.  A student is created on
// registration and never deleted.  PaymentStatus and PaymentHistory are
// mutated only by payment reconciliation or an administrative edit.
type Student struct {
    ID          string    `json:"id"`
    FirstName   string    `json:"firstName"`
    LastName    string    `json:"lastName"`
    Email       string    `json:"email"`
    Phone       string    `json:"phone"`
    DateOfBirth time.Time `json:"dateOfBirth"`

    // guardian details, only collected for minors
    ParentName  string `json:"parentName,omitempty"`
    ParentEmail string `json:"parentEmail,omitempty"`
    ParentPhone string `json:"parentPhone,omitempty"`

    EmergencyContactName     string `json:"emergencyContactName"`
    EmergencyContactPhone    string `json:"emergencyContactPhone"`
    EmergencyContactRelation string `json:"emergencyContactRelation"`

    WaiverSigned     bool       `json:"waiverSigned"`
    WaiverSignedDate *time.Time `json:"waiverSignedDate,omitempty"`
    WaiverSignature  string     `json:"waiverSignature,omitempty"`

    FirstClassTaken bool              `json:"firstClassTaken"`
    FirstClassDate  *time.Time        `json:"firstClassDate,omitempty"`
    ClassesAttended []ClassAttendance `json:"classesAttended"`

    PaymentStatus  PaymentStatus   `json:"paymentStatus"`
    PaymentHistory []PaymentRecord `json:"paymentHistory"`

    ScholarshipStatus ScholarshipStatus `json:"scholarshipStatus"`
    ScholarshipAmount decimal.Decimal   `json:"scholarshipAmount"`
    SponsorID         string            `json:"sponsor,omitempty"`

    IsActive  bool      `json:"isActive"`
    Notes     string    `json:"notes,omitempty"`
    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy so callers can mutate the result without
// affecting the stored value.
func (s *Student) Clone() *Student {
    if s == nil {
        return nil
    }
    out := *s
    out.ClassesAttended = append([]ClassAttendance(nil), s.ClassesAttended...)
    out.PaymentHistory = append([]PaymentRecord(nil), s.PaymentHistory...)
    if s.WaiverSignedDate != nil {
        t := *s.WaiverSignedDate
        out.WaiverSignedDate = &t
    }
    if s.FirstClassDate != nil {
        t := *s.FirstClassDate
        out.FirstClassDate = &t
    }
    return &out
}

// Summary returns the public subset of the student used in listings and
// in populated references.
func (s *Student) Summary() StudentSummary {
    return StudentSummary{
        ID:           s.ID,
        FirstName:    s.FirstName,
        LastName:     s.LastName,
        Email:        s.Email,
        Phone:        s.Phone,
        ParentName:   s.ParentName,
        ParentEmail:  s.ParentEmail,
        WaiverSigned: s.WaiverSigned,
        CreatedAt:    s.CreatedAt,
    }
}

// StudentSummary is a trimmed student view embedded in other responses.
type StudentSummary struct {
    ID           string    `json:"id"`
    FirstName    string    `json:"firstName"`
    LastName     string    `json:"lastName"`
    Email        string    `json:"email"`
    Phone        string    `json:"phone,omitempty"`
    ParentName   string    `json:"parentName,omitempty"`
    ParentEmail  string    `json:"parentEmail,omitempty"`
    WaiverSigned bool      `json:"waiverSigned"`
    CreatedAt    time.Time `json:"createdAt"`
}
