package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// ReviewStatus is the workflow state of a scholarship application.
type ReviewStatus string

const (
    ReviewPending     ReviewStatus = "pending"
    ReviewUnderReview ReviewStatus = "under-review"
    ReviewApproved    ReviewStatus = "approved"
    ReviewDenied      ReviewStatus = "denied"
)

// Scholarship is a financial aid application.  Each student may have at
// most one application.
type Scholarship struct {
    ID                 string    `json:"id"`
    StudentID          string    `json:"studentId"`
    ApplicationDate    time.Time `json:"applicationDate"`
    HouseholdIncome    string    `json:"householdIncome"`
    NumberOfDependents int       `json:"numberOfDependents"`
    WhyDanceImportant  string    `json:"whyDanceImportant"`
    HowWillHelpChild   string    `json:"howWillHelpChild"`
    AdditionalInfo     string    `json:"additionalInfo,omitempty"`

    Status      ReviewStatus `json:"status"`
    ReviewedBy  string       `json:"reviewedBy,omitempty"`
    ReviewDate  *time.Time   `json:"reviewDate,omitempty"`
    ReviewNotes string       `json:"reviewNotes,omitempty"`

    AwardAmount   decimal.Decimal `json:"awardAmount"`
    AwardDuration string          `json:"awardDuration,omitempty"`

    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`

    // Student is populated on reads; it is never persisted.
    Student *StudentSummary `json:"student,omitempty"`
}

// ScholarshipReview carries the outcome of an administrative review.
type ScholarshipReview struct {
    Status        ReviewStatus
    ReviewedBy    string
    ReviewNotes   string
    AwardAmount   decimal.Decimal
    AwardDuration string
}

// Apply copies the review onto s.  Award fields only change when the
// application is approved.
func (s *Scholarship) Apply(r ScholarshipReview, now time.Time) {
    s.Status = r.Status
    s.ReviewedBy = r.ReviewedBy
    s.ReviewNotes = r.ReviewNotes
    s.ReviewDate = &now
    s.UpdatedAt = now
    if r.Status == ReviewApproved {
        s.AwardAmount = r.AwardAmount
        s.AwardDuration = r.AwardDuration
    }
}

// StudentStatus maps the review outcome onto the student's scholarship
// status.  Anything short of a decision leaves the student as "applied".
func (r ScholarshipReview) StudentStatus() ScholarshipStatus {
    switch r.Status {
    case ReviewApproved:
        return ScholarshipApproved
    case ReviewDenied:
        return ScholarshipDenied
    }
    return ScholarshipApplied
}

// UpdatesStudentAmount reports whether the review should overwrite the
// student's scholarship amount.
func (r ScholarshipReview) UpdatesStudentAmount() bool {
    return r.Status == ReviewApproved && r.AwardAmount.IsPositive()
}
