package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// SponsorshipType classifies what a sponsor paid for.
type SponsorshipType string

const (
    SponsorshipStudent     SponsorshipType = "student-sponsor"
    SponsorshipDanceBagKit SponsorshipType = "dance-bag-kit"
    SponsorshipGeneral     SponsorshipType = "general-donation"
)

// Valid reports whether t is a known sponsorship type.
func (t SponsorshipType) Valid() bool {
    switch t {
    case SponsorshipStudent, SponsorshipDanceBagKit, SponsorshipGeneral:
        return true
    }
    return false
}

// SponsorPaymentStatus is the settlement state of a sponsor's payment.
type SponsorPaymentStatus string

const (
    SponsorPaymentPending   SponsorPaymentStatus = "pending"
    SponsorPaymentCompleted SponsorPaymentStatus = "completed"
    SponsorPaymentFailed    SponsorPaymentStatus = "failed"
    SponsorPaymentRefunded  SponsorPaymentStatus = "refunded"
)

// Sponsor records a sponsorship or donation.  Sponsors are created by
// payment reconciliation when a sponsorship charge succeeds; the
// ExternalPaymentID is unique across all sponsors.
//
// Fields:
//  ID                 – primary key identifier.
//  SponsorshipType    – what the money is for.
//  Amount             – amount in major currency units.
//  ExternalPaymentID  – processor charge identifier (unique).
//  PaymentStatus      – pending, completed, failed or refunded.
//  SponsoredStudentID – student being sponsored ("" when none).
type Sponsor struct {
    ID               string `json:"id"`
    Name             string `json:"name"`
    Email            string `json:"email"`
    Phone            string `json:"phone,omitempty"`
    OrganizationName string `json:"organizationName,omitempty"`

    SponsorshipType   SponsorshipType      `json:"sponsorshipType"`
    Amount            decimal.Decimal      `json:"amount"`
    PaymentDate       time.Time            `json:"paymentDate"`
    ExternalPaymentID string               `json:"externalPaymentId"`
    PaymentStatus     SponsorPaymentStatus `json:"paymentStatus"`

    SponsoredStudentID string `json:"sponsoredStudent,omitempty"`

    PublicRecognition  bool   `json:"publicRecognition"`
    RecognitionName    string `json:"recognitionName,omitempty"`
    Newsletter         bool   `json:"newsletter"`
    Updates            bool   `json:"updates"`
    Notes              string `json:"notes,omitempty"`
    IsRecurring        bool   `json:"isRecurring"`
    RecurringFrequency string `json:"recurringFrequency,omitempty"`

    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}
