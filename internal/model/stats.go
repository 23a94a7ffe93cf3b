package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Overview is the admin dashboard summary.  All counts are computed by the
// store; the percentages are derived by ComputeRates.
type Overview struct {
    Students struct {
        Total             int64 `json:"total"`
        Active            int64 `json:"active"`
        WithWaivers       int64 `json:"withWaivers"`
        FirstClassTaken   int64 `json:"firstClassTaken"`
        WaiverPercentage  int64 `json:"waiverPercentage"`
    } `json:"students"`
    Payments struct {
        Paid           int64 `json:"paid"`
        Pending        int64 `json:"pending"`
        Overdue        int64 `json:"overdue"`
        PaidPercentage int64 `json:"paidPercentage"`
    } `json:"payments"`
    Scholarships struct {
        Total        int64 `json:"total"`
        Approved     int64 `json:"approved"`
        Pending      int64 `json:"pending"`
        ApprovalRate int64 `json:"approvalRate"`
    } `json:"scholarships"`
    Contacts struct {
        Total              int64 `json:"total"`
        New                int64 `json:"new"`
        SponsorInquiries   int64 `json:"sponsorInquiries"`
        NonprofitInquiries int64 `json:"nonprofitInquiries"`
    } `json:"contacts"`
    Sponsorships struct {
        Total           int64           `json:"total"`
        StudentSponsors int64           `json:"studentSponsors"`
        TotalAmount     decimal.Decimal `json:"totalAmount"` // completed payments only
    } `json:"sponsorships"`
    Gallery struct {
        Total  int64 `json:"total"` // active items only
        Photos int64 `json:"photos"`
        Videos int64 `json:"videos"`
    } `json:"gallery"`
    RecentActivity struct {
        Students []StudentSummary `json:"students"`
        Contacts []ContactSummary `json:"contacts"`
    } `json:"recentActivity"`
}

// ComputeRates fills in the derived percentages.  Rates are whole
// percentages rounded to nearest and are 0 when the denominator is 0.
func (o *Overview) ComputeRates() {
    o.Students.WaiverPercentage = percent(o.Students.WithWaivers, o.Students.Total)
    o.Payments.PaidPercentage = percent(o.Payments.Paid, o.Students.Total)
    o.Scholarships.ApprovalRate = percent(o.Scholarships.Approved, o.Scholarships.Total)
}

func percent(part, total int64) int64 {
    if total <= 0 {
        return 0
    }
    return (part*100 + total/2) / total
}

// MonthlyCount is one month of the monthly analytics series.
type MonthlyCount struct {
    Month                   int             `json:"month"`
    MonthName               string          `json:"monthName"`
    StudentsRegistered      int64           `json:"studentsRegistered"`
    ScholarshipApplications int64           `json:"scholarshipApplications"`
    ContactSubmissions      int64           `json:"contactSubmissions"`
    SponsorshipAmount       decimal.Decimal `json:"sponsorshipAmount"`
}

// MonthlySeries returns twelve zeroed months.
func MonthlySeries() []MonthlyCount {
    out := make([]MonthlyCount, 12)
    for i := range out {
        out[i].Month = i + 1
        out[i].MonthName = time.Month(i + 1).String()
        out[i].SponsorshipAmount = decimal.Zero
    }
    return out
}

// YearBounds returns [start, end) for a calendar year in UTC.
func YearBounds(year int) (time.Time, time.Time) {
    start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
    return start, start.AddDate(1, 0, 0)
}

// ScholarshipStats is the scholarship overview returned by the admin API.
type ScholarshipStats struct {
    TotalApplications    int64           `json:"totalApplications"`
    PendingApplications  int64           `json:"pendingApplications"`
    ApprovedApplications int64           `json:"approvedApplications"`
    DeniedApplications   int64           `json:"deniedApplications"`
    TotalAmountAwarded   decimal.Decimal `json:"totalAmountAwarded"`
}

// ContactStats is the contact overview returned by the admin API.
type ContactStats struct {
    TotalContacts     int64            `json:"totalContacts"`
    NewContacts       int64            `json:"newContacts"`
    NonprofitContacts int64            `json:"nonprofitContacts"`
    SponsorContacts   int64            `json:"sponsorContacts"`
    RecentContacts    []ContactSummary `json:"recentContacts"`
}
