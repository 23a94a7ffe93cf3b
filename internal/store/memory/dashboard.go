package memory

import (
    "context"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
)

// Overview implements store.DashboardStore.
func (s *Store) Overview(_ context.Context) (*model.Overview, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    o := &model.Overview{}

    for _, st := range s.students {
        o.Students.Total++
        if st.IsActive {
            o.Students.Active++
        }
        if st.WaiverSigned {
            o.Students.WithWaivers++
        }
        if st.FirstClassTaken {
            o.Students.FirstClassTaken++
        }
        switch st.PaymentStatus {
        case model.PaymentPaid:
            o.Payments.Paid++
        case model.PaymentPending:
            o.Payments.Pending++
        case model.PaymentOverdue:
            o.Payments.Overdue++
        }
    }
    for _, sc := range s.scholarships {
        o.Scholarships.Total++
        switch sc.Status {
        case model.ReviewApproved:
            o.Scholarships.Approved++
        case model.ReviewPending:
            o.Scholarships.Pending++
        }
    }
    for _, c := range s.contacts {
        o.Contacts.Total++
        if c.Status == model.ContactNew {
            o.Contacts.New++
        }
        switch c.OrganizationType {
        case model.OrgSponsor:
            o.Contacts.SponsorInquiries++
        case model.OrgNonprofit:
            o.Contacts.NonprofitInquiries++
        }
    }
    o.Sponsorships.TotalAmount = decimal.Zero
    for _, sp := range s.sponsors {
        o.Sponsorships.Total++
        if sp.SponsorshipType == model.SponsorshipStudent {
            o.Sponsorships.StudentSponsors++
        }
        if sp.PaymentStatus == model.SponsorPaymentCompleted {
            o.Sponsorships.TotalAmount = o.Sponsorships.TotalAmount.Add(sp.Amount)
        }
    }
    for _, g := range s.gallery {
        if !g.IsActive {
            continue
        }
        o.Gallery.Total++
        switch g.Type {
        case model.MediaPhoto:
            o.Gallery.Photos++
        case model.MediaVideo:
            o.Gallery.Videos++
        }
    }

    students := make([]model.Student, 0, len(s.studentOrder))
    for i := len(s.studentOrder) - 1; i >= 0; i-- {
        students = append(students, *s.students[s.studentOrder[i]])
    }
    newestFirst(students, func(st model.Student) time.Time { return st.CreatedAt })
    o.RecentActivity.Students = make([]model.StudentSummary, 0, 5)
    for i := 0; i < len(students) && i < 5; i++ {
        o.RecentActivity.Students = append(o.RecentActivity.Students, students[i].Summary())
    }
    o.RecentActivity.Contacts = s.recentContacts(5)

    o.ComputeRates()
    return o, nil
}

// Monthly implements store.DashboardStore.
func (s *Store) Monthly(_ context.Context, year int) ([]model.MonthlyCount, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    start, end := model.YearBounds(year)
    series := model.MonthlySeries()
    // month index for t, or -1 when outside the year
    idx := func(t time.Time) int {
        t = t.UTC()
        if t.Before(start) || !t.Before(end) {
            return -1
        }
        return int(t.Month()) - 1
    }
    for _, st := range s.students {
        if i := idx(st.CreatedAt); i >= 0 {
            series[i].StudentsRegistered++
        }
    }
    for _, sc := range s.scholarships {
        if i := idx(sc.CreatedAt); i >= 0 {
            series[i].ScholarshipApplications++
        }
    }
    for _, c := range s.contacts {
        if i := idx(c.CreatedAt); i >= 0 {
            series[i].ContactSubmissions++
        }
    }
    for _, sp := range s.sponsors {
        if sp.PaymentStatus != model.SponsorPaymentCompleted {
            continue
        }
        if i := idx(sp.CreatedAt); i >= 0 {
            series[i].SponsorshipAmount = series[i].SponsorshipAmount.Add(sp.Amount)
        }
    }
    return series, nil
}
