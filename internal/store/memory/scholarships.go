package memory

import (
    "context"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// populate returns a copy of sc with the student summary attached.
func (s *Store) populate(sc *model.Scholarship) model.Scholarship {
    out := *sc
    if sc.ReviewDate != nil {
        t := *sc.ReviewDate
        out.ReviewDate = &t
    }
    out.Student = nil
    if st, ok := s.students[sc.StudentID]; ok {
        sum := st.Summary()
        out.Student = &sum
    }
    return out
}

// CreateScholarship implements store.ScholarshipStore.
func (s *Store) CreateScholarship(_ context.Context, sc *model.Scholarship) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    st, ok := s.students[sc.StudentID]
    if !ok {
        return store.ErrNotFound
    }
    for _, existing := range s.scholarships {
        if existing.StudentID == sc.StudentID {
            return store.ErrDuplicate
        }
    }
    if sc.ID == "" {
        sc.ID = newID()
    }
    now := s.now()
    sc.CreatedAt, sc.UpdatedAt = now, now
    if sc.ApplicationDate.IsZero() {
        sc.ApplicationDate = now
    }
    if sc.Status == "" {
        sc.Status = model.ReviewPending
    }
    if sc.AwardAmount.IsZero() {
        sc.AwardAmount = decimal.Zero
    }
    cp := *sc
    cp.Student = nil
    s.scholarships[sc.ID] = &cp
    s.scholarshipOrder = append(s.scholarshipOrder, sc.ID)

    st.ScholarshipStatus = model.ScholarshipApplied
    st.UpdatedAt = now
    return nil
}

// GetScholarship implements store.ScholarshipStore.
func (s *Store) GetScholarship(_ context.Context, id string) (*model.Scholarship, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    sc, ok := s.scholarships[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    out := s.populate(sc)
    return &out, nil
}

// ListScholarships implements store.ScholarshipStore.
func (s *Store) ListScholarships(_ context.Context, f store.ScholarshipFilter) ([]model.Scholarship, int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    matched := make([]model.Scholarship, 0)
    for i := len(s.scholarshipOrder) - 1; i >= 0; i-- {
        sc := s.scholarships[s.scholarshipOrder[i]]
        if f.Status != "" && sc.Status != f.Status {
            continue
        }
        matched = append(matched, s.populate(sc))
    }
    newestFirst(matched, func(sc model.Scholarship) time.Time { return sc.CreatedAt })
    return paginate(matched, f.Pagination), int64(len(matched)), nil
}

// ReviewScholarship implements store.ScholarshipStore.
func (s *Store) ReviewScholarship(_ context.Context, id string, r model.ScholarshipReview) (*model.Scholarship, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    sc, ok := s.scholarships[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    now := s.now()
    sc.Apply(r, now)
    if st, ok := s.students[sc.StudentID]; ok {
        st.ScholarshipStatus = r.StudentStatus()
        if r.UpdatesStudentAmount() {
            st.ScholarshipAmount = r.AwardAmount
        }
        st.UpdatedAt = now
    }
    out := s.populate(sc)
    return &out, nil
}

// ScholarshipStats implements store.ScholarshipStore.
func (s *Store) ScholarshipStats(_ context.Context) (*model.ScholarshipStats, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := &model.ScholarshipStats{TotalAmountAwarded: decimal.Zero}
    for _, sc := range s.scholarships {
        out.TotalApplications++
        switch sc.Status {
        case model.ReviewPending:
            out.PendingApplications++
        case model.ReviewApproved:
            out.ApprovedApplications++
            out.TotalAmountAwarded = out.TotalAmountAwarded.Add(sc.AwardAmount)
        case model.ReviewDenied:
            out.DeniedApplications++
        }
    }
    return out, nil
}
