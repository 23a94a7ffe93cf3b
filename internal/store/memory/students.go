package memory

import (
    "context"
    "strings"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// CreateStudent implements store.StudentStore.  Emails are compared
// case-insensitively.
func (s *Store) CreateStudent(_ context.Context, st *model.Student) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, existing := range s.students {
        if strings.EqualFold(existing.Email, st.Email) {
            return store.ErrDuplicate
        }
    }
    if st.ID == "" {
        st.ID = newID()
    } else if _, ok := s.students[st.ID]; ok {
        return store.ErrDuplicate
    }
    now := s.now()
    st.CreatedAt, st.UpdatedAt = now, now
    if st.PaymentStatus == "" {
        st.PaymentStatus = model.PaymentPending
    }
    if st.ScholarshipStatus == "" {
        st.ScholarshipStatus = model.ScholarshipNone
    }
    if st.ScholarshipAmount.IsZero() {
        st.ScholarshipAmount = decimal.Zero
    }
    if st.PaymentHistory == nil {
        st.PaymentHistory = []model.PaymentRecord{}
    }
    if st.ClassesAttended == nil {
        st.ClassesAttended = []model.ClassAttendance{}
    }
    s.students[st.ID] = st.Clone()
    s.studentOrder = append(s.studentOrder, st.ID)
    return nil
}

// GetStudent implements store.StudentStore.
func (s *Store) GetStudent(_ context.Context, id string) (*model.Student, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    st, ok := s.students[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return st.Clone(), nil
}

// ListStudents implements store.StudentStore.
func (s *Store) ListStudents(_ context.Context, f store.StudentFilter) ([]model.Student, int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    matched := make([]model.Student, 0)
    for i := len(s.studentOrder) - 1; i >= 0; i-- {
        st := s.students[s.studentOrder[i]]
        if f.Search != "" && !containsFold(st.FirstName, f.Search) &&
            !containsFold(st.LastName, f.Search) && !containsFold(st.Email, f.Search) {
            continue
        }
        matched = append(matched, *st.Clone())
    }
    newestFirst(matched, func(st model.Student) time.Time { return st.CreatedAt })
    return paginate(matched, f.Pagination), int64(len(matched)), nil
}

// MarkFirstClass implements store.StudentStore.
func (s *Store) MarkFirstClass(_ context.Context, id string, class model.ClassAttendance) (*model.Student, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    st, ok := s.students[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    now := s.now()
    if class.Date.IsZero() {
        class.Date = now
    }
    st.FirstClassTaken = true
    st.FirstClassDate = &now
    st.ClassesAttended = append(st.ClassesAttended, class)
    st.UpdatedAt = now
    return st.Clone(), nil
}

// UpdatePaymentStatus implements store.StudentStore.
func (s *Store) UpdatePaymentStatus(_ context.Context, id string, u store.PaymentUpdate) (*model.Student, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    st, ok := s.students[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    st.PaymentStatus = u.Status
    if u.Record != nil {
        st.PaymentHistory = append(st.PaymentHistory, *u.Record)
    }
    st.UpdatedAt = s.now()
    return st.Clone(), nil
}
