package memory

import (
    "context"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// ledgerTx runs with s.mu already held by WithinTx.
type ledgerTx struct {
    s    *Store
    undo []func()
}

func pairKey(paymentID, kind string) string { return paymentID + "|" + kind }

func (t *ledgerTx) ClaimEvent(_ context.Context, ev model.ProcessedEvent) error {
    s := t.s
    if _, ok := s.events[ev.EventID]; ok {
        return store.ErrDuplicate
    }
    key := pairKey(ev.PaymentID, ev.Kind)
    if ev.PaymentID != "" {
        if _, ok := s.eventPairs[key]; ok {
            return store.ErrDuplicate
        }
        s.eventPairs[key] = ev.EventID
    }
    s.events[ev.EventID] = ev
    t.undo = append(t.undo, func() {
        delete(s.events, ev.EventID)
        if ev.PaymentID != "" {
            delete(s.eventPairs, key)
        }
    })
    return nil
}

// restoreStudent snapshots the student so a failed transaction can put
// the previous version back.
func (t *ledgerTx) restoreStudent(st *model.Student) {
    prev := st.Clone()
    t.undo = append(t.undo, func() { t.s.students[prev.ID] = prev })
}

func (t *ledgerTx) AppendStudentPayment(_ context.Context, studentID string, rec model.PaymentRecord) error {
    st, ok := t.s.students[studentID]
    if !ok {
        return store.ErrNotFound
    }
    t.restoreStudent(st)
    st.PaymentHistory = append(st.PaymentHistory, rec)
    st.PaymentStatus = model.PaymentPaid
    st.UpdatedAt = t.s.now()
    return nil
}

func (t *ledgerTx) LockStudent(_ context.Context, studentID string) error {
    if _, ok := t.s.students[studentID]; !ok {
        return store.ErrNotFound
    }
    return nil
}

func (t *ledgerTx) InsertSponsor(_ context.Context, sp *model.Sponsor) error {
    s := t.s
    for _, existing := range s.sponsors {
        if existing.ExternalPaymentID == sp.ExternalPaymentID {
            return store.ErrDuplicate
        }
    }
    if sp.ID == "" {
        sp.ID = newID()
    }
    now := s.now()
    sp.CreatedAt, sp.UpdatedAt = now, now
    if sp.PaymentDate.IsZero() {
        sp.PaymentDate = now
    }
    cp := *sp
    s.sponsors[sp.ID] = &cp
    s.sponsorOrder = append(s.sponsorOrder, sp.ID)
    id := sp.ID
    t.undo = append(t.undo, func() {
        delete(s.sponsors, id)
        s.sponsorOrder = removeID(s.sponsorOrder, id)
    })
    return nil
}

func (t *ledgerTx) AttachSponsor(_ context.Context, studentID, sponsorID string, amount decimal.Decimal) error {
    st, ok := t.s.students[studentID]
    if !ok {
        return store.ErrNotFound
    }
    t.restoreStudent(st)
    st.SponsorID = sponsorID
    st.ScholarshipStatus = model.ScholarshipApproved
    st.ScholarshipAmount = amount
    st.UpdatedAt = t.s.now()
    return nil
}

func (t *ledgerTx) FailSponsor(_ context.Context, externalPaymentID string, at time.Time) error {
    for _, sp := range t.s.sponsors {
        if sp.ExternalPaymentID != externalPaymentID {
            continue
        }
        prev := *sp
        sp.PaymentStatus = model.SponsorPaymentFailed
        sp.UpdatedAt = at
        t.undo = append(t.undo, func() { t.s.sponsors[prev.ID] = &prev })
        return nil
    }
    return store.ErrNotFound
}

// GetSponsor implements store.SponsorStore.
func (s *Store) GetSponsor(_ context.Context, id string) (*model.Sponsor, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    sp, ok := s.sponsors[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    cp := *sp
    return &cp, nil
}

// GetSponsorByPaymentID implements store.SponsorStore.
func (s *Store) GetSponsorByPaymentID(_ context.Context, externalPaymentID string) (*model.Sponsor, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, sp := range s.sponsors {
        if sp.ExternalPaymentID == externalPaymentID {
            cp := *sp
            return &cp, nil
        }
    }
    return nil, store.ErrNotFound
}
