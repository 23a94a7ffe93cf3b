package memory

import (
    "context"
    "time"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// CreateContact implements store.ContactStore.
func (s *Store) CreateContact(_ context.Context, c *model.Contact) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if c.ID == "" {
        c.ID = newID()
    }
    now := s.now()
    c.CreatedAt, c.UpdatedAt = now, now
    if c.Status == "" {
        c.Status = model.ContactNew
    }
    if c.Notes == nil {
        c.Notes = []model.ContactNote{}
    }
    s.contacts[c.ID] = c.Clone()
    s.contactOrder = append(s.contactOrder, c.ID)
    return nil
}

// GetContact implements store.ContactStore.
func (s *Store) GetContact(_ context.Context, id string) (*model.Contact, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    c, ok := s.contacts[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return c.Clone(), nil
}

// ListContacts implements store.ContactStore.
func (s *Store) ListContacts(_ context.Context, f store.ContactFilter) ([]model.Contact, int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    matched := make([]model.Contact, 0)
    for i := len(s.contactOrder) - 1; i >= 0; i-- {
        c := s.contacts[s.contactOrder[i]]
        if f.OrganizationType != "" && c.OrganizationType != f.OrganizationType {
            continue
        }
        if f.Status != "" && c.Status != f.Status {
            continue
        }
        if f.Search != "" && !containsFold(c.Name, f.Search) && !containsFold(c.Email, f.Search) &&
            !containsFold(c.OrganizationName, f.Search) && !containsFold(c.Subject, f.Search) {
            continue
        }
        matched = append(matched, *c.Clone())
    }
    newestFirst(matched, func(c model.Contact) time.Time { return c.CreatedAt })
    return paginate(matched, f.Pagination), int64(len(matched)), nil
}

// UpdateContactStatus implements store.ContactStore.
func (s *Store) UpdateContactStatus(_ context.Context, id string, u model.ContactStatusUpdate) (*model.Contact, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    c, ok := s.contacts[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    c.Apply(u, s.now())
    return c.Clone(), nil
}

// AddContactNote implements store.ContactStore.
func (s *Store) AddContactNote(_ context.Context, id string, n model.ContactNote) (*model.Contact, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    c, ok := s.contacts[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    now := s.now()
    if n.Date.IsZero() {
        n.Date = now
    }
    c.Notes = append(c.Notes, n)
    c.UpdatedAt = now
    return c.Clone(), nil
}

// recentContacts returns up to n contacts, newest first.  Caller holds s.mu.
func (s *Store) recentContacts(n int) []model.ContactSummary {
    all := make([]model.Contact, 0, len(s.contactOrder))
    for i := len(s.contactOrder) - 1; i >= 0; i-- {
        all = append(all, *s.contacts[s.contactOrder[i]])
    }
    newestFirst(all, func(c model.Contact) time.Time { return c.CreatedAt })
    out := make([]model.ContactSummary, 0, n)
    for i := 0; i < len(all) && i < n; i++ {
        out = append(out, all[i].Summary())
    }
    return out
}

// ContactStats implements store.ContactStore.
func (s *Store) ContactStats(_ context.Context) (*model.ContactStats, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := &model.ContactStats{}
    for _, c := range s.contacts {
        out.TotalContacts++
        if c.Status == model.ContactNew {
            out.NewContacts++
        }
        switch c.OrganizationType {
        case model.OrgNonprofit:
            out.NonprofitContacts++
        case model.OrgSponsor:
            out.SponsorContacts++
        }
    }
    out.RecentContacts = s.recentContacts(5)
    return out, nil
}
