// Package memory is an in-process implementation of the store interfaces.
// It backs development runs without MySQL (STORE_DRIVER=memory) and the
// handler and reconciliation tests.  All state lives behind one mutex; every
// read hands out a deep copy so callers never share memory with the store.
package memory

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// Store holds every entity in maps keyed by id.  The order slices keep
// insertion order so listings with equal timestamps stay deterministic.
type Store struct {
    mu  sync.Mutex
    now func() time.Time

    students     map[string]*model.Student
    studentOrder []string

    scholarships     map[string]*model.Scholarship
    scholarshipOrder []string

    contacts     map[string]*model.Contact
    contactOrder []string

    gallery      map[string]*model.GalleryItem
    galleryOrder []string

    sponsors     map[string]*model.Sponsor
    sponsorOrder []string

    events     map[string]model.ProcessedEvent
    eventPairs map[string]string // paymentID|kind -> event id
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) Option {
    return func(s *Store) { s.now = now }
}

// New returns an empty store.
func New(opts ...Option) *Store {
    s := &Store{
        now:          func() time.Time { return time.Now().UTC() },
        students:     map[string]*model.Student{},
        scholarships: map[string]*model.Scholarship{},
        contacts:     map[string]*model.Contact{},
        gallery:      map[string]*model.GalleryItem{},
        sponsors:     map[string]*model.Sponsor{},
        events:       map[string]model.ProcessedEvent{},
        eventPairs:   map[string]string{},
    }
    for _, o := range opts {
        o(s)
    }
    return s
}

// Bundle exposes s through every store capability.
func (s *Store) Bundle() store.Store {
    return store.Store{
        Students:     s,
        Scholarships: s,
        Contacts:     s,
        Gallery:      s,
        Dashboard:    s,
        Sponsors:     s,
        Ledger:       s,
    }
}

// ProcessedEvents returns the claimed events, for inspection in tests.
func (s *Store) ProcessedEvents() []model.ProcessedEvent {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.ProcessedEvent, 0, len(s.events))
    for _, ev := range s.events {
        out = append(out, ev)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].EventID < out[j].EventID })
    return out
}

// ListSponsors returns every sponsor, newest first.
func (s *Store) ListSponsors() []model.Sponsor {
    s.mu.Lock()
    defer s.mu.Unlock()
    out := make([]model.Sponsor, 0, len(s.sponsors))
    for i := len(s.sponsorOrder) - 1; i >= 0; i-- {
        out = append(out, *s.sponsors[s.sponsorOrder[i]])
    }
    return out
}

func newID() string { return uuid.NewString() }

// containsFold reports whether sub is within str, ignoring case.
func containsFold(str, sub string) bool {
    return strings.Contains(strings.ToLower(str), strings.ToLower(sub))
}

// paginate returns the slice of items for page p.
func paginate[T any](items []T, p store.Pagination) []T {
    off := p.Offset()
    if off >= len(items) {
        return []T{}
    }
    end := off + p.Limit
    if end > len(items) {
        end = len(items)
    }
    return items[off:end]
}

// newestFirst sorts by creation time descending.  Callers pass items in
// reverse insertion order so ties keep the most recent insert first.
func newestFirst[T any](items []T, createdAt func(T) time.Time) {
    sort.SliceStable(items, func(i, j int) bool {
        return createdAt(items[i]).After(createdAt(items[j]))
    })
}

func removeID(ids []string, id string) []string {
    for i, v := range ids {
        if v == id {
            return append(ids[:i:i], ids[i+1:]...)
        }
    }
    return ids
}

// WithinTx holds the store lock for the whole of fn.  Each mutation made
// through the LedgerTx registers an undo step; they run in reverse when fn
// fails.
func (s *Store) WithinTx(ctx context.Context, fn func(tx store.LedgerTx) error) error {
    if err := ctx.Err(); err != nil {
        return err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    tx := &ledgerTx{s: s}
    if err := fn(tx); err != nil {
        for i := len(tx.undo) - 1; i >= 0; i-- {
            tx.undo[i]()
        }
        return err
    }
    return nil
}
