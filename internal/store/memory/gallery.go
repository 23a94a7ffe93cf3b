package memory

import (
    "context"
    "time"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// CreateGalleryItem implements store.GalleryStore.
func (s *Store) CreateGalleryItem(_ context.Context, g *model.GalleryItem) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if g.ID == "" {
        g.ID = newID()
    }
    now := s.now()
    g.CreatedAt, g.UpdatedAt = now, now
    if g.Tags == nil {
        g.Tags = []string{}
    }
    s.gallery[g.ID] = g.Clone()
    s.galleryOrder = append(s.galleryOrder, g.ID)
    return nil
}

// GetGalleryItem implements store.GalleryStore.
func (s *Store) GetGalleryItem(_ context.Context, id string) (*model.GalleryItem, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    g, ok := s.gallery[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    return g.Clone(), nil
}

// ViewGalleryItem implements store.GalleryStore.
func (s *Store) ViewGalleryItem(_ context.Context, id string) (*model.GalleryItem, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    g, ok := s.gallery[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    g.Views++
    return g.Clone(), nil
}

func matchesGallery(g *model.GalleryItem, f store.GalleryFilter) bool {
    if !g.IsActive {
        return false
    }
    if f.PublicOnly && !g.IsPublic {
        return false
    }
    if f.Type != "" && g.Type != f.Type {
        return false
    }
    if f.ClassType != "" && g.ClassType != f.ClassType {
        return false
    }
    if f.Instructor != "" && !containsFold(g.Instructor, f.Instructor) {
        return false
    }
    if f.Search == "" {
        return true
    }
    if containsFold(g.Title, f.Search) || containsFold(g.Description, f.Search) || containsFold(g.EventName, f.Search) {
        return true
    }
    for _, tag := range g.Tags {
        if containsFold(tag, f.Search) {
            return true
        }
    }
    return false
}

// ListGalleryItems implements store.GalleryStore.
func (s *Store) ListGalleryItems(_ context.Context, f store.GalleryFilter) ([]model.GalleryItem, int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    matched := make([]model.GalleryItem, 0)
    for i := len(s.galleryOrder) - 1; i >= 0; i-- {
        g := s.gallery[s.galleryOrder[i]]
        if matchesGallery(g, f) {
            matched = append(matched, *g.Clone())
        }
    }
    newestFirst(matched, func(g model.GalleryItem) time.Time { return g.CreatedAt })
    return paginate(matched, f.Pagination), int64(len(matched)), nil
}

// UpdateGalleryItem implements store.GalleryStore.
func (s *Store) UpdateGalleryItem(_ context.Context, id string, u model.GalleryUpdate) (*model.GalleryItem, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    g, ok := s.gallery[id]
    if !ok {
        return nil, store.ErrNotFound
    }
    g.Apply(u, s.now())
    return g.Clone(), nil
}

// DeleteGalleryItem implements store.GalleryStore.
func (s *Store) DeleteGalleryItem(_ context.Context, id string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.gallery[id]; !ok {
        return store.ErrNotFound
    }
    delete(s.gallery, id)
    s.galleryOrder = removeID(s.galleryOrder, id)
    return nil
}

// LikeGalleryItem implements store.GalleryStore.
func (s *Store) LikeGalleryItem(_ context.Context, id string) (int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    g, ok := s.gallery[id]
    if !ok {
        return 0, store.ErrNotFound
    }
    g.Likes++
    return g.Likes, nil
}
