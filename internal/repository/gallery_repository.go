package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// GalleryRepo implements store.GalleryStore.  Tags are stored as a JSON
// array so tag search can use JSON_SEARCH.
type GalleryRepo struct {
    db  *sql.DB
    now func() time.Time
}

// NewGalleryRepo returns a new GalleryRepo bound to the given database.
func NewGalleryRepo(db *sql.DB) *GalleryRepo {
    return &GalleryRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const galleryColumns = `id, filename, original_name, mime_type, size, type, title, description,
    event_name, event_date, instructor, class_type, file_path, thumbnail_path,
    is_public, is_active, uploaded_by, tags, likes, views, created_at, updated_at`

func scanGalleryItem(row rowScanner) (*model.GalleryItem, error) {
    var (
        g         model.GalleryItem
        eventDate sql.NullTime
        tags      []byte
    )
    err := row.Scan(
        &g.ID, &g.Filename, &g.OriginalName, &g.MimeType, &g.Size, &g.Type, &g.Title, &g.Description,
        &g.EventName, &eventDate, &g.Instructor, &g.ClassType, &g.FilePath, &g.ThumbnailPath,
        &g.IsPublic, &g.IsActive, &g.UploadedBy, &tags, &g.Likes, &g.Views, &g.CreatedAt, &g.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    g.EventDate = timePtr(eventDate)
    g.Tags = []string{}
    if len(tags) > 0 {
        if err := json.Unmarshal(tags, &g.Tags); err != nil {
            return nil, err
        }
    }
    return &g, nil
}

func encodeTags(tags []string) (string, error) {
    if tags == nil {
        tags = []string{}
    }
    b, err := json.Marshal(tags)
    return string(b), err
}

// CreateGalleryItem stores metadata for an uploaded file.
func (r *GalleryRepo) CreateGalleryItem(ctx context.Context, g *model.GalleryItem) error {
    if g.ID == "" {
        g.ID = uuid.NewString()
    }
    now := r.now()
    g.CreatedAt, g.UpdatedAt = now, now
    if g.Tags == nil {
        g.Tags = []string{}
    }
    tags, err := encodeTags(g.Tags)
    if err != nil {
        return err
    }
    _, err = r.db.ExecContext(ctx,
        `INSERT INTO gallery_items (`+galleryColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
        g.ID, g.Filename, g.OriginalName, g.MimeType, g.Size, g.Type, g.Title, g.Description,
        g.EventName, nullTime(g.EventDate), g.Instructor, g.ClassType, g.FilePath, g.ThumbnailPath,
        g.IsPublic, g.IsActive, g.UploadedBy, tags, g.Likes, g.Views, g.CreatedAt, g.UpdatedAt,
    )
    return translate(err)
}

func getGalleryItem(ctx context.Context, q queryer, id string, lock bool) (*model.GalleryItem, error) {
    query := `SELECT ` + galleryColumns + ` FROM gallery_items WHERE id = ?`
    if lock {
        query += ` FOR UPDATE`
    }
    g, err := scanGalleryItem(q.QueryRowContext(ctx, query, id))
    if err != nil {
        return nil, translate(err)
    }
    return g, nil
}

// GetGalleryItem returns one item without touching its counters.
func (r *GalleryRepo) GetGalleryItem(ctx context.Context, id string) (*model.GalleryItem, error) {
    return getGalleryItem(ctx, r.db, id, false)
}

// ViewGalleryItem bumps the view counter and returns the item.
func (r *GalleryRepo) ViewGalleryItem(ctx context.Context, id string) (*model.GalleryItem, error) {
    var out *model.GalleryItem
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        if _, err := tx.ExecContext(ctx, `UPDATE gallery_items SET views = views + 1 WHERE id = ?`, id); err != nil {
            return err
        }
        g, err := getGalleryItem(ctx, tx, id, false)
        out = g
        return err
    })
    if err != nil {
        return nil, translate(err)
    }
    return out, nil
}

// ListGalleryItems returns one page of active items, newest first.
func (r *GalleryRepo) ListGalleryItems(ctx context.Context, f store.GalleryFilter) ([]model.GalleryItem, int64, error) {
    where := []string{"is_active = TRUE"}
    args := []any{}
    if f.PublicOnly {
        where = append(where, "is_public = TRUE")
    }
    if f.Type != "" {
        where = append(where, "type = ?")
        args = append(args, f.Type)
    }
    if f.ClassType != "" {
        where = append(where, "class_type = ?")
        args = append(args, f.ClassType)
    }
    if f.Instructor != "" {
        where = append(where, "LOWER(instructor) LIKE ?")
        args = append(args, likePattern(f.Instructor))
    }
    if f.Search != "" {
        p := likePattern(f.Search)
        where = append(where, `(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(event_name) LIKE ?
            OR JSON_SEARCH(LOWER(tags), 'one', ?) IS NOT NULL)`)
        args = append(args, p, p, p, p)
    }
    cond := strings.Join(where, " AND ")

    var total int64
    if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM gallery_items WHERE `+cond, args...).Scan(&total); err != nil {
        return nil, 0, err
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+galleryColumns+` FROM gallery_items WHERE `+cond+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
        append(args, f.Limit, f.Offset())...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    out := make([]model.GalleryItem, 0, f.Limit)
    for rows.Next() {
        g, err := scanGalleryItem(rows)
        if err != nil {
            return nil, 0, err
        }
        out = append(out, *g)
    }
    return out, total, rows.Err()
}

// UpdateGalleryItem applies a partial update.
func (r *GalleryRepo) UpdateGalleryItem(ctx context.Context, id string, u model.GalleryUpdate) (*model.GalleryItem, error) {
    var out *model.GalleryItem
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        g, err := getGalleryItem(ctx, tx, id, true)
        if err != nil {
            return err
        }
        g.Apply(u, r.now())
        tags, err := encodeTags(g.Tags)
        if err != nil {
            return err
        }
        _, err = tx.ExecContext(ctx,
            `UPDATE gallery_items SET title = ?, description = ?, event_name = ?, event_date = ?,
                instructor = ?, class_type = ?, is_public = ?, tags = ?, updated_at = ? WHERE id = ?`,
            g.Title, g.Description, g.EventName, nullTime(g.EventDate),
            g.Instructor, g.ClassType, g.IsPublic, tags, g.UpdatedAt, id)
        out = g
        return err
    })
    if err != nil {
        return nil, translate(err)
    }
    return out, nil
}

// DeleteGalleryItem removes the metadata row.
func (r *GalleryRepo) DeleteGalleryItem(ctx context.Context, id string) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM gallery_items WHERE id = ?`, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return store.ErrNotFound
    }
    return nil
}

// LikeGalleryItem bumps the like counter and returns the new value.
func (r *GalleryRepo) LikeGalleryItem(ctx context.Context, id string) (int64, error) {
    var likes int64
    err := withTx(ctx, r.db, func(tx *sql.Tx) error {
        res, err := tx.ExecContext(ctx, `UPDATE gallery_items SET likes = likes + 1 WHERE id = ?`, id)
        if err != nil {
            return err
        }
        if n, err := res.RowsAffected(); err != nil {
            return err
        } else if n == 0 {
            return sql.ErrNoRows
        }
        return tx.QueryRowContext(ctx, `SELECT likes FROM gallery_items WHERE id = ?`, id).Scan(&likes)
    })
    if err != nil {
        return 0, translate(err)
    }
    return likes, nil
}
