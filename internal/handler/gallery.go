package handler

import (
    "encoding/json"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/neustalgic-grooves/internal/media"
    "github.com/iliyamo/neustalgic-grooves/internal/model"
    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// ServePrefix is where uploaded files are served from.
const ServePrefix = "/api/gallery/serve/"

// GalleryHandler serves /api/gallery.
type GalleryHandler struct {
    Gallery  store.GalleryStore
    Media    media.Storage
    MaxBytes int64
}

// NewGalleryHandler constructs a GalleryHandler.
func NewGalleryHandler(s store.GalleryStore, m media.Storage, maxBytes int64) *GalleryHandler {
    return &GalleryHandler{Gallery: s, Media: m, MaxBytes: maxBytes}
}

type uploadRequest struct {
    Title       string `form:"title"`
    Description string `form:"description"`
    EventName   string `form:"eventName"`
    EventDate   string `form:"eventDate" validate:"omitempty,datetime=2006-01-02"`
    Instructor  string `form:"instructor"`
    ClassType   string `form:"classType" validate:"omitempty,oneof=kids-breaking adult-breaking funk-styles private-lesson event"`
    UploadedBy  string `form:"uploadedBy" validate:"required"`
    Tags        string `form:"tags"`
    IsPublic    string `form:"isPublic" validate:"omitempty,oneof=true false"`
}

// parseTags accepts a JSON array or a comma separated list.
func parseTags(raw string) ([]string, error) {
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return []string{}, nil
    }
    var tags []string
    if strings.HasPrefix(raw, "[") {
        if err := json.Unmarshal([]byte(raw), &tags); err != nil {
            return nil, err
        }
    } else {
        tags = strings.Split(raw, ",")
    }
    out := make([]string, 0, len(tags))
    for _, t := range tags {
        if t = strings.TrimSpace(t); t != "" {
            out = append(out, t)
        }
    }
    return out, nil
}

// Upload handles POST /api/gallery/upload (multipart, field "file").
func (h *GalleryHandler) Upload(c echo.Context) error {
    var req uploadRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    fh, err := c.FormFile("file")
    if err != nil {
        return c.JSON(http.StatusBadRequest, errorBody("No file uploaded"))
    }
    if h.MaxBytes > 0 && fh.Size > h.MaxBytes {
        return c.JSON(http.StatusRequestEntityTooLarge, errorBody("file too large"))
    }
    mimeType := fh.Header.Get(echo.HeaderContentType)
    kind := model.MediaTypeFor(mimeType)
    if kind == "" {
        return c.JSON(http.StatusBadRequest, errorBody("Only image and video files are allowed"))
    }
    tags, err := parseTags(req.Tags)
    if err != nil {
        return c.JSON(http.StatusBadRequest, errorBody("tags must be a JSON array of strings"))
    }

    name := media.NewFilename(fh.Filename)
    src, err := fh.Open()
    if err != nil {
        return c.JSON(http.StatusBadRequest, errorBody("could not read upload"))
    }
    defer src.Close()
    ctx := c.Request().Context()
    if err := h.Media.Save(ctx, name, mimeType, src); err != nil {
        c.Logger().Errorf("gallery: save %s: %v", name, err)
        return c.JSON(http.StatusInternalServerError, errorBody("server error"))
    }

    g := &model.GalleryItem{
        Filename:     name,
        OriginalName: fh.Filename,
        MimeType:     mimeType,
        Size:         fh.Size,
        Type:         kind,
        Title:        strings.TrimSpace(req.Title),
        Description:  strings.TrimSpace(req.Description),
        EventName:    strings.TrimSpace(req.EventName),
        Instructor:   strings.TrimSpace(req.Instructor),
        ClassType:    req.ClassType,
        FilePath:     ServePrefix + name,
        IsPublic:     req.IsPublic != "false",
        IsActive:     true,
        UploadedBy:   req.UploadedBy,
        Tags:         tags,
    }
    if req.EventDate != "" {
        d, _ := time.Parse("2006-01-02", req.EventDate)
        g.EventDate = &d
    }
    if err := h.Gallery.CreateGalleryItem(ctx, g); err != nil {
        // Don't leave an orphaned file behind.
        if derr := h.Media.Delete(ctx, name); derr != nil {
            c.Logger().Warnf("gallery: cleanup %s: %v", name, derr)
        }
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusCreated, map[string]any{"message": "File uploaded successfully", "galleryItem": g})
}

// List handles GET /api/gallery.  The public filter only applies when
// ?isPublic=true is passed explicitly.
func (h *GalleryHandler) List(c echo.Context) error {
    f := store.GalleryFilter{
        PublicOnly: c.QueryParam("isPublic") == "true",
        Type:       strings.TrimSpace(c.QueryParam("type")),
        ClassType:  strings.TrimSpace(c.QueryParam("classType")),
        Instructor: strings.TrimSpace(c.QueryParam("instructor")),
        Search:     strings.TrimSpace(c.QueryParam("search")),
        Pagination: pagination(c, 12),
    }
    items, total, err := h.Gallery.ListGalleryItems(c.Request().Context(), f)
    if err != nil {
        return storeError(c, err, "", "")
    }
    return c.JSON(http.StatusOK, map[string]any{
        "galleryItems": items,
        "totalPages":   f.TotalPages(total),
        "currentPage":  f.Page,
        "totalItems":   total,
    })
}

// Get handles GET /api/gallery/:id and counts a view.
func (h *GalleryHandler) Get(c echo.Context) error {
    g, err := h.Gallery.ViewGalleryItem(c.Request().Context(), c.Param("id"))
    if err != nil {
        return storeError(c, err, "Gallery item not found", "")
    }
    return c.JSON(http.StatusOK, g)
}

type galleryUpdateRequest struct {
    Title       *string  `json:"title"`
    Description *string  `json:"description"`
    EventName   *string  `json:"eventName"`
    EventDate   *string  `json:"eventDate" validate:"omitempty,datetime=2006-01-02"`
    Instructor  *string  `json:"instructor"`
    ClassType   *string  `json:"classType" validate:"omitempty,oneof=kids-breaking adult-breaking funk-styles private-lesson event"`
    IsPublic    *bool    `json:"isPublic"`
    Tags        []string `json:"tags"`
}

func trimmed(p *string) *string {
    if p == nil {
        return nil
    }
    s := strings.TrimSpace(*p)
    return &s
}

// Update handles PUT /api/gallery/:id.
func (h *GalleryHandler) Update(c echo.Context) error {
    var req galleryUpdateRequest
    if ok, err := decode(c, &req); !ok {
        return err
    }
    u := model.GalleryUpdate{
        Title:       trimmed(req.Title),
        Description: trimmed(req.Description),
        EventName:   trimmed(req.EventName),
        Instructor:  trimmed(req.Instructor),
        ClassType:   req.ClassType,
        IsPublic:    req.IsPublic,
        Tags:        req.Tags,
    }
    if req.EventDate != nil {
        d, _ := time.Parse("2006-01-02", *req.EventDate)
        u.EventDate = &d
    }
    g, err := h.Gallery.UpdateGalleryItem(c.Request().Context(), c.Param("id"), u)
    if err != nil {
        return storeError(c, err, "Gallery item not found", "")
    }
    return c.JSON(http.StatusOK, map[string]any{"message": "Gallery item updated successfully", "galleryItem": g})
}

// Delete handles DELETE /api/gallery/:id.  The record goes first; a file
// that fails to delete is only logged.
func (h *GalleryHandler) Delete(c echo.Context) error {
    ctx := c.Request().Context()
    g, err := h.Gallery.GetGalleryItem(ctx, c.Param("id"))
    if err != nil {
        return storeError(c, err, "Gallery item not found", "")
    }
    if err := h.Gallery.DeleteGalleryItem(ctx, g.ID); err != nil {
        return storeError(c, err, "Gallery item not found", "")
    }
    if err := h.Media.Delete(ctx, g.Filename); err != nil && !errors.Is(err, media.ErrNotFound) {
        c.Logger().Warnf("gallery: delete file %s: %v", g.Filename, err)
    }
    return c.JSON(http.StatusOK, map[string]string{"message": "Gallery item deleted successfully"})
}

// Like handles POST /api/gallery/:id/like.
func (h *GalleryHandler) Like(c echo.Context) error {
    n, err := h.Gallery.LikeGalleryItem(c.Request().Context(), c.Param("id"))
    if err != nil {
        return storeError(c, err, "Gallery item not found", "")
    }
    return c.JSON(http.StatusOK, map[string]any{"message": "Gallery item liked", "likes": n})
}

// Serve handles GET /api/gallery/serve/:filename.
func (h *GalleryHandler) Serve(c echo.Context) error {
    rc, contentType, err := h.Media.Open(c.Request().Context(), c.Param("filename"))
    if err != nil {
        if errors.Is(err, media.ErrNotFound) || errors.Is(err, media.ErrInvalidName) {
            return c.JSON(http.StatusNotFound, errorBody("File not found"))
        }
        c.Logger().Errorf("gallery: open %s: %v", c.Param("filename"), err)
        return c.JSON(http.StatusInternalServerError, errorBody("server error"))
    }
    defer rc.Close()
    c.Response().Header().Set("Cache-Control", "public, max-age=86400")
    return c.Stream(http.StatusOK, contentType, rc)
}
