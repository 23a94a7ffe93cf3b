package model

import "time"

// Media types accepted by the gallery.
const (
    MediaPhoto = "photo"
    MediaVideo = "video"
)

// GalleryItem describes an uploaded photo or video.  The file itself lives
// in media storage under Filename; FilePath records where it was written.
type GalleryItem struct {
    ID           string `json:"id"`
    Filename     string `json:"filename"`
    OriginalName string `json:"originalName"`
    MimeType     string `json:"mimeType"`
    Size         int64  `json:"size"`
    Type         string `json:"type"`

    Title       string     `json:"title,omitempty"`
    Description string     `json:"description,omitempty"`
    EventName   string     `json:"eventName,omitempty"`
    EventDate   *time.Time `json:"eventDate,omitempty"`
    Instructor  string     `json:"instructor,omitempty"`
    ClassType   string     `json:"classType,omitempty"`

    FilePath      string `json:"filePath"`
    ThumbnailPath string `json:"thumbnailPath,omitempty"`

    IsPublic   bool     `json:"isPublic"`
    IsActive   bool     `json:"isActive"`
    UploadedBy string   `json:"uploadedBy"`
    Tags       []string `json:"tags"`

    Likes int64 `json:"likes"`
    Views int64 `json:"views"`

    CreatedAt time.Time `json:"createdAt"`
    UpdatedAt time.Time `json:"updatedAt"`
}

// GalleryUpdate is a partial update; nil fields are left unchanged.
type GalleryUpdate struct {
    Title       *string
    Description *string
    EventName   *string
    EventDate   *time.Time
    Instructor  *string
    ClassType   *string
    IsPublic    *bool
    Tags        []string
}

// Apply mutates g according to u.
func (g *GalleryItem) Apply(u GalleryUpdate, now time.Time) {
    if u.Title != nil {
        g.Title = *u.Title
    }
    if u.Description != nil {
        g.Description = *u.Description
    }
    if u.EventName != nil {
        g.EventName = *u.EventName
    }
    if u.EventDate != nil {
        t := *u.EventDate
        g.EventDate = &t
    }
    if u.Instructor != nil {
        g.Instructor = *u.Instructor
    }
    if u.ClassType != nil {
        g.ClassType = *u.ClassType
    }
    if u.IsPublic != nil {
        g.IsPublic = *u.IsPublic
    }
    if u.Tags != nil {
        g.Tags = append([]string(nil), u.Tags...)
    }
    g.UpdatedAt = now
}

// Clone returns a deep copy of g.
func (g *GalleryItem) Clone() *GalleryItem {
    if g == nil {
        return nil
    }
    out := *g
    out.Tags = append([]string(nil), g.Tags...)
    if g.EventDate != nil {
        t := *g.EventDate
        out.EventDate = &t
    }
    return &out
}

// MediaTypeFor classifies a MIME type as photo or video.  It returns ""
// for anything else.
func MediaTypeFor(mime string) string {
    switch {
    case len(mime) > 6 && mime[:6] == "image/":
        return MediaPhoto
    case len(mime) > 6 && mime[:6] == "video/":
        return MediaVideo
    }
    return ""
}
