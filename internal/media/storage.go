// Package media stores uploaded gallery files, either on local disk or in
// an S3 bucket.
package media

import (
    "context"
    "errors"
    "io"
    "path/filepath"
    "strings"

    "github.com/google/uuid"
)

// ErrNotFound is returned by Open and Delete for unknown names.
var ErrNotFound = errors.New("media not found")

// ErrInvalidName is returned for names that are not a single path element.
var ErrInvalidName = errors.New("invalid media name")

// Storage persists uploaded files under flat names.
type Storage interface {
    Save(ctx context.Context, name, contentType string, r io.Reader) error
    // Open returns the content and its MIME type.  The caller closes it.
    Open(ctx context.Context, name string) (io.ReadCloser, string, error)
    Delete(ctx context.Context, name string) error
}

// NewFilename returns a collision-free storage name keeping the original
// extension, e.g. "3f6c...-a1.jpg".
func NewFilename(original string) string {
    ext := strings.ToLower(filepath.Ext(original))
    if len(ext) > 10 {
        ext = ""
    }
    return "file-" + uuid.NewString() + ext
}

// checkName rejects anything that could escape the storage root.
func checkName(name string) error {
    if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
        return ErrInvalidName
    }
    return nil
}
