package media

import (
    "context"
    "errors"
    "fmt"
    "io"
    "io/fs"
    "mime"
    "os"
    "path/filepath"
)

// DiskStorage keeps files in a single directory.
type DiskStorage struct {
    dir string
}

// NewDiskStorage creates dir if needed.
func NewDiskStorage(dir string) (*DiskStorage, error) {
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return nil, fmt.Errorf("create upload dir: %w", err)
    }
    return &DiskStorage{dir: dir}, nil
}

func (d *DiskStorage) Save(_ context.Context, name, _ string, r io.Reader) error {
    if err := checkName(name); err != nil {
        return err
    }
    // Write to a temp file first so a failed upload never leaves a
    // truncated file under the final name.
    tmp, err := os.CreateTemp(d.dir, ".upload-*")
    if err != nil {
        return err
    }
    if _, err := io.Copy(tmp, r); err != nil {
        tmp.Close()
        os.Remove(tmp.Name())
        return err
    }
    if err := tmp.Close(); err != nil {
        os.Remove(tmp.Name())
        return err
    }
    return os.Rename(tmp.Name(), filepath.Join(d.dir, name))
}

func (d *DiskStorage) Open(_ context.Context, name string) (io.ReadCloser, string, error) {
    if err := checkName(name); err != nil {
        return nil, "", err
    }
    f, err := os.Open(filepath.Join(d.dir, name))
    if errors.Is(err, fs.ErrNotExist) {
        return nil, "", ErrNotFound
    }
    if err != nil {
        return nil, "", err
    }
    ct := mime.TypeByExtension(filepath.Ext(name))
    if ct == "" {
        ct = "application/octet-stream"
    }
    return f, ct, nil
}

func (d *DiskStorage) Delete(_ context.Context, name string) error {
    if err := checkName(name); err != nil {
        return err
    }
    err := os.Remove(filepath.Join(d.dir, name))
    if errors.Is(err, fs.ErrNotExist) {
        return ErrNotFound
    }
    return err
}
