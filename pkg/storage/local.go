package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local keeps objects under a root directory.
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) *Local {
	if !filepath.IsAbs(root) {
		if cwd, err := os.Getwd(); err == nil {
			root = filepath.Join(cwd, root)
		}
	}
	return &Local{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// Root is the directory the /storage file server exposes.
func (d *Local) Root() string { return d.root }

func (d *Local) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("storage/local: empty key")
	}
	return filepath.Join(d.root, clean), nil
}

func (d *Local) Put(_ context.Context, key string, r io.Reader, _ string) error {
	full, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("storage/local: mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("storage/local: create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return fmt.Errorf("storage/local: write %s: %w", key, err)
	}
	return f.Close()
}

func (d *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := d.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage/local: open %s: %w", key, err)
	}
	return f, nil
}

func (d *Local) Delete(_ context.Context, key string) error {
	full, err := d.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage/local: delete %s: %w", key, err)
	}
	return nil
}

func (d *Local) URL(key string) string {
	return d.baseURL + "/" + strings.TrimLeft(key, "/")
}
