// Package storage stores uploaded files on a named disk.
//
// Two drivers exist: "local" (a directory served under /storage) and "s3"
// (any S3-compatible bucket). STORAGE_DISK picks the default:
//
//	storage.Connect()
//	err := storage.Default().Put(ctx, "listings/7/abc.jpg", file, "image/jpeg")
//	url := storage.Default().URL("listings/7/abc.jpg")
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/artisansally/ally/config"
	"github.com/artisansally/ally/pkg/logger"
)

// ErrNotFound is returned by Open and Delete for missing keys where the
// driver can tell.
var ErrNotFound = errors.New("storage: object not found")

type Disk interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL is the public address of key.
	URL(key string) string
}

var (
	mu          sync.RWMutex
	disks       = map[string]Disk{}
	defaultName = "local"
)

// Connect boots the local disk and, when S3_BUCKET is set, the s3 disk.
func Connect() {
	mu.Lock()
	defer mu.Unlock()

	defaultName = config.StorageDefault()
	disks["local"] = NewLocal(config.StorageLocalRoot(), config.StorageURL())

	if config.StorageS3Bucket() == "" {
		return
	}
	d, err := NewS3(context.Background(), S3Options{
		Bucket:   config.StorageS3Bucket(),
		Region:   config.StorageS3Region(),
		Key:      config.StorageS3Key(),
		Secret:   config.StorageS3Secret(),
		Endpoint: config.StorageS3Endpoint(),
		BaseURL:  config.StorageS3URL(),
	})
	if err != nil {
		logger.Warn("storage: s3 disk disabled", "error", err)
		return
	}
	disks["s3"] = d
}

// Register installs d under name. Tests use it to swap in a temp-dir disk.
func Register(name string, d Disk) {
	mu.Lock()
	disks[name] = d
	mu.Unlock()
}

// SetDefault changes which disk Default returns.
func SetDefault(name string) {
	mu.Lock()
	defaultName = name
	mu.Unlock()
}

func Use(name string) (Disk, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the STORAGE_DISK disk, falling back to local.
func Default() Disk {
	if d, err := Use(currentDefault()); err == nil {
		return d
	}
	if d, err := Use("local"); err == nil {
		return d
	}
	return NewLocal(config.StorageLocalRoot(), config.StorageURL())
}

func currentDefault() string {
	mu.RLock()
	defer mu.RUnlock()
	return defaultName
}
