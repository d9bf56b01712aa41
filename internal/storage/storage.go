// Package storage keeps bill photos in an object store.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/diewo77/go-purchases/internal/models"
)

// BlobStore stores an object and returns a URL it can be fetched from.
type BlobStore interface {
	Put(ctx context.Context, objectPath, contentType string, body io.Reader, size int64) (string, error)
}

// File is an uploaded photo waiting to be stored.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ObjectPath is where a photo of a purchase is stored.
func ObjectPath(purchaseID, fileName string, at time.Time) string {
	return fmt.Sprintf("purchases/%s/photos/%d_%s", purchaseID, at.UnixMilli(), path.Base(fileName))
}

// ThumbnailPath is the object path of the thumbnail derived from objectPath.
func ThumbnailPath(objectPath string) string {
	return objectPath + ".thumb.jpg"
}

// FormatSize renders a byte count as megabytes with one decimal, e.g. "1.5MB".
func FormatSize(n int64) string {
	return fmt.Sprintf("%.1fMB", float64(n)/1024/1024)
}

// UploadPhoto stores f for purchaseID and returns its Photo record. Images
// also get a thumbnail; a file that cannot be decoded is kept without one.
func UploadPhoto(ctx context.Context, store BlobStore, purchaseID string, f File, now time.Time) (models.Photo, error) {
	objectPath := ObjectPath(purchaseID, f.Name, now)
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := store.Put(ctx, objectPath, contentType, bytes.NewReader(f.Data), int64(len(f.Data)))
	if err != nil {
		return models.Photo{}, fmt.Errorf("upload %s: %w", f.Name, err)
	}

	photo := models.Photo{
		ID:         models.NewID(),
		Name:       f.Name,
		UploadDate: models.NewDate(now),
		Size:       FormatSize(int64(len(f.Data))),
		URL:        url,
	}
	if strings.HasPrefix(contentType, "image/") {
		if thumb, err := Thumbnail(f.Data, ThumbnailWidth); err == nil {
			thumbURL, err := store.Put(ctx, ThumbnailPath(objectPath), "image/jpeg", bytes.NewReader(thumb), int64(len(thumb)))
			if err != nil {
				return models.Photo{}, fmt.Errorf("upload thumbnail of %s: %w", f.Name, err)
			}
			photo.ThumbnailURL = thumbURL
		}
	}
	return photo, nil
}
