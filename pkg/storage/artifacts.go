package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const (
	// FolderUploads is the key prefix for study-material uploads.
	FolderUploads = "uploads"
)

// ErrArtifactNotFound is returned by Open for a missing key.
var ErrArtifactNotFound = errors.New("artifact not found")

// Artifacts stores short-lived upload artifacts.
type Artifacts interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Allowed upload MIME types and extensions.
var (
	AllowedUploadTypes = map[string]string{
		"application/pdf":    ".pdf",
		"text/plain":         ".txt",
		"application/msword": ".doc",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
	}
	AllowedUploadExtensions = map[string]string{
		".pdf":  "application/pdf",
		".txt":  "text/plain",
		".doc":  "application/msword",
		".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
)

// NormalizeContentType resolves an upload's MIME type from its declared type, falling back to
// the filename extension. It returns "" when neither is allowed.
func NormalizeContentType(contentType, filename string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if _, ok := AllowedUploadTypes[ct]; ok {
		return ct
	}
	if mapped, ok := AllowedUploadExtensions[strings.ToLower(path.Ext(filename))]; ok {
		return mapped
	}
	return ""
}

// UploadKey returns the object key for an upload: uploads/{user_id}/{unix_nano}-{slug}{ext}.
func UploadKey(userID uuid.UUID, filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(filename))
	base := slug.Make(strings.TrimSuffix(path.Base(filename), path.Ext(filename)))
	if base == "" {
		base = "upload"
	}
	return path.Join(FolderUploads, userID.String(), fmt.Sprintf("%d-%s%s", now.UnixNano(), base, ext))
}
